package shard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lumenview/explorer-go/internal/storage"
)

type fakeCatalog struct {
	mu     sync.Mutex
	shards []storage.Shard
	calls  int
}

func (c *fakeCatalog) ListShards(ctx context.Context, network string) ([]storage.Shard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.shards, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{shards: []storage.Shard{
		{Key: 10, Name: "ops_10"},
		{Key: 20, Name: "ops_20"},
		{Key: 30, Name: "ops_30"},
	}}
}

func TestResolveShardFloorSearch(t *testing.T) {
	d := NewDirectory(testCatalog(), time.Minute, zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		key  int64
		want string
	}{
		{10, "ops_10"},
		{25, "ops_20"},
		{30, "ops_30"},
		{35, "ops_30"},
	}
	for _, c := range cases {
		name, err := d.ResolveShard(ctx, "public", c.key)
		if err != nil {
			t.Fatalf("resolve %d: %v", c.key, err)
		}
		if name != c.want {
			t.Fatalf("resolve %d = %q, want %q", c.key, name, c.want)
		}
	}

	if _, err := d.ResolveShard(ctx, "public", 5); !errors.Is(err, ErrNoShard) {
		t.Fatalf("key before first boundary: got %v, want ErrNoShard", err)
	}
}

func TestIterateShardsAscending(t *testing.T) {
	d := NewDirectory(testCatalog(), time.Minute, zap.NewNop())
	it, err := d.IterateShards(context.Background(), "public", 15, 35, storage.Asc)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for {
		name, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, name)
	}
	want := []string{"ops_10", "ops_20", "ops_30"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIterateShardsDescending(t *testing.T) {
	d := NewDirectory(testCatalog(), time.Minute, zap.NewNop())
	it, err := d.IterateShards(context.Background(), "public", 12, 22, storage.Desc)
	if err != nil {
		t.Fatal(err)
	}
	first, ok := it.Next()
	if !ok || first != "ops_20" {
		t.Fatalf("first = %q (%v), want ops_20", first, ok)
	}
	second, ok := it.Next()
	if !ok || second != "ops_10" {
		t.Fatalf("second = %q (%v), want ops_10", second, ok)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("iterator not exhausted after range")
	}
	// Not restartable.
	if _, ok := it.Next(); ok {
		t.Fatal("drained iterator restarted")
	}
}

func TestIterateShardsEmptyWindow(t *testing.T) {
	d := NewDirectory(testCatalog(), time.Minute, zap.NewNop())
	it, err := d.IterateShards(context.Background(), "public", 1, 5, storage.Asc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("window before first boundary produced shards")
	}

	it, err = d.IterateShards(context.Background(), "public", 30, 20, storage.Asc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("inverted window produced shards")
	}
}

func TestCatalogRefreshMemoized(t *testing.T) {
	cat := testCatalog()
	d := NewDirectory(cat, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := d.ResolveShard(ctx, "public", 25); err != nil {
			t.Fatal(err)
		}
	}
	if cat.calls != 1 {
		t.Fatalf("catalog scanned %d times within refresh interval, want 1", cat.calls)
	}

	// An expired snapshot triggers exactly one more scan.
	d.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := d.ResolveShard(ctx, "public", 25); err != nil {
		t.Fatal(err)
	}
	if cat.calls != 2 {
		t.Fatalf("catalog scanned %d times after expiry, want 2", cat.calls)
	}
}

func TestYearlyDirectory(t *testing.T) {
	y := NewYearlyDirectory("payments", 2021)
	y.now = func() time.Time { return time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC) }

	ts2023 := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC).Unix()
	name, ok := y.ResolveIndex("public", ts2023)
	if !ok || name != "payments-public-2023" {
		t.Fatalf("resolve 2023 = %q (%v)", name, ok)
	}

	ts2019 := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC).Unix()
	if _, ok := y.ResolveIndex("public", ts2019); ok {
		t.Fatal("timestamp before first indexed year resolved to an index")
	}

	from := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	it := y.IterateIndexes("public", from, to, storage.Desc)
	var got []string
	for {
		n, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, n)
	}
	want := []string{"payments-public-2024", "payments-public-2023", "payments-public-2022", "payments-public-2021"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
