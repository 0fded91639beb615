package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSource struct {
	mu      sync.Mutex
	byValue map[string]int64
	calls   [][]string
	idCalls [][]int64
}

func newFakeSource(mapping map[string]int64) *fakeSource {
	return &fakeSource{byValue: mapping}
}

func (s *fakeSource) SearchByValue(ctx context.Context, network string, values []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, values)
	found := make(map[string]int64)
	for _, v := range values {
		if id, ok := s.byValue[v]; ok {
			found[v] = id
		}
	}
	return found, nil
}

func (s *fakeSource) SearchByID(ctx context.Context, network string, ids []int64) (map[int64]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idCalls = append(s.idCalls, ids)
	found := make(map[int64]string)
	for _, id := range ids {
		for v, i := range s.byValue {
			if i == id {
				found[id] = v
			}
		}
	}
	return found, nil
}

func TestResolveIDCachesFetch(t *testing.T) {
	src := newFakeSource(map[string]int64{"GA111": 1})
	r := New("account", src, 16)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, ok, err := r.ResolveID(ctx, "public", "GA111")
		if err != nil || !ok || id != 1 {
			t.Fatalf("resolve: id=%d ok=%v err=%v", id, ok, err)
		}
	}
	if len(src.calls) != 1 {
		t.Fatalf("source fetched %d times, want 1", len(src.calls))
	}

	if _, ok, err := r.ResolveID(ctx, "public", "GAXXX"); err != nil || ok {
		t.Fatalf("unknown value: ok=%v err=%v", ok, err)
	}
}

func TestResolveIDsDeduplicatesMisses(t *testing.T) {
	src := newFakeSource(map[string]int64{"a": 1, "b": 2, "c": 3})
	r := New("asset", src, 16)
	ctx := context.Background()

	// Warm the cache with "a".
	if _, _, err := r.ResolveID(ctx, "public", "a"); err != nil {
		t.Fatal(err)
	}

	ids, err := r.ResolveIDs(ctx, "public", []string{"a", "b", "b", "missing", "c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 2, 0, 3, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	if len(src.calls) != 2 {
		t.Fatalf("source fetched %d times, want 2", len(src.calls))
	}
	// The second fetch carries only the deduplicated uncached values.
	batch := src.calls[1]
	if len(batch) != 3 || batch[0] != "b" || batch[1] != "missing" || batch[2] != "c" {
		t.Fatalf("miss batch = %v, want [b missing c]", batch)
	}
}

func TestResolveValuesReverse(t *testing.T) {
	src := newFakeSource(map[string]int64{"USD-GAISSUER-1": 7})
	r := New("asset", src, 16)
	ctx := context.Background()

	values, err := r.ResolveValues(ctx, "public", []int64{7, 999, 7})
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != "USD-GAISSUER-1" || values[1] != "" || values[2] != "USD-GAISSUER-1" {
		t.Fatalf("values = %v", values)
	}
	if len(src.idCalls) != 1 {
		t.Fatalf("source fetched %d times, want 1", len(src.idCalls))
	}
}

func TestMemoReverseLookupUnsupported(t *testing.T) {
	src := NewMemoSource(nil)
	if _, err := src.SearchByValue(context.Background(), "public", []string{"hello"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v, want ErrUnsupported", err)
	}
}

func TestBatchSingleFetch(t *testing.T) {
	src := newFakeSource(map[string]int64{"GA111": 1, "GA222": 2})
	r := New("account", src, 16)
	b := NewBatch(r, "public")

	ref1 := b.Ref(1, nil)
	ref2 := b.Ref(2, func(v string) string { return v + "-SUFFIX" })
	refMissing := b.Ref(404, nil)
	refDup := b.Ref(1, nil)

	res, err := b.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Value(ref1); got != "GA111" {
		t.Fatalf("ref1 = %v", got)
	}
	if got := res.Value(ref2); got != "GA222-SUFFIX" {
		t.Fatalf("ref2 = %v", got)
	}
	if got := res.Value(refMissing); got != nil {
		t.Fatalf("missing ref = %v, want nil", got)
	}
	if got := res.Value(refDup); got != "GA111" {
		t.Fatalf("dup ref = %v", got)
	}
	if len(src.idCalls) != 1 {
		t.Fatalf("source fetched %d times, want 1", len(src.idCalls))
	}

	if _, err := b.Resolve(context.Background()); err == nil {
		t.Fatal("second Resolve did not fail")
	}
}

func TestBatchRefAfterResolvePanics(t *testing.T) {
	r := New("account", newFakeSource(nil), 16)
	b := NewBatch(r, "public")
	if _, err := b.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for Ref after Resolve")
		}
	}()
	b.Ref(1, nil)
}

func TestFieldProjection(t *testing.T) {
	post := Field("domain")
	if got := post(`{"domain":"example.com","name":"USD"}`); got != "example.com" {
		t.Fatalf("projection = %q", got)
	}
	if got := post("plain-value"); got != "plain-value" {
		t.Fatalf("non-object value = %q", got)
	}
}
