// Package shard maintains the per-network map from timestamps to the
// physical shards (document-store collections or search indices) holding
// them, and enumerates shards in time order for a query window.
package shard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lumenview/explorer-go/internal/storage"
)

// Error wraps shard directory failures.
var Error = errs.Class("shard directory")

// ErrNoShard is returned when a key falls before the first shard boundary.
var ErrNoShard = errs.New("no shard covers the requested key")

// DefaultRefreshInterval bounds how often the shard catalog is re-scanned.
const DefaultRefreshInterval = 10 * time.Second

// Directory maps keys to document-store shards. The catalog is refreshed
// lazily, at most once per refresh interval, and concurrent refreshes for
// the same network coalesce into a single catalog scan.
type Directory struct {
	catalog storage.ShardCatalog
	refresh time.Duration
	log     *zap.Logger
	now     func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	networks map[string]*snapshot
}

type snapshot struct {
	keys    []int64
	names   []string
	fetched time.Time
}

// NewDirectory creates a Directory over the given catalog.
func NewDirectory(catalog storage.ShardCatalog, refresh time.Duration, log *zap.Logger) *Directory {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return &Directory{
		catalog:  catalog,
		refresh:  refresh,
		log:      log,
		now:      time.Now,
		networks: make(map[string]*snapshot),
	}
}

func (d *Directory) snapshot(ctx context.Context, network string) (*snapshot, error) {
	d.mu.RLock()
	snap := d.networks[network]
	d.mu.RUnlock()
	if snap != nil && d.now().Sub(snap.fetched) < d.refresh {
		return snap, nil
	}

	v, err, _ := d.group.Do(network, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed while this one waited for the flight slot.
		d.mu.RLock()
		cur := d.networks[network]
		d.mu.RUnlock()
		if cur != nil && d.now().Sub(cur.fetched) < d.refresh {
			return cur, nil
		}

		shards, err := d.catalog.ListShards(ctx, network)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		sort.Slice(shards, func(i, j int) bool { return shards[i].Key < shards[j].Key })
		fresh := &snapshot{fetched: d.now()}
		for _, sh := range shards {
			if n := len(fresh.keys); n > 0 && fresh.keys[n-1] == sh.Key {
				continue
			}
			fresh.keys = append(fresh.keys, sh.Key)
			fresh.names = append(fresh.names, sh.Name)
		}
		d.mu.Lock()
		d.networks[network] = fresh
		d.mu.Unlock()
		d.log.Debug("shard catalog refreshed",
			zap.String("network", network),
			zap.Int("shards", len(fresh.keys)))
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

// floor returns the index of the greatest boundary key <= key, or -1 when
// the key precedes every boundary.
func floor(keys []int64, key int64) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] > key }) - 1
}

// ResolveShard returns the name of the shard covering the given key.
func (d *Directory) ResolveShard(ctx context.Context, network string, key int64) (string, error) {
	snap, err := d.snapshot(ctx, network)
	if err != nil {
		return "", err
	}
	i := floor(snap.keys, key)
	if i < 0 {
		return "", ErrNoShard
	}
	return snap.names[i], nil
}

// IterateShards returns an iterator over the names of the shards that may
// hold keys in [from, to], walking in the given direction. The iterator is
// lazy, finite and not restartable.
func (d *Directory) IterateShards(ctx context.Context, network string, from, to int64, order storage.Order) (*Iterator, error) {
	snap, err := d.snapshot(ctx, network)
	if err != nil {
		return nil, err
	}
	if len(snap.keys) == 0 || to < from || to < snap.keys[0] {
		return emptyIterator(), nil
	}
	lo := floor(snap.keys, from)
	if lo < 0 {
		lo = 0
	}
	hi := floor(snap.keys, to)
	return newIterator(snap.names, lo, hi, order), nil
}

// Iterator walks shard names from the lower shard to the upper one (or the
// reverse). Next consumes; a drained iterator cannot be restarted.
type Iterator struct {
	names    []string
	pos, end int
	step     int
	done     bool
}

func newIterator(names []string, lo, hi int, order storage.Order) *Iterator {
	if order == storage.Desc {
		return &Iterator{names: names, pos: hi, end: lo, step: -1}
	}
	return &Iterator{names: names, pos: lo, end: hi, step: 1}
}

func emptyIterator() *Iterator {
	return &Iterator{done: true}
}

// Next returns the next shard name, or false when the range is exhausted.
func (it *Iterator) Next() (string, bool) {
	if it.done {
		return "", false
	}
	name := it.names[it.pos]
	if it.pos == it.end {
		it.done = true
	} else {
		it.pos += it.step
	}
	return name, true
}
