// Package resolver translates external string identifiers (addresses, asset
// names, pool hashes, memo values) to the compact integer ids used across
// stored entities, and back. One generic bidirectional cache serves all four
// entity kinds; each kind differs only in its injected batch-lookup source.
package resolver

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/errs"
)

// Error wraps resolver failures.
var Error = errs.Class("resolver")

// ErrUnsupported is returned by sources that cannot serve a lookup
// direction (memo values are not indexed for reverse search).
var ErrUnsupported = errs.New("lookup direction unsupported")

// Source is the storage-specific batch lookup capability of one entity
// kind. Absent values are simply missing from the result map; absence is
// not an error for a batch operation.
type Source interface {
	SearchByValue(ctx context.Context, network string, values []string) (map[string]int64, error)
	SearchByID(ctx context.Context, network string, ids []int64) (map[int64]string, error)
}

// Resolver is the shared cache/fetch algorithm. Each id↔value mapping is
// immutable for the lifetime of the entity, so cached entries are never
// invalidated; they only leave by LRU eviction.
type Resolver struct {
	kind     string
	source   Source
	capacity int

	mu       sync.RWMutex
	networks map[string]*caches
}

type caches struct {
	byValue *lru.Cache[string, int64]
	byID    *lru.Cache[int64, string]
}

// New creates a Resolver for one entity kind with per-network caches of the
// given capacity.
func New(kind string, source Source, capacity int) *Resolver {
	return &Resolver{
		kind:     kind,
		source:   source,
		capacity: capacity,
		networks: make(map[string]*caches),
	}
}

func (r *Resolver) caches(network string) *caches {
	r.mu.RLock()
	c := r.networks[network]
	r.mu.RUnlock()
	if c != nil {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c = r.networks[network]; c != nil {
		return c
	}
	byValue, _ := lru.New[string, int64](r.capacity)
	byID, _ := lru.New[int64, string](r.capacity)
	c = &caches{byValue: byValue, byID: byID}
	r.networks[network] = c
	return c
}

func (c *caches) add(value string, id int64) {
	c.byValue.Add(value, id)
	c.byID.Add(id, value)
}

// ResolveID translates a single value to its id. The second return is false
// when the value is unknown to the network.
func (r *Resolver) ResolveID(ctx context.Context, network, value string) (int64, bool, error) {
	c := r.caches(network)
	if id, ok := c.byValue.Get(value); ok {
		return id, true, nil
	}
	found, err := r.source.SearchByValue(ctx, network, []string{value})
	if err != nil {
		return 0, false, Error.Wrap(err)
	}
	id, ok := found[value]
	if ok {
		c.add(value, id)
	}
	return id, ok, nil
}

// ResolveIDs translates a batch of values, preserving input order including
// duplicates. Values without a mapping yield 0. Cache misses are
// deduplicated into a single batch fetch.
func (r *Resolver) ResolveIDs(ctx context.Context, network string, values []string) ([]int64, error) {
	c := r.caches(network)
	out := make([]int64, len(values))
	var misses []string
	seen := make(map[string]struct{})
	for i, v := range values {
		if id, ok := c.byValue.Get(v); ok {
			out[i] = id
			continue
		}
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			misses = append(misses, v)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}
	found, err := r.source.SearchByValue(ctx, network, misses)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	for v, id := range found {
		c.add(v, id)
	}
	for i, v := range values {
		if out[i] == 0 {
			out[i] = found[v]
		}
	}
	return out, nil
}

// ResolveValue translates a single id back to its value.
func (r *Resolver) ResolveValue(ctx context.Context, network string, id int64) (string, bool, error) {
	c := r.caches(network)
	if v, ok := c.byID.Get(id); ok {
		return v, true, nil
	}
	found, err := r.source.SearchByID(ctx, network, []int64{id})
	if err != nil {
		return "", false, Error.Wrap(err)
	}
	v, ok := found[id]
	if ok {
		c.add(v, id)
	}
	return v, ok, nil
}

// ResolveValues translates a batch of ids, preserving input order. Ids
// without a mapping yield the empty string.
func (r *Resolver) ResolveValues(ctx context.Context, network string, ids []int64) ([]string, error) {
	c := r.caches(network)
	out := make([]string, len(ids))
	resolved := make([]bool, len(ids))
	var misses []int64
	seen := make(map[int64]struct{})
	for i, id := range ids {
		if v, ok := c.byID.Get(id); ok {
			out[i] = v
			resolved[i] = true
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}
	found, err := r.source.SearchByID(ctx, network, misses)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	for id, v := range found {
		c.add(v, id)
	}
	for i, id := range ids {
		if !resolved[i] {
			out[i] = found[id]
		}
	}
	return out, nil
}

// Cache capacities per entity kind. Accounts and memos churn far more than
// assets and pools.
const (
	AccountCacheSize = 50000
	MemoCacheSize    = 50000
	AssetCacheSize   = 8000
	PoolCacheSize    = 8000
)

// Set bundles the four concrete resolvers a query needs.
type Set struct {
	Accounts *Resolver
	Assets   *Resolver
	Pools    *Resolver
	Memos    *Resolver
}

// NewSet wires the four resolvers over their document-store sources.
func NewSet(accounts, assets, pools, memos Source) *Set {
	return &Set{
		Accounts: New("account", accounts, AccountCacheSize),
		Assets:   New("asset", assets, AssetCacheSize),
		Pools:    New("pool", pools, PoolCacheSize),
		Memos:    New("memo", memos, MemoCacheSize),
	}
}
