// Package storage defines the opaque contracts the query layer uses to talk
// to the two backing stores: the primary document store (current state and
// archived raw entities) and the secondary search backend (per-year indices
// of historical entries). Both are addressed by shard name and queried with
// a generic filter/sort/limit/skip request.
package storage

import (
	"context"

	"github.com/zeebo/errs"
)

// Error wraps failures of the backing stores. The query layer propagates
// these unchanged; an empty page is never synthesized from a failed call.
var Error = errs.Class("storage")

// Order is a sort direction.
type Order int

const (
	Asc Order = iota
	Desc
)

// Op is a comparison operator of a filter condition.
type Op int

const (
	Eq Op = iota
	In
	// Overlaps matches when an array field shares at least one element
	// with the supplied list.
	Overlaps
	Gt
	Gte
	Lt
	Lte
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Query is the generic filter/sort/limit/skip request shape understood by
// every shard regardless of the backing product.
type Query struct {
	Conditions []Condition
	SortField  string
	SortOrder  Order
	Limit      int
	Skip       int
}

// And appends a condition and returns the query for chaining.
func (q Query) And(field string, op Op, value any) Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: value})
	return q
}

// Row is one stored document keyed by field name.
type Row map[string]any

// DocumentStore is the primary store. Shards are collections addressed by
// name; the catalog of time-bounded shards is listed separately.
type DocumentStore interface {
	// Find returns up to q.Limit rows from the named collection.
	Find(ctx context.Context, collection string, q Query) ([]Row, error)

	// FindOne returns the first matching row or ErrNoRow.
	FindOne(ctx context.Context, collection string, q Query) (Row, error)
}

// SearchIndex is the secondary search backend. A search returns only the
// composite entity ids of matching entries; bodies are hydrated from the
// document store afterwards.
type SearchIndex interface {
	Search(ctx context.Context, index string, q Query) ([]uint64, error)
}

// Shard is one catalog entry: the inclusive lower boundary key of the shard
// (an epoch timestamp) and the physical collection name.
type Shard struct {
	Key  int64
	Name string
}

// ShardCatalog lists the time-bounded shards of a logical network, sorted
// ascending by boundary key.
type ShardCatalog interface {
	ListShards(ctx context.Context, network string) ([]Shard, error)
}

// ErrNoRow is returned by FindOne when nothing matches.
var ErrNoRow = Error.New("no matching row")
