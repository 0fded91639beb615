package resolver

import (
	"context"
	"encoding/json"
)

// PostFunc transforms a resolved value before serialization, e.g. combining
// a base address with a multiplexing suffix.
type PostFunc func(value string) string

// Field returns a PostFunc projecting one field out of a value stored as a
// JSON object. Non-object values pass through unchanged.
func Field(name string) PostFunc {
	return func(value string) string {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(value), &obj); err != nil {
			return value
		}
		raw, ok := obj[name]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	}
}

// Ref is an opaque handle to a value pending batch resolution. It carries
// no serialization of its own; a value can only be obtained through the
// Resolved result of the owning batch.
type Ref struct {
	idx   int
	valid bool
}

type entry struct {
	id   int64
	post PostFunc
}

// Batch accumulates ids referenced while assembling one response, then
// resolves them all in a single id→value lookup. Register every Ref before
// calling Resolve; Resolve must be called exactly once.
type Batch struct {
	resolver *Resolver
	network  string
	entries  []entry
	resolved bool
}

// NewBatch creates a Batch bound to one resolver and network.
func NewBatch(r *Resolver, network string) *Batch {
	return &Batch{resolver: r, network: network}
}

// Ref registers an id for the batched lookup and returns its handle.
// Registering after Resolve is a programmer error.
func (b *Batch) Ref(id int64, post PostFunc) Ref {
	if b.resolved {
		panic("resolver: Ref registered after batch resolution")
	}
	b.entries = append(b.entries, entry{id: id, post: post})
	return Ref{idx: len(b.entries) - 1, valid: true}
}

// Resolve performs the single batched lookup for every registered id.
func (b *Batch) Resolve(ctx context.Context) (*Resolved, error) {
	if b.resolved {
		return nil, Error.New("batch resolved twice")
	}
	b.resolved = true
	batchSize.WithLabelValues(b.resolver.kind).Observe(float64(len(b.entries)))
	if len(b.entries) == 0 {
		return &Resolved{}, nil
	}
	ids := make([]int64, len(b.entries))
	for i, e := range b.entries {
		ids[i] = e.id
	}
	values, err := b.resolver.ResolveValues(ctx, b.network, ids)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(b.entries))
	for i, e := range b.entries {
		if values[i] == "" {
			continue
		}
		v := values[i]
		if e.post != nil {
			v = e.post(v)
		}
		out[i] = v
	}
	return &Resolved{values: out}, nil
}

// Resolved holds the materialized values of one batch. It is the only way
// to turn a Ref into a serializable value.
type Resolved struct {
	values []any
}

// Value returns the materialized value for a handle, or nil when the id had
// no mapping or the handle is zero.
func (r *Resolved) Value(ref Ref) any {
	if r == nil || !ref.valid || ref.idx >= len(r.values) {
		return nil
	}
	return r.values[ref.idx]
}
