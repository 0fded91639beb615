package query

import (
	"cmp"
	"time"

	"github.com/lumenview/explorer-go/internal/storage"
)

// Constraint accumulates lower and upper bounds from independent filter
// steps. Bounds only ever tighten: the lower bound is the max of everything
// pushed from below, the upper bound the min of everything pushed from above.
// A bound bordering an already-seen cursor is exclusive.
type Constraint[T cmp.Ordered] struct {
	from, to         T
	hasFrom, hasTo   bool
	exclFrom, exclTo bool
}

// AddBottom raises the lower bound to v if v is tighter.
func (c *Constraint[T]) AddBottom(v T) {
	if !c.hasFrom || v > c.from {
		c.from, c.hasFrom, c.exclFrom = v, true, false
	}
}

// AddBottomExclusive raises the lower bound to v, excluding v itself.
func (c *Constraint[T]) AddBottomExclusive(v T) {
	if !c.hasFrom || v > c.from {
		c.from, c.hasFrom, c.exclFrom = v, true, true
	} else if v == c.from {
		c.exclFrom = true
	}
}

// AddTop lowers the upper bound to v if v is tighter.
func (c *Constraint[T]) AddTop(v T) {
	if !c.hasTo || v < c.to {
		c.to, c.hasTo, c.exclTo = v, true, false
	}
}

// AddTopExclusive lowers the upper bound to v, excluding v itself.
func (c *Constraint[T]) AddTopExclusive(v T) {
	if !c.hasTo || v < c.to {
		c.to, c.hasTo, c.exclTo = v, true, true
	} else if v == c.to {
		c.exclTo = true
	}
}

// Unfeasible reports whether the accumulated window provably contains no
// value. Only meaningful once both bounds are set.
func (c *Constraint[T]) Unfeasible() bool {
	if !c.hasFrom || !c.hasTo {
		return false
	}
	if c.to < c.from {
		return true
	}
	return c.to == c.from && (c.exclFrom || c.exclTo)
}

// Bottom returns the lower bound, if any.
func (c *Constraint[T]) Bottom() (T, bool) { return c.from, c.hasFrom }

// Top returns the upper bound, if any.
func (c *Constraint[T]) Top() (T, bool) { return c.to, c.hasTo }

// Apply renders the constraint as conditions on the given field.
func (c *Constraint[T]) Apply(q storage.Query, field string) storage.Query {
	if c.hasFrom {
		op := storage.Gte
		if c.exclFrom {
			op = storage.Gt
		}
		q = q.And(field, op, c.from)
	}
	if c.hasTo {
		op := storage.Lte
		if c.exclTo {
			op = storage.Lt
		}
		q = q.And(field, op, c.to)
	}
	return q
}

// NewTimeConstraint creates the per-query timestamp constraint, bounded
// below by the epoch and above by the end of the current year until filter
// steps tighten it.
func NewTimeConstraint(now time.Time) *Constraint[int64] {
	c := &Constraint[int64]{}
	c.AddBottom(0)
	yearEnd := time.Date(now.UTC().Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	c.AddTop(yearEnd.Unix() - 1)
	return c
}

// NewIDConstraint creates the per-query composite id constraint, unbounded
// by default.
func NewIDConstraint() *Constraint[uint64] {
	return &Constraint[uint64]{}
}
