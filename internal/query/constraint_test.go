package query

import (
	"testing"
	"time"
)

func TestConstraintTightensOnly(t *testing.T) {
	c := &Constraint[int64]{}
	c.AddBottom(10)
	c.AddBottom(5) // looser, ignored
	c.AddBottom(20)
	c.AddTop(100)
	c.AddTop(200) // looser, ignored
	c.AddTop(50)

	from, ok := c.Bottom()
	if !ok || from != 20 {
		t.Fatalf("bottom = %d (%v), want 20", from, ok)
	}
	to, ok := c.Top()
	if !ok || to != 50 {
		t.Fatalf("top = %d (%v), want 50", to, ok)
	}
	if c.Unfeasible() {
		t.Fatal("window [20,50] reported unfeasible")
	}
}

func TestConstraintUnfeasible(t *testing.T) {
	c := &Constraint[int64]{}
	if c.Unfeasible() {
		t.Fatal("unbounded constraint reported unfeasible")
	}
	c.AddBottom(100)
	if c.Unfeasible() {
		t.Fatal("half-bounded constraint reported unfeasible")
	}
	c.AddTop(99)
	if !c.Unfeasible() {
		t.Fatal("inverted window not reported unfeasible")
	}
}

func TestConstraintExclusiveBoundary(t *testing.T) {
	c := &Constraint[uint64]{}
	c.AddBottomExclusive(42)
	c.AddTop(42)
	if !c.Unfeasible() {
		t.Fatal("empty exclusive window (42,42] not reported unfeasible")
	}

	c2 := &Constraint[uint64]{}
	c2.AddBottom(42)
	c2.AddTop(42)
	if c2.Unfeasible() {
		t.Fatal("single-point inclusive window reported unfeasible")
	}
}

func TestConstraintExclusiveRetainedOnEqualBound(t *testing.T) {
	c := &Constraint[uint64]{}
	c.AddBottom(42)
	c.AddBottomExclusive(42)
	from, _ := c.Bottom()
	if from != 42 {
		t.Fatalf("bottom = %d, want 42", from)
	}
	c.AddTop(42)
	if !c.Unfeasible() {
		t.Fatal("exclusive flag lost when re-adding equal bound")
	}
}

func TestNewTimeConstraintDefaults(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	c := NewTimeConstraint(now)
	from, ok := c.Bottom()
	if !ok || from != 0 {
		t.Fatalf("bottom = %d, want 0", from)
	}
	to, ok := c.Top()
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Unix() - 1
	if !ok || to != want {
		t.Fatalf("top = %d, want %d", to, want)
	}
}
