package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/storage"
)

// compiled is the value folded through the filter steps. A step returns an
// updated copy or flips the infeasible marker; it never mutates storage
// state. Once infeasible, storage-touching steps are skipped while the
// remaining pure checks still run, so the client gets complete validation
// feedback.
type compiled struct {
	params     *Params
	time       *Constraint[int64]
	ids        *Constraint[uint64]
	conditions []storage.Condition
	infeasible bool
}

func (c compiled) and(field string, op storage.Op, value any) compiled {
	c.conditions = append(c.conditions[:len(c.conditions):len(c.conditions)],
		storage.Condition{Field: field, Op: op, Value: value})
	return c
}

func (c compiled) unfeasible() bool {
	return c.infeasible || c.time.Unfeasible() || c.ids.Unfeasible()
}

// step transforms the compiled query. Pure steps run first and may raise
// validation errors; resolving steps run after and may only tighten bounds
// or mark the query infeasible.
type step func(ctx context.Context, c compiled) (compiled, error)

// LedgerClock reports the recorded close timestamp of a ledger sequence,
// used to translate a cursor into a time bound. The second return is false
// when the ledger has no recorded close time; an implementation must never
// answer with an estimate, since the time bound is applied as a hard row
// filter and an estimate short of the real close time would drop the
// remainder of a descending walk.
type LedgerClock interface {
	ClosedAt(ctx context.Context, network string, seq uint32) (int64, bool, error)
}

// StoreClock reads close times from the per-network ledgers collection.
type StoreClock struct {
	store storage.DocumentStore
}

// NewStoreClock creates a StoreClock.
func NewStoreClock(store storage.DocumentStore) *StoreClock {
	return &StoreClock{store: store}
}

func (c *StoreClock) ClosedAt(ctx context.Context, network string, seq uint32) (int64, bool, error) {
	row, err := c.store.FindOne(ctx, fmt.Sprintf("%s_ledgers", network), storage.Query{
		Conditions: []storage.Condition{{Field: "seq", Op: storage.Eq, Value: int64(seq)}},
	})
	if err != nil {
		if errors.Is(err, storage.ErrNoRow) {
			return 0, false, nil
		}
		return 0, false, err
	}
	ts, ok := asInt64(row["ts"])
	return ts, ok, nil
}

// applyCursor translates the cursor into an id bound exclusive on the
// already-seen side. The matching time bound needs a storage lookup and is
// contributed by resolveCursorTime instead.
func applyCursor(ctx context.Context, c compiled) (compiled, error) {
	if c.params.CursorID == 0 {
		return c, nil
	}
	if c.params.Order == storage.Asc {
		c.ids.AddBottomExclusive(c.params.CursorID)
	} else {
		c.ids.AddTopExclusive(c.params.CursorID)
	}
	return c, nil
}

// resolveCursorTime tightens the time constraint with the recorded close
// time of the cursor's ledger. Rows ordered past the cursor belong to the
// same or an earlier ledger when descending (same or later when ascending),
// so the close time is an inclusive bound in either direction. An
// unrecorded ledger contributes nothing; the id constraint alone paginates.
func (e *Engine) resolveCursorTime(ctx context.Context, p *Params) (delta, error) {
	seq := ledger.DecodeID(p.CursorID).LedgerSeq
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	ts, ok, err := e.clock.ClosedAt(fetchCtx, p.Network, seq)
	if err != nil || !ok {
		return delta{}, err
	}
	if p.Order == storage.Asc {
		return delta{bottoms: []int64{ts}}, nil
	}
	return delta{tops: []int64{ts}}, nil
}

func applyTimeWindow(ctx context.Context, c compiled) (compiled, error) {
	if c.params.From != nil {
		c.time.AddBottom(*c.params.From)
	}
	if c.params.To != nil {
		c.time.AddTop(*c.params.To)
	}
	return c, nil
}

func applyTypes(ctx context.Context, c compiled) (compiled, error) {
	switch len(c.params.Types) {
	case 0:
		return c, nil
	case 1:
		return c.and("type", storage.Eq, c.params.Types[0]), nil
	default:
		return c.and("type", storage.In, c.params.Types), nil
	}
}

// applyMemo filters by raw memo value. Memos are not content-indexed for
// reverse id lookup, so the values go to the backend as-is.
func applyMemo(ctx context.Context, c compiled) (compiled, error) {
	switch len(c.params.Memos) {
	case 0:
		return c, nil
	case 1:
		return c.and("memo", storage.Eq, c.params.Memos[0]), nil
	default:
		return c.and("memo", storage.In, c.params.Memos), nil
	}
}

func applyAmount(ctx context.Context, c compiled) (compiled, error) {
	if !c.params.HasAmount {
		return c, nil
	}
	return c.and("amount", storage.Eq, c.params.Amount), nil
}

// delta is the outcome of one concurrent resolving step, merged into the
// compiled query after the joint wait.
type delta struct {
	conditions []storage.Condition
	bottoms    []int64
	tops       []int64
	infeasible bool
}

func (c compiled) merge(d delta) compiled {
	for _, cond := range d.conditions {
		c = c.and(cond.Field, cond.Op, cond.Value)
	}
	for _, b := range d.bottoms {
		c.time.AddBottom(b)
	}
	for _, t := range d.tops {
		c.time.AddTop(t)
	}
	c.infeasible = c.infeasible || d.infeasible
	return c
}

// compile folds the filter steps over fresh constraints. Pure steps run
// sequentially; entity-resolving steps are issued concurrently and awaited
// jointly, since none depends on another's result.
func (e *Engine) compile(ctx context.Context, p *Params) (compiled, error) {
	c := compiled{
		params: p,
		time:   NewTimeConstraint(e.now()),
		ids:    NewIDConstraint(),
	}

	pure := []step{applyCursor, applyTimeWindow, applyTypes, applyMemo, applyAmount}
	for _, s := range pure {
		var err error
		if c, err = s(ctx, c); err != nil {
			return c, err
		}
	}
	if c.unfeasible() {
		// Identity filters would only tighten further; skip their fetches.
		c.infeasible = true
		return c, nil
	}

	resolving := []func(ctx context.Context, p *Params) (delta, error){}
	if p.CursorID != 0 && e.clock != nil {
		resolving = append(resolving, e.resolveCursorTime)
	}
	if len(p.Accounts) > 0 {
		resolving = append(resolving, e.resolveAccountsFilter)
	}
	if len(p.Assets) > 0 {
		resolving = append(resolving, e.resolveAssetsFilter)
	}
	if p.Pool != "" {
		resolving = append(resolving, e.resolvePoolFilter)
	}
	if p.Offer != 0 {
		resolving = append(resolving, e.resolveOfferFilter)
	}
	if len(resolving) == 0 {
		return c, nil
	}

	deltas := make([]delta, len(resolving))
	g, gctx := errgroup.WithContext(ctx)
	for i, resolve := range resolving {
		g.Go(func() error {
			d, err := resolve(gctx, p)
			if err != nil {
				return err
			}
			deltas[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c, err
	}
	for _, d := range deltas {
		c = c.merge(d)
	}
	return c, nil
}

// shardContext bounds one backend round-trip.
func (e *Engine) shardContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.shardTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
