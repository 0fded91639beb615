package query

import (
	"context"
	"fmt"

	"github.com/lumenview/explorer-go/internal/storage"
)

// The resolving filter steps translate external identifiers to internal
// ids and push the matched entities' lifetime bounds into the time
// constraint, so an identity filter automatically prunes shards outside
// the entity's lifetime. A fully-empty resolution marks the query
// infeasible; that is a valid query matching nothing, not an error.

func (e *Engine) resolveAccountsFilter(ctx context.Context, p *Params) (delta, error) {
	ids, err := e.resolvers.Accounts.ResolveIDs(ctx, p.Network, p.Accounts)
	if err != nil {
		return delta{}, err
	}
	found := nonZero(ids)
	if len(found) == 0 {
		return delta{infeasible: true}, nil
	}
	d := delta{conditions: []storage.Condition{{Field: "account", Op: storage.Overlaps, Value: found}}}
	return e.withLifetimeBounds(ctx, d, p.Network, "accounts", found)
}

func (e *Engine) resolveAssetsFilter(ctx context.Context, p *Params) (delta, error) {
	ids, err := e.resolvers.Assets.ResolveIDs(ctx, p.Network, p.Assets)
	if err != nil {
		return delta{}, err
	}
	found := nonZero(ids)
	if len(found) == 0 {
		return delta{infeasible: true}, nil
	}
	d := delta{conditions: []storage.Condition{{Field: "asset", Op: storage.Overlaps, Value: found}}}
	return e.withLifetimeBounds(ctx, d, p.Network, "assets", found)
}

func (e *Engine) resolvePoolFilter(ctx context.Context, p *Params) (delta, error) {
	id, ok, err := e.resolvers.Pools.ResolveID(ctx, p.Network, p.Pool)
	if err != nil {
		return delta{}, err
	}
	if !ok {
		return delta{infeasible: true}, nil
	}
	d := delta{conditions: []storage.Condition{{Field: "pool", Op: storage.Eq, Value: id}}}
	return e.withLifetimeBounds(ctx, d, p.Network, "pools", []int64{id})
}

// resolveOfferFilter needs no id translation (offers are addressed by their
// numeric id) but still contributes the offer's lifetime bounds.
func (e *Engine) resolveOfferFilter(ctx context.Context, p *Params) (delta, error) {
	d := delta{conditions: []storage.Condition{{Field: "offer", Op: storage.Eq, Value: int64(p.Offer)}}}
	return e.withLifetimeBounds(ctx, d, p.Network, "offers", []int64{int64(p.Offer)})
}

// withLifetimeBounds widens the delta with the union of the entities'
// [created, updated] windows: nothing involving them can exist outside it.
func (e *Engine) withLifetimeBounds(ctx context.Context, d delta, network, collection string, ids []int64) (delta, error) {
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	rows, err := e.store.Find(fetchCtx, fmt.Sprintf("%s_%s", network, collection), storage.Query{
		Conditions: []storage.Condition{{Field: "id", Op: storage.In, Value: ids}},
		Limit:      len(ids),
	})
	if err != nil {
		return delta{}, err
	}
	if len(rows) == 0 {
		return d, nil
	}
	var minCreated, maxUpdated int64
	first := true
	for _, row := range rows {
		created, okC := asInt64(row["created"])
		updated, okU := asInt64(row["updated"])
		if !okC || !okU {
			continue
		}
		if first || created < minCreated {
			minCreated = created
		}
		if first || updated > maxUpdated {
			maxUpdated = updated
		}
		first = false
	}
	if !first {
		d.bottoms = append(d.bottoms, minCreated)
		d.tops = append(d.tops, maxUpdated)
	}
	return d, nil
}

func nonZero(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asInt64Slice(v any) []int64 {
	switch s := v.(type) {
	case []int64:
		return s
	case []any:
		out := make([]int64, 0, len(s))
		for _, e := range s {
			if n, ok := asInt64(e); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}
