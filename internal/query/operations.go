package query

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stellar/go/amount"

	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/resolver"
	"github.com/lumenview/explorer-go/internal/storage"
)

// OperationRecord is one row of an operations search response.
type OperationRecord struct {
	ID          string `json:"id"`
	PagingToken string `json:"paging_token"`
	Type        string `json:"type"`
	Ledger      uint32 `json:"ledger"`
	TS          string `json:"ts"`
	Accounts    []any  `json:"accounts,omitempty"`
	Assets      []any  `json:"assets,omitempty"`
	Memo        string `json:"memo,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// opRow pairs a record under assembly with the deferred handles that
// materialize only after the batch resolvers run.
type opRow struct {
	record      *OperationRecord
	accountRefs []resolver.Ref
	assetRefs   []resolver.Ref
}

// Operations runs the single-phase operations search: compile the filter,
// then walk document-store shards in row order, accumulating until the
// page is full or shards are exhausted. Shards are queried sequentially
// with early stop, so backend load is bounded by the shards one page needs.
func (e *Engine) Operations(ctx context.Context, basePath string, p *Params) (*Page, error) {
	c, err := e.compile(ctx, p)
	if err != nil {
		return nil, err
	}
	if c.unfeasible() {
		return newPage(basePath, p, nil, "", ""), nil
	}

	from, _ := c.time.Bottom()
	to, _ := c.time.Top()
	shards, err := e.dir.IterateShards(ctx, p.Network, from, to, p.Order)
	if err != nil {
		return nil, err
	}

	var rows []storage.Row
	started := time.Now()
	queried := 0
	for len(rows) < p.Limit {
		name, ok := shards.Next()
		if !ok {
			break
		}
		q := storage.Query{
			Conditions: c.conditions,
			SortField:  "id",
			SortOrder:  p.Order,
			Limit:      p.Limit - len(rows),
		}
		q = c.ids.Apply(q, "id")
		q = c.time.Apply(q, "ts")

		shardCtx, cancel := e.shardContext(ctx)
		batch, err := e.store.Find(shardCtx, name, q)
		cancel()
		if err != nil {
			// Rows gathered so far are not a complete page; the caller
			// must see a failure, not a silently truncated result.
			return nil, err
		}
		rows = append(rows, batch...)
		queried++
		shardQueries.WithLabelValues("operations").Inc()
	}
	e.log.Debug("operations query",
		zap.String("network", p.Network),
		zap.Int("rows", len(rows)),
		zap.Int("shards", queried),
		zap.Duration("elapsed", time.Since(started)))

	return e.renderOperations(ctx, basePath, p, rows)
}

func (e *Engine) renderOperations(ctx context.Context, basePath string, p *Params, rows []storage.Row) (*Page, error) {
	accounts := resolver.NewBatch(e.resolvers.Accounts, p.Network)
	assets := resolver.NewBatch(e.resolvers.Assets, p.Network)

	assembled := make([]opRow, 0, len(rows))
	for _, row := range rows {
		id, _ := asInt64(row["id"])
		parsed := ledger.DecodeID(uint64(id))
		rec := &OperationRecord{
			ID:          ledger.FormatID(uint64(id)),
			PagingToken: ledger.FormatID(uint64(id)),
			Ledger:      parsed.LedgerSeq,
		}
		if code, ok := asInt64(row["type"]); ok {
			rec.Type = TypeName(int(code))
		}
		if ts, ok := asInt64(row["ts"]); ok {
			rec.TS = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		if memo, ok := row["memo"].(string); ok {
			rec.Memo = memo
		}
		if amt, ok := asInt64(row["amount"]); ok && amt > 0 {
			rec.Amount = amount.StringFromInt64(amt)
		}

		a := opRow{record: rec}
		for _, accountID := range asInt64Slice(row["account"]) {
			a.accountRefs = append(a.accountRefs, accounts.Ref(accountID, nil))
		}
		for _, assetID := range asInt64Slice(row["asset"]) {
			a.assetRefs = append(a.assetRefs, assets.Ref(assetID, nil))
		}
		assembled = append(assembled, a)
	}

	// One id→value round-trip per entity kind for the whole page.
	var resolvedAccounts, resolvedAssets *resolver.Resolved
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resolvedAccounts, err = accounts.Resolve(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resolvedAssets, err = assets.Resolve(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]any, 0, len(assembled))
	for _, a := range assembled {
		for _, ref := range a.accountRefs {
			a.record.Accounts = append(a.record.Accounts, resolvedAccounts.Value(ref))
		}
		for _, ref := range a.assetRefs {
			a.record.Assets = append(a.record.Assets, resolvedAssets.Value(ref))
		}
		records = append(records, a.record)
	}

	first, last := "", ""
	if len(assembled) > 0 {
		first = assembled[0].record.PagingToken
		last = assembled[len(assembled)-1].record.PagingToken
	}
	return newPage(basePath, p, records, first, last), nil
}
