package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stellar/go/amount"

	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/resolver"
	"github.com/lumenview/explorer-go/internal/storage"
)

// TransactionRecord is one row of a transaction/payment search response.
type TransactionRecord struct {
	ID          string `json:"id"`
	PagingToken string `json:"paging_token"`
	Ledger      uint32 `json:"ledger"`
	LedgerTS    string `json:"ledger_ts,omitempty"`
	TS          string `json:"ts"`
	Accounts    []any  `json:"accounts,omitempty"`
	Memo        any    `json:"memo,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// Payments runs the transaction/payment search: locate matching entity ids
// in the per-year search indices (most recent year first when descending),
// then hydrate transaction bodies and enclosing ledger metadata from the
// primary store by id.
func (e *Engine) Payments(ctx context.Context, basePath string, p *Params) (*Page, error) {
	c, err := e.compile(ctx, p)
	if err != nil {
		return nil, err
	}
	if c.unfeasible() {
		return newPage(basePath, p, nil, "", ""), nil
	}

	from, _ := c.time.Bottom()
	to, _ := c.time.Top()
	indexes := e.years.IterateIndexes(p.Network, from, to, p.Order)

	// Phase 1: locate ids, page-sized batches per year shard.
	var ids []uint64
	started := time.Now()
	searched := 0
	for len(ids) < p.Limit {
		name, ok := indexes.Next()
		if !ok {
			break
		}
		q := storage.Query{
			Conditions: c.conditions,
			SortField:  "id",
			SortOrder:  p.Order,
			Limit:      p.Limit - len(ids),
		}
		q = c.ids.Apply(q, "id")
		q = c.time.Apply(q, "ts")

		searchCtx, cancel := e.shardContext(ctx)
		batch, err := e.index.Search(searchCtx, name, q)
		cancel()
		if err != nil {
			return nil, err
		}
		ids = append(ids, batch...)
		searched++
		shardQueries.WithLabelValues("payments").Inc()
	}
	e.log.Debug("payments search",
		zap.String("network", p.Network),
		zap.Int("ids", len(ids)),
		zap.Int("indexes", searched),
		zap.Duration("elapsed", time.Since(started)))

	if len(ids) == 0 {
		return newPage(basePath, p, nil, "", ""), nil
	}

	// Phase 2: hydrate bodies and ledger metadata by id.
	rows, err := e.hydrateTransactions(ctx, p.Network, ids)
	if err != nil {
		return nil, err
	}
	return e.renderTransactions(ctx, basePath, p, ids, rows)
}

// hydrateTransactions fetches transaction bodies for the located ids and
// returns them keyed by id. The index walk fixed the order already; the
// store is free to return rows in any order.
func (e *Engine) hydrateTransactions(ctx context.Context, network string, ids []uint64) (map[uint64]storage.Row, error) {
	signed := make([]int64, len(ids))
	for i, id := range ids {
		signed[i] = int64(id)
	}
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	rows, err := e.store.Find(fetchCtx, fmt.Sprintf("%s_transactions", network), storage.Query{
		Conditions: []storage.Condition{{Field: "id", Op: storage.In, Value: signed}},
		Limit:      len(ids),
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]storage.Row, len(rows))
	for _, row := range rows {
		if id, ok := asInt64(row["id"]); ok {
			byID[uint64(id)] = row
		}
	}
	return byID, nil
}

// ledgerCloseTimes fetches close timestamps for the enclosing ledgers.
func (e *Engine) ledgerCloseTimes(ctx context.Context, network string, seqs []int64) (map[int64]int64, error) {
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	rows, err := e.store.Find(fetchCtx, fmt.Sprintf("%s_ledgers", network), storage.Query{
		Conditions: []storage.Condition{{Field: "seq", Op: storage.In, Value: seqs}},
		Limit:      len(seqs),
	})
	if err != nil {
		return nil, err
	}
	closed := make(map[int64]int64, len(rows))
	for _, row := range rows {
		seq, okS := asInt64(row["seq"])
		ts, okT := asInt64(row["ts"])
		if okS && okT {
			closed[seq] = ts
		}
	}
	return closed, nil
}

func (e *Engine) renderTransactions(ctx context.Context, basePath string, p *Params, ids []uint64, rows map[uint64]storage.Row) (*Page, error) {
	accounts := resolver.NewBatch(e.resolvers.Accounts, p.Network)
	memos := resolver.NewBatch(e.resolvers.Memos, p.Network)

	seqSet := make(map[int64]struct{})
	type txRow struct {
		record      *TransactionRecord
		accountRefs []resolver.Ref
		memoRef     resolver.Ref
		hasMemo     bool
	}
	assembled := make([]txRow, 0, len(ids))
	for _, id := range ids {
		row, ok := rows[id]
		if !ok {
			continue
		}
		parsed := ledger.DecodeID(id)
		seqSet[int64(parsed.LedgerSeq)] = struct{}{}
		rec := &TransactionRecord{
			ID:          ledger.FormatID(id),
			PagingToken: ledger.FormatID(id),
			Ledger:      parsed.LedgerSeq,
		}
		if ts, ok := asInt64(row["ts"]); ok {
			rec.TS = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		if amt, ok := asInt64(row["amount"]); ok && amt > 0 {
			rec.Amount = amount.StringFromInt64(amt)
		}
		a := txRow{record: rec}
		for _, accountID := range asInt64Slice(row["account"]) {
			a.accountRefs = append(a.accountRefs, accounts.Ref(accountID, nil))
		}
		if memoID, ok := asInt64(row["memo"]); ok && memoID > 0 {
			a.memoRef = memos.Ref(memoID, nil)
			a.hasMemo = true
		}
		assembled = append(assembled, a)
	}

	seqs := make([]int64, 0, len(seqSet))
	for seq := range seqSet {
		seqs = append(seqs, seq)
	}
	var closed map[int64]int64
	if len(seqs) > 0 {
		var err error
		closed, err = e.ledgerCloseTimes(ctx, p.Network, seqs)
		if err != nil {
			return nil, err
		}
	}

	resolvedAccounts, err := accounts.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	resolvedMemos, err := memos.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]any, 0, len(assembled))
	for _, a := range assembled {
		for _, ref := range a.accountRefs {
			a.record.Accounts = append(a.record.Accounts, resolvedAccounts.Value(ref))
		}
		if a.hasMemo {
			a.record.Memo = resolvedMemos.Value(a.memoRef)
		}
		if ts, ok := closed[int64(a.record.Ledger)]; ok {
			a.record.LedgerTS = time.Unix(ts, 0).UTC().Format(time.RFC3339)
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
