package ohlcvt

import (
	"context"
	"fmt"

	"github.com/lumenview/explorer-go/internal/storage"
)

// StoreSource reads ticks from the document store. Raw ticks live in
// "<network>_trades", coarse pre-aggregates in "<network>_trades_4h".
type StoreSource struct {
	store storage.DocumentStore
}

// NewStoreSource creates a StoreSource.
func NewStoreSource(store storage.DocumentStore) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Ticks(ctx context.Context, network string, predicate storage.Query, from, to int64, hiRes bool) ([]Tick, error) {
	table := fmt.Sprintf("%s_trades_4h", network)
	if hiRes {
		table = fmt.Sprintf("%s_trades", network)
	}
	q := predicate.
		And("ts", storage.Gte, from).
		And("ts", storage.Lte, to)
	q.SortField = "ts"
	q.SortOrder = storage.Asc

	rows, err := s.store.Find(ctx, table, q)
	if err != nil {
		return nil, err
	}
	ticks := make([]Tick, 0, len(rows))
	for _, row := range rows {
		var t Tick
		t.TS, _ = asInt64(row["ts"])
		t.Price = asFloat64(row["price"])
		t.BaseVolume, _ = asInt64(row["base_volume"])
		t.QuoteVolume, _ = asInt64(row["quote_volume"])
		t.Trades, _ = asInt64(row["trades"])
		ticks = append(ticks, t)
	}
	return ticks, nil
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

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
