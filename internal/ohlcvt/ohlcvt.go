// Package ohlcvt buckets raw trade ticks into open/high/low/close/volume/
// trade-count candles at a resolution chosen automatically from the
// requested span.
package ohlcvt

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/zeebo/errs"

	"github.com/lumenview/explorer-go/internal/storage"
)

// Error wraps aggregation failures.
var Error = errs.Class("ohlcvt")

// HiResThreshold splits requests between the raw-granularity and
// coarse-granularity source tables.
const HiResThreshold = 14400

// MaxBuckets caps the number of candles a single response may carry,
// independent of the requested time window.
const MaxBuckets = 200

// Resolutions is the ascending ladder of standard candle resolutions in
// seconds: 1m, 5m, 15m, 1h, 4h, 1d, 1w.
var Resolutions = []int64{60, 300, 900, 3600, 14400, 86400, 604800}

// ResolutionAuto asks OptimizeResolution to pick the finest fitting value.
const ResolutionAuto int64 = 0

// Tick is one raw trade aggregate from a source table.
type Tick struct {
	TS          int64
	Price       float64
	BaseVolume  int64
	QuoteVolume int64
	Trades      int64
}

// Candle is one resolution bucket. Its wire form is the 8-tuple
// [timestamp, open, high, low, close, baseVolume, quoteVolume, tradeCount].
type Candle struct {
	TS          int64
	Open        float64
	High        float64
	Low         float64
	Close       float64
	BaseVolume  int64
	QuoteVolume int64
	Trades      int64
}

// MarshalJSON renders the candle as its 8-tuple array form.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.TS, c.Open, c.High, c.Low, c.Close, c.BaseVolume, c.QuoteVolume, c.Trades})
}

// Request describes one aggregation run.
type Request struct {
	Network    string
	Predicate  storage.Query
	From, To   int64
	Resolution int64
	Order      storage.Order

	// Reverse synthesizes the inverse market: the caller swapped the two
	// assets to canonical order, so prices must be reciprocated.
	Reverse bool
}

// Source supplies raw ticks. HiRes selects the fine-granularity table.
type Source interface {
	Ticks(ctx context.Context, network string, predicate storage.Query, from, to int64, hiRes bool) ([]Tick, error)
}

// OptimizeResolution picks the effective resolution for a span. Without an
// upper bound the coarsest standard resolution applies. Otherwise the
// requested resolution is upgraded along the ladder until the span produces
// at most MaxBuckets buckets; it is never downgraded below the request
// unless the request is ResolutionAuto.
func OptimizeResolution(from, to int64, hasTo bool, requested int64) int64 {
	coarsest := Resolutions[len(Resolutions)-1]
	if !hasTo {
		return coarsest
	}
	span := to - from
	if span < 0 {
		span = 0
	}
	for _, res := range Resolutions {
		if requested != ResolutionAuto && res < requested {
			continue
		}
		if span/res <= MaxBuckets {
			return res
		}
	}
	return coarsest
}

// Aggregate fetches ticks for the request window and reduces them into
// candles. Bucket timestamps are multiples of the resolution.
func Aggregate(ctx context.Context, src Source, req Request) ([]Candle, error) {
	if req.Resolution <= 0 {
		return nil, Error.New("resolution must be positive")
	}
	ticks, err := src.Ticks(ctx, req.Network, req.Predicate, req.From, req.To, req.Resolution < HiResThreshold)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].TS < ticks[j].TS })

	buckets := make(map[int64]*Candle)
	var order []int64
	for _, t := range ticks {
		ts := t.TS - t.TS%req.Resolution
		c, ok := buckets[ts]
		if !ok {
			c = &Candle{TS: ts, Open: t.Price, High: t.Price, Low: t.Price}
			buckets[ts] = c
			order = append(order, ts)
		}
		if t.Price > c.High {
			c.High = t.Price
		}
		if t.Price < c.Low {
			c.Low = t.Price
		}
		c.Close = t.Price
		c.BaseVolume += t.BaseVolume
		c.QuoteVolume += t.QuoteVolume
		c.Trades += t.Trades
	}

	sort.Slice(order, func(i, j int) bool {
		if req.Order == storage.Desc {
			return order[i] > order[j]
		}
		return order[i] < order[j]
	})

	out := make([]Candle, 0, len(order))
	for _, ts := range order {
		c := *buckets[ts]
		if req.Reverse {
			c = reverseCandle(c)
		}
		out = append(out, c)
	}
	return out, nil
}

// reverseCandle swaps a candle to the inverse market: every price becomes
// its reciprocal and high/low trade places; volumes and trade count pass
// through unchanged. The result is bit-for-bit what re-querying with the
// assets physically swapped would produce.
func reverseCandle(c Candle) Candle {
	return Candle{
		TS:          c.TS,
		Open:        1 / c.Open,
		High:        1 / c.Low,
		Low:         1 / c.High,
		Close:       1 / c.Close,
		BaseVolume:  c.BaseVolume,
		QuoteVolume: c.QuoteVolume,
		Trades:      c.Trades,
	}
}
