package query

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lumenview/explorer-go/internal/ohlcvt"
	"github.com/lumenview/explorer-go/internal/storage"
)

// CandleParams describes one OHLCVT request after parameter validation.
type CandleParams struct {
	Network    string
	BaseAsset  string
	QuoteAsset string
	From, To   *int64
	Resolution int64 // ohlcvt.ResolutionAuto for automatic selection
	Order      storage.Order
}

// ParseCandleParams validates the raw query parameters of a candle
// request. Like ParseParams it is pure and never touches storage.
func ParseCandleParams(network string, knownNetworks []string, v url.Values) (*CandleParams, error) {
	known := false
	for _, n := range knownNetworks {
		if n == network {
			known = true
			break
		}
	}
	if !known {
		return nil, validation("network", "unknown network %q", network)
	}

	p := &CandleParams{Network: network, Order: storage.Asc, Resolution: ohlcvt.ResolutionAuto}

	if v.Get("base_asset") == "" || v.Get("quote_asset") == "" {
		return nil, validation("asset", "base_asset and quote_asset are required")
	}
	base, err := normalizeAsset(v.Get("base_asset"))
	if err != nil {
		return nil, err
	}
	quote, err := normalizeAsset(v.Get("quote_asset"))
	if err != nil {
		return nil, err
	}
	p.BaseAsset, p.QuoteAsset = base, quote

	switch v.Get("order") {
	case "", "asc":
		p.Order = storage.Asc
	case "desc":
		p.Order = storage.Desc
	default:
		return nil, validation("order", "must be asc or desc")
	}

	if s := v.Get("resolution"); s != "" && s != "auto" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return nil, validation("resolution", "must be auto or a positive number of seconds")
		}
		p.Resolution = n
	}

	if p.From, err = parseTimestamp(v.Get("from"), "from"); err != nil {
		return nil, err
	}
	if p.To, err = parseTimestamp(v.Get("to"), "to"); err != nil {
		return nil, err
	}
	return p, nil
}

// Candles aggregates the trade history of one market into candles. Markets
// are stored under canonical asset ordering (smaller id first); a request
// for the flipped pair is served by the reverse transform instead of a
// second query.
func (e *Engine) Candles(ctx context.Context, src ohlcvt.Source, p CandleParams) ([]ohlcvt.Candle, error) {
	if p.BaseAsset == p.QuoteAsset {
		return nil, validation("asset", "base and quote assets must differ")
	}
	ids, err := e.resolvers.Assets.ResolveIDs(ctx, p.Network, []string{p.BaseAsset, p.QuoteAsset})
	if err != nil {
		return nil, err
	}
	baseID, quoteID := ids[0], ids[1]
	if baseID == 0 || quoteID == 0 {
		// Unknown asset: a valid query that provably matches no trades.
		return []ohlcvt.Candle{}, nil
	}

	reverse := false
	if baseID > quoteID {
		baseID, quoteID = quoteID, baseID
		reverse = true
	}

	from := int64(0)
	if p.From != nil {
		from = *p.From
	}
	to := e.now().Unix()
	hasTo := p.To != nil
	if hasTo {
		to = *p.To
	}
	if to < from {
		return []ohlcvt.Candle{}, nil
	}

	predicate := storage.Query{}.
		And("base_asset", storage.Eq, baseID).
		And("quote_asset", storage.Eq, quoteID)

	req := ohlcvt.Request{
		Network:    p.Network,
		Predicate:  predicate,
		From:       from,
		To:         to,
		Resolution: ohlcvt.OptimizeResolution(from, to, hasTo, p.Resolution),
		Order:      p.Order,
		Reverse:    reverse,
	}
	candles, err := ohlcvt.Aggregate(ctx, src, req)
	if err != nil {
		return nil, err
	}
	return candles, nil
}
