package query

import (
	"context"
	"net/url"
	"testing"

	"github.com/lumenview/explorer-go/internal/ohlcvt"
	"github.com/lumenview/explorer-go/internal/storage"
)

func newTradesStore() *fakeStore {
	store := newTestStore()
	store.collections["public_assets"] = append(store.collections["public_assets"],
		storage.Row{"id": int64(20), "name": "EUR-" + addr1 + "-1", "created": int64(1500), "updated": int64(4000)},
	)
	// Canonical market: smaller asset id first.
	store.collections["public_trades"] = []storage.Row{
		{"base_asset": int64(10), "quote_asset": int64(20), "ts": int64(75), "price": 2.0, "base_volume": int64(100), "quote_volume": int64(200), "trades": int64(1)},
		{"base_asset": int64(10), "quote_asset": int64(20), "ts": int64(90), "price": 4.0, "base_volume": int64(50), "quote_volume": int64(200), "trades": int64(1)},
	}
	return store
}

func mustParseCandles(t *testing.T, raw string) *CandleParams {
	t.Helper()
	v, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatal(err)
	}
	p, err := ParseCandleParams("public", []string{"public"}, v)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCandlesForwardMarket(t *testing.T) {
	store := newTradesStore()
	e := newTestEngine(store)
	src := ohlcvt.NewStoreSource(store)

	p := mustParseCandles(t, "base_asset=USD-"+addr1+"&quote_asset=EUR-"+addr1+"&from=0&to=120&resolution=60")
	candles, err := e.Candles(context.Background(), src, *p)
	if err != nil {
		t.Fatal(err)
	}
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1", len(candles))
	}
	c := candles[0]
	if c.TS != 60 || c.Open != 2.0 || c.Close != 4.0 || c.High != 4.0 || c.Low != 2.0 {
		t.Fatalf("candle = %+v", c)
	}
	if c.BaseVolume != 150 || c.QuoteVolume != 400 || c.Trades != 2 {
		t.Fatalf("volumes = %+v", c)
	}
}

func TestCandlesReverseMarket(t *testing.T) {
	store := newTradesStore()
	e := newTestEngine(store)
	src := ohlcvt.NewStoreSource(store)

	// Flipped pair resolves to the same stored market via the reverse
	// transform; no second market row exists.
	p := mustParseCandles(t, "base_asset=EUR-"+addr1+"&quote_asset=USD-"+addr1+"&from=0&to=120&resolution=60")
	candles, err := e.Candles(context.Background(), src, *p)
	if err != nil {
		t.Fatal(err)
	}
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1", len(candles))
	}
	c := candles[0]
	if c.Open != 0.5 || c.Close != 0.25 {
		t.Fatalf("reverse prices = %+v", c)
	}
	// High and low swap under reciprocal.
	if c.High != 0.5 || c.Low != 0.25 {
		t.Fatalf("reverse extremes = %+v", c)
	}
	if c.BaseVolume != 150 || c.QuoteVolume != 400 {
		t.Fatalf("volumes must pass through: %+v", c)
	}
}

func TestCandlesUnknownAssetIsEmpty(t *testing.T) {
	store := newTradesStore()
	e := newTestEngine(store)
	src := ohlcvt.NewStoreSource(store)

	p := mustParseCandles(t, "base_asset=GBP-"+addr1+"&quote_asset=USD-"+addr1+"&from=0&to=120")
	candles, err := e.Candles(context.Background(), src, *p)
	if err != nil {
		t.Fatal(err)
	}
	if len(candles) != 0 {
		t.Fatalf("unknown asset produced %d candles", len(candles))
	}
}

func TestCandleParamValidation(t *testing.T) {
	if _, err := ParseCandleParams("public", []string{"public"}, url.Values{}); !ErrValidation.Has(err) {
		t.Fatalf("missing assets: got %v", err)
	}
	v := url.Values{"base_asset": {"XLM"}, "quote_asset": {"XLM"}, "resolution": {"soon"}}
	if _, err := ParseCandleParams("public", []string{"public"}, v); !ErrValidation.Has(err) {
		t.Fatalf("bad resolution: got %v", err)
	}

	p := mustParseCandles(t, "base_asset=XLM&quote_asset=USD-"+addr1)
	e := newTestEngine(newTradesStore())
	p.BaseAsset = p.QuoteAsset
	if _, err := e.Candles(context.Background(), ohlcvt.NewStoreSource(newTradesStore()), *p); !ErrValidation.Has(err) {
		t.Fatalf("equal assets: got %v", err)
	}
}
