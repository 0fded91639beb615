package query

import (
	"context"
	"testing"
	"time"

	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/storage"
)

func newPaymentsStore() *fakeStore {
	ts1 := time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC).Unix()
	ts2 := time.Date(2023, time.August, 20, 0, 0, 0, 0, time.UTC).Unix()
	tx1 := int64(ledger.EncodeTxID(50000, 3))
	tx2 := int64(ledger.EncodeTxID(60000, 1))

	store := newTestStore()
	store.collections["payments-public-2023"] = []storage.Row{
		{"id": tx1, "ts": ts1, "account": []int64{1}, "memo": "invoice-42"},
		{"id": tx2, "ts": ts2, "account": []int64{1, 2}, "memo": "invoice-42"},
	}
	store.collections["public_transactions"] = []storage.Row{
		{"id": tx1, "ts": ts1, "account": []int64{1}, "memo": int64(77), "amount": int64(10000000)},
		{"id": tx2, "ts": ts2, "account": []int64{1, 2}, "memo": int64(77)},
	}
	store.collections["public_ledgers"] = []storage.Row{
		{"seq": int64(50000), "ts": ts1},
		{"seq": int64(60000), "ts": ts2},
	}
	return store
}

func TestPaymentsTwoPhase(t *testing.T) {
	store := newPaymentsStore()
	e := newTestEngine(store)

	page, err := e.Payments(context.Background(), "/explorer/public/payments", mustParse(t, "limit=10"))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Embedded.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(page.Embedded.Records))
	}
	first := page.Embedded.Records[0].(*TransactionRecord)
	second := page.Embedded.Records[1].(*TransactionRecord)
	// Descending: the later transaction comes first.
	if first.Ledger != 60000 || second.Ledger != 50000 {
		t.Fatalf("order = %d, %d", first.Ledger, second.Ledger)
	}
	if first.Memo != "invoice-42" {
		t.Fatalf("memo = %v, want resolved value", first.Memo)
	}
	if len(first.Accounts) != 2 || first.Accounts[0] != addr1 || first.Accounts[1] != addr2 {
		t.Fatalf("accounts = %v", first.Accounts)
	}
	if first.LedgerTS == "" {
		t.Fatal("ledger close time not hydrated")
	}
	if first.Amount != "" {
		t.Fatalf("amount = %q for amountless tx", first.Amount)
	}
	if second.Amount != "1.0000000" {
		t.Fatalf("amount = %q, want 1.0000000", second.Amount)
	}
}

func TestPaymentsMemoFilter(t *testing.T) {
	store := newPaymentsStore()
	e := newTestEngine(store)

	page, err := e.Payments(context.Background(), "/x", mustParse(t, "memo=invoice-42"))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Embedded.Records) != 2 {
		t.Fatalf("memo filter matched %d records, want 2", len(page.Embedded.Records))
	}

	page, err = e.Payments(context.Background(), "/x", mustParse(t, "memo=other"))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Embedded.Records) != 0 {
		t.Fatalf("memo filter matched %d records, want 0", len(page.Embedded.Records))
	}
}

func TestTransactionByID(t *testing.T) {
	store := newPaymentsStore()
	e := newTestEngine(store)
	ctx := context.Background()

	id := ledger.FormatID(ledger.EncodeTxID(50000, 3))
	rec, err := e.TransactionByID(ctx, "public", id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != id || rec.Ledger != 50000 {
		t.Fatalf("record = %+v", rec)
	}

	missing := ledger.FormatID(ledger.EncodeTxID(70000, 1))
	if _, err := e.TransactionByID(ctx, "public", missing); !ErrNotFound.Has(err) {
		t.Fatalf("missing tx: got %v, want not-found", err)
	}

	opIDStr := ledger.FormatID(ledger.EncodeOperationID(50000, 3, 1))
	if _, err := e.TransactionByID(ctx, "public", opIDStr); !ErrValidation.Has(err) {
		t.Fatalf("operation id: got %v, want validation error", err)
	}
}

func TestAssetByName(t *testing.T) {
	store := newPaymentsStore()
	store.collections["public_assets"][0]["payments"] = int64(120)
	store.collections["public_assets"][0]["trades"] = int64(40)
	e := newTestEngine(store)
	ctx := context.Background()

	rec, err := e.AssetByName(ctx, "public", "USD-"+addr1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "USD-"+addr1+"-1" {
		t.Fatalf("name = %s", rec.Name)
	}
	// Trades count half: 120 + 40/2.
	if rec.Score != 140 || rec.Bucket != 4 {
		t.Fatalf("score = %v bucket = %d", rec.Score, rec.Bucket)
	}

	if _, err := e.AssetByName(ctx, "public", "ZZZ-"+addr1); !ErrNotFound.Has(err) {
		t.Fatalf("missing asset: got %v, want not-found", err)
	}
	if _, err := e.AssetByName(ctx, "public", "garbage"); !ErrValidation.Has(err) {
		t.Fatalf("malformed asset: got %v, want validation error", err)
	}
}

func TestOfferByID(t *testing.T) {
	store := newPaymentsStore()
	store.collections["public_offers"] = []storage.Row{
		{"id": int64(9001), "seller": int64(1), "selling": int64(10), "buying": int64(999), "created": int64(100), "updated": int64(200), "amount": int64(5)},
	}
	e := newTestEngine(store)
	ctx := context.Background()

	rec, err := e.OfferByID(ctx, "public", 9001)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != 9001 {
		t.Fatalf("record = %+v", rec)
	}
	// Internal ids resolve to external identifiers; unknown ids render
	// as absent rather than leaking.
	if rec.Seller != addr1 {
		t.Fatalf("seller = %v, want resolved address", rec.Seller)
	}
	if rec.Selling != "USD-"+addr1+"-1" {
		t.Fatalf("selling = %v, want resolved asset", rec.Selling)
	}
	if rec.Buying != nil {
		t.Fatalf("buying = %v for unknown asset id", rec.Buying)
	}
	if rec.Amount != "0.0000005" {
		t.Fatalf("amount = %q", rec.Amount)
	}

	if _, err := e.OfferByID(ctx, "public", 404); !ErrNotFound.Has(err) {
		t.Fatalf("missing offer: got %v, want not-found", err)
	}
}
