package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go/amount"

	"github.com/lumenview/explorer-go/internal/activity"
	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/resolver"
	"github.com/lumenview/explorer-go/internal/storage"
)

// TransactionByID fetches a single transaction addressed by its composite
// id string and renders it with resolved identifiers.
func (e *Engine) TransactionByID(ctx context.Context, network, idStr string) (*TransactionRecord, error) {
	id, err := ledger.ParseID(idStr)
	if err != nil {
		return nil, validation("id", "malformed transaction id %q", idStr)
	}
	if ledger.DecodeID(id).Kind != ledger.KindTransaction {
		return nil, validation("id", "%q does not identify a transaction", idStr)
	}

	rows, err := e.hydrateTransactions(ctx, network, []uint64{id})
	if err != nil {
		return nil, err
	}
	if _, ok := rows[id]; !ok {
		return nil, ErrNotFound.New("transaction %s", idStr)
	}

	p := &Params{Network: network, Order: storage.Desc, Limit: 1}
	page, err := e.renderTransactions(ctx, "", p, []uint64{id}, rows)
	if err != nil {
		return nil, err
	}
	return page.Embedded.Records[0].(*TransactionRecord), nil
}

// AssetRecord is the response of a singular asset lookup. Score and
// Bucket rank the asset by its payment and trade counts.
type AssetRecord struct {
	Name     string  `json:"name"`
	Payments int64   `json:"payments"`
	Trades   int64   `json:"trades"`
	Score    float64 `json:"activity_score"`
	Bucket   int     `json:"activity_bucket"`
	Created  string  `json:"created,omitempty"`
	Updated  string  `json:"updated,omitempty"`
}

// AssetByName fetches a single asset by its fully-qualified name and
// attaches its activity ranking.
func (e *Engine) AssetByName(ctx context.Context, network, name string) (*AssetRecord, error) {
	fqan, err := normalizeAsset(name)
	if err != nil {
		return nil, err
	}
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	row, err := e.store.FindOne(fetchCtx, fmt.Sprintf("%s_assets", network), storage.Query{
		Conditions: []storage.Condition{{Field: "name", Op: storage.Eq, Value: fqan}},
	})
	if err != nil {
		if errors.Is(err, storage.ErrNoRow) {
			return nil, ErrNotFound.New("asset %s", fqan)
		}
		return nil, err
	}

	rec := &AssetRecord{Name: fqan}
	rec.Payments, _ = asInt64(row["payments"])
	rec.Trades, _ = asInt64(row["trades"])
	rec.Score = activity.Score(rec.Payments, rec.Trades)
	rec.Bucket = activity.Bucket(rec.Score)
	if ts, ok := asInt64(row["created"]); ok && ts > 0 {
		rec.Created = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	if ts, ok := asInt64(row["updated"]); ok && ts > 0 {
		rec.Updated = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return rec, nil
}

// OfferRecord is the response of a singular offer lookup, with the seller
// and both market sides resolved to external identifiers.
type OfferRecord struct {
	ID      uint64 `json:"id"`
	Seller  any    `json:"seller,omitempty"`
	Selling any    `json:"selling,omitempty"`
	Buying  any    `json:"buying,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// OfferByID fetches a single offer by its numeric id.
func (e *Engine) OfferByID(ctx context.Context, network string, offerID uint64) (*OfferRecord, error) {
	fetchCtx, cancel := e.shardContext(ctx)
	defer cancel()
	row, err := e.store.FindOne(fetchCtx, fmt.Sprintf("%s_offers", network), storage.Query{
		Conditions: []storage.Condition{{Field: "id", Op: storage.Eq, Value: int64(offerID)}},
	})
	if err != nil {
		if errors.Is(err, storage.ErrNoRow) {
			return nil, ErrNotFound.New("offer %d", offerID)
		}
		return nil, err
	}

	accounts := resolver.NewBatch(e.resolvers.Accounts, network)
	assets := resolver.NewBatch(e.resolvers.Assets, network)
	var sellerRef, sellingRef, buyingRef resolver.Ref
	if id, ok := asInt64(row["seller"]); ok && id > 0 {
		sellerRef = accounts.Ref(id, nil)
	}
	if id, ok := asInt64(row["selling"]); ok && id > 0 {
		sellingRef = assets.Ref(id, nil)
	}
	if id, ok := asInt64(row["buying"]); ok && id > 0 {
		buyingRef = assets.Ref(id, nil)
	}
	resolvedAccounts, err := accounts.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	resolvedAssets, err := assets.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rec := &OfferRecord{
		ID:      offerID,
		Seller:  resolvedAccounts.Value(sellerRef),
		Selling: resolvedAssets.Value(sellingRef),
		Buying:  resolvedAssets.Value(buyingRef),
	}
	if amt, ok := asInt64(row["amount"]); ok && amt > 0 {
		rec.Amount = amount.StringFromInt64(amt)
	}
	if ts, ok := asInt64(row["created"]); ok && ts > 0 {
		rec.Created = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	if ts, ok := asInt64(row["updated"]); ok && ts > 0 {
		rec.Updated = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return rec, nil
}
