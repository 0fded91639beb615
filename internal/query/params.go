package query

import (
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/strkey"

	"github.com/lumenview/explorer-go/internal/ledger"
	"github.com/lumenview/explorer-go/internal/storage"
)

// Filter cardinality caps.
const (
	maxAccountFilters = 20
	maxAssetFilters   = 10
	maxMemoFilters    = 10
	maxTypeFilters    = 30
	maxMemoLength     = 64
)

// Limit bounds.
const (
	defaultLimit = 10
	maxLimit     = 200
)

// Params is the normalized form of the user-supplied query parameters.
type Params struct {
	Network string
	Order   storage.Order
	Limit   int

	// Cursor is the raw inbound cursor value, echoed in links; CursorID is
	// its parsed composite id, zero when no cursor was supplied.
	Cursor   string
	CursorID uint64

	Types     []int
	Accounts  []string
	Assets    []string
	Offer     uint64
	Pool      string
	Memos     []string
	Amount    int64
	HasAmount bool
	From, To  *int64
}

// ParseParams validates and normalizes the raw query parameters for the
// given network. Every check here is pure; nothing touches storage.
func ParseParams(network string, knownNetworks []string, v url.Values) (*Params, error) {
	p := &Params{Network: network, Order: storage.Desc, Limit: defaultLimit}

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

	switch v.Get("order") {
	case "", "desc":
		p.Order = storage.Desc
	case "asc":
		p.Order = storage.Asc
	default:
		return nil, validation("order", "must be asc or desc")
	}

	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, validation("limit", "%q is not an integer", s)
		}
		switch {
		case n < 1:
			n = 1
		case n > maxLimit:
			n = maxLimit
		}
		p.Limit = n
	}

	if s := v.Get("cursor"); s != "" {
		id, err := ledger.ParseID(s)
		if err != nil {
			return nil, validation("cursor", "malformed paging cursor %q", s)
		}
		p.Cursor = s
		p.CursorID = id
	}

	if ts, err := parseTimestamp(v.Get("from"), "from"); err != nil {
		return nil, err
	} else if ts != nil {
		p.From = ts
	}
	if ts, err := parseTimestamp(v.Get("to"), "to"); err != nil {
		return nil, err
	} else if ts != nil {
		p.To = ts
	}

	if types := v["type"]; len(types) > 0 {
		if len(types) > maxTypeFilters {
			return nil, validation("type", "at most %d type filters allowed", maxTypeFilters)
		}
		codes, err := resolveTypeFilter(types)
		if err != nil {
			return nil, err
		}
		p.Types = codes
	}

	accounts := append(append([]string{}, v["account"]...), v["source"]...)
	accounts = append(accounts, v["destination"]...)
	if len(accounts) > maxAccountFilters {
		return nil, validation("account", "at most %d account filters allowed", maxAccountFilters)
	}
	for _, a := range accounts {
		if !strkey.IsValidEd25519PublicKey(a) && !strkey.IsValidMuxedAccountEd25519PublicKey(a) {
			return nil, validation("account", "%q is not a valid account address", a)
		}
	}
	p.Accounts = accounts

	assets := append(append([]string{}, v["asset"]...), v["src_asset"]...)
	assets = append(assets, v["dest_asset"]...)
	if len(assets) > maxAssetFilters {
		return nil, validation("asset", "at most %d asset filters allowed", maxAssetFilters)
	}
	for i, a := range assets {
		fqan, err := normalizeAsset(a)
		if err != nil {
			return nil, err
		}
		assets[i] = fqan
	}
	p.Assets = assets

	if s := v.Get("offer"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, validation("offer", "%q is not a valid offer id", s)
		}
		p.Offer = id
	}

	if s := v.Get("pool"); s != "" {
		if len(s) != 64 {
			return nil, validation("pool", "pool hash must be 64 hex characters")
		}
		if _, err := hex.DecodeString(s); err != nil {
			return nil, validation("pool", "pool hash must be 64 hex characters")
		}
		p.Pool = strings.ToLower(s)
	}

	if memos := v["memo"]; len(memos) > 0 {
		if len(memos) > maxMemoFilters {
			return nil, validation("memo", "at most %d memo filters allowed", maxMemoFilters)
		}
		for _, m := range memos {
			if m == "" || len(m) > maxMemoLength {
				return nil, validation("memo", "memo filter must be 1-%d characters", maxMemoLength)
			}
		}
		p.Memos = memos
	}

	if s := v.Get("amount"); s != "" {
		stroops, err := amount.ParseInt64(s)
		if err != nil {
			return nil, validation("amount", "%q is not a valid amount", s)
		}
		p.Amount = stroops
		p.HasAmount = true
	}

	return p, nil
}

// parseTimestamp accepts unix timestamps and ISO dates, inclusive.
func parseTimestamp(s, field string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return nil, validation(field, "timestamp must not be negative")
		}
		return &n, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			ts := t.Unix()
			return &ts, nil
		}
	}
	return nil, validation(field, "%q is not a unix timestamp or ISO date", s)
}

// normalizeAsset parses an asset descriptor ("XLM" or CODE-ISSUER[-TYPE])
// into its fully-qualified name.
func normalizeAsset(s string) (string, error) {
	if s == "XLM" || s == "native" {
		return "XLM", nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 && len(parts) != 3 {
		return "", validation("asset", "%q is not a valid asset descriptor", s)
	}
	code, issuer := parts[0], parts[1]
	if len(code) == 0 || len(code) > 12 {
		return "", validation("asset", "asset code in %q must be 1-12 characters", s)
	}
	if !strkey.IsValidEd25519PublicKey(issuer) {
		return "", validation("asset", "%q has an invalid issuer address", s)
	}
	assetType := "1"
	if len(code) > 4 {
		assetType = "2"
	}
	if len(parts) == 3 {
		if parts[2] != "1" && parts[2] != "2" {
			return "", validation("asset", "%q has an invalid asset type", s)
		}
		assetType = parts[2]
	}
	return code + "-" + issuer + "-" + assetType, nil
}

// Values re-serializes the normalized parameters for link building. The
// cursor is emitted as-is; link builders substitute row paging tokens.
func (p *Params) Values() url.Values {
	v := url.Values{}
	if p.Order == storage.Asc {
		v.Set("order", "asc")
	} else {
		v.Set("order", "desc")
	}
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Cursor != "" {
		v.Set("cursor", p.Cursor)
	}
	for _, t := range p.Types {
		v.Add("type", TypeName(t))
	}
	for _, a := range p.Accounts {
		v.Add("account", a)
	}
	for _, a := range p.Assets {
		v.Add("asset", a)
	}
	if p.Offer != 0 {
		v.Set("offer", strconv.FormatUint(p.Offer, 10))
	}
	if p.Pool != "" {
		v.Set("pool", p.Pool)
	}
	for _, m := range p.Memos {
		v.Add("memo", m)
	}
	if p.HasAmount {
		v.Set("amount", amount.StringFromInt64(p.Amount))
	}
	if p.From != nil {
		v.Set("from", strconv.FormatInt(*p.From, 10))
	}
	if p.To != nil {
		v.Set("to", strconv.FormatInt(*p.To, 10))
	}
	return v
}
