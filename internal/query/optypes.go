package query

import (
	"sort"
	"strconv"
)

// Operation type registry. The type filter accepts lowercase names, numeric
// codes, and group names, all normalized to the numeric codes stored with
// each operation.

var opTypeNames = map[int]string{
	0:  "create_account",
	1:  "payment",
	2:  "path_payment_strict_receive",
	3:  "manage_sell_offer",
	4:  "create_passive_sell_offer",
	5:  "set_options",
	6:  "change_trust",
	7:  "allow_trust",
	8:  "account_merge",
	9:  "inflation",
	10: "manage_data",
	11: "bump_sequence",
	12: "manage_buy_offer",
	13: "path_payment_strict_send",
	14: "create_claimable_balance",
	15: "claim_claimable_balance",
	16: "begin_sponsoring_future_reserves",
	17: "end_sponsoring_future_reserves",
	18: "revoke_sponsorship",
	19: "clawback",
	20: "clawback_claimable_balance",
	21: "set_trust_line_flags",
	22: "liquidity_pool_deposit",
	23: "liquidity_pool_withdraw",
	24: "invoke_host_function",
	25: "extend_footprint_ttl",
	26: "restore_footprint",
}

var opTypeCodes = func() map[string]int {
	m := make(map[string]int, len(opTypeNames))
	for code, name := range opTypeNames {
		m[name] = code
	}
	return m
}()

var opTypeGroups = map[string][]int{
	"payments":      {0, 1, 2, 8, 13},
	"trading":       {3, 4, 12},
	"trustlines":    {6, 7, 21},
	"dex_liquidity": {22, 23},
	"settings":      {5, 10, 11},
	"contracts":     {24, 25, 26},
}

// TypeName returns the lowercase name for an operation type code.
func TypeName(code int) string {
	if name, ok := opTypeNames[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// resolveTypeFilter normalizes repeatable type filter values (names,
// numeric codes, group names) into a sorted, deduplicated code list.
func resolveTypeFilter(values []string) ([]int, error) {
	set := make(map[int]struct{})
	for _, v := range values {
		if codes, ok := opTypeGroups[v]; ok {
			for _, c := range codes {
				set[c] = struct{}{}
			}
			continue
		}
		if code, ok := opTypeCodes[v]; ok {
			set[code] = struct{}{}
			continue
		}
		code, err := strconv.Atoi(v)
		if err != nil {
			return nil, validation("type", "unknown operation type %q", v)
		}
		if _, ok := opTypeNames[code]; !ok {
			return nil, validation("type", "unknown operation type code %d", code)
		}
		set[code] = struct{}{}
	}
	codes := make([]int, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes, nil
}
