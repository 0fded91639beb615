package shard

import (
	"fmt"
	"time"

	"github.com/lumenview/explorer-go/internal/storage"
)

// YearlyDirectory maps timestamps to the per-year indices of the search
// backend. Shard boundaries need no catalog scan: one shard per calendar
// year from the configured first indexed year through the current year.
type YearlyDirectory struct {
	base      string
	firstYear int
	now       func() time.Time
}

// NewYearlyDirectory creates a directory over indices named
// "<base>-<network>-<year>".
func NewYearlyDirectory(base string, firstYear int) *YearlyDirectory {
	return &YearlyDirectory{base: base, firstYear: firstYear, now: time.Now}
}

func (y *YearlyDirectory) indexName(network string, year int) string {
	return fmt.Sprintf("%s-%s-%d", y.base, network, year)
}

// ResolveIndex returns the index holding entries with the given timestamp.
// Timestamps before the first indexed year have no index.
func (y *YearlyDirectory) ResolveIndex(network string, ts int64) (string, bool) {
	year := time.Unix(ts, 0).UTC().Year()
	if year < y.firstYear {
		return "", false
	}
	if cur := y.now().UTC().Year(); year > cur {
		year = cur
	}
	return y.indexName(network, year), true
}

// IterateIndexes returns an iterator over the index names covering the
// [from, to] timestamp window, clamped to the indexed year range.
func (y *YearlyDirectory) IterateIndexes(network string, from, to int64, order storage.Order) *Iterator {
	if to < from {
		return emptyIterator()
	}
	cur := y.now().UTC().Year()
	fromYear := time.Unix(from, 0).UTC().Year()
	toYear := time.Unix(to, 0).UTC().Year()
	if fromYear < y.firstYear {
		fromYear = y.firstYear
	}
	if toYear > cur {
		toYear = cur
	}
	if toYear < fromYear {
		return emptyIterator()
	}
	names := make([]string, 0, toYear-fromYear+1)
	for year := fromYear; year <= toYear; year++ {
		names = append(names, y.indexName(network, year))
	}
	return newIterator(names, 0, len(names)-1, order)
}
