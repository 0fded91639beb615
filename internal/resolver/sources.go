package resolver

import (
	"context"
	"fmt"

	"github.com/lumenview/explorer-go/internal/storage"
)

// docSource resolves one entity kind against its document-store collection.
// Collections are named "<network>_<kind>" and hold at least an integer
// "id" column (positive, assigned at ingestion) and the external value
// column.
type docSource struct {
	store      storage.DocumentStore
	collection string
	valueField string
}

func (s *docSource) collectionFor(network string) string {
	return fmt.Sprintf("%s_%s", network, s.collection)
}

func (s *docSource) SearchByValue(ctx context.Context, network string, values []string) (map[string]int64, error) {
	rows, err := s.store.Find(ctx, s.collectionFor(network), storage.Query{
		Conditions: []storage.Condition{{Field: s.valueField, Op: storage.In, Value: values}},
		Limit:      len(values),
	})
	if err != nil {
		return nil, err
	}
	found := make(map[string]int64, len(rows))
	for _, row := range rows {
		value, okV := row[s.valueField].(string)
		id, okI := asInt64(row["id"])
		if okV && okI {
			found[value] = id
		}
	}
	return found, nil
}

func (s *docSource) SearchByID(ctx context.Context, network string, ids []int64) (map[int64]string, error) {
	rows, err := s.store.Find(ctx, s.collectionFor(network), storage.Query{
		Conditions: []storage.Condition{{Field: "id", Op: storage.In, Value: ids}},
		Limit:      len(ids),
	})
	if err != nil {
		return nil, err
	}
	found := make(map[int64]string, len(rows))
	for _, row := range rows {
		value, okV := row[s.valueField].(string)
		id, okI := asInt64(row["id"])
		if okV && okI {
			found[id] = value
		}
	}
	return found, nil
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

// NewAccountSource resolves account addresses.
func NewAccountSource(store storage.DocumentStore) Source {
	return &docSource{store: store, collection: "accounts", valueField: "address"}
}

// NewAssetSource resolves fully-qualified asset names.
func NewAssetSource(store storage.DocumentStore) Source {
	return &docSource{store: store, collection: "assets", valueField: "name"}
}

// NewPoolSource resolves liquidity pool hashes.
func NewPoolSource(store storage.DocumentStore) Source {
	return &docSource{store: store, collection: "pools", valueField: "hash"}
}

// memoSource is asymmetric: memos are not indexed by content, so the
// value→id direction fails fast.
type memoSource struct {
	docSource
}

func (s *memoSource) SearchByValue(ctx context.Context, network string, values []string) (map[string]int64, error) {
	return nil, ErrUnsupported
}

// NewMemoSource resolves memo ids to their values.
func NewMemoSource(store storage.DocumentStore) Source {
	return &memoSource{docSource{store: store, collection: "memos", valueField: "value"}}
}
