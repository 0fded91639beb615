package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements DocumentStore, SearchIndex and ShardCatalog over
// PostgreSQL. Collections and per-year indices are plain tables named by the
// shard directory; the catalog lives in the shard_catalog table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func opSQL(op Op) string {
	switch op {
	case Eq:
		return "="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	default:
		return "="
	}
}

// buildSelect renders a generic Query into a SQL statement over the given
// table, selecting the given column list ("*" for full rows).
func buildSelect(table, columns string, q Query) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(q.Conditions))

	fmt.Fprintf(&b, "SELECT %s FROM %q", columns, table)
	for i, c := range q.Conditions {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, c.Value)
		switch c.Op {
		case In:
			fmt.Fprintf(&b, "%q = ANY($%d)", c.Field, len(args))
		case Overlaps:
			fmt.Fprintf(&b, "%q && $%d", c.Field, len(args))
		default:
			fmt.Fprintf(&b, "%q %s $%d", c.Field, opSQL(c.Op), len(args))
		}
	}
	if q.SortField != "" {
		dir := "ASC"
		if q.SortOrder == Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %q %s", q.SortField, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Skip > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Skip)
	}
	return b.String(), args
}

func (s *PostgresStore) Find(ctx context.Context, collection string, q Query) ([]Row, error) {
	sql, args := buildSelect(collection, "*", q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, Error.New("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Row
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, Error.New("scan %s: %w", collection, err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Error.New("iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, collection string, q Query) (Row, error) {
	q.Limit = 1
	rows, err := s.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRow
	}
	return rows[0], nil
}

func (s *PostgresStore) Search(ctx context.Context, index string, q Query) ([]uint64, error) {
	sql, args := buildSelect(index, `"id"`, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, Error.New("search %s: %w", index, err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, Error.New("scan %s: %w", index, err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, Error.New("iterate %s: %w", index, err)
	}
	return ids, nil
}

func (s *PostgresStore) ListShards(ctx context.Context, network string) ([]Shard, error) {
	const q = `SELECT shard_key, collection_name FROM shard_catalog
WHERE network = $1
ORDER BY shard_key ASC`
	rows, err := s.pool.Query(ctx, q, network)
	if err != nil {
		return nil, Error.New("list shards: %w", err)
	}
	defer rows.Close()

	var shards []Shard
	for rows.Next() {
		var sh Shard
		if err := rows.Scan(&sh.Key, &sh.Name); err != nil {
			return nil, Error.New("scan shard: %w", err)
		}
		shards = append(shards, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, Error.New("iterate shards: %w", err)
	}
	return shards, nil
}
