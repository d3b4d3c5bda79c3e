package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/sentcraft/internal/item"
)

const poolTable = "pool_items"

var poolColumns = []string{
	"content_key", "bucket", "score", "item_json", "run_id", "review_score", "created_at", "consumed_by",
}

type poolRepo struct {
	db *sql.DB
}

func (r *poolRepo) AddCandidates(ctx context.Context, items []PoolItem) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, p := range items {
		body, err := json.Marshal(p.Item)
		if err != nil {
			return 0, fmt.Errorf("marshal item %s: %w", p.Item.ID, err)
		}
		created := p.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		q, args := entsql.Dialect(dialect.SQLite).
			Insert(poolTable).
			Columns(poolColumns[:7]...).
			Values(p.Key, string(p.Bucket), p.Score, string(body), p.RunID, p.ReviewScore, created.UnixMilli()).
			OnConflict(entsql.ConflictColumns("content_key"), entsql.DoNothing()).
			Query()
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, fmt.Errorf("insert pool item %s: %w", p.Key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

func (r *poolRepo) ListAvailable(ctx context.Context) ([]PoolItem, error) {
	q, args := entsql.Dialect(dialect.SQLite).
		Select(poolColumns...).
		From(entsql.Table(poolTable)).
		Where(entsql.IsNull("consumed_by")).
		OrderBy("created_at", "content_key").
		Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}
	defer rows.Close()

	var out []PoolItem
	for rows.Next() {
		p, err := scanPoolItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPoolItem(rows *sql.Rows) (PoolItem, error) {
	var (
		p        PoolItem
		bucket   string
		body     string
		created  int64
		consumed sql.NullString
	)
	if err := rows.Scan(&p.Key, &bucket, &p.Score, &body, &p.RunID, &p.ReviewScore, &created, &consumed); err != nil {
		return p, fmt.Errorf("scan pool item: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &p.Item); err != nil {
		return p, fmt.Errorf("decode pool item %s: %w", p.Key, err)
	}
	p.Bucket = item.Bucket(bucket)
	p.CreatedAt = time.UnixMilli(created)
	p.ConsumedBy = consumed.String
	return p, nil
}

func (r *poolRepo) ConsumedKeys(ctx context.Context) ([]string, error) {
	q, args := entsql.Dialect(dialect.SQLite).
		Select("content_key").
		From(entsql.Table(poolTable)).
		Where(entsql.NotNull("consumed_by")).
		Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query consumed keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *poolRepo) Stats(ctx context.Context) (PoolStats, error) {
	stats := PoolStats{Available: make(map[item.Bucket]int)}

	q, args := entsql.Dialect(dialect.SQLite).
		Select("bucket", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(poolTable)).
		Where(entsql.IsNull("consumed_by")).
		GroupBy("bucket").
		Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return stats, fmt.Errorf("query pool stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			b string
			n int
		)
		if err := rows.Scan(&b, &n); err != nil {
			return stats, fmt.Errorf("scan pool stats: %w", err)
		}
		stats.Available[item.Bucket(b)] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	q, args = entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(poolTable)).
		Where(entsql.NotNull("consumed_by")).
		Query()
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&stats.Consumed); err != nil {
		return stats, fmt.Errorf("count consumed: %w", err)
	}
	return stats, nil
}
