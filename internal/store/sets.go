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

const setTable = "question_sets"

type setRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *setRepo) CommitSet(ctx context.Context, set *item.QuestionSet, keys []string, runID string) error {
	body, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal set %s: %w", set.SetID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	seq, err := r.seq.Next(ctx, tx, seqSets)
	if err != nil {
		return err
	}

	q, args := entsql.Dialect(dialect.SQLite).
		Insert(setTable).
		Columns("set_id", "sequence", "run_id", "set_json", "created_at").
		Values(set.SetID, seq, runID, string(body), time.Now().UnixMilli()).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert set %s: %w", set.SetID, err)
	}

	if len(keys) > 0 {
		in := make([]any, len(keys))
		for i, k := range keys {
			in[i] = k
		}
		q, args = entsql.Dialect(dialect.SQLite).
			Update(poolTable).
			Set("consumed_by", set.SetID).
			Where(entsql.And(entsql.In("content_key", in...), entsql.IsNull("consumed_by"))).
			Query()
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("consume pool items: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if int(n) != len(keys) {
			return fmt.Errorf("set %s: %d of %d members: %w", set.SetID, len(keys)-int(n), len(keys), ErrAlreadyConsumed)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *setRepo) selector() *entsql.Selector {
	return entsql.Dialect(dialect.SQLite).
		Select("set_json", "sequence", "run_id", "created_at").
		From(entsql.Table(setTable))
}

func (r *setRepo) List(ctx context.Context) ([]StoredSet, error) {
	q, args := r.selector().OrderBy("sequence").Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	var out []StoredSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *setRepo) Get(ctx context.Context, setID string) (*StoredSet, error) {
	q, args := r.selector().Where(entsql.EQ("set_id", setID)).Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query set %s: %w", setID, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanSet(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *setRepo) Count(ctx context.Context) (int, error) {
	q, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(setTable)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sets: %w", err)
	}
	return n, nil
}

func scanSet(rows *sql.Rows) (StoredSet, error) {
	var (
		s       StoredSet
		body    string
		created int64
	)
	if err := rows.Scan(&body, &s.Sequence, &s.RunID, &created); err != nil {
		return s, fmt.Errorf("scan set: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &s.Set); err != nil {
		return s, fmt.Errorf("decode set: %w", err)
	}
	s.CreatedAt = time.UnixMilli(created)
	return s, nil
}
