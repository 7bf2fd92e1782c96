package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/l1jgo/worldnav/internal/record"
)

// RecordRepo stores world records in PostgreSQL as JSONB.
type RecordRepo struct {
	pool *pgxpool.Pool
}

// NewRecordRepo wraps a pool whose schema is already migrated. Close closes
// the pool.
func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// Save upserts the record and logs a history row in one transaction.
func (r *RecordRepo) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", e.Name, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("record begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO world_records (name, tick, body, saved_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET tick = EXCLUDED.tick, body = EXCLUDED.body, saved_at = EXCLUDED.saved_at`,
		e.Name, int64(e.Tick), data,
	); err != nil {
		return fmt.Errorf("record upsert: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO world_record_history (name, tick, tasks) VALUES ($1, $2, $3)`,
		e.Name, int64(e.Tick), e.Tasks,
	); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *RecordRepo) Load(ctx context.Context, name string) (Entry, error) {
	var (
		raw  []byte
		tick int64
		e    = Entry{Name: name}
	)
	err := r.pool.QueryRow(ctx,
		`SELECT tick, body, saved_at FROM world_records WHERE name = $1`, name,
	).Scan(&tick, &raw, &e.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}

	e.Tick = uint64(tick)
	e.Record = record.New()
	if err := json.Unmarshal(raw, e.Record); err != nil {
		return e, fmt.Errorf("decode record %s: %w", name, err)
	}
	return e, nil
}

// History returns the most recent saves of name, newest first.
func (r *RecordRepo) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tick, tasks, saved_at FROM world_record_history
		 WHERE name = $1 ORDER BY id DESC LIMIT $2`,
		name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			tick  int64
			tasks int32
			e     = Entry{Name: name}
		)
		if err := rows.Scan(&tick, &tasks, &e.SavedAt); err != nil {
			return nil, err
		}
		e.Tick, e.Tasks = uint64(tick), int(tasks)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the pool.
func (r *RecordRepo) Close() error {
	r.pool.Close()
	return nil
}
