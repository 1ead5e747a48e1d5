package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var postgresSchema = []string{`CREATE TABLE IF NOT EXISTS cycle_journal (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	cycle INTEGER NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	start_station TEXT NOT NULL,
	end_station TEXT NOT NULL,
	passengers TEXT[] NOT NULL DEFAULT '{}',
	record JSONB NOT NULL
)`,
	`ALTER TABLE cycle_journal ADD COLUMN IF NOT EXISTS run_id TEXT NOT NULL DEFAULT ''`,
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

// Append inserts the record.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO cycle_journal (run_id, cycle, ts, start_station, end_station, passengers, record) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.RunID, rec.Cycle, rec.Timestamp, rec.StartStation, rec.EndStation, rec.Passengers(), b)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %d: %w", rec.Cycle, err)
	}
	return nil
}

// Query returns records matching q ordered by cycle.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Record, error) {
	query, args := postgresQuery(q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func postgresQuery(q Query) (string, []any) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	query := `SELECT record FROM cycle_journal WHERE TRUE`
	if q.RunID != "" {
		query += ` AND run_id = ` + next(q.RunID)
	}
	if q.FromCycle > 0 {
		query += ` AND cycle >= ` + next(q.FromCycle)
	}
	if q.ToCycle > 0 {
		query += ` AND cycle <= ` + next(q.ToCycle)
	}
	if q.Station != "" {
		p := next(q.Station)
		query += ` AND (start_station = ` + p + ` OR end_station = ` + p + `)`
	}
	if q.PassengerID != "" {
		query += ` AND ` + next(q.PassengerID) + ` = ANY(passengers)`
	}
	query += ` ORDER BY cycle, id`
	return query, args
}
