package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS cycle_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL DEFAULT '',
        cycle INTEGER,
        ts INTEGER,
        start_station TEXT,
        end_station TEXT,
        passengers TEXT,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	if err := addRunIDColumn(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// addRunIDColumn upgrades journals created before records carried a run id.
func addRunIDColumn(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('cycle_journal')`)
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		if name == "run_id" {
			found = true
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = db.Exec(`ALTER TABLE cycle_journal ADD COLUMN run_id TEXT NOT NULL DEFAULT ''`)
	return err
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cycle_journal (run_id, cycle, ts, start_station, end_station, passengers, record) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Cycle, rec.Timestamp.Unix(), rec.StartStation, rec.EndStation, passengerColumn(rec), string(b))
	return err
}

// Query returns records matching q ordered by cycle.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	query, args := sqliteQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// passengerColumn stores ids comma-delimited on both ends so a substring
// search for ",id," matches whole ids only.
func passengerColumn(rec Record) string {
	return "," + strings.Join(rec.Passengers(), ",") + ","
}

func sqliteQuery(q Query) (string, []any) {
	var args []any
	query := `SELECT record FROM cycle_journal WHERE 1=1`
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.FromCycle > 0 {
		query += ` AND cycle >= ?`
		args = append(args, q.FromCycle)
	}
	if q.ToCycle > 0 {
		query += ` AND cycle <= ?`
		args = append(args, q.ToCycle)
	}
	if q.Station != "" {
		query += ` AND (start_station = ? OR end_station = ?)`
		args = append(args, q.Station, q.Station)
	}
	if q.PassengerID != "" {
		// instr is case sensitive and has no wildcards, unlike LIKE
		query += ` AND instr(passengers, ?) > 0`
		args = append(args, ","+q.PassengerID+",")
	}
	query += ` ORDER BY cycle, id`
	return query, args
}
