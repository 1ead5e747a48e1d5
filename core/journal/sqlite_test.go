package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:journal_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Append(context.Background(), FromReport(sampleReport())); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), Query{PassengerID: "p1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Trip == nil || out[0].Trip.Cost != 2 {
		t.Fatalf("unexpected records %+v", out)
	}
	out, _ = store.Query(context.Background(), Query{PassengerID: "p"})
	if len(out) != 0 {
		t.Fatalf("partial id must not match, got %d", len(out))
	}
	out, _ = store.Query(context.Background(), Query{Station: "C", FromCycle: 3, ToCycle: 3})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}

func TestSQLiteStore_PassengerIDIsExact(t *testing.T) {
	store, err := NewSQLiteStore("file:journal_exact_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	if err := store.Append(ctx, Record{Cycle: 1, StartStation: "A", EndStation: "B", Boarded: []string{"abc"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, Record{Cycle: 2, StartStation: "B", EndStation: "C", Boarded: []string{"x"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	tests := []struct {
		id   string
		want int
	}{
		{"abc", 1},
		{"a_c", 0},
		{"ABC", 0},
		{"a%", 0},
		{"%", 0},
		{"_", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			out, err := store.Query(ctx, Query{PassengerID: tt.id})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(out) != tt.want {
				t.Fatalf("passenger %q matched %d records, want %d", tt.id, len(out), tt.want)
			}
		})
	}
}

func TestSQLiteStore_RunIDFilter(t *testing.T) {
	store, err := NewSQLiteStore("file:journal_run_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	for _, run := range []string{"run-a", "run-b"} {
		rec := FromReport(sampleReport())
		rec.RunID = run
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(ctx, Query{RunID: "run-b", FromCycle: 3, ToCycle: 3})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].RunID != "run-b" {
		t.Fatalf("unexpected records %+v", out)
	}
	out, _ = store.Query(ctx, Query{FromCycle: 3, ToCycle: 3})
	if len(out) != 2 {
		t.Fatalf("expected both runs, got %d", len(out))
	}
}

func TestSQLiteStore_MigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open legacy: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE cycle_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cycle INTEGER,
        ts DATETIME,
        start_station TEXT,
        end_station TEXT,
        passengers TEXT,
        record TEXT
    )`); err != nil {
		t.Fatalf("legacy schema: %v", err)
	}
	_ = db.Close()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := FromReport(sampleReport())
	rec.RunID = "run-a"
	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("append after migration: %v", err)
	}
	out, err := store.Query(context.Background(), Query{RunID: "run-a"})
	if err != nil || len(out) != 1 {
		t.Fatalf("query = %v, %v", out, err)
	}
}

func TestPostgresQueryPlaceholders(t *testing.T) {
	q, args := postgresQuery(Query{RunID: "r1", FromCycle: 1, ToCycle: 9, Station: "B", PassengerID: "p1"})
	want := `SELECT record FROM cycle_journal WHERE TRUE AND run_id = $1 AND cycle >= $2 AND cycle <= $3 AND (start_station = $4 OR end_station = $4) AND $5 = ANY(passengers) ORDER BY cycle, id`
	if q != want {
		t.Fatalf("query = %s", q)
	}
	if len(args) != 5 || args[0] != "r1" || args[3] != "B" || args[4] != "p1" {
		t.Fatalf("args = %v", args)
	}
}

func TestNewBackends(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendNone, BackendJSONL, BackendRotating, BackendSQLite} {
		cfg := Config{Backend: backend, Path: dir + "/j-" + backend}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: validate: %v", backend, err)
		}
		s, err := New(context.Background(), cfg)
		if err != nil {
			t.Fatalf("%s: new: %v", backend, err)
		}
		_ = s.Close()
	}
	if err := (Config{Backend: BackendPostgres}).Validate(); err == nil {
		t.Fatalf("postgres without dsn should fail")
	}
	if _, err := New(context.Background(), Config{Backend: "kafka"}); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}
