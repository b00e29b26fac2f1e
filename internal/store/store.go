package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore persists job postings and analyses in SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// New opens a store for the given driver ("sqlite" or "postgres") and ensures
// the schema exists. For sqlite the dsn is a file path.
func New(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection serialises writers and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", driver, err)
	}

	s := &SQLStore{db: db, dialect: driver, now: time.Now}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return New(context.Background(), DriverSQLite, dbPath)
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			` + idColumn + `,
			source        TEXT NOT NULL,
			source_job_id TEXT NOT NULL,
			title         TEXT NOT NULL,
			company       TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			city          TEXT NOT NULL DEFAULT '',
			country       TEXT NOT NULL DEFAULT 'CA',
			url           TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			posted_at     BIGINT,
			work_mode     TEXT NOT NULL DEFAULT '',
			salary_min    DOUBLE PRECISION,
			salary_max    DOUBLE PRECISION,
			currency      TEXT NOT NULL DEFAULT '',
			dedup_key     TEXT NOT NULL,
			created_at    BIGINT NOT NULL,
			UNIQUE (source, source_job_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_dedup_key ON jobs (dedup_key)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_city ON jobs (city)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			job_id          BIGINT PRIMARY KEY,
			skills          TEXT NOT NULL DEFAULT '[]',
			years_min       INTEGER,
			years_max       INTEGER,
			years_qualifier TEXT NOT NULL DEFAULT '',
			work_mode       TEXT NOT NULL,
			salary_min      DOUBLE PRECISION,
			salary_max      DOUBLE PRECISION,
			salary_currency TEXT NOT NULL DEFAULT '',
			salary_unit     TEXT NOT NULL DEFAULT '',
			source          TEXT NOT NULL,
			analyzed_at     BIGINT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// IsEmpty returns true if no jobs have been stored yet.
func (s *SQLStore) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// Cleanup deletes jobs (and their analyses) ingested longer ago than olderThan
// and returns the number of jobs removed.
func (s *SQLStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cleanup: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		"DELETE FROM analyses WHERE job_id IN (SELECT id FROM jobs WHERE created_at < ?)"), cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up analyses older than %v: %w", olderThan, err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM jobs WHERE created_at < ?"), cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up jobs older than %v: %w", olderThan, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cleanup: commit: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
