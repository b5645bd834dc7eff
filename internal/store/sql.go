package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore implements Store on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and runs migrations. For SQLite, dsn is a
// file path; its directory is created if needed.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS buffers (
			project TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (project, key)
		)`,
		`CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_project ON publications(project)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, project, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT value FROM buffers WHERE project = ? AND key = ?`),
		project, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", project, key, err)
	}
	return value, nil
}

// Set implements Store.
func (s *SQLStore) Set(ctx context.Context, project, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO buffers (project, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (project, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		project, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", project, key, err)
	}
	return nil
}

// All implements Store.
func (s *SQLStore) All(ctx context.Context, project string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT key, value FROM buffers WHERE project = ?`), project)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", project, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// RecordPublication implements Store.
func (s *SQLStore) RecordPublication(ctx context.Context, p Publication) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO publications (id, project, url, created_at) VALUES (?, ?, ?, ?)`),
		p.ID, p.Project, p.URL, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record publication %s: %w", p.ID, err)
	}
	return nil
}

// Publications implements Store.
func (s *SQLStore) Publications(ctx context.Context, project string) ([]Publication, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, project, url, created_at FROM publications WHERE project = ? ORDER BY created_at DESC, id`),
		project)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ID, &p.Project, &p.URL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
