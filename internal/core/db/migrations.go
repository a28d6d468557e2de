package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hollywood0805/Validation-engine-Backend/migrations"
)

// MigrationStatus is the state of one embedded migration file.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

type migration struct {
	id       string
	checksum string
	sql      string
}

type appliedRow struct {
	ID          string    `db:"migration_id"`
	Checksum    string    `db:"checksum"`
	AppliedAt   time.Time `db:"applied_at"`
	ExecutionMs int64     `db:"execution_ms"`
}

// migrator pairs the driver's embedded files with the rows already
// recorded in schema_migrations.
type migrator struct {
	db      *sqlx.DB
	files   []migration
	applied map[string]appliedRow
}

// MigrateUp applies pending migrations in file-name order, one transaction
// each. Applied files whose checksum changed abort the run before anything
// is applied.
func MigrateUp(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.verify(); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	for _, f := range m.files {
		if _, done := m.applied[f.id]; done {
			continue
		}
		if err := m.apply(f); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus lists every embedded migration with its applied state.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.files))
	for _, f := range m.files {
		status := MigrationStatus{ID: f.id, Checksum: f.checksum}
		if row, ok := m.applied[f.id]; ok {
			appliedAt := row.AppliedAt
			status.Applied = true
			status.AppliedAt = &appliedAt
			status.Checksum = row.Checksum
			status.ExecutionMs = row.ExecutionMs
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newMigrator(db *sqlx.DB) (*migrator, error) {
	fsys, err := migrations.For(db.DriverName())
	if err != nil {
		return nil, err
	}
	files, err := loadMigrations(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}

	// TIMESTAMP on both drivers so applied_at scans into time.Time.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			execution_ms INTEGER NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var rows []appliedRow
	if err := db.Select(&rows, "SELECT migration_id, checksum, applied_at, execution_ms FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[string]appliedRow, len(rows))
	for _, r := range rows {
		applied[r.ID] = r
	}

	return &migrator{db: db, files: files, applied: applied}, nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	files := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		files = append(files, migration{
			id:       path.Base(name),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(content),
		})
	}
	return files, nil
}

// verify checks that every recorded migration still exists unchanged.
func (m *migrator) verify() error {
	embedded := make(map[string]string, len(m.files))
	for _, f := range m.files {
		embedded[f.id] = f.checksum
	}
	for id, row := range m.applied {
		want, ok := embedded[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if row.Checksum != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, row.Checksum)
		}
	}
	return nil
}

// apply runs one file and records it in the same transaction.
func (m *migrator) apply(f migration) error {
	start := time.Now()

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", f.id, err)
	}
	defer tx.Rollback()

	// lib/pq runs one statement per Exec.
	for _, stmt := range splitStatements(f.sql) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", f.id, err)
		}
	}

	if _, err := tx.Exec(
		tx.Rebind("INSERT INTO schema_migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		f.id, f.checksum, time.Now().UTC(), time.Since(start).Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", f.id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", f.id, err)
	}
	m.applied[f.id] = appliedRow{ID: f.id, Checksum: f.checksum}
	return nil
}

// splitStatements drops `--` comment lines and splits on semicolons.
func splitStatements(sql string) []string {
	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			kept = append(kept, line)
		}
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
