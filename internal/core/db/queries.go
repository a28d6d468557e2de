package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// requiredQueries must be present in the embedded query files.
var requiredQueries = []string{
	"insert-api-key",
	"get-api-key-by-hash",
	"get-api-key-by-id",
	"list-api-keys",
	"update-last-used",
	"revoke-api-key",
}

// Queries runs the named statements of the key store. Statements are
// rebound to the driver's placeholder style once, at load.
type Queries struct {
	db    *sqlx.DB
	named map[string]string
}

// LoadQueries parses every embedded queries/*.sql file with dotsql and
// rebinds the statements for db's driver.
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	files, err := fs.Glob(queriesFS, "queries/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}

	dots := make([]*dotsql.DotSql, 0, len(files))
	for _, path := range files {
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		dot, err := dotsql.LoadFromString(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		dots = append(dots, dot)
	}

	merged := dotsql.Merge(dots...)
	named := make(map[string]string, len(merged.QueryMap()))
	for name := range merged.QueryMap() {
		query, err := merged.Raw(name)
		if err != nil {
			return nil, fmt.Errorf("failed to render query %s: %w", name, err)
		}
		named[name] = db.Rebind(query)
	}
	for _, name := range requiredQueries {
		if _, ok := named[name]; !ok {
			return nil, fmt.Errorf("missing named query %q", name)
		}
	}

	return &Queries{db: db, named: named}, nil
}

func (q *Queries) query(name string) (string, error) {
	query, ok := q.named[name]
	if !ok {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return query, nil
}

// Exec runs a named statement that returns no rows.
func (q *Queries) Exec(name string, args ...any) (sql.Result, error) {
	query, err := q.query(name)
	if err != nil {
		return nil, err
	}
	return q.db.Exec(query, args...)
}

// Get scans a single row into dest. Returns sql.ErrNoRows when nothing matches.
func (q *Queries) Get(name string, dest any, args ...any) error {
	query, err := q.query(name)
	if err != nil {
		return err
	}
	return q.db.Get(dest, query, args...)
}

// Select scans every row into the slice dest.
func (q *Queries) Select(name string, dest any, args ...any) error {
	query, err := q.query(name)
	if err != nil {
		return err
	}
	return q.db.Select(dest, query, args...)
}

// Names lists the loaded query names.
func (q *Queries) Names() []string {
	names := make([]string, 0, len(q.named))
	for name := range q.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
