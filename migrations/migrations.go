// Package migrations embeds the schema of the API key store.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

// One directory per supported driver; files apply in name order.
//
//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

var dirs = map[string]string{
	"sqlite3":  "sqlite",
	"postgres": "postgres",
}

// For returns the migration files for a sqlx driver name.
func For(driver string) (fs.FS, error) {
	dir, ok := dirs[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return fs.Sub(files, dir)
}
