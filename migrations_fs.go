package scoopit

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the token schema for Postgres, with the SQLite variant
// under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

func GetMigrationsFS() fs.FS {
	return migrationsFS
}
