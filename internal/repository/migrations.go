package repository

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrations is the Postgres schema, rooted at the migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
