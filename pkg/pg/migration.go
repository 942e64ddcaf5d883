package pg

import (
	"context"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration found at the root of fsys.
func Migrate(ctx context.Context, cfg Config, fsys fs.FS) error {
	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration.String())
	}
	return nil
}
