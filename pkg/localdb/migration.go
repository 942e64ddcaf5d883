package localdb

import (
	"embed"
	"fmt"
	"sync"

	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps dialect and base FS in package globals
var gooseMu sync.Mutex

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Panic(fmt.Sprintf(format, v...))
}

// Migrate brings the local schema to the latest version. It must run before
// any store touches the database.
func Migrate(db *DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migrate local db: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func Version(db *DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	sqlDB, err := db.conn.DB()
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(sqlDB)
}
