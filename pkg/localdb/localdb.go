// Package localdb opens the on-device SQLite database that mirrors the remote
// ledger and carries the offline write queue.
package localdb

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type txContextKey string

const txKey txContextKey = "trx"

const memoryPath = ":memory:"

type Config struct {
	Path  string
	Debug bool
}

func (c Config) dsn() string {
	if c.Path == "" || c.Path == memoryPath {
		return "file::memory:?_busy_timeout=5000"
	}
	path := c.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

// DB is the shared local database handle. A transaction started with
// WithinTransaction travels in the context and is picked up by Write/Read.
type DB struct {
	conn *gorm.DB
}

func Open(config Config) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(config.dsn()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	if config.Debug {
		db = db.Debug()
	}

	if config.Path == "" || config.Path == memoryPath {
		// every pooled connection to :memory: would be a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return &DB{conn: db}, nil
}

// New wraps an already opened gorm handle.
func New(conn *gorm.DB) *DB {
	return &DB{conn: conn}
}

func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.conn.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	return r.Write(ctx)
}

func (r *DB) Ping(ctx context.Context) error {
	sqlDB, err := r.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *DB) Close() error {
	sqlDB, err := r.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
