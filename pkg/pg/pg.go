package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/denitracker/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type txContextKey struct{}

// DB pairs a read and a write connection. Both may be the same pool.
// Repositories call Read or Write with their ctx; inside WithinTransaction
// both return the open transaction.
type DB struct {
	read  *gorm.DB
	write *gorm.DB
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	}
}

// Create opens one gorm pool against config.
func Create(config Config, withDebug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.dsn()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	config.applyPool(sqlDB)

	if withDebug {
		db = db.Debug()
	}
	return db, nil
}

// CreateReadWrite opens the read and write pools. Identical configs share a
// single pool.
func CreateReadWrite(readConfig, writeConfig Config, withDebug bool) (*DB, error) {
	write, err := Create(writeConfig, withDebug)
	if err != nil {
		return nil, err
	}
	if readConfig == writeConfig {
		logger.Debug("postgres read and write share one pool", "server", writeConfig.String())
		return New(write, write), nil
	}
	read, err := Create(readConfig, withDebug)
	if err != nil {
		closePool(write)
		return nil, err
	}
	return New(read, write), nil
}

// New wraps already opened connections, e.g. a SQLite database in tests.
func New(read, write *gorm.DB) *DB {
	return &DB{read: read, write: write}
}

// WithinTransaction runs fn in a transaction carried by ctx. Nested calls
// join the outer transaction.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.write.WithContext(ctx)
}

// Read prefers an open transaction so a write is visible to reads that
// follow it in the same unit of work.
func (r *DB) Read(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.read.WithContext(ctx)
}

func (r *DB) Close() error {
	err := closePool(r.write)
	if r.read != r.write {
		err = errors.Join(err, closePool(r.read))
	}
	return err
}

func closePool(g *gorm.DB) error {
	if g == nil {
		return nil
	}
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the write connection.
func (r *DB) Ping(ctx context.Context) error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
