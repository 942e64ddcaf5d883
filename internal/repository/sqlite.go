package repository

import (
	"github.com/nimasrn/denitracker/pkg/pg"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Entities lists every table the ledger schema holds, for AutoMigrate in
// tests and embedded demos.
func Entities() []any {
	return []any{
		&CustomerEntity{},
		&ItemEntity{},
		&ItemPriceHistoryEntity{},
		&TransactionEntity{},
		&TransactionItemEntity{},
	}
}

// OpenSQLite opens an in-process ledger database with the schema created.
func OpenSQLite(dsn string) (*pg.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(Entities()...); err != nil {
		return nil, err
	}
	return pg.New(db, db), nil
}
