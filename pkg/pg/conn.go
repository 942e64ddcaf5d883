package pg

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Config addresses one Postgres server. Zero pool settings keep the
// database/sql defaults.
type Config struct {
	User     string
	Host     string
	Port     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + quote(c.Host),
		"port=" + quote(c.Port),
		"user=" + quote(c.User),
		"password=" + quote(c.Password),
		"dbname=" + quote(c.Database),
		"sslmode=" + sslMode,
	}
	return strings.Join(parts, " ")
}

// quote escapes a libpq keyword value; empty values are quoted so the
// next keyword is not swallowed.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (c Config) applyPool(db *sql.DB) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
}

func (c Config) String() string {
	return fmt.Sprintf("postgres://%s@%s:%s/%s", c.User, c.Host, c.Port, c.Database)
}

func newSqlConnection(config Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.dsn())
	if err != nil {
		return nil, err
	}
	config.applyPool(db)
	return db, nil
}
