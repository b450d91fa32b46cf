package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// Supported watch-history drivers. The sql drivers are registered by blank imports in main.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB opens and pings the watch-history database
func OpenDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open failed: %w", driver, err)
	}
	if driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", driver, err)
	}
	return db, nil
}

var positional = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders to ? for sqlite. Statements must use each placeholder once, in order.
func rebind(driver, query string) string {
	if driver != DriverSQLite {
		return query
	}
	return positional.ReplaceAllString(query, "?")
}
