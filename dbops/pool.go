// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dbops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/danielhkuo/formsink/cliparse"
)

// Pool wraps the process-wide PostgreSQL connection pool. It is constructed
// once by the application entry point and injected into every component
// that needs database access; there is no ambient global.
type Pool struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(ctx context.Context, cfg cliparse.Config) (*Pool, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB exposes the underlying handle for components that need it directly
// (facade construction, health checks).
func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close tears the pool down. Called exactly once by the shutdown hook.
func (p *Pool) Close() error {
	return p.db.Close()
}
