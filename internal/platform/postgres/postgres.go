// Package postgres opens the two connection handles the postgres backends use:
// a pgx pool for the trust ledger and a database/sql handle (lib/pq) for the
// audit store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// Client bundles the pgx pool and the database/sql handle for one DSN.
type Client struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Open connects both handles and pings them.
func Open(ctx context.Context, dsn string) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open sql handle: %w", err)
	}
	c := &Client{Pool: pool, DB: db}
	if err := c.Health(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Health pings both handles.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres pool ping failed: %w", err)
	}
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close releases both handles.
func (c *Client) Close() {
	c.Pool.Close()
	_ = c.DB.Close()
}
