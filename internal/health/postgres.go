package health

import (
	"context"
	"database/sql"
)

// PostgresChecker implements health checking for the candidate
// store's database.
type PostgresChecker struct {
	db *sql.DB
}

// NewPostgresChecker creates a Postgres health checker.
func NewPostgresChecker(db *sql.DB) *PostgresChecker {
	return &PostgresChecker{
		db: db,
	}
}

// HealthCheck performs a health check by pinging the database.
func (p *PostgresChecker) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
