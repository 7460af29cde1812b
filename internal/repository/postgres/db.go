package postgres

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"taxlink/internal/config"
)

// NewDB opens a PostgreSQL pool via the pgx stdlib driver and verifies the
// connection before returning it.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	// Recycle connections so a rebalanced database endpoint is picked up.
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
