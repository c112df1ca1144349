package repository

import (
	"context"
	"fmt"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration and seeds the base
// package templates.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT 'client',
			first_name TEXT NOT NULL DEFAULT '',
			full_name  TEXT NOT NULL DEFAULT '',
			trainer_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_trainer_id ON users(trainer_id);

		CREATE TABLE IF NOT EXISTS offers (
			id           TEXT PRIMARY KEY,
			token        TEXT NOT NULL UNIQUE,
			trainer_id   TEXT NOT NULL,
			client_email TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'PENDING',
			packages     JSONB NOT NULL DEFAULT '[]',
			expires_at   TIMESTAMPTZ NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_offers_trainer_id ON offers(trainer_id);

		CREATE TABLE IF NOT EXISTS package_templates (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			lookup_key  TEXT NOT NULL UNIQUE,
			tier        TEXT NOT NULL,
			trainer_id  TEXT,
			price_cents BIGINT NOT NULL DEFAULT 0,
			currency    TEXT NOT NULL DEFAULT 'usd',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS service_deliveries (
			id                TEXT PRIMARY KEY,
			trainer_id        TEXT NOT NULL,
			client_name       TEXT NOT NULL DEFAULT '',
			package_name      TEXT NOT NULL DEFAULT '',
			payment_intent_id TEXT NOT NULL,
			status            TEXT NOT NULL DEFAULT 'PENDING',
			refunded_at       TIMESTAMPTZ,
			refund_reason     TEXT,
			due_date          TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_deliveries_payment_intent ON service_deliveries(payment_intent_id);

		CREATE TABLE IF NOT EXISTS user_subscriptions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			remote_id    TEXT NOT NULL UNIQUE,
			status       TEXT NOT NULL DEFAULT 'ACTIVE',
			package_id   TEXT NOT NULL,
			lookup_key   TEXT NOT NULL,
			trainer_id   TEXT,
			period_start TIMESTAMPTZ NOT NULL,
			period_end   TIMESTAMPTZ NOT NULL,
			trial        BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_subscriptions_user_id ON user_subscriptions(user_id);

		CREATE TABLE IF NOT EXISTS webhook_events (
			event_id     TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return seedPackageTemplates(ctx, pool)
}

// seedPackageTemplates inserts the base plan catalog on first startup.
// Trainer-specific coaching packages are created later via the API.
func seedPackageTemplates(ctx context.Context, pool *pgxpool.Pool) error {
	for _, plan := range domain.AvailablePlans() {
		_, err := pool.Exec(ctx, `
			INSERT INTO package_templates (id, name, lookup_key, tier, price_cents, currency)
			VALUES ($1, $2, $3, $4, $5, 'usd')
			ON CONFLICT (lookup_key) DO NOTHING
		`, uuid.New().String(), plan.Name, plan.LookupKey, string(plan.Tier), plan.PriceCents)
		if err != nil {
			return fmt.Errorf("failed to seed package template %s: %w", plan.LookupKey, err)
		}
	}
	return nil
}
