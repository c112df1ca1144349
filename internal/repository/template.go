package repository

import (
	"context"
	"fmt"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateRepository handles database operations for package templates.
type TemplateRepository struct {
	db *pgxpool.Pool
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByLookupKey resolves a package template by its provider lookup key.
// Returns (nil, nil) when no template matches.
func (r *TemplateRepository) FindByLookupKey(ctx context.Context, lookupKey string) (*domain.PackageTemplate, error) {
	query := `
		SELECT id, name, lookup_key, tier, trainer_id, price_cents, currency, created_at
		FROM package_templates WHERE lookup_key = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, lookupKey))
}

// FindByID returns a package template by id, or (nil, nil).
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*domain.PackageTemplate, error) {
	query := `
		SELECT id, name, lookup_key, tier, trainer_id, price_cents, currency, created_at
		FROM package_templates WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *TemplateRepository) scanOne(row pgx.Row) (*domain.PackageTemplate, error) {
	var t domain.PackageTemplate
	err := row.Scan(&t.ID, &t.Name, &t.LookupKey, &t.Tier, &t.TrainerID, &t.PriceCents, &t.Currency, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find package template: %w", err)
	}
	return &t, nil
}
