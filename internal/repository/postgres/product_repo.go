package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taxlink/internal/domain"
	"taxlink/internal/port"
)

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO products (tenant_id, name, hs_code, uom, sale_type, rate_label, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		product.TenantID, product.Name, product.HSCode, product.UOM,
		product.SaleType, product.RateLabel, product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("productRepo.Create: %w", err)
	}
	return nil
}

func (r *productRepo) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE tenant_id = $1 AND lower(name) = lower($2)", tenantID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.GetByName: %w", err)
	}
	return &product, nil
}

func (r *productRepo) ListByNames(ctx context.Context, tenantID uuid.UUID, names []string) ([]domain.Product, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	var products []domain.Product
	err := r.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE tenant_id = $1 AND lower(name) = ANY($2)",
		tenantID, lowered)
	if err != nil {
		return nil, fmt.Errorf("productRepo.ListByNames: %w", err)
	}
	return products, nil
}
