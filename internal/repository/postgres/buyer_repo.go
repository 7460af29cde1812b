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

type buyerRepo struct {
	db *sqlx.DB
}

// NewBuyerRepo creates a new PostgreSQL-backed BuyerRepository.
func NewBuyerRepo(db *sqlx.DB) port.BuyerRepository {
	return &buyerRepo{db: db}
}

func (r *buyerRepo) Create(ctx context.Context, buyer *domain.Buyer) error {
	now := time.Now().UTC()
	buyer.CreatedAt = now
	buyer.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO buyers (tenant_id, ntn, name, province, address, registration_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		buyer.TenantID, buyer.NTN, buyer.Name, buyer.Province, buyer.Address,
		buyer.RegistrationType, buyer.CreatedAt, buyer.UpdatedAt).Scan(&buyer.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateBuyerNTN
		}
		return fmt.Errorf("buyerRepo.Create: %w", err)
	}
	return nil
}

func (r *buyerRepo) GetByNTN(ctx context.Context, tenantID uuid.UUID, ntn string) (*domain.Buyer, error) {
	var buyer domain.Buyer
	err := r.db.GetContext(ctx, &buyer,
		"SELECT * FROM buyers WHERE tenant_id = $1 AND ntn = $2", tenantID, ntn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBuyerNotFound
		}
		return nil, fmt.Errorf("buyerRepo.GetByNTN: %w", err)
	}
	return &buyer, nil
}

func (r *buyerRepo) ListByNTNs(ctx context.Context, tenantID uuid.UUID, ntns []string) ([]domain.Buyer, error) {
	if len(ntns) == 0 {
		return nil, nil
	}
	var buyers []domain.Buyer
	err := r.db.SelectContext(ctx, &buyers,
		"SELECT * FROM buyers WHERE tenant_id = $1 AND ntn = ANY($2)",
		tenantID, ntns)
	if err != nil {
		return nil, fmt.Errorf("buyerRepo.ListByNTNs: %w", err)
	}
	return buyers, nil
}
