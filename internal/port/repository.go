package port

import (
	"context"

	"github.com/google/uuid"

	"taxlink/internal/domain"
)

// BuyerRepository defines the contract for buyer persistence.
// All query methods include tenantID to enforce tenant isolation at the data layer.
type BuyerRepository interface {
	Create(ctx context.Context, buyer *domain.Buyer) error
	GetByNTN(ctx context.Context, tenantID uuid.UUID, ntn string) (*domain.Buyer, error)
	// ListByNTNs returns every buyer whose NTN appears in the given set,
	// in a single query. Missing NTNs are simply absent from the result.
	ListByNTNs(ctx context.Context, tenantID uuid.UUID, ntns []string) ([]domain.Buyer, error)
}

// ProductRepository defines the contract for product catalog persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Product, error)
	// ListByNames matches product names case-insensitively, in a single query.
	ListByNames(ctx context.Context, tenantID uuid.UUID, names []string) ([]domain.Product, error)
}
