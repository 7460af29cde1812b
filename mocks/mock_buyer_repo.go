package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/domain"
)

// MockBuyerRepo is a mock implementation of port.BuyerRepository.
type MockBuyerRepo struct {
	mock.Mock
}

func (m *MockBuyerRepo) Create(ctx context.Context, buyer *domain.Buyer) error {
	args := m.Called(ctx, buyer)
	return args.Error(0)
}

func (m *MockBuyerRepo) GetByNTN(ctx context.Context, tenantID uuid.UUID, ntn string) (*domain.Buyer, error) {
	args := m.Called(ctx, tenantID, ntn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Buyer), args.Error(1)
}

func (m *MockBuyerRepo) ListByNTNs(ctx context.Context, tenantID uuid.UUID, ntns []string) ([]domain.Buyer, error) {
	args := m.Called(ctx, tenantID, ntns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Buyer), args.Error(1)
}
