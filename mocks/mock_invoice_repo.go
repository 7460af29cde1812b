package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) CreateBatch(ctx context.Context, invoices []*domain.Invoice, chunkSize int) ([]int64, error) {
	args := m.Called(ctx, invoices, chunkSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) UpdateNumberAndStatus(ctx context.Context, tenantID uuid.UUID, invoiceID int64, number string, status domain.Status) error {
	args := m.Called(ctx, tenantID, invoiceID, number, status)
	return args.Error(0)
}

func (m *MockInvoiceRepo) MarkPosted(ctx context.Context, tenantID uuid.UUID, invoiceID int64, authorityNumber string) error {
	args := m.Called(ctx, tenantID, invoiceID, authorityNumber)
	return args.Error(0)
}

func (m *MockInvoiceRepo) MaxSystemIDSeq(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepo) MaxNumberSeq(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error) {
	args := m.Called(ctx, tenantID, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepo) NumberExists(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, tenantID, number)
	return args.Bool(0), args.Error(1)
}
