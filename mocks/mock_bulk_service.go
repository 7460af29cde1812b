package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/domain"
	"taxlink/internal/ingest"
	"taxlink/internal/service"
)

// MockBulkService is a mock implementation of service.BulkService.
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) ValidateBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow) (*service.BatchValidation, error) {
	args := m.Called(ctx, tenantID, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchValidation), args.Error(1)
}

func (m *MockBulkService) BuildBatch(ctx context.Context, tenantID uuid.UUID, validation *service.BatchValidation, createdBy uuid.UUID) ([]*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, validation, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockBulkService) PersistBatch(ctx context.Context, tenantID uuid.UUID, invoices []*domain.Invoice, chunkSize int) (*service.PersistResult, error) {
	args := m.Called(ctx, tenantID, invoices, chunkSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PersistResult), args.Error(1)
}

func (m *MockBulkService) IngestBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow, createdBy uuid.UUID, chunkSize int) (*service.BatchValidation, *service.PersistResult, error) {
	args := m.Called(ctx, tenantID, rows, createdBy, chunkSize)
	var validation *service.BatchValidation
	if args.Get(0) != nil {
		validation = args.Get(0).(*service.BatchValidation)
	}
	var result *service.PersistResult
	if args.Get(1) != nil {
		result = args.Get(1).(*service.PersistResult)
	}
	return validation, result, args.Error(2)
}
