package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/service"
)

// MockSubmitService is a mock implementation of service.SubmitService.
type MockSubmitService struct {
	mock.Mock
}

func (m *MockSubmitService) SubmitInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*service.SubmitResult, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}
