package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taxlink/internal/port"
)

// MockAuthorityClient is a mock implementation of port.AuthorityClient.
type MockAuthorityClient struct {
	mock.Mock
}

func (m *MockAuthorityClient) PostInvoice(ctx context.Context, payload *port.InvoicePayload) (*port.AuthorityReply, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AuthorityReply), args.Error(1)
}
