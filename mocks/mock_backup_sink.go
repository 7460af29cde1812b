package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBackupSink is a mock implementation of port.BackupSink.
type MockBackupSink struct {
	mock.Mock
}

func (m *MockBackupSink) Store(ctx context.Context, tenantID uuid.UUID, key string, snapshot []byte) error {
	args := m.Called(ctx, tenantID, key, snapshot)
	return args.Error(0)
}
