package port

import (
	"context"

	"github.com/google/uuid"
)

// BackupSink receives a JSON snapshot after each successful invoice mutation.
// It is invoked fire-and-forget: a sink failure must never roll back the
// mutation that triggered it.
type BackupSink interface {
	Store(ctx context.Context, tenantID uuid.UUID, key string, snapshot []byte) error
}
