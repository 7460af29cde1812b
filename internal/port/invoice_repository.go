package port

import (
	"context"

	"github.com/google/uuid"

	"taxlink/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence, including
// the chunked batch insert used by bulk ingestion.
type InvoiceRepository interface {
	// Create persists a single invoice and its items in one transaction and
	// sets the generated ID on the invoice.
	Create(ctx context.Context, inv *domain.Invoice) error

	// CreateBatch persists a validated batch in fixed-size chunks inside a
	// single transaction. A failure in any chunk aborts the whole batch.
	// Returns the generated invoice IDs in input order.
	CreateBatch(ctx context.Context, invoices []*domain.Invoice, chunkSize int) ([]int64, error)

	GetByID(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)

	// Update rewrites the invoice header and replaces its items wholesale.
	// Only draft/saved invoices are updatable.
	Update(ctx context.Context, inv *domain.Invoice) error

	// UpdateNumberAndStatus renames the visible invoice number as part of a
	// status change (draft -> saved).
	UpdateNumberAndStatus(ctx context.Context, tenantID uuid.UUID, invoiceID int64, number string, status domain.Status) error

	// MarkPosted finalizes the invoice with the authority-assigned number.
	MarkPosted(ctx context.Context, tenantID uuid.UUID, invoiceID int64, authorityNumber string) error

	// MaxSystemIDSeq returns the highest numeric suffix among this tenant's
	// system invoice IDs, 0 when none exist.
	MaxSystemIDSeq(ctx context.Context, tenantID uuid.UUID) (int, error)

	// MaxNumberSeq returns the highest numeric suffix among invoice numbers
	// carrying the given prefix, 0 when none exist.
	MaxNumberSeq(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error)

	NumberExists(ctx context.Context, tenantID uuid.UUID, number string) (bool, error)
}
