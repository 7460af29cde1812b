package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taxlink/internal/domain"
	"taxlink/internal/logger"
	"taxlink/internal/port"
)

// idGenerator produces the two locally generated identifier families:
// sequential system IDs and short status-prefixed invoice numbers. The
// authority-assigned number is never generated here.
type idGenerator struct {
	invoiceRepo port.InvoiceRepository
}

// nextSystemIDStart returns the sequence number the next system ID should
// use. When the scan fails the operation must still complete, so a
// timestamp-derived sequence is returned instead; it sacrifices the
// human-readable sequential property but stays unique.
func (g *idGenerator) nextSystemIDStart(ctx context.Context, tenantID uuid.UUID) int {
	max, err := g.invoiceRepo.MaxSystemIDSeq(ctx, tenantID)
	if err != nil {
		log := logger.WithComponent("idgen")
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).
			Msg("system ID scan failed, falling back to timestamp-derived sequence")
		return int(time.Now().Unix())
	}
	return max + 1
}

// formatSystemID renders a sequence as the zero-padded system identifier.
func formatSystemID(seq int) string {
	return fmt.Sprintf("%s%04d", domain.SystemIDPrefix, seq)
}

// nextShortNumber returns a candidate status-prefixed invoice number and the
// sequence it was built from. The scan-then-check is best effort; the caller
// retries with an incremented sequence when the insert hits the unique index.
func (g *idGenerator) nextShortNumber(ctx context.Context, tenantID uuid.UUID, status domain.Status) (string, int) {
	prefix := domain.NumberPrefixFor(status)

	max, err := g.invoiceRepo.MaxNumberSeq(ctx, tenantID, prefix)
	if err != nil {
		log := logger.WithComponent("idgen")
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).Str("prefix", prefix).
			Msg("short number scan failed, falling back to timestamp-derived number")
		seq := int(time.Now().Unix())
		return fmt.Sprintf("%s%d", prefix, seq), seq
	}

	seq := max + 1
	candidate := formatShortNumber(prefix, seq)

	// Guard against an insert racing in between the scan and ours. One
	// speculative bump; the storage-level unique index backstops the rest.
	exists, err := g.invoiceRepo.NumberExists(ctx, tenantID, candidate)
	if err == nil && exists {
		seq++
		candidate = formatShortNumber(prefix, seq)
	}
	return candidate, seq
}

func formatShortNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}
