package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taxlink/internal/authority"
	"taxlink/internal/domain"
	"taxlink/internal/logger"
	"taxlink/internal/port"
)

// SubmitResult is the outcome of one submission attempt. A failed attempt is
// a result, not an error; errors are reserved for precondition violations
// that stop the call before the authority is contacted.
type SubmitResult struct {
	OK                     bool   `json:"ok"`
	AuthorityInvoiceNumber string `json:"authority_invoice_number,omitempty"`
	ErrorMessage           string `json:"error_message,omitempty"`
}

// SubmitService posts invoices to the external tax authority and finalizes
// them on acceptance.
type SubmitService interface {
	// SubmitInvoice posts one invoice. Preconditions (exists, not already
	// posted, has a transaction type) are checked before any external call.
	// On acceptance the invoice is marked posted with the authority's number
	// and its number can never change again.
	SubmitInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*SubmitResult, error)
}

type submitService struct {
	invoiceRepo port.InvoiceRepository
	client      port.AuthorityClient
	backup      port.BackupSink
}

// NewSubmitService creates a SubmitService.
func NewSubmitService(invoiceRepo port.InvoiceRepository, client port.AuthorityClient, backup port.BackupSink) SubmitService {
	return &submitService{invoiceRepo: invoiceRepo, client: client, backup: backup}
}

func (s *submitService) SubmitInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*SubmitResult, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.StatusPosted {
		return nil, domain.ErrInvoiceAlreadyPosted
	}
	if inv.TransactionTypeID == nil {
		return nil, domain.ErrMissingTransactionType
	}

	log := logger.WithComponent("submit")

	payload := authority.BuildPayload(inv)
	reply, err := s.client.PostInvoice(ctx, payload)
	if err != nil {
		// A transport failure is an attempt outcome. The invoice stays in
		// its current status and can be resubmitted.
		log.Warn().Err(err).Int64("invoice_id", invoiceID).Msg("authority call failed")
		return &SubmitResult{ErrorMessage: fmt.Sprintf("authority unreachable: %v", err)}, nil
	}

	outcome := authority.Classify(reply)
	log.Info().
		Int64("invoice_id", invoiceID).
		Str("shape", string(outcome.Shape)).
		Bool("success", outcome.Success).
		Msg("authority reply classified")

	if !outcome.Success {
		return &SubmitResult{ErrorMessage: outcome.ErrorMessage}, nil
	}
	if outcome.AuthorityInvoiceNumber == "" {
		// Acceptance without a number cannot be finalized; treat it as a
		// failed attempt so the operator can retry.
		return &SubmitResult{ErrorMessage: "authority accepted the invoice but returned no invoice number"}, nil
	}

	if err := s.invoiceRepo.MarkPosted(ctx, tenantID, invoiceID, outcome.AuthorityInvoiceNumber); err != nil {
		return nil, err
	}
	// The visible invoice number is retained; the authority's number is
	// recorded alongside it.
	inv.Status = domain.StatusPosted
	inv.AuthorityInvoiceNumber = &outcome.AuthorityInvoiceNumber

	s.storeBackup(ctx, tenantID, inv)

	return &SubmitResult{OK: true, AuthorityInvoiceNumber: outcome.AuthorityInvoiceNumber}, nil
}

// storeBackup ships the posted invoice to the backup sink. Best effort.
func (s *submitService) storeBackup(ctx context.Context, tenantID uuid.UUID, inv *domain.Invoice) {
	if s.backup == nil {
		return
	}
	snapshot, err := json.Marshal(inv)
	if err != nil {
		return
	}
	key := fmt.Sprintf("posted/%s-%d.json", inv.SystemInvoiceID, time.Now().UnixMilli())
	if err := s.backup.Store(ctx, tenantID, key, snapshot); err != nil {
		log := logger.WithComponent("submit")
		log.Warn().Err(err).Int64("invoice_id", inv.ID).Msg("backup sink failed")
	}
}
