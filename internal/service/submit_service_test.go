package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/domain"
	"taxlink/internal/port"
	"taxlink/internal/service"
	"taxlink/mocks"
)

func setupSubmit() (*mocks.MockInvoiceRepo, *mocks.MockAuthorityClient, *mocks.MockBackupSink, service.SubmitService) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	client := new(mocks.MockAuthorityClient)
	backup := new(mocks.MockBackupSink)
	svc := service.NewSubmitService(invoiceRepo, client, backup)
	return invoiceRepo, client, backup, svc
}

func submittableInvoice(tenantID uuid.UUID) *domain.Invoice {
	txnType := int64(75)
	return &domain.Invoice{
		ID:                5,
		TenantID:          tenantID,
		SystemInvoiceID:   "INV-0001",
		InvoiceNumber:     "SAVED_000001",
		Status:            domain.StatusSaved,
		InvoiceType:       domain.InvoiceTypeSale,
		InvoiceDate:       time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		BuyerNTN:          "1234567",
		TransactionTypeID: &txnType,
	}
}

func TestSubmitInvoice_AlreadyPosted(t *testing.T) {
	invoiceRepo, client, _, svc := setupSubmit()
	tenantID := uuid.New()

	posted := submittableInvoice(tenantID)
	posted.Status = domain.StatusPosted
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(posted, nil)

	_, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyPosted)
	client.AssertNotCalled(t, "PostInvoice", mock.Anything, mock.Anything)
}

func TestSubmitInvoice_MissingTransactionType(t *testing.T) {
	invoiceRepo, client, _, svc := setupSubmit()
	tenantID := uuid.New()

	inv := submittableInvoice(tenantID)
	inv.TransactionTypeID = nil
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(inv, nil)

	_, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.ErrorIs(t, err, domain.ErrMissingTransactionType)
	client.AssertNotCalled(t, "PostInvoice", mock.Anything, mock.Anything)
}

func TestSubmitInvoice_TransportFailureIsResult(t *testing.T) {
	invoiceRepo, client, _, svc := setupSubmit()
	tenantID := uuid.New()

	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(submittableInvoice(tenantID), nil)
	client.On("PostInvoice", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	result, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.ErrorMessage, "unreachable")
	invoiceRepo.AssertNotCalled(t, "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitInvoice_RejectionKeepsStatus(t *testing.T) {
	invoiceRepo, client, _, svc := setupSubmit()
	tenantID := uuid.New()

	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(submittableInvoice(tenantID), nil)
	// The authority signals failure inside a 200.
	client.On("PostInvoice", mock.Anything, mock.Anything).Return(&port.AuthorityReply{
		StatusCode: 200,
		Body:       []byte(`{"error":"duplicate"}`),
	}, nil)

	result, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "duplicate", result.ErrorMessage)
	invoiceRepo.AssertNotCalled(t, "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitInvoice_AcceptancePostsInvoice(t *testing.T) {
	invoiceRepo, client, backup, svc := setupSubmit()
	tenantID := uuid.New()

	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(submittableInvoice(tenantID), nil)
	client.On("PostInvoice", mock.Anything, mock.Anything).Return(&port.AuthorityReply{
		StatusCode: 200,
		Body:       []byte(`{"validationResponse":{"statusCode":"00","invoiceNumber":"7000007DI123"}}`),
	}, nil)
	invoiceRepo.On("MarkPosted", mock.Anything, tenantID, int64(5), "7000007DI123").Return(nil)
	backup.On("Store", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "7000007DI123", result.AuthorityInvoiceNumber)
	invoiceRepo.AssertExpectations(t)
	backup.AssertExpectations(t)
}

func TestSubmitInvoice_AcceptanceWithoutNumberFails(t *testing.T) {
	invoiceRepo, client, _, svc := setupSubmit()
	tenantID := uuid.New()

	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(submittableInvoice(tenantID), nil)
	// 2xx that matches no known shape: success with no number, which cannot
	// finalize the invoice.
	client.On("PostInvoice", mock.Anything, mock.Anything).Return(&port.AuthorityReply{
		StatusCode: 200,
		Body:       []byte(`{"something":"else"}`),
	}, nil)

	result, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.ErrorMessage, "no invoice number")
	invoiceRepo.AssertNotCalled(t, "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitInvoice_DraftCanSubmit(t *testing.T) {
	invoiceRepo, client, backup, svc := setupSubmit()
	tenantID := uuid.New()

	inv := submittableInvoice(tenantID)
	inv.Status = domain.StatusDraft
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(inv, nil)
	client.On("PostInvoice", mock.Anything, mock.Anything).Return(&port.AuthorityReply{
		StatusCode: 200,
		Body:       []byte(`{"invoiceNumber":"7000007DI456"}`),
	}, nil)
	invoiceRepo.On("MarkPosted", mock.Anything, tenantID, int64(5), "7000007DI456").Return(nil)
	backup.On("Store", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.True(t, result.OK)
}
