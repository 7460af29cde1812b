package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/config"
	"taxlink/internal/domain"
	"taxlink/internal/service"
	"taxlink/mocks"
)

func setupInvoice() (*mocks.MockInvoiceRepo, *mocks.MockBuyerRepo, *mocks.MockProductRepo, service.InvoiceService) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	buyerRepo := new(mocks.MockBuyerRepo)
	productRepo := new(mocks.MockProductRepo)

	seller := config.SellerConfig{NTN: "7654321", Name: "Seller Co", Province: "Sindh", Address: "Karachi"}
	svc := service.NewInvoiceService(invoiceRepo, buyerRepo, productRepo, nil, seller)
	return invoiceRepo, buyerRepo, productRepo, svc
}

func createInput() *service.CreateInvoiceInput {
	return &service.CreateInvoiceInput{
		InvoiceType: domain.InvoiceTypeSale,
		InvoiceDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		BuyerNTN:    "1234567",
		BuyerName:   "Acme Traders",
		Items: []service.InvoiceItemInput{
			{
				ProductName:  "Cement",
				Quantity:     decimal.RequireFromString("1"),
				ValueExclTax: decimal.RequireFromString("100"),
				SalesTax:     decimal.RequireFromString("18"),
			},
		},
	}
}

func TestCreateInvoice_AssignsDraftNumber(t *testing.T) {
	invoiceRepo, buyerRepo, productRepo, svc := setupInvoice()
	tenantID := uuid.New()
	userID := uuid.New()

	buyerRepo.On("GetByNTN", mock.Anything, tenantID, "1234567").Return(&testBuyer, nil)
	productRepo.On("GetByName", mock.Anything, tenantID, "Cement").Return(&testProduct, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(7, nil)
	invoiceRepo.On("MaxNumberSeq", mock.Anything, tenantID, domain.DraftNumberPrefix).Return(2, nil)
	invoiceRepo.On("NumberExists", mock.Anything, tenantID, "DRAFT_000003").Return(false, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	inv, err := svc.CreateInvoice(context.Background(), tenantID, createInput(), userID)
	assert.NoError(t, err)
	assert.Equal(t, "INV-0008", inv.SystemInvoiceID)
	assert.Equal(t, "DRAFT_000003", inv.InvoiceNumber)
	assert.Equal(t, domain.StatusDraft, inv.Status)
	assert.Equal(t, "7654321", inv.SellerNTN)
	// Buyer snapshot comes from the registered record.
	assert.Equal(t, "Punjab", inv.BuyerProvince)
	if assert.Len(t, inv.Items, 1) {
		assert.Equal(t, "2523.2900", inv.Items[0].HSCode)
		assert.True(t, inv.Items[0].TotalValues.Equal(decimal.RequireFromString("118")))
	}
	invoiceRepo.AssertExpectations(t)
}

func TestCreateInvoice_RetriesOnDuplicateNumber(t *testing.T) {
	invoiceRepo, buyerRepo, productRepo, svc := setupInvoice()
	tenantID := uuid.New()

	buyerRepo.On("GetByNTN", mock.Anything, tenantID, "1234567").Return(&testBuyer, nil)
	productRepo.On("GetByName", mock.Anything, tenantID, "Cement").Return(&testProduct, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(0, nil)
	invoiceRepo.On("MaxNumberSeq", mock.Anything, tenantID, domain.DraftNumberPrefix).Return(0, nil)
	invoiceRepo.On("NumberExists", mock.Anything, tenantID, "DRAFT_000001").Return(false, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Return(domain.ErrDuplicateInvoiceNumber).Once()
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Return(nil).Once()

	inv, err := svc.CreateInvoice(context.Background(), tenantID, createInput(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, "DRAFT_000002", inv.InvoiceNumber)
	invoiceRepo.AssertExpectations(t)
}

func TestCreateInvoice_ScanFailureFallsBackToTimestampIDs(t *testing.T) {
	invoiceRepo, buyerRepo, productRepo, svc := setupInvoice()
	tenantID := uuid.New()

	buyerRepo.On("GetByNTN", mock.Anything, tenantID, "1234567").Return(&testBuyer, nil)
	productRepo.On("GetByName", mock.Anything, tenantID, "Cement").Return(&testProduct, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(0, assert.AnError)
	invoiceRepo.On("MaxNumberSeq", mock.Anything, tenantID, domain.DraftNumberPrefix).Return(0, assert.AnError)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	inv, err := svc.CreateInvoice(context.Background(), tenantID, createInput(), uuid.New())
	// Counter scans failing must not fail the create; both identifier
	// families degrade to timestamp-derived values instead.
	assert.NoError(t, err)
	assert.Regexp(t, `^INV-\d{10}$`, inv.SystemInvoiceID)
	assert.Regexp(t, `^DRAFT_\d{10}$`, inv.InvoiceNumber)
	invoiceRepo.AssertNotCalled(t, "NumberExists", mock.Anything, mock.Anything, mock.Anything)
	invoiceRepo.AssertExpectations(t)
}

func TestCreateInvoice_AutoRegistersBuyer(t *testing.T) {
	invoiceRepo, buyerRepo, productRepo, svc := setupInvoice()
	tenantID := uuid.New()

	buyerRepo.On("GetByNTN", mock.Anything, tenantID, "1234567").Return(nil, domain.ErrBuyerNotFound)
	buyerRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Buyer")).Return(nil)
	productRepo.On("GetByName", mock.Anything, tenantID, "Cement").Return(&testProduct, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(0, nil)
	invoiceRepo.On("MaxNumberSeq", mock.Anything, tenantID, domain.DraftNumberPrefix).Return(0, nil)
	invoiceRepo.On("NumberExists", mock.Anything, tenantID, "DRAFT_000001").Return(false, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	inv, err := svc.CreateInvoice(context.Background(), tenantID, createInput(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, "Acme Traders", inv.BuyerName)
	buyerRepo.AssertExpectations(t)
}

func TestCreateInvoice_UnknownProduct(t *testing.T) {
	_, buyerRepo, productRepo, svc := setupInvoice()
	tenantID := uuid.New()

	buyerRepo.On("GetByNTN", mock.Anything, tenantID, "1234567").Return(&testBuyer, nil)
	productRepo.On("GetByName", mock.Anything, tenantID, "Cement").Return(nil, domain.ErrProductNotFound)

	_, err := svc.CreateInvoice(context.Background(), tenantID, createInput(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreateInvoice_RejectsInvalidType(t *testing.T) {
	_, _, _, svc := setupInvoice()

	input := createInput()
	input.InvoiceType = "Credit Note"
	_, err := svc.CreateInvoice(context.Background(), uuid.New(), input, uuid.New())
	assert.Error(t, err)
}

func TestUpdateInvoice_RejectsPosted(t *testing.T) {
	invoiceRepo, _, _, svc := setupInvoice()
	tenantID := uuid.New()

	posted := &domain.Invoice{ID: 9, TenantID: tenantID, Status: domain.StatusPosted}
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(9)).Return(posted, nil)

	_, err := svc.UpdateInvoice(context.Background(), tenantID, 9, &service.UpdateInvoiceInput{
		InvoiceType: domain.InvoiceTypeSale,
		InvoiceDate: time.Now(),
		Items:       []service.InvoiceItemInput{{ProductName: "Cement"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotEditable)
}

func TestSaveInvoice_PromotesDraft(t *testing.T) {
	invoiceRepo, _, _, svc := setupInvoice()
	tenantID := uuid.New()

	draft := &domain.Invoice{ID: 5, TenantID: tenantID, Status: domain.StatusDraft, InvoiceNumber: "DRAFT_000001"}
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(draft, nil)
	invoiceRepo.On("MaxNumberSeq", mock.Anything, tenantID, domain.SavedNumberPrefix).Return(4, nil)
	invoiceRepo.On("NumberExists", mock.Anything, tenantID, "SAVED_000005").Return(false, nil)
	invoiceRepo.On("UpdateNumberAndStatus", mock.Anything, tenantID, int64(5), "SAVED_000005", domain.StatusSaved).Return(nil)

	inv, err := svc.SaveInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusSaved, inv.Status)
	assert.Equal(t, "SAVED_000005", inv.InvoiceNumber)
	invoiceRepo.AssertExpectations(t)
}

func TestSaveInvoice_SavedIsNoOp(t *testing.T) {
	invoiceRepo, _, _, svc := setupInvoice()
	tenantID := uuid.New()

	saved := &domain.Invoice{ID: 5, TenantID: tenantID, Status: domain.StatusSaved, InvoiceNumber: "SAVED_000002"}
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(saved, nil)

	inv, err := svc.SaveInvoice(context.Background(), tenantID, 5)
	assert.NoError(t, err)
	assert.Equal(t, "SAVED_000002", inv.InvoiceNumber)
	invoiceRepo.AssertNotCalled(t, "UpdateNumberAndStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveInvoice_RejectsPosted(t *testing.T) {
	invoiceRepo, _, _, svc := setupInvoice()
	tenantID := uuid.New()

	posted := &domain.Invoice{ID: 5, TenantID: tenantID, Status: domain.StatusPosted}
	invoiceRepo.On("GetByID", mock.Anything, tenantID, int64(5)).Return(posted, nil)

	_, err := svc.SaveInvoice(context.Background(), tenantID, 5)
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyPosted)
}
