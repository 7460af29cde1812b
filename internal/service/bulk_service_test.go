package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxlink/internal/config"
	"taxlink/internal/domain"
	"taxlink/internal/ingest"
	"taxlink/internal/service"
	"taxlink/mocks"
)

func setupBulk() (*mocks.MockBuyerRepo, *mocks.MockProductRepo, *mocks.MockInvoiceRepo, *mocks.MockBackupSink, service.BulkService) {
	buyerRepo := new(mocks.MockBuyerRepo)
	productRepo := new(mocks.MockProductRepo)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	backup := new(mocks.MockBackupSink)

	resolver := service.NewResolverService(buyerRepo, productRepo, nil)
	seller := config.SellerConfig{NTN: "7654321", Name: "Seller Co", Province: "Sindh", Address: "Karachi"}
	bulk := config.BulkConfig{ChunkSize: 100, MaxRows: 10000}
	svc := service.NewBulkService(resolver, invoiceRepo, backup, seller, bulk)
	return buyerRepo, productRepo, invoiceRepo, backup, svc
}

func bulkRow(idx int, refno, ntn, product string) ingest.RawRow {
	return ingest.RawRow{
		Index:               idx,
		CompanyInvoiceRefNo: refno,
		InvoiceType:         domain.InvoiceTypeSale,
		InvoiceDate:         "2024-01-15",
		BuyerNTN:            ntn,
		ProductName:         product,
		Quantity:            "1",
		ValueExclTax:        "100",
		SalesTax:            "18",
		TransactionTypeID:   "75",
	}
}

var (
	testBuyer = domain.Buyer{
		ID: 1, NTN: "1234567", Name: "Acme Traders",
		Province: "Punjab", Address: "Lahore", RegistrationType: "Registered",
	}
	testProduct = domain.Product{
		ID: 1, Name: "Cement", HSCode: "2523.2900", UOM: "KG",
		SaleType: "Goods at standard rate", RateLabel: "18%",
	}
)

func TestValidateBatch_EmptyBatch(t *testing.T) {
	_, _, _, _, svc := setupBulk()

	_, err := svc.ValidateBatch(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrBatchEmpty)
}

func TestValidateBatch_GroupsRowsByRefNo(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, []string{"1234567"}).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, []string{"Cement"}).Return([]domain.Product{testProduct}, nil)

	rows := []ingest.RawRow{
		bulkRow(1, "REF-001", "1234567", "Cement"),
		bulkRow(2, "REF-001", "1234567", "Cement"),
		bulkRow(3, "REF-002", "1234567", "Cement"),
	}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.True(t, validation.OK)
	assert.Empty(t, validation.Errors)
	if assert.Len(t, validation.Groups, 2) {
		assert.Len(t, validation.Groups[0].Rows, 2)
		assert.Len(t, validation.Groups[1].Rows, 1)
		// Buyer fields come from the registered record, not the upload.
		assert.Equal(t, "Acme Traders", validation.Groups[0].Buyer.Name)
	}
}

func TestValidateBatch_KeylessRowStaysSingleton(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)

	// A literal reference that happens to read like a synthetic key must not
	// be merged with the keyless row it names.
	rows := []ingest.RawRow{
		bulkRow(1, "(row 2)", "1234567", "Cement"),
		bulkRow(2, "", "1234567", "Cement"),
	}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.True(t, validation.OK)
	if assert.Len(t, validation.Groups, 2) {
		assert.Equal(t, "(row 2)", validation.Groups[0].Key)
		assert.Equal(t, 1, validation.Groups[0].FirstRow)
		assert.Equal(t, "(row 2)", validation.Groups[1].Key)
		assert.Equal(t, 2, validation.Groups[1].FirstRow)
	}
}

func TestValidateBatch_UnknownBuyerNamesNTN(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, []string{"UNKNOWN-NTN"}).Return([]domain.Buyer{}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, []string{"Cement"}).Return([]domain.Product{testProduct}, nil)

	rows := []ingest.RawRow{bulkRow(1, "REF-001", "UNKNOWN-NTN", "Cement")}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.False(t, validation.OK)
	if assert.Len(t, validation.Errors, 1) {
		assert.Equal(t, 1, validation.Errors[0].Row)
		assert.Contains(t, validation.Errors[0].Message, "UNKNOWN-NTN")
	}
}

func TestValidateBatch_OneErrorPerFailingGroup(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)

	bad := bulkRow(2, "REF-BAD", "1234567", "Cement")
	bad.InvoiceType = "Credit Note"
	bad.InvoiceDate = "not-a-date"

	rows := []ingest.RawRow{
		bulkRow(1, "REF-OK", "1234567", "Cement"),
		bad,
		bulkRow(3, "REF-OK2", "1234567", "Cement"),
	}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.False(t, validation.OK)
	// Multiple defects in one group still produce a single aggregated error.
	if assert.Len(t, validation.Errors, 1) {
		assert.Equal(t, 2, validation.Errors[0].Row)
		assert.Contains(t, validation.Errors[0].Message, "Credit Note")
		assert.Contains(t, validation.Errors[0].Message, "date")
	}
}

func TestValidateBatch_ConflictingHeaderFields(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)

	second := bulkRow(2, "REF-001", "1234567", "Cement")
	second.InvoiceDate = "2024-02-20"

	rows := []ingest.RawRow{bulkRow(1, "REF-001", "1234567", "Cement"), second}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.False(t, validation.OK)
	if assert.Len(t, validation.Errors, 1) {
		assert.Contains(t, validation.Errors[0].Message, "invoice date")
	}
}

func TestValidateBatch_UnknownProduct(t *testing.T) {
	buyerRepo, productRepo, _, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{}, nil)

	rows := []ingest.RawRow{bulkRow(1, "REF-001", "1234567", "Mystery Widget")}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.False(t, validation.OK)
	if assert.Len(t, validation.Errors, 1) {
		assert.Contains(t, validation.Errors[0].Message, "Mystery Widget")
	}
}

func TestBuildBatch_RejectsUnvalidated(t *testing.T) {
	_, _, _, _, svc := setupBulk()

	_, err := svc.BuildBatch(context.Background(), uuid.New(), &service.BatchValidation{OK: false}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrBatchNotValidated)
}

func TestBuildBatch_AssignsSequentialIDs(t *testing.T) {
	buyerRepo, productRepo, invoiceRepo, _, svc := setupBulk()
	tenantID := uuid.New()
	userID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(41, nil)

	rows := []ingest.RawRow{
		bulkRow(1, "REF-001", "1234567", "Cement"),
		bulkRow(2, "REF-002", "1234567", "Cement"),
	}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.True(t, validation.OK)

	invoices, err := svc.BuildBatch(context.Background(), tenantID, validation, userID)
	assert.NoError(t, err)
	if assert.Len(t, invoices, 2) {
		assert.Equal(t, "INV-0042", invoices[0].SystemInvoiceID)
		assert.Equal(t, "INV-0043", invoices[1].SystemInvoiceID)
		assert.Equal(t, domain.StatusDraft, invoices[0].Status)
		assert.NotEmpty(t, invoices[0].InvoiceNumber)
		assert.NotEqual(t, invoices[0].InvoiceNumber, invoices[1].InvoiceNumber)

		// Seller snapshot comes from config, item fields from the catalog.
		assert.Equal(t, "7654321", invoices[0].SellerNTN)
		if assert.Len(t, invoices[0].Items, 1) {
			item := invoices[0].Items[0]
			assert.Equal(t, "2523.2900", item.HSCode)
			assert.Equal(t, "18%", item.RateLabel)
			assert.True(t, item.TotalValues.Equal(decimal.RequireFromString("118")))
		}
		assert.Equal(t, userID, invoices[0].CreatedBy)
	}
}

func TestBuildBatch_ScanFailureFallsBackToTimestampIDs(t *testing.T) {
	buyerRepo, productRepo, invoiceRepo, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(0, assert.AnError)

	rows := []ingest.RawRow{
		bulkRow(1, "REF-001", "1234567", "Cement"),
		bulkRow(2, "REF-002", "1234567", "Cement"),
	}

	validation, err := svc.ValidateBatch(context.Background(), tenantID, rows)
	assert.NoError(t, err)
	assert.True(t, validation.OK)

	invoices, err := svc.BuildBatch(context.Background(), tenantID, validation, uuid.New())
	// A failed counter scan degrades to a timestamp-derived sequence and
	// never aborts the build.
	assert.NoError(t, err)
	if assert.Len(t, invoices, 2) {
		assert.Regexp(t, `^INV-\d{10}$`, invoices[0].SystemInvoiceID)
		assert.Regexp(t, `^INV-\d{10}$`, invoices[1].SystemInvoiceID)
		assert.NotEqual(t, invoices[0].SystemInvoiceID, invoices[1].SystemInvoiceID)
	}
}

func TestIngestBatch_InvalidBatchPersistsNothing(t *testing.T) {
	buyerRepo, productRepo, invoiceRepo, _, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)

	rows := []ingest.RawRow{bulkRow(1, "REF-001", "UNKNOWN-NTN", "Cement")}

	validation, result, err := svc.IngestBatch(context.Background(), tenantID, rows, uuid.New(), 0)
	assert.NoError(t, err)
	assert.False(t, validation.OK)
	assert.Nil(t, result)
	invoiceRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestBatch_PersistsAndBacksUp(t *testing.T) {
	buyerRepo, productRepo, invoiceRepo, backup, svc := setupBulk()
	tenantID := uuid.New()

	buyerRepo.On("ListByNTNs", mock.Anything, tenantID, mock.Anything).Return([]domain.Buyer{testBuyer}, nil)
	productRepo.On("ListByNames", mock.Anything, tenantID, mock.Anything).Return([]domain.Product{testProduct}, nil)
	invoiceRepo.On("MaxSystemIDSeq", mock.Anything, tenantID).Return(0, nil)
	invoiceRepo.On("CreateBatch", mock.Anything, mock.Anything, 100).Return([]int64{11, 12}, nil)
	backup.On("Store", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	rows := []ingest.RawRow{
		bulkRow(1, "REF-001", "1234567", "Cement"),
		bulkRow(2, "REF-002", "1234567", "Cement"),
	}

	validation, result, err := svc.IngestBatch(context.Background(), tenantID, rows, uuid.New(), 0)
	assert.NoError(t, err)
	assert.True(t, validation.OK)
	if assert.NotNil(t, result) {
		assert.Equal(t, 2, result.CreatedCount)
		assert.Equal(t, []int64{11, 12}, result.InvoiceIDs)
	}
	invoiceRepo.AssertExpectations(t)
	backup.AssertExpectations(t)
}

func TestPersistBatch_BackupFailureDoesNotFail(t *testing.T) {
	_, _, invoiceRepo, backup, svc := setupBulk()
	tenantID := uuid.New()

	invoiceRepo.On("CreateBatch", mock.Anything, mock.Anything, 100).Return([]int64{1}, nil)
	backup.On("Store", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(assert.AnError)

	result, err := svc.PersistBatch(context.Background(), tenantID, []*domain.Invoice{{TenantID: tenantID}}, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
}
