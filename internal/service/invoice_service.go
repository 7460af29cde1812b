package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taxlink/internal/config"
	"taxlink/internal/domain"
	"taxlink/internal/port"
	"taxlink/internal/refcache"
)

// createRetryLimit bounds the renumber loop when an insert races another
// request for the same short number.
const createRetryLimit = 5

// InvoiceItemInput is one line of a create or update request. Product fields
// are looked up from the catalog by name, never taken from the request.
type InvoiceItemInput struct {
	ProductName  string              `json:"product_name" binding:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	ValueExclTax decimal.Decimal     `json:"value_excl_tax"`
	SalesTax     decimal.Decimal     `json:"sales_tax"`
	WithheldTax  decimal.Decimal     `json:"withheld_tax"`
	FurtherTax   decimal.Decimal     `json:"further_tax"`
	FEDPayable   decimal.Decimal     `json:"fed_payable"`
	Discount     decimal.Decimal     `json:"discount"`
	ExtraTax     decimal.NullDecimal `json:"extra_tax"`
}

// CreateInvoiceInput is the request body for creating a single invoice. The
// buyer fields are used to auto-register the buyer when the NTN is unknown.
type CreateInvoiceInput struct {
	InvoiceType           string             `json:"invoice_type" binding:"required"`
	InvoiceDate           time.Time          `json:"invoice_date" binding:"required"`
	CompanyInvoiceRefNo   string             `json:"company_invoice_ref_no"`
	BuyerNTN              string             `json:"buyer_ntn" binding:"required"`
	BuyerName             string             `json:"buyer_name"`
	BuyerProvince         string             `json:"buyer_province"`
	BuyerAddress          string             `json:"buyer_address"`
	BuyerRegistrationType string             `json:"buyer_registration_type"`
	TransactionTypeID     *int64             `json:"transaction_type_id"`
	Items                 []InvoiceItemInput `json:"items" binding:"required,min=1"`
}

// UpdateInvoiceInput rewrites the mutable parts of a draft or saved invoice.
// Items are replaced wholesale.
type UpdateInvoiceInput struct {
	InvoiceType         string             `json:"invoice_type" binding:"required"`
	InvoiceDate         time.Time          `json:"invoice_date" binding:"required"`
	CompanyInvoiceRefNo string             `json:"company_invoice_ref_no"`
	TransactionTypeID   *int64             `json:"transaction_type_id"`
	Items               []InvoiceItemInput `json:"items" binding:"required,min=1"`
}

// InvoiceService is the single-invoice lifecycle: create as draft, edit while
// unposted, and promote draft to saved with a renumber.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, tenantID uuid.UUID, input *CreateInvoiceInput, createdBy uuid.UUID) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64, input *UpdateInvoiceInput) (*domain.Invoice, error)
	// SaveInvoice moves a draft to saved and reissues its visible number
	// under the saved prefix. Calling it on an already saved invoice is a
	// no-op; posted invoices are rejected.
	SaveInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]domain.Invoice, int, error)
}

type invoiceService struct {
	invoiceRepo port.InvoiceRepository
	buyerRepo   port.BuyerRepository
	productRepo port.ProductRepository
	cache       *refcache.Cache
	idgen       *idGenerator
	seller      config.SellerConfig
}

// NewInvoiceService creates an InvoiceService. The cache may be nil.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	buyerRepo port.BuyerRepository,
	productRepo port.ProductRepository,
	cache *refcache.Cache,
	seller config.SellerConfig,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		buyerRepo:   buyerRepo,
		productRepo: productRepo,
		cache:       cache,
		idgen:       &idGenerator{invoiceRepo: invoiceRepo},
		seller:      seller,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, input *CreateInvoiceInput, createdBy uuid.UUID) (*domain.Invoice, error) {
	if !domain.AllowedInvoiceTypes[input.InvoiceType] {
		return nil, fmt.Errorf("invalid invoice type %q", input.InvoiceType)
	}

	buyer, err := s.resolveOrCreateBuyer(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		TenantID:              tenantID,
		SystemInvoiceID:       formatSystemID(s.idgen.nextSystemIDStart(ctx, tenantID)),
		Status:                domain.StatusDraft,
		InvoiceType:           input.InvoiceType,
		InvoiceDate:           input.InvoiceDate,
		CompanyInvoiceRefNo:   input.CompanyInvoiceRefNo,
		BuyerNTN:              buyer.NTN,
		BuyerName:             buyer.Name,
		BuyerProvince:         buyer.Province,
		BuyerAddress:          buyer.Address,
		BuyerRegistrationType: buyer.RegistrationType,
		SellerNTN:             s.seller.NTN,
		SellerName:            s.seller.Name,
		SellerProvince:        s.seller.Province,
		SellerAddress:         s.seller.Address,
		TransactionTypeID:     input.TransactionTypeID,
		CreatedBy:             createdBy,
	}

	if inv.Items, err = s.buildItems(ctx, tenantID, input.Items); err != nil {
		return nil, err
	}

	number, seq := s.idgen.nextShortNumber(ctx, tenantID, domain.StatusDraft)
	for attempt := 0; attempt < createRetryLimit; attempt++ {
		inv.InvoiceNumber = number
		err = s.invoiceRepo.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, domain.ErrDuplicateInvoiceNumber) {
			return nil, err
		}
		seq++
		number = formatShortNumber(domain.DraftNumberPrefix, seq)
	}
	return nil, domain.ErrDuplicateInvoiceNumber
}

// resolveOrCreateBuyer looks the buyer up by NTN and registers it from the
// request fields when unknown. A registration invalidates the tenant's
// reference cache so a following bulk upload sees the new buyer.
func (s *invoiceService) resolveOrCreateBuyer(ctx context.Context, tenantID uuid.UUID, input *CreateInvoiceInput) (*domain.Buyer, error) {
	buyer, err := s.buyerRepo.GetByNTN(ctx, tenantID, input.BuyerNTN)
	if err == nil {
		return buyer, nil
	}
	if !errors.Is(err, domain.ErrBuyerNotFound) {
		return nil, err
	}

	buyer = &domain.Buyer{
		TenantID:         tenantID,
		NTN:              input.BuyerNTN,
		Name:             input.BuyerName,
		Province:         input.BuyerProvince,
		Address:          input.BuyerAddress,
		RegistrationType: input.BuyerRegistrationType,
	}
	if err := s.buyerRepo.Create(ctx, buyer); err != nil {
		// A concurrent request may have registered the same NTN first.
		if errors.Is(err, domain.ErrDuplicateBuyerNTN) {
			return s.buyerRepo.GetByNTN(ctx, tenantID, input.BuyerNTN)
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(tenantID)
	}
	return buyer, nil
}

// buildItems resolves every line's product from the catalog and materializes
// the items with recomputed totals.
func (s *invoiceService) buildItems(ctx context.Context, tenantID uuid.UUID, inputs []InvoiceItemInput) ([]domain.InvoiceItem, error) {
	items := make([]domain.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := s.productRepo.GetByName(ctx, tenantID, in.ProductName)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("product %q is not in the catalog: %w", in.ProductName, err)
			}
			return nil, err
		}

		item := domain.InvoiceItem{
			TenantID:     tenantID,
			ProductName:  product.Name,
			HSCode:       product.HSCode,
			UOM:          product.UOM,
			RateLabel:    product.RateLabel,
			SaleType:     product.SaleType,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
			ValueExclTax: in.ValueExclTax,
			SalesTax:     in.SalesTax,
			WithheldTax:  in.WithheldTax,
			FurtherTax:   in.FurtherTax,
			FEDPayable:   in.FEDPayable,
			Discount:     in.Discount,
		}
		if in.ExtraTax.Valid && in.ExtraTax.Decimal.Sign() > 0 {
			item.ExtraTax = in.ExtraTax
		}
		item.TotalValues = computeTotal(item)
		items = append(items, item)
	}
	return items, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64, input *UpdateInvoiceInput) (*domain.Invoice, error) {
	if !domain.AllowedInvoiceTypes[input.InvoiceType] {
		return nil, fmt.Errorf("invalid invoice type %q", input.InvoiceType)
	}

	inv, err := s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanEdit() {
		return nil, domain.ErrInvoiceNotEditable
	}

	inv.InvoiceType = input.InvoiceType
	inv.InvoiceDate = input.InvoiceDate
	inv.CompanyInvoiceRefNo = input.CompanyInvoiceRefNo
	inv.TransactionTypeID = input.TransactionTypeID
	if inv.Items, err = s.buildItems(ctx, tenantID, input.Items); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
}

func (s *invoiceService) SaveInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case domain.StatusSaved:
		return inv, nil
	case domain.StatusPosted:
		return nil, domain.ErrInvoiceAlreadyPosted
	}

	number, seq := s.idgen.nextShortNumber(ctx, tenantID, domain.StatusSaved)
	for attempt := 0; attempt < createRetryLimit; attempt++ {
		err = s.invoiceRepo.UpdateNumberAndStatus(ctx, tenantID, invoiceID, number, domain.StatusSaved)
		if err == nil {
			inv.InvoiceNumber = number
			inv.Status = domain.StatusSaved
			return inv, nil
		}
		if !errors.Is(err, domain.ErrDuplicateInvoiceNumber) {
			return nil, err
		}
		seq++
		number = formatShortNumber(domain.SavedNumberPrefix, seq)
	}
	return nil, domain.ErrDuplicateInvoiceNumber
}

func (s *invoiceService) GetInvoice(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]domain.Invoice, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.invoiceRepo.ListByTenant(ctx, tenantID, (page-1)*pageSize, pageSize)
}
