package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taxlink/internal/config"
	"taxlink/internal/domain"
	"taxlink/internal/ingest"
	"taxlink/internal/logger"
	"taxlink/internal/port"
)

// RowError reports one rejected invoice group, anchored to the first upload
// row belonging to it.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// InvoiceGroup is one logical invoice assembled from uploaded rows sharing a
// correlation key. Buyer fields come from the resolved buyer record, never
// from the upload.
type InvoiceGroup struct {
	Key               string
	FirstRow          int
	InvoiceType       string
	InvoiceDate       time.Time
	Buyer             domain.Buyer
	TransactionTypeID *int64
	Rows              []ingest.RawRow
}

// BatchValidation is the outcome of the validation pass. OK is true only
// when every group passed every check; a single failing group rejects the
// whole batch.
type BatchValidation struct {
	OK     bool           `json:"ok"`
	Groups []InvoiceGroup `json:"-"`
	Errors []RowError     `json:"errors,omitempty"`
}

// PersistResult reports a committed batch.
type PersistResult struct {
	CreatedCount int     `json:"created_count"`
	InvoiceIDs   []int64 `json:"invoice_ids"`
}

// BulkService is the two-phase bulk ingestion pipeline: validate every group
// against pre-resolved reference data, and only when the whole batch is
// clean, materialize and persist it.
type BulkService interface {
	ValidateBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow) (*BatchValidation, error)
	BuildBatch(ctx context.Context, tenantID uuid.UUID, validation *BatchValidation, createdBy uuid.UUID) ([]*domain.Invoice, error)
	PersistBatch(ctx context.Context, tenantID uuid.UUID, invoices []*domain.Invoice, chunkSize int) (*PersistResult, error)
	// IngestBatch runs the full pipeline. When validation rejects the batch
	// the returned BatchValidation carries every group error and the result
	// is nil; nothing has been persisted.
	IngestBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow, createdBy uuid.UUID, chunkSize int) (*BatchValidation, *PersistResult, error)
}

type bulkService struct {
	resolver    ResolverService
	invoiceRepo port.InvoiceRepository
	backup      port.BackupSink
	idgen       *idGenerator
	seller      config.SellerConfig
	chunkSize   int
	maxRows     int
}

// NewBulkService creates a BulkService.
func NewBulkService(
	resolver ResolverService,
	invoiceRepo port.InvoiceRepository,
	backup port.BackupSink,
	seller config.SellerConfig,
	bulkCfg config.BulkConfig,
) BulkService {
	return &bulkService{
		resolver:    resolver,
		invoiceRepo: invoiceRepo,
		backup:      backup,
		idgen:       &idGenerator{invoiceRepo: invoiceRepo},
		seller:      seller,
		chunkSize:   bulkCfg.ChunkSize,
		maxRows:     bulkCfg.MaxRows,
	}
}

func (s *bulkService) ValidateBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow) (*BatchValidation, error) {
	if len(rows) == 0 {
		return nil, domain.ErrBatchEmpty
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, fmt.Errorf("batch of %d rows exceeds the %d row limit", len(rows), s.maxRows)
	}

	refs, err := s.resolver.ResolveReferences(ctx, tenantID, rows)
	if err != nil {
		return nil, err
	}

	validation := &BatchValidation{}
	for _, group := range groupRows(rows) {
		problems := validateGroup(&group, refs)
		if len(problems) > 0 {
			validation.Errors = append(validation.Errors, RowError{
				Row:     group.FirstRow,
				Message: fmt.Sprintf("invoice %q: %s", group.Key, strings.Join(problems, "; ")),
			})
		}
		validation.Groups = append(validation.Groups, group)
	}
	validation.OK = len(validation.Errors) == 0
	return validation, nil
}

// groupRows collapses rows sharing a correlation key into one group,
// preserving first-seen order. Rows without a key become singleton groups.
func groupRows(rows []ingest.RawRow) []InvoiceGroup {
	var order []string
	byKey := make(map[string]*InvoiceGroup)

	for _, row := range rows {
		key := strings.TrimSpace(row.CompanyInvoiceRefNo)
		mapKey := key
		if key == "" {
			// The NUL prefix keeps the synthetic key outside the space a
			// real reference could occupy; Key stays readable for reporting.
			mapKey = fmt.Sprintf("\x00row %d", row.Index)
			key = fmt.Sprintf("(row %d)", row.Index)
		}
		group, ok := byKey[mapKey]
		if !ok {
			group = &InvoiceGroup{Key: key, FirstRow: row.Index}
			byKey[mapKey] = group
			order = append(order, mapKey)
		}
		group.Rows = append(group.Rows, row)
	}

	out := make([]InvoiceGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// headerFields lists the invoice-level fields that every row in a group must
// agree on, in reporting order.
var headerFields = []struct {
	name string
	get  func(*ingest.RawRow) string
}{
	{"invoice type", func(r *ingest.RawRow) string { return r.InvoiceType }},
	{"invoice date", func(r *ingest.RawRow) string { return r.InvoiceDate }},
	{"buyer NTN", func(r *ingest.RawRow) string { return r.BuyerNTN }},
	{"buyer name", func(r *ingest.RawRow) string { return r.BuyerName }},
	{"buyer province", func(r *ingest.RawRow) string { return r.BuyerProvince }},
	{"buyer address", func(r *ingest.RawRow) string { return r.BuyerAddress }},
	{"buyer registration type", func(r *ingest.RawRow) string { return r.BuyerRegistrationType }},
	{"transaction type", func(r *ingest.RawRow) string { return r.TransactionTypeID }},
}

// validateGroup runs every check on one group and fills in its resolved
// header values. It never mutates storage.
func validateGroup(group *InvoiceGroup, refs *References) []string {
	var problems []string
	first := group.Rows[0]

	// Rows within a group must agree on every invoice-level field.
	var conflicting []string
	for _, field := range headerFields {
		want := field.get(&first)
		for i := 1; i < len(group.Rows); i++ {
			if field.get(&group.Rows[i]) != want {
				conflicting = append(conflicting, field.name)
				break
			}
		}
	}
	if len(conflicting) > 0 {
		problems = append(problems, fmt.Sprintf("rows disagree on %s", strings.Join(conflicting, ", ")))
	}

	group.InvoiceType = strings.TrimSpace(first.InvoiceType)
	if !domain.AllowedInvoiceTypes[group.InvoiceType] {
		problems = append(problems, fmt.Sprintf("invalid invoice type %q", first.InvoiceType))
	}

	date, err := ingest.ParseInvoiceDate(first.InvoiceDate)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		group.InvoiceDate = date
	}

	ntn := strings.TrimSpace(first.BuyerNTN)
	if buyer, ok := refs.Buyers[ntn]; ok {
		// Buyer business fields are overwritten from the resolved record;
		// the upload's copies are never trusted.
		group.Buyer = buyer
	} else {
		problems = append(problems, fmt.Sprintf("buyer %q is not registered", first.BuyerNTN))
	}

	group.TransactionTypeID = ingest.CoerceInt64Ptr(first.TransactionTypeID)

	hasProduct := false
	for _, row := range group.Rows {
		name := strings.TrimSpace(row.ProductName)
		if name == "" {
			continue
		}
		hasProduct = true
		if _, ok := refs.Product(name); !ok {
			problems = append(problems, fmt.Sprintf("product %q is not in the catalog", row.ProductName))
		}
	}
	if !hasProduct {
		problems = append(problems, "no row carries a product name")
	}

	return problems
}

func (s *bulkService) BuildBatch(ctx context.Context, tenantID uuid.UUID, validation *BatchValidation, createdBy uuid.UUID) ([]*domain.Invoice, error) {
	if validation == nil || !validation.OK {
		return nil, domain.ErrBatchNotValidated
	}

	refs, err := s.resolver.ResolveReferences(ctx, tenantID, flattenRows(validation.Groups))
	if err != nil {
		return nil, err
	}

	// One counter scan for the whole batch; every subsequent ID is an
	// in-memory increment guarded by the in-batch set.
	seq := s.idgen.nextSystemIDStart(ctx, tenantID)
	used := make(map[string]bool)

	invoices := make([]*domain.Invoice, 0, len(validation.Groups))
	for _, group := range validation.Groups {
		systemID := formatSystemID(seq)
		for used[systemID] {
			seq++
			systemID = formatSystemID(seq)
		}
		used[systemID] = true
		seq++

		inv := &domain.Invoice{
			TenantID:        tenantID,
			SystemInvoiceID: systemID,
			// Temporary collision-resistant number; the visible number is
			// finalized on the first status change.
			InvoiceNumber:         uuid.NewString(),
			Status:                domain.StatusDraft,
			InvoiceType:           group.InvoiceType,
			InvoiceDate:           group.InvoiceDate,
			CompanyInvoiceRefNo:   strings.TrimSpace(group.Rows[0].CompanyInvoiceRefNo),
			BuyerNTN:              group.Buyer.NTN,
			BuyerName:             group.Buyer.Name,
			BuyerProvince:         group.Buyer.Province,
			BuyerAddress:          group.Buyer.Address,
			BuyerRegistrationType: group.Buyer.RegistrationType,
			SellerNTN:             s.seller.NTN,
			SellerName:            s.seller.Name,
			SellerProvince:        s.seller.Province,
			SellerAddress:         s.seller.Address,
			TransactionTypeID:     group.TransactionTypeID,
			CreatedBy:             createdBy,
		}

		for _, row := range group.Rows {
			name := strings.TrimSpace(row.ProductName)
			if name == "" {
				continue
			}
			product, ok := refs.Product(name)
			if !ok {
				return nil, fmt.Errorf("product %q vanished between validation and build", row.ProductName)
			}
			inv.Items = append(inv.Items, buildItem(row, product))
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func flattenRows(groups []InvoiceGroup) []ingest.RawRow {
	var rows []ingest.RawRow
	for _, g := range groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}

// buildItem materializes one invoice line: product fields are copied from
// the resolved catalog entry, numeric cells coerce defensively, extra tax is
// kept only when strictly positive, and the total is recomputed from its
// components rather than trusted from the upload.
func buildItem(row ingest.RawRow, product domain.Product) domain.InvoiceItem {
	item := domain.InvoiceItem{
		ProductName:  product.Name,
		HSCode:       product.HSCode,
		UOM:          product.UOM,
		RateLabel:    product.RateLabel,
		SaleType:     product.SaleType,
		Quantity:     ingest.CoerceDecimal(row.Quantity),
		UnitPrice:    ingest.CoerceDecimal(row.UnitPrice),
		ValueExclTax: ingest.CoerceDecimal(row.ValueExclTax),
		SalesTax:     ingest.CoerceDecimal(row.SalesTax),
		WithheldTax:  ingest.CoerceDecimal(row.WithheldTax),
		FurtherTax:   ingest.CoerceDecimal(row.FurtherTax),
		FEDPayable:   ingest.CoerceDecimal(row.FEDPayable),
		Discount:     ingest.CoerceDecimal(row.Discount),
	}

	if extra := ingest.CoerceNullDecimal(row.ExtraTax); extra.Valid && extra.Decimal.Sign() > 0 {
		item.ExtraTax = extra
	}

	item.TotalValues = computeTotal(item)
	return item
}

func computeTotal(item domain.InvoiceItem) decimal.Decimal {
	total := item.ValueExclTax.
		Add(positive(item.SalesTax)).
		Add(positive(item.WithheldTax)).
		Add(positive(item.FurtherTax)).
		Add(positive(item.FEDPayable)).
		Sub(item.Discount)
	if item.ExtraTax.Valid {
		total = total.Add(positive(item.ExtraTax.Decimal))
	}
	return total
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.Sign() > 0 {
		return d
	}
	return decimal.Zero
}

func (s *bulkService) PersistBatch(ctx context.Context, tenantID uuid.UUID, invoices []*domain.Invoice, chunkSize int) (*PersistResult, error) {
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}
	ids, err := s.invoiceRepo.CreateBatch(ctx, invoices, chunkSize)
	if err != nil {
		return nil, err
	}

	s.storeBackup(ctx, tenantID, ids)
	return &PersistResult{CreatedCount: len(ids), InvoiceIDs: ids}, nil
}

// storeBackup ships a post-commit snapshot to the backup sink. Best effort:
// a sink failure is logged and never affects the committed batch.
func (s *bulkService) storeBackup(ctx context.Context, tenantID uuid.UUID, ids []int64) {
	if s.backup == nil {
		return
	}
	snapshot, _ := json.Marshal(map[string]interface{}{
		"invoice_ids": ids,
		"count":       len(ids),
		"created_at":  time.Now().UTC(),
	})
	key := fmt.Sprintf("bulk/%d-%s.json", time.Now().UnixMilli(), uuid.NewString()[:8])
	if err := s.backup.Store(ctx, tenantID, key, snapshot); err != nil {
		log := logger.WithComponent("bulk")
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).Msg("backup sink failed")
	}
}

func (s *bulkService) IngestBatch(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow, createdBy uuid.UUID, chunkSize int) (*BatchValidation, *PersistResult, error) {
	validation, err := s.ValidateBatch(ctx, tenantID, rows)
	if err != nil {
		return nil, nil, err
	}
	if !validation.OK {
		return validation, nil, nil
	}
	invoices, err := s.BuildBatch(ctx, tenantID, validation, createdBy)
	if err != nil {
		return validation, nil, err
	}
	result, err := s.PersistBatch(ctx, tenantID, invoices, chunkSize)
	if err != nil {
		return validation, nil, err
	}
	return validation, result, nil
}
