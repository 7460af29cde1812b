package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taxlink/internal/domain"
	"taxlink/internal/port"
)

const defaultChunkSize = 100

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Column width limits, checked before any insert so a batch failure names the
// offending row and field instead of an opaque constraint violation.
var invoiceFieldLimits = []struct {
	field string
	max   int
	get   func(*domain.Invoice) string
}{
	{"system_invoice_id", 20, func(i *domain.Invoice) string { return i.SystemInvoiceID }},
	{"invoice_number", 100, func(i *domain.Invoice) string { return i.InvoiceNumber }},
	{"invoice_type", 50, func(i *domain.Invoice) string { return i.InvoiceType }},
	{"company_invoice_ref_no", 100, func(i *domain.Invoice) string { return i.CompanyInvoiceRefNo }},
	{"buyer_ntn", 50, func(i *domain.Invoice) string { return i.BuyerNTN }},
	{"buyer_name", 255, func(i *domain.Invoice) string { return i.BuyerName }},
	{"buyer_province", 100, func(i *domain.Invoice) string { return i.BuyerProvince }},
	{"buyer_address", 500, func(i *domain.Invoice) string { return i.BuyerAddress }},
	{"buyer_registration_type", 50, func(i *domain.Invoice) string { return i.BuyerRegistrationType }},
}

var itemFieldLimits = []struct {
	field string
	max   int
	get   func(*domain.InvoiceItem) string
}{
	{"product_name", 255, func(it *domain.InvoiceItem) string { return it.ProductName }},
	{"hs_code", 50, func(it *domain.InvoiceItem) string { return it.HSCode }},
	{"uom", 50, func(it *domain.InvoiceItem) string { return it.UOM }},
	{"rate_label", 100, func(it *domain.InvoiceItem) string { return it.RateLabel }},
	{"sale_type", 100, func(it *domain.InvoiceItem) string { return it.SaleType }},
}

func checkFieldLengths(row int, inv *domain.Invoice) error {
	for _, lim := range invoiceFieldLimits {
		if n := len(lim.get(inv)); n > lim.max {
			return &domain.FieldLengthError{Row: row, Field: lim.field, Length: n, Max: lim.max}
		}
	}
	for _, item := range inv.Items {
		it := item
		for _, lim := range itemFieldLimits {
			if n := len(lim.get(&it)); n > lim.max {
				return &domain.FieldLengthError{Row: row, Field: lim.field, Length: n, Max: lim.max}
			}
		}
	}
	return nil
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if err := checkFieldLengths(0, inv); err != nil {
		return err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := insertInvoices(ctx, tx, []*domain.Invoice{inv})
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	inv.ID = ids[0]
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].TenantID = inv.TenantID
	}
	if err := insertItems(ctx, tx, inv.Items); err != nil {
		return fmt.Errorf("invoiceRepo.Create items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.Create commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) CreateBatch(ctx context.Context, invoices []*domain.Invoice, chunkSize int) ([]int64, error) {
	if len(invoices) == 0 {
		return nil, domain.ErrBatchEmpty
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	for i, inv := range invoices {
		if err := checkFieldLengths(i, inv); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.CreateBatch begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	allIDs := make([]int64, 0, len(invoices))
	for start := 0; start < len(invoices); start += chunkSize {
		end := start + chunkSize
		if end > len(invoices) {
			end = len(invoices)
		}
		chunk := invoices[start:end]

		ids, err := insertInvoices(ctx, tx, chunk)
		if err != nil {
			return nil, fmt.Errorf("invoiceRepo.CreateBatch chunk at %d: %w", start, err)
		}

		// Map generated invoice IDs back onto their items before the item insert.
		var items []domain.InvoiceItem
		for i, inv := range chunk {
			inv.ID = ids[i]
			for j := range inv.Items {
				inv.Items[j].InvoiceID = ids[i]
				inv.Items[j].TenantID = inv.TenantID
			}
			items = append(items, inv.Items...)
		}
		if err := insertItems(ctx, tx, items); err != nil {
			return nil, fmt.Errorf("invoiceRepo.CreateBatch items at %d: %w", start, err)
		}
		allIDs = append(allIDs, ids...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("invoiceRepo.CreateBatch commit: %w", err)
	}
	return allIDs, nil
}

var invoiceInsertColumns = []string{
	"tenant_id", "system_invoice_id", "invoice_number", "status",
	"invoice_type", "invoice_date", "company_invoice_ref_no",
	"buyer_ntn", "buyer_name", "buyer_province", "buyer_address", "buyer_registration_type",
	"seller_ntn", "seller_name", "seller_province", "seller_address",
	"transaction_type_id", "authority_invoice_number",
	"created_by", "created_at", "updated_at",
}

func insertInvoices(ctx context.Context, tx *sqlx.Tx, invoices []*domain.Invoice) ([]int64, error) {
	now := time.Now().UTC()
	ncols := len(invoiceInsertColumns)
	placeholders := make([]string, 0, len(invoices))
	args := make([]interface{}, 0, len(invoices)*ncols)

	for i, inv := range invoices {
		inv.CreatedAt = now
		inv.UpdatedAt = now
		ph := make([]string, ncols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*ncols+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			inv.TenantID, inv.SystemInvoiceID, inv.InvoiceNumber, inv.Status,
			inv.InvoiceType, inv.InvoiceDate, inv.CompanyInvoiceRefNo,
			inv.BuyerNTN, inv.BuyerName, inv.BuyerProvince, inv.BuyerAddress, inv.BuyerRegistrationType,
			inv.SellerNTN, inv.SellerName, inv.SellerProvince, inv.SellerAddress,
			inv.TransactionTypeID, inv.AuthorityInvoiceNumber,
			inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
	}

	query := fmt.Sprintf("INSERT INTO invoices (%s) VALUES %s RETURNING id",
		strings.Join(invoiceInsertColumns, ", "), strings.Join(placeholders, ", "))

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "invoice_number") {
			return nil, domain.ErrDuplicateInvoiceNumber
		}
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, len(invoices))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != len(invoices) {
		return nil, fmt.Errorf("expected %d generated ids, got %d", len(invoices), len(ids))
	}
	return ids, nil
}

var itemInsertColumns = []string{
	"invoice_id", "tenant_id", "product_name", "hs_code", "uom", "rate_label", "sale_type",
	"quantity", "unit_price", "value_excl_tax", "sales_tax", "withheld_tax",
	"further_tax", "fed_payable", "discount", "extra_tax", "total_values",
}

func insertItems(ctx context.Context, tx *sqlx.Tx, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	ncols := len(itemInsertColumns)
	placeholders := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*ncols)

	for i, it := range items {
		ph := make([]string, ncols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*ncols+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			it.InvoiceID, it.TenantID, it.ProductName, it.HSCode, it.UOM, it.RateLabel, it.SaleType,
			it.Quantity, it.UnitPrice, it.ValueExclTax, it.SalesTax, it.WithheldTax,
			it.FurtherTax, it.FEDPayable, it.Discount, it.ExtraTax, it.TotalValues)
	}

	query := fmt.Sprintf("INSERT INTO invoice_items (%s) VALUES %s",
		strings.Join(itemInsertColumns, ", "), strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *invoiceRepo) GetByID(ctx context.Context, tenantID uuid.UUID, invoiceID int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM invoices WHERE id = $1 AND tenant_id = $2", invoiceID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	err = r.db.SelectContext(ctx, &inv.Items,
		"SELECT * FROM invoice_items WHERE invoice_id = $1 AND tenant_id = $2 ORDER BY id",
		invoiceID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID items: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoices WHERE tenant_id = $1", tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByTenant count: %w", err)
	}

	var invoices []domain.Invoice
	err = r.db.SelectContext(ctx, &invoices,
		`SELECT * FROM invoices WHERE tenant_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByTenant: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	if err := checkFieldLengths(0, inv); err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE invoices SET
			invoice_type = $1, invoice_date = $2, company_invoice_ref_no = $3,
			buyer_ntn = $4, buyer_name = $5, buyer_province = $6,
			buyer_address = $7, buyer_registration_type = $8,
			transaction_type_id = $9, updated_at = $10
		 WHERE id = $11 AND tenant_id = $12 AND status IN ('draft', 'saved')`,
		inv.InvoiceType, inv.InvoiceDate, inv.CompanyInvoiceRefNo,
		inv.BuyerNTN, inv.BuyerName, inv.BuyerProvince,
		inv.BuyerAddress, inv.BuyerRegistrationType,
		inv.TransactionTypeID, inv.UpdatedAt,
		inv.ID, inv.TenantID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceNotEditable
	}

	// Items are replaced wholesale, never patched.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM invoice_items WHERE invoice_id = $1 AND tenant_id = $2",
		inv.ID, inv.TenantID); err != nil {
		return fmt.Errorf("invoiceRepo.Update delete items: %w", err)
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].TenantID = inv.TenantID
	}
	if err := insertItems(ctx, tx, inv.Items); err != nil {
		return fmt.Errorf("invoiceRepo.Update items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.Update commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) UpdateNumberAndStatus(ctx context.Context, tenantID uuid.UUID, invoiceID int64, number string, status domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET invoice_number = $1, status = $2, updated_at = $3
		 WHERE id = $4 AND tenant_id = $5 AND status IN ('draft', 'saved')`,
		number, status, time.Now().UTC(), invoiceID, tenantID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "invoice_number") {
			return domain.ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("invoiceRepo.UpdateNumberAndStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceNotEditable
	}
	return nil
}

func (r *invoiceRepo) MarkPosted(ctx context.Context, tenantID uuid.UUID, invoiceID int64, authorityNumber string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, authority_invoice_number = $2, updated_at = $3
		 WHERE id = $4 AND tenant_id = $5 AND status IN ('draft', 'saved')`,
		domain.StatusPosted, authorityNumber, time.Now().UTC(), invoiceID, tenantID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkPosted: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceAlreadyPosted
	}
	return nil
}

func (r *invoiceRepo) MaxSystemIDSeq(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var max int
	err := r.db.GetContext(ctx, &max,
		`SELECT COALESCE(MAX(substring(system_invoice_id FROM 5)::int), 0)
		 FROM invoices
		 WHERE tenant_id = $1 AND system_invoice_id ~ '^INV-[0-9]+$'`,
		tenantID)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.MaxSystemIDSeq: %w", err)
	}
	return max, nil
}

func (r *invoiceRepo) MaxNumberSeq(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error) {
	var max int
	err := r.db.GetContext(ctx, &max,
		`SELECT COALESCE(MAX(substring(invoice_number FROM length($2) + 1)::int), 0)
		 FROM invoices
		 WHERE tenant_id = $1
		   AND invoice_number LIKE $2 || '%'
		   AND substring(invoice_number FROM length($2) + 1) ~ '^[0-9]+$'`,
		tenantID, prefix)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.MaxNumberSeq: %w", err)
	}
	return max, nil
}

func (r *invoiceRepo) NumberExists(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM invoices WHERE tenant_id = $1 AND invoice_number = $2)",
		tenantID, number)
	if err != nil {
		return false, fmt.Errorf("invoiceRepo.NumberExists: %w", err)
	}
	return exists, nil
}
