package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Buyer is a counterparty identified by its tax registration number (NTN).
// The NTN is the natural key and is unique per tenant.
type Buyer struct {
	ID               int64     `db:"id" json:"id"`
	TenantID         uuid.UUID `db:"tenant_id" json:"tenant_id"`
	NTN              string    `db:"ntn" json:"ntn"`
	Name             string    `db:"name" json:"name"`
	Province         string    `db:"province" json:"province"`
	Address          string    `db:"address" json:"address"`
	RegistrationType string    `db:"registration_type" json:"registration_type"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog entry matched by name (case-insensitive) during bulk
// ingestion. Its fields are copied onto invoice items at ingestion time.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	HSCode    string    `db:"hs_code" json:"hs_code"`
	UOM       string    `db:"uom" json:"uom"`
	SaleType  string    `db:"sale_type" json:"sale_type"`
	RateLabel string    `db:"rate_label" json:"rate_label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Invoice is a sales or debit-note document. Buyer and seller fields are
// snapshots copied at creation time, not live joins.
type Invoice struct {
	ID                     int64     `db:"id" json:"id"`
	TenantID               uuid.UUID `db:"tenant_id" json:"tenant_id"`
	SystemInvoiceID        string    `db:"system_invoice_id" json:"system_invoice_id"`
	InvoiceNumber          string    `db:"invoice_number" json:"invoice_number"`
	Status                 Status    `db:"status" json:"status"`
	InvoiceType            string    `db:"invoice_type" json:"invoice_type"`
	InvoiceDate            time.Time `db:"invoice_date" json:"invoice_date"`
	CompanyInvoiceRefNo    string    `db:"company_invoice_ref_no" json:"company_invoice_ref_no"`
	BuyerNTN               string    `db:"buyer_ntn" json:"buyer_ntn"`
	BuyerName              string    `db:"buyer_name" json:"buyer_name"`
	BuyerProvince          string    `db:"buyer_province" json:"buyer_province"`
	BuyerAddress           string    `db:"buyer_address" json:"buyer_address"`
	BuyerRegistrationType  string    `db:"buyer_registration_type" json:"buyer_registration_type"`
	SellerNTN              string    `db:"seller_ntn" json:"seller_ntn"`
	SellerName             string    `db:"seller_name" json:"seller_name"`
	SellerProvince         string    `db:"seller_province" json:"seller_province"`
	SellerAddress          string    `db:"seller_address" json:"seller_address"`
	TransactionTypeID      *int64    `db:"transaction_type_id" json:"transaction_type_id"`
	AuthorityInvoiceNumber *string   `db:"authority_invoice_number" json:"authority_invoice_number"`
	CreatedBy              uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`

	Items []InvoiceItem `db:"-" json:"items,omitempty"`
}

// InvoiceItem is one taxable line of an invoice. Owned exclusively by its
// invoice and cascade-deleted with it. Product fields are copied from the
// resolved catalog entry at ingestion time. ExtraTax is stored only when
// strictly positive.
type InvoiceItem struct {
	ID           int64               `db:"id" json:"id"`
	InvoiceID    int64               `db:"invoice_id" json:"invoice_id"`
	TenantID     uuid.UUID           `db:"tenant_id" json:"tenant_id"`
	ProductName  string              `db:"product_name" json:"product_name"`
	HSCode       string              `db:"hs_code" json:"hs_code"`
	UOM          string              `db:"uom" json:"uom"`
	RateLabel    string              `db:"rate_label" json:"rate_label"`
	SaleType     string              `db:"sale_type" json:"sale_type"`
	Quantity     decimal.Decimal     `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal     `db:"unit_price" json:"unit_price"`
	ValueExclTax decimal.Decimal     `db:"value_excl_tax" json:"value_excl_tax"`
	SalesTax     decimal.Decimal     `db:"sales_tax" json:"sales_tax"`
	WithheldTax  decimal.Decimal     `db:"withheld_tax" json:"withheld_tax"`
	FurtherTax   decimal.Decimal     `db:"further_tax" json:"further_tax"`
	FEDPayable   decimal.Decimal     `db:"fed_payable" json:"fed_payable"`
	Discount     decimal.Decimal     `db:"discount" json:"discount"`
	ExtraTax     decimal.NullDecimal `db:"extra_tax" json:"extra_tax"`
	TotalValues  decimal.Decimal     `db:"total_values" json:"total_values"`
}
