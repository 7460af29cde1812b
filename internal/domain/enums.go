package domain

import "strings"

// Status is the submission lifecycle state of an invoice.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusSaved  Status = "saved"
	StatusPosted Status = "posted"
)

// CanEdit reports whether an invoice in this status may still be mutated.
// Posted invoices are frozen.
func (s Status) CanEdit() bool {
	return s == StatusDraft || s == StatusSaved
}

// Identifier prefixes. SystemIDPrefix numbers are immutable once assigned;
// draft/saved prefixes encode status into the visible invoice number until
// the authority issues the final one.
const (
	SystemIDPrefix    = "INV-"
	DraftNumberPrefix = "DRAFT_"
	SavedNumberPrefix = "SAVED_"
)

// NumberPrefixFor returns the short-number prefix that encodes a status.
func NumberPrefixFor(s Status) string {
	if s == StatusSaved {
		return SavedNumberPrefix
	}
	return DraftNumberPrefix
}

// InvoiceTypeSale and InvoiceTypeDebitNote are the only document types the
// ingestion pipeline accepts.
const (
	InvoiceTypeSale      = "Sale Invoice"
	InvoiceTypeDebitNote = "Debit Note"
)

// AllowedInvoiceTypes is the closed enumeration checked during validation.
var AllowedInvoiceTypes = map[string]bool{
	InvoiceTypeSale:      true,
	InvoiceTypeDebitNote: true,
}

// Canonical tax rates. Free-text fixed-rate labels from the catalog are
// normalized to one of these before submission.
const (
	RateStandard = "18%"
	RateReduced  = "1%"
	RateZero     = "0%"
)

// SaleTypeIsExempt reports whether a sale-type classification is exempt from
// sales tax.
func SaleTypeIsExempt(saleType string) bool {
	return strings.Contains(strings.ToLower(saleType), "exempt")
}

// SaleTypeIsReduced reports whether a sale-type classification falls under
// the reduced rate schedule.
func SaleTypeIsReduced(saleType string) bool {
	return strings.Contains(strings.ToLower(saleType), "reduced")
}

// SaleTypeIsZeroRated reports whether a sale-type classification is zero-rated.
func SaleTypeIsZeroRated(saleType string) bool {
	lower := strings.ToLower(saleType)
	return strings.Contains(lower, "zero") || SaleTypeIsExempt(saleType)
}
