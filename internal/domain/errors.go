package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrBuyerNotFound           = errors.New("buyer not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrInvoiceNotEditable      = errors.New("invoice is no longer editable")
	ErrInvoiceAlreadyPosted    = errors.New("invoice has already been posted")
	ErrMissingTransactionType  = errors.New("invoice has no transaction type assigned")
	ErrDuplicateInvoiceNumber  = errors.New("invoice number already exists for this tenant")
	ErrDuplicateBuyerNTN       = errors.New("buyer NTN already exists for this tenant")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrBatchEmpty              = errors.New("batch contains no rows")
	ErrBatchNotValidated       = errors.New("batch has not passed validation")
)

// FieldLengthError describes a value that would overflow its column. It is
// produced before the storage call so batch failures name the offending
// row and field instead of surfacing an opaque constraint violation.
type FieldLengthError struct {
	Row    int
	Field  string
	Length int
	Max    int
}

func (e *FieldLengthError) Error() string {
	return fmt.Sprintf("row %d: field %q is %d characters, exceeds maximum of %d",
		e.Row, e.Field, e.Length, e.Max)
}
