package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"taxlink/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var fieldErr *domain.FieldLengthError
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return http.StatusNotFound, "INVOICE_NOT_FOUND", "invoice not found"
	case errors.Is(err, domain.ErrBuyerNotFound):
		return http.StatusNotFound, "BUYER_NOT_FOUND", "buyer not found"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvoiceNotEditable):
		return http.StatusConflict, "INVOICE_NOT_EDITABLE", "invoice is no longer editable"
	case errors.Is(err, domain.ErrInvoiceAlreadyPosted):
		return http.StatusConflict, "INVOICE_ALREADY_POSTED", "invoice has already been posted"
	case errors.Is(err, domain.ErrMissingTransactionType):
		return http.StatusBadRequest, "MISSING_TRANSACTION_TYPE", "invoice has no transaction type assigned"
	case errors.Is(err, domain.ErrDuplicateInvoiceNumber):
		return http.StatusConflict, "DUPLICATE_INVOICE_NUMBER", "invoice number already exists for this tenant"
	case errors.Is(err, domain.ErrDuplicateBuyerNTN):
		return http.StatusConflict, "DUPLICATE_BUYER_NTN", "buyer NTN already exists for this tenant"
	case errors.Is(err, domain.ErrBatchEmpty):
		return http.StatusBadRequest, "BATCH_EMPTY", "batch contains no rows"
	case errors.Is(err, domain.ErrBatchNotValidated):
		return http.StatusBadRequest, "BATCH_NOT_VALIDATED", "batch has not passed validation"
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, "FIELD_TOO_LONG", fieldErr.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Error().
			Str("request_id", c.GetString("request_id")).
			Err(err).
			Msg("internal error")
	}
	RespondError(c, status, code, msg)
}
