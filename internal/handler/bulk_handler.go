package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taxlink/internal/ingest"
	"taxlink/internal/middleware"
	"taxlink/internal/service"
)

// BulkHandler handles bulk invoice ingestion endpoints. Uploads arrive either
// as an xlsx file (multipart field "file") or as a JSON row array.
type BulkHandler struct {
	bulkService service.BulkService
}

// NewBulkHandler creates a new BulkHandler.
func NewBulkHandler(bulkService service.BulkService) *BulkHandler {
	return &BulkHandler{bulkService: bulkService}
}

// Validate handles POST /api/v1/invoices/bulk/validate
//
// Dry run: reports every group error without persisting anything.
func (h *BulkHandler) Validate(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}

	rows, ok := h.extractRows(c)
	if !ok {
		return
	}

	validation, err := h.bulkService.ValidateBatch(c.Request.Context(), tenantID, rows)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, validation)
}

// Ingest handles POST /api/v1/invoices/bulk
//
// All-or-nothing: a single invalid group rejects the whole batch with every
// group error, and nothing is persisted.
func (h *BulkHandler) Ingest(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	rows, ok := h.extractRows(c)
	if !ok {
		return
	}

	validation, result, err := h.bulkService.IngestBatch(c.Request.Context(), tenantID, rows, userID, 0)
	if err != nil {
		HandleError(c, err)
		return
	}
	if !validation.OK {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    validation,
			Error:   &APIError{Code: "BATCH_REJECTED", Message: "one or more invoices failed validation"},
		})
		return
	}

	RespondCreated(c, result)
}

// extractRows pulls the upload out of the request. Multipart requests carry
// an xlsx file; everything else is treated as a JSON row array. On failure
// the error response has already been written.
func (h *BulkHandler) extractRows(c *gin.Context) ([]ingest.RawRow, bool) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart field \"file\" is required")
			return nil, false
		}
		f, err := fileHeader.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not open uploaded file")
			return nil, false
		}
		defer func() { _ = f.Close() }()

		rows, err := ingest.ReadXLSX(f)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
			return nil, false
		}
		return rows, true
	}

	var req struct {
		Rows []ingest.RawRow `json:"rows" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "rows array is required")
		return nil, false
	}
	for i := range req.Rows {
		if req.Rows[i].Index == 0 {
			req.Rows[i].Index = i + 1
		}
	}
	return req.Rows, true
}
