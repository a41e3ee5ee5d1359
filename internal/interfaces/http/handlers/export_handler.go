package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/application/export"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves the patent-holder spreadsheet export.
type ExportHandler struct {
	svc    *export.Service
	logger logging.Logger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc *export.Service, logger logging.Logger) *ExportHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

// Patents handles GET /api/patents/export.
func (h *ExportHandler) Patents(c *gin.Context) {
	filterID, err := queryInt64Ptr(c, "filter_id")
	if err != nil {
		respondError(c, err)
		return
	}
	actual, err := queryBoolPtr(c, "actual")
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := queryKindPtr(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	err = h.svc.PatentsXLSX(c.Request.Context(), export.Query{
		FilterID: filterID,
		Actual:   actual,
		Kind:     kind,
	}, &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename=patents_export.xlsx`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
