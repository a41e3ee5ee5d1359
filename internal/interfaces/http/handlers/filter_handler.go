package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/application/filters"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// FilterHandler serves the filter lifecycle endpoints. Every mutation
// invalidates the cached statistics responses, since a filter change can
// alter any scoped statistic.
type FilterHandler struct {
	svc    *filters.Service
	cache  redis.Cache
	logger logging.Logger
}

// NewFilterHandler constructs a FilterHandler.
func NewFilterHandler(svc *filters.Service, cache redis.Cache, logger logging.Logger) *FilterHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FilterHandler{svc: svc, cache: cache, logger: logger}
}

// List handles GET /api/filters.
func (h *FilterHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /api/filters/:id.
func (h *FilterHandler) Get(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Upload handles POST /api/filters: a multipart form with a "name" field and
// a "file" spreadsheet of tax numbers.
func (h *FilterHandler) Upload(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "filter name is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "filter file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeFilterUpload, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	f, err := h.svc.Upload(c.Request.Context(), name, fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusCreated, f)
}

// renameRequest is the body of PATCH /api/filters/:id.
type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename handles PATCH /api/filters/:id.
func (h *FilterHandler) Rename(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid rename request"))
		return
	}

	f, err := h.svc.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusOK, f)
}

// Delete handles DELETE /api/filters/:id.
func (h *FilterHandler) Delete(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateStats(c)
	c.Status(http.StatusNoContent)
}

func (h *FilterHandler) invalidateStats(c *gin.Context) {
	if h.cache == nil {
		return
	}
	if _, err := h.cache.DeleteByPrefix(c.Request.Context(), statsCachePrefix); err != nil {
		h.logger.Warn("failed to invalidate statistics cache", logging.Err(err))
	}
}
