package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/application/stats"
	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// personResponse is the wire shape of one person record.
type personResponse struct {
	Kind         int                `json:"kind"`
	TaxNumber    string             `json:"tax_number"`
	FullName     string             `json:"full_name"`
	ShortName    string             `json:"short_name,omitempty"`
	LegalAddress string             `json:"legal_address,omitempty"`
	FactAddress  string             `json:"fact_address,omitempty"`
	RegDate      *string            `json:"reg_date"`
	Active       bool               `json:"active"`
	Category     string             `json:"category"`
	Patents      []person.PatentRef `json:"patents"`
	PatentCount  int                `json:"patent_count"`
}

func toPersonResponse(p *person.WithPatents) personResponse {
	resp := personResponse{
		Kind:         int(p.Kind),
		TaxNumber:    p.TaxNumber,
		FullName:     p.FullName,
		ShortName:    p.ShortName,
		LegalAddress: p.LegalAddress,
		FactAddress:  p.FactAddress,
		RegDate:      formatDate(p.RegDate),
		Active:       p.Active,
		Category:     p.Category,
		Patents:      p.Patents,
		PatentCount:  p.PatentCount,
	}
	if resp.Patents == nil {
		resp.Patents = []person.PatentRef{}
	}
	return resp
}

// PersonHandler serves the person listing, detail and statistics endpoints.
type PersonHandler struct {
	repo   person.Repository
	stats  *stats.Service
	cache  redis.Cache
	logger logging.Logger
}

// NewPersonHandler constructs a PersonHandler.
func NewPersonHandler(repo person.Repository, statsSvc *stats.Service, cache redis.Cache, logger logging.Logger) *PersonHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PersonHandler{repo: repo, stats: statsSvc, cache: cache, logger: logger}
}

// List handles GET /api/persons.
func (h *PersonHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondError(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", 100)
	if err != nil {
		respondError(c, err)
		return
	}
	active, err := queryBoolPtr(c, "active")
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := queryPersonKindPtr(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, total, err := h.repo.List(c.Request.Context(), person.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Kind:     kind,
		Active:   active,
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]personResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPersonResponse(p))
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Items: out})
}

// Get handles GET /api/persons/:tax_number.
func (h *PersonHandler) Get(c *gin.Context) {
	p, err := h.repo.FindByTaxNumber(c.Request.Context(), c.Param("tax_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPersonResponse(p))
}

// Stats handles GET /api/persons/stats.
func (h *PersonHandler) Stats(c *gin.Context) {
	filterID, err := queryInt64Ptr(c, "filter_id")
	if err != nil {
		respondError(c, err)
		return
	}

	key := statsCacheKey("persons", filterID)
	if h.cache != nil {
		var cached stats.PersonStats
		if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
			c.JSON(http.StatusOK, &cached)
			return
		}
	}

	result, err := h.stats.PersonStats(c.Request.Context(), stats.Scope{FilterID: filterID})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), key, result, statsCacheTTL); err != nil {
			h.logger.Warn("failed to cache statistics", logging.Err(err))
		}
	}
	c.JSON(http.StatusOK, result)
}

func queryPersonKindPtr(c *gin.Context) (*person.Kind, error) {
	n, err := queryInt64Ptr(c, "kind")
	if err != nil || n == nil {
		return nil, err
	}
	kind := person.Kind(*n)
	if !kind.Valid() {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid person kind").
			WithDetail(fmt.Sprintf("kind=%d", *n))
	}
	return &kind, nil
}
