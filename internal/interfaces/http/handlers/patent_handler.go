package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/application/stats"
	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// statsCacheTTL bounds staleness of cached statistics responses.
const statsCacheTTL = 10 * time.Minute

// statsCachePrefix namespaces every cached statistics response so filter
// mutations can invalidate them all at once.
const statsCachePrefix = "stats"

// patentResponse is the wire shape of one patent record.
type patentResponse struct {
	Kind        int             `json:"kind"`
	RegNumber   int64           `json:"reg_number"`
	RegDate     *string         `json:"reg_date"`
	ApplDate    *string         `json:"appl_date"`
	Name        string          `json:"name"`
	Actual      bool            `json:"actual"`
	Category    string          `json:"category,omitempty"`
	Subcategory string          `json:"subcategory,omitempty"`
	CountryCode string          `json:"country_code"`
	Region      string          `json:"region,omitempty"`
	City        string          `json:"city,omitempty"`
	Address     string          `json:"address,omitempty"`
	AuthorRaw   string          `json:"author_raw,omitempty"`
	OwnerRaw    string          `json:"owner_raw,omitempty"`
	AuthorCount int             `json:"author_count"`
	Holders     []patent.Holder `json:"patent_holders"`
}

func toPatentResponse(p *patent.WithHolders) patentResponse {
	resp := patentResponse{
		Kind:        int(p.Kind),
		RegNumber:   p.RegNumber,
		RegDate:     formatDate(p.RegDate),
		ApplDate:    formatDate(p.ApplDate),
		Name:        p.Name,
		Actual:      p.Actual,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		CountryCode: p.CountryCode,
		Region:      p.Region,
		City:        p.City,
		Address:     p.Address,
		AuthorRaw:   p.AuthorRaw,
		OwnerRaw:    p.OwnerRaw,
		AuthorCount: p.AuthorCount,
		Holders:     p.Holders,
	}
	if resp.Holders == nil {
		resp.Holders = []patent.Holder{}
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// PatentHandler serves the patent listing, detail and statistics endpoints.
type PatentHandler struct {
	repo   patent.Repository
	stats  *stats.Service
	cache  redis.Cache
	logger logging.Logger
}

// NewPatentHandler constructs a PatentHandler. cache may be nil to disable
// response caching.
func NewPatentHandler(repo patent.Repository, statsSvc *stats.Service, cache redis.Cache, logger logging.Logger) *PatentHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PatentHandler{repo: repo, stats: statsSvc, cache: cache, logger: logger}
}

// List handles GET /api/patents.
func (h *PatentHandler) List(c *gin.Context) {
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
	actual, err := queryBoolPtr(c, "actual")
	if err != nil {
		respondError(c, err)
		return
	}
	filterID, err := queryInt64Ptr(c, "filter_id")
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := queryKindPtr(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, total, err := h.repo.List(c.Request.Context(), patent.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Kind:     kind,
		Actual:   actual,
		FilterID: filterID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]patentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPatentResponse(p))
	}
	c.JSON(http.StatusOK, listResponse{Total: total, Items: out})
}

// Get handles GET /api/patents/:kind/:reg_number.
func (h *PatentHandler) Get(c *gin.Context) {
	kindVal, err := pathInt64(c, "kind")
	if err != nil {
		respondError(c, err)
		return
	}
	kind := patent.Kind(kindVal)
	if !kind.Valid() {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "invalid patent kind").
			WithDetail(fmt.Sprintf("kind=%d", kindVal)))
		return
	}
	regNumber, err := pathInt64(c, "reg_number")
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.repo.FindByKey(c.Request.Context(), patent.Key{Kind: kind, RegNumber: regNumber})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPatentResponse(p))
}

// Stats handles GET /api/patents/stats.
func (h *PatentHandler) Stats(c *gin.Context) {
	filterID, err := queryInt64Ptr(c, "filter_id")
	if err != nil {
		respondError(c, err)
		return
	}

	key := statsCacheKey("patents", filterID)
	if h.cache != nil {
		var cached stats.PatentStats
		if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
			c.JSON(http.StatusOK, &cached)
			return
		}
	}

	result, err := h.stats.PatentStats(c.Request.Context(), stats.Scope{FilterID: filterID})
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

func statsCacheKey(entity string, filterID *int64) string {
	if filterID == nil {
		return fmt.Sprintf("%s:%s:all", statsCachePrefix, entity)
	}
	return fmt.Sprintf("%s:%s:filter=%d", statsCachePrefix, entity, *filterID)
}

func queryKindPtr(c *gin.Context) (*patent.Kind, error) {
	n, err := queryInt64Ptr(c, "kind")
	if err != nil || n == nil {
		return nil, err
	}
	kind := patent.Kind(*n)
	if !kind.Valid() {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid patent kind").
			WithDetail(fmt.Sprintf("kind=%d", *n))
	}
	return &kind, nil
}
