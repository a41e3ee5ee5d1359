package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// fakePatentRepo serves a fixed record set.
type fakePatentRepo struct {
	records map[patent.Key]*patent.WithHolders
	lastQ   patent.ListQuery
}

func (r *fakePatentRepo) InsertBatch(context.Context, []*patent.Patent) error { return nil }

func (r *fakePatentRepo) Exists(_ context.Context, key patent.Key) (bool, error) {
	_, ok := r.records[key]
	return ok, nil
}

func (r *fakePatentRepo) CountAll(context.Context) (int64, error) {
	return int64(len(r.records)), nil
}

func (r *fakePatentRepo) FindByKey(_ context.Context, key patent.Key) (*patent.WithHolders, error) {
	p, ok := r.records[key]
	if !ok {
		return nil, errors.New(errors.ErrCodePatentNotFound, "patent not found")
	}
	return p, nil
}

func (r *fakePatentRepo) List(_ context.Context, q patent.ListQuery) ([]*patent.WithHolders, int64, error) {
	r.lastQ = q
	out := make([]*patent.WithHolders, 0, len(r.records))
	for _, p := range r.records {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func newPatentTestRouter(repo patent.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPatentHandler(repo, nil, nil, nil)
	r := gin.New()
	r.GET("/api/patents", h.List)
	r.GET("/api/patents/:kind/:reg_number", h.Get)
	return r
}

func fixtureRepo() *fakePatentRepo {
	key := patent.Key{Kind: patent.KindInvention, RegNumber: 2789123}
	return &fakePatentRepo{records: map[patent.Key]*patent.WithHolders{
		key: {
			Patent: patent.Patent{
				Kind:        key.Kind,
				RegNumber:   key.RegNumber,
				Name:        "Способ получения",
				Actual:      true,
				CountryCode: "RU",
				AuthorCount: 2,
			},
			Holders: []patent.Holder{{TaxNumber: "0123456789", FullName: "ООО Ромашка"}},
		},
	}}
}

func TestPatentGet(t *testing.T) {
	r := newPatentTestRouter(fixtureRepo())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patents/1/2789123", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reg_number":2789123`)
	assert.Contains(t, rec.Body.String(), `"tax_number":"0123456789"`)
}

func TestPatentGetNotFound(t *testing.T) {
	r := newPatentTestRouter(fixtureRepo())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patents/1/999", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.ErrCodePatentNotFound.String())
}

func TestPatentGetInvalidKind(t *testing.T) {
	r := newPatentTestRouter(fixtureRepo())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patents/9/2789123", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatentListPassesQuery(t *testing.T) {
	repo := fixtureRepo()
	r := newPatentTestRouter(repo)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/patents?page=2&page_size=50&actual=true&filter_id=7&kind=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, repo.lastQ.Page)
	assert.Equal(t, 50, repo.lastQ.PageSize)
	require.NotNil(t, repo.lastQ.Actual)
	assert.True(t, *repo.lastQ.Actual)
	require.NotNil(t, repo.lastQ.FilterID)
	assert.Equal(t, int64(7), *repo.lastQ.FilterID)
	require.NotNil(t, repo.lastQ.Kind)
	assert.Equal(t, patent.KindInvention, *repo.lastQ.Kind)
}

func TestPatentListRejectsBadParams(t *testing.T) {
	r := newPatentTestRouter(fixtureRepo())

	for _, url := range []string{
		"/api/patents?page=abc",
		"/api/patents?actual=maybe",
		"/api/patents?filter_id=x",
		"/api/patents?kind=4",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestStatsCacheKey(t *testing.T) {
	assert.Equal(t, "stats:patents:all", statsCacheKey("patents", nil))
	id := int64(3)
	assert.Equal(t, "stats:persons:filter=3", statsCacheKey("persons", &id))
}
