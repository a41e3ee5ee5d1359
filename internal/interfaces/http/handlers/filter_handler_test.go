package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/internal/application/filters"
	"github.com/turtacn/patreg-insight/internal/domain/filterset"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// fakeFilterRepo keeps filters in memory.
type fakeFilterRepo struct {
	nextID  int64
	byID    map[int64]*filterset.Filter
	members map[int64][]string
}

func newFakeFilterRepo() *fakeFilterRepo {
	return &fakeFilterRepo{
		nextID:  1,
		byID:    map[int64]*filterset.Filter{},
		members: map[int64][]string{},
	}
}

func (r *fakeFilterRepo) Create(_ context.Context, f *filterset.Filter, members []string) error {
	for _, existing := range r.byID {
		if existing.Name == f.Name {
			return errors.New(errors.ErrCodeFilterExists, "filter name already in use")
		}
	}
	f.ID = r.nextID
	f.Created = time.Now()
	r.nextID++
	stored := *f
	r.byID[f.ID] = &stored
	r.members[f.ID] = members
	return nil
}

func (r *fakeFilterRepo) Get(_ context.Context, id int64) (*filterset.Filter, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeFilterNotFound, "filter %d not found", id)
	}
	return f, nil
}

func (r *fakeFilterRepo) List(context.Context) ([]*filterset.Filter, error) {
	out := make([]*filterset.Filter, 0, len(r.byID))
	for _, f := range r.byID {
		out = append(out, f)
	}
	return out, nil
}

func (r *fakeFilterRepo) GetMembers(_ context.Context, id int64) ([]string, error) {
	if _, ok := r.byID[id]; !ok {
		return nil, errors.Newf(errors.ErrCodeFilterNotFound, "filter %d not found", id)
	}
	return r.members[id], nil
}

func (r *fakeFilterRepo) Rename(_ context.Context, id int64, name string) (*filterset.Filter, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeFilterNotFound, "filter %d not found", id)
	}
	f.Name = name
	return f, nil
}

func (r *fakeFilterRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return errors.Newf(errors.ErrCodeFilterNotFound, "filter %d not found", id)
	}
	delete(r.byID, id)
	delete(r.members, id)
	return nil
}

// spyCache records prefix invalidations.
type spyCache struct {
	deletedPrefixes []string
}

func (c *spyCache) Get(context.Context, string, interface{}) error { return nil }
func (c *spyCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (c *spyCache) Delete(context.Context, ...string) error { return nil }
func (c *spyCache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	c.deletedPrefixes = append(c.deletedPrefixes, prefix)
	return 0, nil
}

func newFilterTestRouter(repo filterset.Repository, cache *spyCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFilterHandler(filters.NewService(repo, nil), cache, nil)
	r := gin.New()
	r.GET("/api/filters", h.List)
	r.POST("/api/filters", h.Upload)
	r.GET("/api/filters/:id", h.Get)
	r.PATCH("/api/filters/:id", h.Rename)
	r.DELETE("/api/filters/:id", h.Delete)
	return r
}

func uploadBody(t *testing.T, name string, taxNumbers []string) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetCellValue(sheet, "A1", "ИНН"))
	for i, tn := range taxNumbers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, tn))
	}
	var sheetBuf bytes.Buffer
	require.NoError(t, f.Write(&sheetBuf))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", name))
	part, err := mw.CreateFormFile("file", "members.xlsx")
	require.NoError(t, err)
	_, err = part.Write(sheetBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestFilterUpload(t *testing.T) {
	repo := newFakeFilterRepo()
	cache := &spyCache{}
	r := newFilterTestRouter(repo, cache)

	body, contentType := uploadBody(t, "watchlist", []string{"123456789", "7701234567"})
	req := httptest.NewRequest("POST", "/api/filters", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"watchlist"`)
	// Short tax numbers are padded to canonical form before storage.
	assert.Equal(t, []string{"0123456789", "7701234567"}, repo.members[1])
	assert.Equal(t, []string{statsCachePrefix}, cache.deletedPrefixes)
}

func TestFilterUploadRequiresName(t *testing.T) {
	r := newFilterTestRouter(newFakeFilterRepo(), &spyCache{})

	body, contentType := uploadBody(t, "", nil)
	req := httptest.NewRequest("POST", "/api/filters", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterUploadDuplicateName(t *testing.T) {
	repo := newFakeFilterRepo()
	r := newFilterTestRouter(repo, &spyCache{})

	for i := 0; i < 2; i++ {
		body, contentType := uploadBody(t, "watchlist", []string{"7701234567"})
		req := httptest.NewRequest("POST", "/api/filters", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusCreated, rec.Code)
		} else {
			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Contains(t, rec.Body.String(), errors.ErrCodeFilterExists.String())
		}
	}
}

func TestFilterRename(t *testing.T) {
	repo := newFakeFilterRepo()
	cache := &spyCache{}
	r := newFilterTestRouter(repo, cache)

	require.NoError(t, repo.Create(context.Background(),
		&filterset.Filter{Name: "old"}, []string{"7701234567"}))

	req := httptest.NewRequest("PATCH", "/api/filters/1", strings.NewReader(`{"name":"new"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new", repo.byID[1].Name)
	assert.Equal(t, []string{statsCachePrefix}, cache.deletedPrefixes)
}

func TestFilterDelete(t *testing.T) {
	repo := newFakeFilterRepo()
	cache := &spyCache{}
	r := newFilterTestRouter(repo, cache)

	require.NoError(t, repo.Create(context.Background(),
		&filterset.Filter{Name: "old"}, []string{"7701234567"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/filters/1", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.byID)
	assert.Equal(t, []string{statsCachePrefix}, cache.deletedPrefixes)
}

func TestFilterGetNotFound(t *testing.T) {
	r := newFilterTestRouter(newFakeFilterRepo(), &spyCache{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/filters/99", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.ErrCodeFilterNotFound.String())
}
