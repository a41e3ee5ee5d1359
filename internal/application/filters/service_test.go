package filters

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/internal/domain/filterset"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// memoryRepo stores filters in memory with atomic create semantics.
type memoryRepo struct {
	nextID  int64
	filters map[int64]*filterset.Filter
	members map[int64][]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:  1,
		filters: make(map[int64]*filterset.Filter),
		members: make(map[int64][]string),
	}
}

func (r *memoryRepo) Create(_ context.Context, f *filterset.Filter, members []string) error {
	for _, existing := range r.filters {
		if existing.Name == f.Name {
			return errors.New(errors.ErrCodeFilterExists, "filter with this name already exists")
		}
	}
	f.ID = r.nextID
	f.Created = time.Now()
	r.nextID++
	copied := *f
	r.filters[f.ID] = &copied
	r.members[f.ID] = append([]string(nil), members...)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*filterset.Filter, error) {
	f, ok := r.filters[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeFilterNotFound, "filter not found")
	}
	return f, nil
}

func (r *memoryRepo) List(context.Context) ([]*filterset.Filter, error) {
	out := make([]*filterset.Filter, 0, len(r.filters))
	for _, f := range r.filters {
		out = append(out, f)
	}
	return out, nil
}

func (r *memoryRepo) GetMembers(_ context.Context, id int64) ([]string, error) {
	members, ok := r.members[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeFilterNotFound, "filter not found")
	}
	return members, nil
}

func (r *memoryRepo) Rename(_ context.Context, id int64, name string) (*filterset.Filter, error) {
	f, ok := r.filters[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeFilterNotFound, "filter not found")
	}
	f.Name = name
	return f, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.filters[id]; !ok {
		return errors.New(errors.ErrCodeFilterNotFound, "filter not found")
	}
	delete(r.filters, id)
	delete(r.members, id)
	return nil
}

// buildSheet produces an in-memory xlsx with one tax number per row under a
// header cell.
func buildSheet(t *testing.T, values []string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetCellValue(sheet, "A1", "tax_number"))
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestUpload(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	buf := buildSheet(t, []string{"123456789", "1234567890", "123456789", ""})

	f, err := svc.Upload(context.Background(), "universities", "universities.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, "universities", f.Name)
	assert.Equal(t, "universities.xlsx", f.Filename)
	assert.Equal(t, 2, f.TaxNumbersCount, "duplicates and blanks are dropped")
	assert.False(t, f.Created.IsZero())

	members, err := repo.GetMembers(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"0123456789", "1234567890"}, members,
		"nine-digit members are padded, order preserved")
}

func TestUploadDuplicateName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Upload(context.Background(), "dup", "a.xlsx", buildSheet(t, []string{"1234567890"}))
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), "dup", "b.xlsx", buildSheet(t, []string{"1234567890"}))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilterExists))
}

func TestUploadRejectsBadContent(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Upload(context.Background(), "bad", "bad.xlsx", strings.NewReader("not a spreadsheet"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilterUpload))

	_, err = svc.Upload(context.Background(), "empty", "empty.xlsx", buildSheet(t, nil))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilterUpload))
}

func TestRenameAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	f, err := svc.Upload(context.Background(), "old", "f.xlsx", buildSheet(t, []string{"1234567890"}))
	require.NoError(t, err)

	renamed, err := svc.Rename(context.Background(), f.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Name)

	require.NoError(t, svc.Delete(context.Background(), f.ID))

	_, err = svc.Get(context.Background(), f.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilterNotFound))
}
