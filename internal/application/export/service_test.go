package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/domain/person"
)

type fakeExportSource struct {
	rows []Row
	got  Query
}

func (s *fakeExportSource) ExportRows(_ context.Context, q Query) ([]Row, error) {
	s.got = q
	if q.Limit < len(s.rows) {
		return s.rows[:q.Limit], nil
	}
	return s.rows, nil
}

func TestSplitHolders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"domestic marker stripped",
			`ООО "Ромашка" (RU)`,
			[]string{`ООО "Ромашка"`},
		},
		{
			"multiple holders",
			`ООО "Ромашка" (RU) Иванов Иван Иванович (RU)`,
			[]string{`ООО "Ромашка"`, `Иванов Иван Иванович`},
		},
		{
			"foreign marker kept",
			`Siemens AG (DE)`,
			[]string{`Siemens AG (DE)`},
		},
		{"empty", "", nil},
		{"no terminated segment", "plain name", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitHolders(tt.raw))
		})
	}
}

func TestPatentsXLSX(t *testing.T) {
	regDate := time.Date(2022, 5, 10, 0, 0, 0, 0, time.UTC)
	src := &fakeExportSource{rows: []Row{{
		TaxNumber:      "0123456789",
		PersonKind:     person.KindLegalEntity,
		PersonCategory: "Universities",
		FullName:       "ФГБОУ ВО Университет",
		RegNumber:      2789123,
		PatentKind:     patent.KindInvention,
		RegDate:        &regDate,
		Name:           "Способ получения",
		Actual:         true,
		Category:       "A61",
		Subcategory:    "A61K",
		Region:         "Moscow",
		City:           "Moscow",
		AuthorCount:    2,
	}}}
	svc := NewService(src, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.PatentsXLSX(context.Background(), Query{}, &buf))
	assert.Equal(t, DefaultLimit, src.got.Limit, "unset limit falls back to the cap")

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ИНН", rows[0][0])
	assert.Equal(t, "0123456789", rows[1][0])
	assert.Equal(t, "Юрлицо", rows[1][1])
	assert.Equal(t, "2789123", rows[1][4])
	assert.Equal(t, "изобретение", rows[1][5])
	assert.Equal(t, "10.05.2022", rows[1][6])
}

func TestPatentsXLSXClampsLimit(t *testing.T) {
	src := &fakeExportSource{}
	svc := NewService(src, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.PatentsXLSX(context.Background(), Query{Limit: DefaultLimit + 1}, &buf))
	assert.Equal(t, DefaultLimit, src.got.Limit)

	require.NoError(t, svc.PatentsXLSX(context.Background(), Query{Limit: 5}, &buf))
	assert.Equal(t, 5, src.got.Limit)
}
