package parsing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/refdata"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

func patentTestColumns() []string {
	return []string{
		colRegNumber, colRegDate, colApplDate, colAuthors, colPatentHolders,
		colCorrespondence, colMPK, colActual, "invention name",
	}
}

func TestPatentDecoderDetectSchema(t *testing.T) {
	d := NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema(patentTestColumns()))
	assert.Equal(t, patent.KindInvention, d.Kind())

	d = NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema([]string{colRegNumber, "utility model name"}))
	assert.Equal(t, patent.KindUtilityModel, d.Kind())

	d = NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema([]string{colRegNumber, "industrial design name"}))
	assert.Equal(t, patent.KindIndustrialDesign, d.Kind())
}

func TestPatentDecoderDetectSchemaErrors(t *testing.T) {
	d := NewPatentDecoder(nil)

	err := d.DetectSchema([]string{"invention name"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceSchema))

	err = d.DetectSchema([]string{colRegNumber})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceSchema))
}

func TestPatentDecoderDecodeRow(t *testing.T) {
	postal, err := refdata.ReadPostalCodes(strings.NewReader(
		"INDEX,REGION,CITY\n101000,Moscow,Moscow\n"))
	require.NoError(t, err)

	d := NewPatentDecoder(postal)
	require.NoError(t, d.DetectSchema(patentTestColumns()))

	p, skip := d.DecodeRow(Row{
		colRegNumber:      "2789123",
		colRegDate:        "20220510",
		colApplDate:       "20201201",
		colAuthors:        "Ivanov I.I.\r\nPetrov P.P.",
		colPatentHolders:  "ООО Ромашка (RU)",
		colCorrespondence: "101000, Moscow, Tverskaya 1",
		colMPK:            "A61K31/00:C07D213/64",
		colActual:         "true",
		"invention name":  "Способ получения",
	})
	require.Nil(t, skip)

	assert.Equal(t, patent.KindInvention, p.Kind)
	assert.Equal(t, int64(2789123), p.RegNumber)
	require.NotNil(t, p.RegDate)
	assert.Equal(t, time.Date(2022, 5, 10, 0, 0, 0, 0, time.UTC), *p.RegDate)
	assert.Equal(t, 2, p.AuthorCount)
	assert.True(t, p.Actual)
	assert.Equal(t, "RU", p.CountryCode)
	assert.Equal(t, "A61, C07", p.Category)
	assert.Equal(t, "A61K, C07D", p.Subcategory)
	assert.Equal(t, "Moscow", p.Region)
	assert.Equal(t, "Moscow", p.City)
	assert.Equal(t, "1:2789123", d.DedupKey(p))
}

func TestPatentDecoderSkips(t *testing.T) {
	d := NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema(patentTestColumns()))

	_, skip := d.DecodeRow(Row{colRegNumber: ""})
	require.NotNil(t, skip)
	assert.Equal(t, SkipMissingKey, skip.Reason)

	_, skip = d.DecodeRow(Row{colRegNumber: "no-digits"})
	require.NotNil(t, skip)
	assert.Equal(t, SkipBadRegNumber, skip.Reason)
}

func TestPatentDecoderDefaults(t *testing.T) {
	d := NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema(patentTestColumns()))

	// Bare registration number: everything else is best-effort.
	p, skip := d.DecodeRow(Row{colRegNumber: "42"})
	require.Nil(t, skip)
	assert.Nil(t, p.RegDate)
	assert.Nil(t, p.ApplDate)
	assert.True(t, p.Actual, "absent actual flag defaults to current")
	assert.Equal(t, "RU", p.CountryCode, "no markers classifies as domestic")
	assert.Equal(t, 0, p.AuthorCount)
	assert.Empty(t, p.Region)
}

func TestPatentDecoderNoMPKForIndustrialDesign(t *testing.T) {
	d := NewPatentDecoder(nil)
	require.NoError(t, d.DetectSchema([]string{colRegNumber, colMPK, "industrial design name"}))

	p, skip := d.DecodeRow(Row{colRegNumber: "7", colMPK: "A61K31/00"})
	require.Nil(t, skip)
	assert.Empty(t, p.Category)
	assert.Empty(t, p.Subcategory)
}
