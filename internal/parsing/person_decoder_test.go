package parsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

func personTestColumns() []string {
	return []string{
		colTaxNumber, colFullName, colShortName, colLegalForm, colActivityCode,
		colCreatedDate, colHeadCompany, colActive, colLegalAddress, colFactAddress,
	}
}

func TestPersonDecoderDetectSchema(t *testing.T) {
	d := NewPersonDecoder()
	require.NoError(t, d.DetectSchema(personTestColumns()))

	// Only the key and full name are mandatory.
	require.NoError(t, d.DetectSchema([]string{colTaxNumber, colFullName}))

	err := d.DetectSchema([]string{colFullName})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceSchema))
}

func TestPersonDecoderDecodeRow(t *testing.T) {
	d := NewPersonDecoder()
	require.NoError(t, d.DetectSchema(personTestColumns()))

	p, skip := d.DecodeRow(Row{
		colTaxNumber:    "770123456",
		colFullName:     "Общество с ограниченной ответственностью \"Ромашка\"",
		colShortName:    "ООО \"Ромашка\"",
		colLegalForm:    "Общество с ограниченной ответственностью",
		colActivityCode: "62.01",
		colCreatedDate:  "2015-06-01",
		colHeadCompany:  "1",
		colActive:       "1",
	})
	require.Nil(t, skip)

	assert.Equal(t, person.KindLegalEntity, p.Kind)
	assert.Equal(t, "0770123456", p.TaxNumber, "nine-digit tax number is left-padded")
	assert.True(t, p.Active)
	assert.Equal(t, CategoryITCompany, p.Category)
	require.NotNil(t, p.RegDate)
	assert.Equal(t, time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), *p.RegDate)
	assert.Equal(t, "0770123456", d.DedupKey(p))
}

func TestPersonDecoderIndividualEntrepreneur(t *testing.T) {
	d := NewPersonDecoder()
	require.NoError(t, d.DetectSchema(personTestColumns()))

	p, skip := d.DecodeRow(Row{
		colTaxNumber: "500100732259",
		colFullName:  "ИП Иванов Иван Иванович",
		colLegalForm: "Индивидуальные предприниматели",
	})
	require.Nil(t, skip)
	assert.Equal(t, person.KindIndividualEntrepreneur, p.Kind)
	assert.Equal(t, "500100732259", p.TaxNumber)
}

func TestPersonDecoderSkips(t *testing.T) {
	d := NewPersonDecoder()
	require.NoError(t, d.DetectSchema(personTestColumns()))

	tests := []struct {
		name string
		row  Row
		want SkipReason
	}{
		{"empty tax number", Row{colFullName: "ООО Пустышка"}, SkipMissingKey},
		{"empty full name", Row{colTaxNumber: "7701234567"}, SkipMissingKey},
		{"tax number too short", Row{colTaxNumber: "12345678", colFullName: "x"}, SkipBadTaxNumber},
		{"tax number too long", Row{colTaxNumber: "1234567890123", colFullName: "x"}, SkipBadTaxNumber},
		{"branch row", Row{colTaxNumber: "7701234567", colFullName: "x", colHeadCompany: "0"}, SkipNotHeadCompany},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip := d.DecodeRow(tt.row)
			require.NotNil(t, skip)
			assert.Equal(t, tt.want, skip.Reason)
		})
	}
}

func TestPersonDecoderDefaults(t *testing.T) {
	d := NewPersonDecoder()
	require.NoError(t, d.DetectSchema(personTestColumns()))

	p, skip := d.DecodeRow(Row{colTaxNumber: "7701234567", colFullName: "ООО Ромашка"})
	require.Nil(t, skip)
	assert.Equal(t, person.KindLegalEntity, p.Kind)
	assert.False(t, p.Active, "only an explicit \"1\" marks the company active")
	assert.Equal(t, CategoryOther, p.Category)
	assert.Nil(t, p.RegDate)
}
