package parsing

import (
	"strconv"
	"strings"

	"github.com/turtacn/patreg-insight/internal/domain/ownership"
	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Ownership-link export column names.
const (
	colOwnPatentKind = "patent_kind"
	colOwnPatentNum  = "patent_number"
	colOwnTaxNumber  = "person_tax_number"
)

// OwnershipDecoder decodes patent-to-person link rows.
type OwnershipDecoder struct{}

// NewOwnershipDecoder constructs an ownership decoder.
func NewOwnershipDecoder() *OwnershipDecoder { return &OwnershipDecoder{} }

// DetectSchema validates the three link columns; all are mandatory.
func (d *OwnershipDecoder) DetectSchema(columns []string) error {
	for _, required := range []string{colOwnPatentKind, colOwnPatentNum, colOwnTaxNumber} {
		if !hasColumn(columns, required) {
			return errors.New(errors.ErrCodeSourceSchema, "required column missing").
				WithDetail("column=" + required)
		}
	}
	return nil
}

// DecodeRow normalizes one link row. Referential integrity of the link
// targets is the store's concern; the decoder only validates shape.
func (d *OwnershipDecoder) DecodeRow(row Row) (*ownership.Ownership, *Skip) {
	rawNum := strings.TrimSpace(row.Get(colOwnPatentNum))
	rawTax := strings.TrimSpace(row.Get(colOwnTaxNumber))
	if rawNum == "" || rawTax == "" {
		return nil, &Skip{Reason: SkipMissingKey}
	}

	regNumber, ok := RegNumberToInt(rawNum)
	if !ok {
		return nil, &Skip{Reason: SkipBadRegNumber}
	}

	kindVal, err := strconv.Atoi(strings.TrimSpace(row.Get(colOwnPatentKind)))
	if err != nil {
		return nil, &Skip{Reason: SkipBadKind}
	}
	kind := patent.Kind(kindVal)
	if !kind.Valid() {
		return nil, &Skip{Reason: SkipBadKind}
	}

	taxNumber, ok := FormatTaxNumber(rawTax)
	if !ok {
		return nil, &Skip{Reason: SkipBadTaxNumber}
	}

	return &ownership.Ownership{
		PatentKind:      kind,
		PatentRegNumber: regNumber,
		PersonTaxNumber: taxNumber,
	}, nil
}

// DedupKey implements RowDecoder.
func (d *OwnershipDecoder) DedupKey(o *ownership.Ownership) string {
	return o.DedupKey()
}
