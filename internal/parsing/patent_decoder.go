package parsing

import (
	"fmt"
	"strings"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/refdata"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Patent-registry export column names.
const (
	colRegNumber      = "registration number"
	colRegDate        = "registration date"
	colApplDate       = "application date"
	colAuthors        = "authors"
	colPatentHolders  = "patent holders"
	colCorrespondence = "correspondence address"
	colMPK            = "mpk"
	colActual         = "actual"
)

// nameColumns maps the three mutually exclusive name columns to the patent
// kind they imply. A file carries exactly one of them; which one determines
// the kind of every row in that file.
var nameColumns = []struct {
	Column string
	Kind   patent.Kind
}{
	{"invention name", patent.KindInvention},
	{"utility model name", patent.KindUtilityModel},
	{"industrial design name", patent.KindIndustrialDesign},
}

// PatentDecoder decodes patent-registry rows. The zero value is not usable;
// construct with NewPatentDecoder and call DetectSchema before DecodeRow.
type PatentDecoder struct {
	postal  *refdata.PostalCodes
	kind    patent.Kind
	nameCol string
}

// NewPatentDecoder constructs a patent decoder. postal may be nil, in which
// case region/city enrichment is disabled.
func NewPatentDecoder(postal *refdata.PostalCodes) *PatentDecoder {
	return &PatentDecoder{postal: postal}
}

// Kind returns the patent kind bound by DetectSchema.
func (d *PatentDecoder) Kind() patent.Kind { return d.kind }

// DetectSchema validates the mandatory registration-number column and
// auto-detects which name column is present, binding the corresponding kind
// for every subsequent row.
func (d *PatentDecoder) DetectSchema(columns []string) error {
	if !hasColumn(columns, colRegNumber) {
		return errors.New(errors.ErrCodeSourceSchema, "required column missing").
			WithDetail("column=" + colRegNumber)
	}
	for _, nc := range nameColumns {
		if hasColumn(columns, nc.Column) {
			d.kind = nc.Kind
			d.nameCol = nc.Column
			return nil
		}
	}
	return errors.New(errors.ErrCodeSourceSchema, "cannot detect patent kind: no name column present")
}

// DecodeRow normalizes one patent row. Only the registration number is
// mandatory; every other field is best-effort enrichment.
func (d *PatentDecoder) DecodeRow(row Row) (*patent.Patent, *Skip) {
	rawReg := row.Get(colRegNumber)
	if strings.TrimSpace(rawReg) == "" {
		return nil, &Skip{Reason: SkipMissingKey}
	}
	regNumber, ok := RegNumberToInt(rawReg)
	if !ok {
		return nil, &Skip{Reason: SkipBadRegNumber}
	}

	address := row.Get(colCorrespondence)
	p := &patent.Patent{
		Kind:        d.kind,
		RegNumber:   regNumber,
		RegDate:     ParseCompactDate(row.Get(colRegDate)),
		ApplDate:    ParseCompactDate(row.Get(colApplDate)),
		AuthorRaw:   row.Get(colAuthors),
		OwnerRaw:    row.Get(colPatentHolders),
		Address:     address,
		Name:        row.Get(d.nameCol),
		Actual:      parseActual(row.Get(colActual)),
		CountryCode: InferCountryCode(address),
		AuthorCount: AuthorCount(row.Get(colAuthors)),
	}

	// MPK classification applies to inventions and utility models only;
	// industrial designs carry no MPK code.
	if d.kind == patent.KindInvention || d.kind == patent.KindUtilityModel {
		p.Category, p.Subcategory = SplitMPK(row.Get(colMPK))
	}

	p.Region, p.City = EnrichFromAddress(address, d.postal)

	return p, nil
}

// DedupKey implements RowDecoder.
func (d *PatentDecoder) DedupKey(p *patent.Patent) string {
	return fmt.Sprintf("%d:%d", p.Kind, p.RegNumber)
}

// parseActual interprets the actuality flag. An absent field means the
// record is current.
func parseActual(raw string) bool {
	if raw == "" {
		return true
	}
	return strings.EqualFold(raw, "true")
}
