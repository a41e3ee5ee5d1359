package parsing

import (
	"strings"

	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Entity-registry export column names. The registry ships Russian headers.
const (
	colTaxNumber    = "ИНН"
	colFullName     = "Наименование полное"
	colShortName    = "Наименование краткое"
	colLegalForm    = "ОКОПФ (расшифровка)"
	colActivityCode = "ОКВЭД2"
	colCreatedDate  = "Дата создания"
	colHeadCompany  = "Головная компания (1) или филиал (0)"
	colActive       = "Компания действующая (1) или нет (0)"
	colLegalAddress = "Юр адрес"
	colFactAddress  = "Факт адрес"
)

// individualEntrepreneurForm is the legal-form label the registry uses for
// individual entrepreneurs; every other label means an organization.
const individualEntrepreneurForm = "Индивидуальные предприниматели"

// PersonDecoder decodes entity-registry rows.
type PersonDecoder struct{}

// NewPersonDecoder constructs a person decoder.
func NewPersonDecoder() *PersonDecoder { return &PersonDecoder{} }

// DetectSchema validates the two mandatory columns. All remaining columns
// are best-effort enrichment and may be absent.
func (d *PersonDecoder) DetectSchema(columns []string) error {
	for _, required := range []string{colTaxNumber, colFullName} {
		if !hasColumn(columns, required) {
			return errors.New(errors.ErrCodeSourceSchema, "required column missing").
				WithDetail("column=" + required)
		}
	}
	return nil
}

// DecodeRow normalizes one entity-registry row. Branch rows are skipped:
// only head companies are ingested, so a tax number maps to one record.
func (d *PersonDecoder) DecodeRow(row Row) (*person.Person, *Skip) {
	rawTax := strings.TrimSpace(row.Get(colTaxNumber))
	if rawTax == "" {
		return nil, &Skip{Reason: SkipMissingKey}
	}
	taxNumber, ok := FormatTaxNumber(rawTax)
	if !ok {
		return nil, &Skip{Reason: SkipBadTaxNumber}
	}
	fullName := strings.TrimSpace(row.Get(colFullName))
	if fullName == "" {
		return nil, &Skip{Reason: SkipMissingKey}
	}
	if head := strings.TrimSpace(row.Get(colHeadCompany)); head != "" && head != "1" {
		return nil, &Skip{Reason: SkipNotHeadCompany}
	}

	kind := person.KindLegalEntity
	if strings.TrimSpace(row.Get(colLegalForm)) == individualEntrepreneurForm {
		kind = person.KindIndividualEntrepreneur
	}

	return &person.Person{
		Kind:         kind,
		TaxNumber:    taxNumber,
		FullName:     fullName,
		ShortName:    row.Get(colShortName),
		LegalAddress: row.Get(colLegalAddress),
		FactAddress:  row.Get(colFactAddress),
		RegDate:      ParseISODate(row.Get(colCreatedDate)),
		Active:       strings.TrimSpace(row.Get(colActive)) == "1",
		Category:     CategorizeActivityCode(row.Get(colActivityCode)),
	}, nil
}

// DedupKey implements RowDecoder. The canonical tax number is the natural key.
func (d *PersonDecoder) DedupKey(p *person.Person) string {
	return p.TaxNumber
}
