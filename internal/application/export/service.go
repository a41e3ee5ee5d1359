// Package export generates spreadsheet exports of patent-holder data.
package export

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// DefaultLimit caps an export at a bounded number of rows.
const DefaultLimit = 10000

// Row is one export line: a patent joined to one of its holders.
type Row struct {
	TaxNumber      string
	PersonKind     person.Kind
	PersonCategory string
	FullName       string
	RegNumber      int64
	PatentKind     patent.Kind
	RegDate        *time.Time
	Name           string
	Actual         bool
	Category       string
	Subcategory    string
	Region         string
	City           string
	AuthorCount    int
}

// Query narrows an export.
type Query struct {
	FilterID *int64
	Actual   *bool
	Kind     *patent.Kind
	Limit    int
}

// Source provides export rows: patents joined through ownership to persons,
// ordered by registration number.
type Source interface {
	ExportRows(ctx context.Context, q Query) ([]Row, error)
}

// Service writes patent-holder exports.
type Service struct {
	src    Source
	logger logging.Logger
}

// NewService constructs an export service.
func NewService(src Source, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{src: src, logger: logger.Named("export")}
}

// Export sheet headers, in the column order consumers of the report expect.
var exportHeaders = []interface{}{
	"ИНН", "Вид", "Категория", "Полное наименование", "Регистрационный номер патента",
	"Вид патента", "Дата регистрации", "Название", "Актуальность патента",
	"Индекс класса по МПК", "Индекс подкласса по МПК", "Регион правообладателя",
	"Город правообладателя", "Число авторов",
}

const exportSheet = "Patents"

// PatentsXLSX streams the export spreadsheet for q into w.
func (s *Service) PatentsXLSX(ctx context.Context, q Query, w io.Writer) error {
	if q.Limit <= 0 || q.Limit > DefaultLimit {
		q.Limit = DefaultLimit
	}

	rows, err := s.src.ExportRows(ctx, q)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to create export sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to drop default sheet")
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to open stream writer")
	}
	if err := writeRow(sw, 1, exportHeaders); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(sw, i+2, exportCells(row)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to flush export sheet")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to write export file")
	}

	s.logger.Info("export generated", logging.Int("rows", len(rows)))
	return nil
}

func writeRow(sw *excelize.StreamWriter, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to address export row")
	}
	if err := sw.SetRow(cell, cells); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to write export row")
	}
	return nil
}

func exportCells(r Row) []interface{} {
	regDate := ""
	if r.RegDate != nil {
		regDate = r.RegDate.Format("02.01.2006")
	}
	return []interface{}{
		r.TaxNumber,
		personKindLabel(r.PersonKind),
		r.PersonCategory,
		r.FullName,
		r.RegNumber,
		patentKindLabel(r.PatentKind),
		regDate,
		r.Name,
		r.Actual,
		r.Category,
		r.Subcategory,
		r.Region,
		r.City,
		r.AuthorCount,
	}
}

// Report labels follow the source registry's language.
func patentKindLabel(k patent.Kind) string {
	switch k {
	case patent.KindInvention:
		return "изобретение"
	case patent.KindUtilityModel:
		return "полезная модель"
	case patent.KindIndustrialDesign:
		return "промышленный образец"
	default:
		return "неизвестно"
	}
}

func personKindLabel(k person.Kind) string {
	switch k {
	case person.KindLegalEntity:
		return "Юрлицо"
	case person.KindIndividualEntrepreneur:
		return "Физлицо/ИП"
	default:
		return "неизвестно"
	}
}

var domesticHolderSuffixRe = regexp.MustCompile(`\s*\(RU\)$`)

// SplitHolders reworks the raw patent-holders field into individual holder
// names. Holders are ")"-terminated segments; a trailing domestic country
// marker is stripped from each, foreign markers are kept.
func SplitHolders(raw string) []string {
	if raw == "" {
		return nil
	}
	segments := strings.Split(raw, ")")
	if len(segments) < 2 {
		return nil
	}
	holders := make([]string, 0, len(segments)-1)
	for _, seg := range segments[:len(segments)-1] {
		holder := domesticHolderSuffixRe.ReplaceAllString(strings.TrimSpace(seg)+")", "")
		holders = append(holders, holder)
	}
	return holders
}
