// Package filters manages operator-uploaded tax-number filter sets.
package filters

import (
	"context"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/internal/domain/filterset"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/internal/parsing"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Service implements the filter lifecycle: upload, list, rename, delete.
type Service struct {
	repo   filterset.Repository
	logger logging.Logger
}

// NewService constructs a filter service.
func NewService(repo filterset.Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("filters")}
}

// Upload parses a spreadsheet of tax numbers and persists it as a named
// filter atomically with its full member set. The first column of the active
// sheet holds the numbers, one per row after a header row. Members are padded
// to canonical width but otherwise taken as-is: the filter scopes queries and
// an unmatched member simply matches nothing.
func (s *Service) Upload(ctx context.Context, name, filename string, r io.Reader) (*filterset.Filter, error) {
	members, err := readMembers(r)
	if err != nil {
		return nil, err
	}

	f := &filterset.Filter{
		Name:            name,
		Filename:        filename,
		TaxNumbersCount: len(members),
	}
	if err := s.repo.Create(ctx, f, members); err != nil {
		return nil, err
	}

	s.logger.Info("filter created",
		logging.Int64("filter_id", f.ID),
		logging.String("name", f.Name),
		logging.Int("members", len(members)))
	return f, nil
}

// Get returns one filter by id.
func (s *Service) Get(ctx context.Context, id int64) (*filterset.Filter, error) {
	return s.repo.Get(ctx, id)
}

// List returns all filters.
func (s *Service) List(ctx context.Context) ([]*filterset.Filter, error) {
	return s.repo.List(ctx)
}

// Rename changes a filter's name; membership is immutable.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*filterset.Filter, error) {
	return s.repo.Rename(ctx, id, name)
}

// Delete removes a filter and its member set.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("filter deleted", logging.Int64("filter_id", id))
	return nil
}

// readMembers extracts the deduplicated, order-preserving member list from
// the first column of the uploaded spreadsheet.
func readMembers(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFilterUpload, "failed to open uploaded spreadsheet")
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFilterUpload, "failed to read uploaded sheet")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeFilterUpload, "uploaded sheet is empty")
	}

	members := make([]string, 0, len(rows)-1)
	seen := make(map[string]struct{}, len(rows)-1)
	for _, row := range rows[1:] { // header row carries no data
		if len(row) == 0 {
			continue
		}
		tn := parsing.PadTaxNumber(strings.TrimSpace(row[0]))
		if tn == "" {
			continue
		}
		if _, dup := seen[tn]; dup {
			continue
		}
		seen[tn] = struct{}{}
		members = append(members, tn)
	}
	if len(members) == 0 {
		return nil, errors.New(errors.ErrCodeFilterUpload, "uploaded sheet contains no tax numbers")
	}
	return members, nil
}
