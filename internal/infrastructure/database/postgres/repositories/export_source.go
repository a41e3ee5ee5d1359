package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/application/export"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// ExportSource implements export.Source: patents joined through ownership to
// their holders, one row per (patent, holder) pair.
type ExportSource struct {
	pool *pgxpool.Pool
}

// NewExportSource constructs an ExportSource.
func NewExportSource(pool *pgxpool.Pool) *ExportSource {
	return &ExportSource{pool: pool}
}

// ExportRows implements export.Source.
func (s *ExportSource) ExportRows(ctx context.Context, q export.Query) ([]export.Row, error) {
	var (
		clauses []string
		args    []interface{}
	)
	join := ""
	if q.FilterID != nil {
		join = ` JOIN filter_tax_numbers ftn ON ftn.tax_number = per.tax_number`
		args = append(args, *q.FilterID)
		clauses = append(clauses, fmt.Sprintf("ftn.filter_id = $%d", len(args)))
	}
	if q.Actual != nil {
		args = append(args, *q.Actual)
		clauses = append(clauses, fmt.Sprintf("p.actual = $%d", len(args)))
	}
	if q.Kind != nil {
		args = append(args, *q.Kind)
		clauses = append(clauses, fmt.Sprintf("p.kind = $%d", len(args)))
	}
	where := ""
	for i, c := range clauses {
		if i == 0 {
			where = " WHERE " + c
		} else {
			where += " AND " + c
		}
	}

	args = append(args, q.Limit)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT per.tax_number, per.kind, per.category, per.full_name,
		       p.reg_number, p.kind, p.reg_date, p.name, p.actual,
		       p.category, p.subcategory, p.region, p.city, p.author_count
		FROM patents p
		JOIN ownerships o ON o.patent_kind = p.kind AND o.patent_reg_number = p.reg_number
		JOIN persons per ON per.tax_number = o.person_tax_number%s%s
		ORDER BY p.reg_number
		LIMIT $%d`, join, where, len(args)), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query export rows")
	}
	defer rows.Close()

	var out []export.Row
	for rows.Next() {
		var r export.Row
		err := rows.Scan(
			&r.TaxNumber, &r.PersonKind, &r.PersonCategory, &r.FullName,
			&r.RegNumber, &r.PatentKind, &r.RegDate, &r.Name, &r.Actual,
			&r.Category, &r.Subcategory, &r.Region, &r.City, &r.AuthorCount,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan export row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read export rows")
	}
	return out, nil
}
