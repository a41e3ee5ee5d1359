package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// patentColumns is the full column list, in scan order.
const patentColumns = `kind, reg_number, reg_date, appl_date, author_raw, owner_raw,
	address, name, actual, category, subcategory, country_code, region, city, author_count`

// PatentRepository is the PostgreSQL implementation of patent.Repository.
// Every method takes a context for cancellation propagation and uses
// parameterised queries exclusively.
type PatentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPatentRepository constructs a ready-to-use PatentRepository.
func NewPatentRepository(pool *pgxpool.Pool, logger logging.Logger) *PatentRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PatentRepository{pool: pool, logger: logger.Named("patent_repo")}
}

// InsertBatch persists all records inside one transaction. A constraint
// violation on any record rolls back the whole batch.
func (r *PatentRepository) InsertBatch(ctx context.Context, records []*patent.Patent) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, p := range records {
		batch.Queue(`
			INSERT INTO patents (`+patentColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			p.Kind, p.RegNumber, p.RegDate, p.ApplDate, p.AuthorRaw, p.OwnerRaw,
			p.Address, p.Name, p.Actual, p.Category, p.Subcategory,
			p.CountryCode, p.Region, p.City, p.AuthorCount,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapBatchError(err, "failed to insert patent batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit patent batch")
	}
	return nil
}

// Exists reports whether a record with the natural key is present.
func (r *PatentRepository) Exists(ctx context.Context, key patent.Key) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patents WHERE kind = $1 AND reg_number = $2)`,
		key.Kind, key.RegNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check patent existence")
	}
	return exists, nil
}

// CountAll returns the number of patent records.
func (r *PatentRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patents`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count patents")
	}
	return n, nil
}

// FindByKey loads one patent with its resolved holders.
func (r *PatentRepository) FindByKey(ctx context.Context, key patent.Key) (*patent.WithHolders, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patentColumns+` FROM patents WHERE kind = $1 AND reg_number = $2`,
		key.Kind, key.RegNumber)

	p, err := scanPatent(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodePatentNotFound, "patent not found").
			WithDetail(fmt.Sprintf("kind=%d reg_number=%d", key.Kind, key.RegNumber))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load patent")
	}

	holders, err := r.loadHolders(ctx, key)
	if err != nil {
		return nil, err
	}
	return &patent.WithHolders{Patent: *p, Holders: holders}, nil
}

// List returns one page of patents with holders, newest registrations first,
// plus the total count matching the query.
func (r *PatentRepository) List(ctx context.Context, q patent.ListQuery) ([]*patent.WithHolders, int64, error) {
	where, args := patentListPredicate(q)
	limit, offset := normalizePage(q.Page, q.PageSize)

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(DISTINCT (p.kind, p.reg_number)) FROM patents p`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count patent listing")
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT `+patentColumnsQualified+` FROM patents p%s
		ORDER BY p.reg_number DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query patent listing")
	}
	defer rows.Close()

	var out []*patent.WithHolders
	for rows.Next() {
		p, err := scanPatent(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan patent row")
		}
		out = append(out, &patent.WithHolders{Patent: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read patent listing")
	}

	for _, p := range out {
		holders, err := r.loadHolders(ctx, p.NaturalKey())
		if err != nil {
			return nil, 0, err
		}
		p.Holders = holders
	}
	return out, total, nil
}

const patentColumnsQualified = `p.kind, p.reg_number, p.reg_date, p.appl_date, p.author_raw,
	p.owner_raw, p.address, p.name, p.actual, p.category, p.subcategory,
	p.country_code, p.region, p.city, p.author_count`

// patentListPredicate builds the WHERE clause shared by the count and page
// queries. A filter id joins through ownership to the filter member set.
func patentListPredicate(q patent.ListQuery) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	join := ""
	if q.FilterID != nil {
		join = ` JOIN ownerships o ON o.patent_kind = p.kind AND o.patent_reg_number = p.reg_number
			JOIN filter_tax_numbers ftn ON ftn.tax_number = o.person_tax_number`
		args = append(args, *q.FilterID)
		clauses = append(clauses, fmt.Sprintf("ftn.filter_id = $%d", len(args)))
	}
	if q.Kind != nil {
		args = append(args, *q.Kind)
		clauses = append(clauses, fmt.Sprintf("p.kind = $%d", len(args)))
	}
	if q.Actual != nil {
		args = append(args, *q.Actual)
		clauses = append(clauses, fmt.Sprintf("p.actual = $%d", len(args)))
	}
	where := join
	for i, c := range clauses {
		if i == 0 {
			where += " WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}

func (r *PatentRepository) loadHolders(ctx context.Context, key patent.Key) ([]patent.Holder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT per.tax_number, per.full_name
		FROM ownerships o
		JOIN persons per ON per.tax_number = o.person_tax_number
		WHERE o.patent_kind = $1 AND o.patent_reg_number = $2
		ORDER BY per.tax_number`,
		key.Kind, key.RegNumber)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load patent holders")
	}
	defer rows.Close()

	var holders []patent.Holder
	for rows.Next() {
		var h patent.Holder
		if err := rows.Scan(&h.TaxNumber, &h.FullName); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan holder row")
		}
		holders = append(holders, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read patent holders")
	}
	return holders, nil
}

func scanPatent(row pgx.Row) (*patent.Patent, error) {
	var p patent.Patent
	err := row.Scan(
		&p.Kind, &p.RegNumber, &p.RegDate, &p.ApplDate, &p.AuthorRaw, &p.OwnerRaw,
		&p.Address, &p.Name, &p.Actual, &p.Category, &p.Subcategory,
		&p.CountryCode, &p.Region, &p.City, &p.AuthorCount,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
