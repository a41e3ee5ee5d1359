package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/domain/filterset"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// FilterRepository is the PostgreSQL implementation of filterset.Repository.
type FilterRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewFilterRepository constructs a ready-to-use FilterRepository.
func NewFilterRepository(pool *pgxpool.Pool, logger logging.Logger) *FilterRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FilterRepository{pool: pool, logger: logger.Named("filter_repo")}
}

// Create persists the filter and its full member set in one transaction,
// populating f.ID and f.Created on success.
func (r *FilterRepository) Create(ctx context.Context, f *filterset.Filter, members []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO filters (name, filename, tax_numbers_count)
		VALUES ($1, $2, $3)
		RETURNING id, created`,
		f.Name, f.Filename, f.TaxNumbersCount).Scan(&f.ID, &f.Created)
	if err != nil {
		if isSQLState(err, uniqueViolation) {
			return errors.Wrap(err, errors.ErrCodeFilterExists, "filter with this name already exists")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert filter")
	}

	batch := &pgx.Batch{}
	for _, tn := range members {
		batch.Queue(`INSERT INTO filter_tax_numbers (filter_id, tax_number) VALUES ($1, $2)`,
			f.ID, tn)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert filter members")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit filter")
	}
	return nil
}

// Get loads one filter by id.
func (r *FilterRepository) Get(ctx context.Context, id int64) (*filterset.Filter, error) {
	var f filterset.Filter
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, filename, created, tax_numbers_count
		FROM filters WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &f.Filename, &f.Created, &f.TaxNumbersCount)
	if err == pgx.ErrNoRows {
		return nil, filterNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load filter")
	}
	return &f, nil
}

// List returns all filters, newest first.
func (r *FilterRepository) List(ctx context.Context) ([]*filterset.Filter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, filename, created, tax_numbers_count
		FROM filters ORDER BY created DESC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query filters")
	}
	defer rows.Close()

	var out []*filterset.Filter
	for rows.Next() {
		var f filterset.Filter
		if err := rows.Scan(&f.ID, &f.Name, &f.Filename, &f.Created, &f.TaxNumbersCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan filter row")
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read filters")
	}
	return out, nil
}

// GetMembers returns the member tax numbers of an existing filter. A missing
// id is an error, never an empty set.
func (r *FilterRepository) GetMembers(ctx context.Context, id int64) ([]string, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT tax_number FROM filter_tax_numbers WHERE filter_id = $1 ORDER BY tax_number`, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query filter members")
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var tn string
		if err := rows.Scan(&tn); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan filter member")
		}
		members = append(members, tn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read filter members")
	}
	return members, nil
}

// Rename changes a filter's name.
func (r *FilterRepository) Rename(ctx context.Context, id int64, name string) (*filterset.Filter, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE filters SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if isSQLState(err, uniqueViolation) {
			return nil, errors.Wrap(err, errors.ErrCodeFilterExists, "filter with this name already exists")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to rename filter")
	}
	if tag.RowsAffected() == 0 {
		return nil, filterNotFound(id)
	}
	return r.Get(ctx, id)
}

// Delete removes a filter; members cascade at the schema level.
func (r *FilterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM filters WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete filter")
	}
	if tag.RowsAffected() == 0 {
		return filterNotFound(id)
	}
	return nil
}

func filterNotFound(id int64) error {
	return errors.New(errors.ErrCodeFilterNotFound, "filter not found").
		WithDetail(fmt.Sprintf("filter_id=%d", id))
}
