package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/domain/ownership"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// OwnershipRepository is the PostgreSQL implementation of
// ownership.Repository. Referential integrity of links (target patent and
// person must exist) is enforced here by foreign keys; a violation fails the
// batch like any other constraint.
type OwnershipRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewOwnershipRepository constructs a ready-to-use OwnershipRepository.
func NewOwnershipRepository(pool *pgxpool.Pool, logger logging.Logger) *OwnershipRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OwnershipRepository{pool: pool, logger: logger.Named("ownership_repo")}
}

// InsertBatch persists all links inside one transaction.
func (r *OwnershipRepository) InsertBatch(ctx context.Context, records []*ownership.Ownership) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, o := range records {
		batch.Queue(`
			INSERT INTO ownerships (patent_kind, patent_reg_number, person_tax_number)
			VALUES ($1,$2,$3)`,
			o.PatentKind, o.PatentRegNumber, o.PersonTaxNumber,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapBatchError(err, "failed to insert ownership batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit ownership batch")
	}
	return nil
}

// Exists reports whether the link triple is present.
func (r *OwnershipRepository) Exists(ctx context.Context, link *ownership.Ownership) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ownerships
			WHERE patent_kind = $1 AND patent_reg_number = $2 AND person_tax_number = $3
		)`,
		link.PatentKind, link.PatentRegNumber, link.PersonTaxNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check ownership existence")
	}
	return exists, nil
}

// CountAll returns the number of ownership links.
func (r *OwnershipRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM ownerships`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count ownerships")
	}
	return n, nil
}
