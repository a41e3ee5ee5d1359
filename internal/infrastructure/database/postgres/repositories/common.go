// Package repositories provides the PostgreSQL-backed implementations of the
// domain repository interfaces.
package repositories

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/patreg-insight/pkg/errors"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation. Chunk
// inserts treat it as an expected, recoverable outcome: natural keys are the
// duplicate-detection mechanism during additive re-ingestion.
const uniqueViolation = "23505"

// foreignKeyViolation is the SQLSTATE raised when an ownership link targets
// a missing patent or person.
const foreignKeyViolation = "23503"

func isSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == code
}

// wrapBatchError classifies a failed chunk insert. Constraint violations stay
// recoverable batch errors; anything else is a database fault.
func wrapBatchError(err error, msg string) error {
	if isSQLState(err, uniqueViolation) || isSQLState(err, foreignKeyViolation) {
		return errors.Wrap(err, errors.ErrCodeBatchPersist, msg)
	}
	return errors.Wrap(err, errors.ErrCodeDatabaseError, msg)
}

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}
