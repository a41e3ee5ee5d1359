package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/application/stats"
	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// StatsQuerier implements stats.Querier on top of pgx. Each snapshot is a
// REPEATABLE READ read-only transaction, so every statistic computed within
// one WithSnapshot call observes the same database state even while an
// ingestion commits concurrently.
type StatsQuerier struct {
	pool *pgxpool.Pool
}

// NewStatsQuerier constructs a StatsQuerier.
func NewStatsQuerier(pool *pgxpool.Pool) *StatsQuerier {
	return &StatsQuerier{pool: pool}
}

// WithSnapshot implements stats.Querier.
func (q *StatsQuerier) WithSnapshot(ctx context.Context, fn func(stats.Snapshot) error) error {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open statistics snapshot")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&snapshot{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// snapshot runs every query on the snapshot transaction. The pgx transaction
// is not safe for concurrent use, so queries are issued sequentially; the
// caller receives all results together regardless.
type snapshot struct {
	tx pgx.Tx
}

// patentScope appends the filter predicate for patent queries: the patent
// must be reachable through an ownership link to a filter member.
func patentScope(scope stats.Scope, args []interface{}) (string, []interface{}) {
	if scope.FilterID == nil {
		return "", args
	}
	args = append(args, *scope.FilterID)
	return ` AND EXISTS (
		SELECT 1 FROM ownerships o
		JOIN filter_tax_numbers ftn ON ftn.tax_number = o.person_tax_number
		WHERE o.patent_kind = p.kind AND o.patent_reg_number = p.reg_number
		  AND ftn.filter_id = $1)`, args
}

func personScope(scope stats.Scope, args []interface{}) (string, []interface{}) {
	if scope.FilterID == nil {
		return "", args
	}
	args = append(args, *scope.FilterID)
	return ` AND p.tax_number IN (
		SELECT tax_number FROM filter_tax_numbers WHERE filter_id = $1)`, args
}

func (s *snapshot) countPatents(ctx context.Context, scope stats.Scope, predicate string) (int64, error) {
	where, args := patentScope(scope, nil)
	var n int64
	err := s.tx.QueryRow(ctx,
		`SELECT count(*) FROM patents p WHERE `+predicate+where, args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count patents")
	}
	return n, nil
}

func (s *snapshot) CountPatents(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPatents(ctx, scope, `true`)
}

func (s *snapshot) CountDomesticPatents(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPatents(ctx, scope,
		`p.country_code = '`+patent.DomesticCountryCode+`'`)
}

const hasHolderPredicate = `EXISTS (
	SELECT 1 FROM ownerships o
	WHERE o.patent_kind = p.kind AND o.patent_reg_number = p.reg_number)`

func (s *snapshot) CountPatentsWithHolders(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPatents(ctx, scope, hasHolderPredicate)
}

func (s *snapshot) CountDomesticPatentsWithHolders(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPatents(ctx, scope,
		`p.country_code = '`+patent.DomesticCountryCode+`' AND `+hasHolderPredicate)
}

func (s *snapshot) GroupPatentsByKind(ctx context.Context, scope stats.Scope) (map[patent.Kind]int64, error) {
	where, args := patentScope(scope, nil)
	rows, err := s.tx.Query(ctx,
		`SELECT p.kind, count(*) FROM patents p WHERE true`+where+` GROUP BY p.kind`, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to group patents by kind")
	}
	defer rows.Close()

	out := make(map[patent.Kind]int64)
	for rows.Next() {
		var k patent.Kind
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan kind group")
		}
		out[k] = n
	}
	return out, rows.Err()
}

// authorBucketCase mirrors patent.AuthorBucket in SQL; the labels must stay
// byte-identical to the Go classifier.
const authorBucketCase = `CASE
	WHEN p.author_count <= 0 THEN '0'
	WHEN p.author_count = 1 THEN '1'
	WHEN p.author_count <= 5 THEN '2–5'
	ELSE '5+' END`

func (s *snapshot) GroupPatentsByAuthorBucket(ctx context.Context, scope stats.Scope) (map[string]int64, error) {
	where, args := patentScope(scope, nil)
	rows, err := s.tx.Query(ctx,
		`SELECT `+authorBucketCase+` AS bucket, count(*)
		FROM patents p WHERE true`+where+` GROUP BY bucket`, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to group patents by author bucket")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan bucket group")
		}
		out[bucket] = n
	}
	return out, rows.Err()
}

func (s *snapshot) countPersons(ctx context.Context, scope stats.Scope, predicate string) (int64, error) {
	where, args := personScope(scope, nil)
	var n int64
	err := s.tx.QueryRow(ctx,
		`SELECT count(*) FROM persons p WHERE `+predicate+where, args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count persons")
	}
	return n, nil
}

func (s *snapshot) CountPersons(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPersons(ctx, scope, `true`)
}

func (s *snapshot) CountActivePersons(ctx context.Context, scope stats.Scope) (int64, error) {
	return s.countPersons(ctx, scope, `p.active`)
}

func (s *snapshot) GroupPersonsByKind(ctx context.Context, scope stats.Scope) (map[person.Kind]int64, error) {
	where, args := personScope(scope, nil)
	rows, err := s.tx.Query(ctx,
		`SELECT p.kind, count(*) FROM persons p WHERE true`+where+` GROUP BY p.kind`, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to group persons by kind")
	}
	defer rows.Close()

	out := make(map[person.Kind]int64)
	for rows.Next() {
		var k person.Kind
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan kind group")
		}
		out[k] = n
	}
	return out, rows.Err()
}

func (s *snapshot) GroupPersonsByCategory(ctx context.Context, scope stats.Scope) (map[string]int64, error) {
	where, args := personScope(scope, nil)
	rows, err := s.tx.Query(ctx,
		`SELECT p.category, count(*) FROM persons p WHERE true`+where+` GROUP BY p.category`, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to group persons by category")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan category group")
		}
		out[category] = n
	}
	return out, rows.Err()
}
