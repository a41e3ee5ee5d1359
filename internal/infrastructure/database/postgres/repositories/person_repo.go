package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

const personColumns = `kind, tax_number, full_name, short_name, legal_address,
	fact_address, reg_date, active, category`

// PersonRepository is the PostgreSQL implementation of person.Repository.
type PersonRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPersonRepository constructs a ready-to-use PersonRepository.
func NewPersonRepository(pool *pgxpool.Pool, logger logging.Logger) *PersonRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PersonRepository{pool: pool, logger: logger.Named("person_repo")}
}

// InsertBatch persists all records inside one transaction.
func (r *PersonRepository) InsertBatch(ctx context.Context, records []*person.Person) error {
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
			INSERT INTO persons (`+personColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.Kind, p.TaxNumber, p.FullName, p.ShortName, p.LegalAddress,
			p.FactAddress, p.RegDate, p.Active, p.Category,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapBatchError(err, "failed to insert person batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit person batch")
	}
	return nil
}

// Exists reports whether a person with the tax number is present.
func (r *PersonRepository) Exists(ctx context.Context, taxNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM persons WHERE tax_number = $1)`, taxNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check person existence")
	}
	return exists, nil
}

// CountAll returns the number of person records.
func (r *PersonRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM persons`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count persons")
	}
	return n, nil
}

// FindByTaxNumber loads one person with the keys of the patents it owns.
func (r *PersonRepository) FindByTaxNumber(ctx context.Context, taxNumber string) (*person.WithPatents, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE tax_number = $1`, taxNumber)

	p, err := scanPerson(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodePersonNotFound, "person not found").
			WithDetail("tax_number=" + taxNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load person")
	}

	patents, err := r.loadPatentRefs(ctx, taxNumber)
	if err != nil {
		return nil, err
	}
	return &person.WithPatents{Person: *p, Patents: patents, PatentCount: len(patents)}, nil
}

// List returns one page of persons ordered by descending owned-patent count,
// plus the total count matching the query.
func (r *PersonRepository) List(ctx context.Context, q person.ListQuery) ([]*person.WithPatents, int64, error) {
	where, args := personListPredicate(q)
	limit, offset := normalizePage(q.Page, q.PageSize)

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM persons p`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count person listing")
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT `+personColumnsQualified+`,
		       count(o.person_tax_number) AS patent_count
		FROM persons p
		LEFT JOIN ownerships o ON o.person_tax_number = p.tax_number
		%s
		GROUP BY `+personColumnsQualified+`
		ORDER BY patent_count DESC, p.tax_number
		LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query person listing")
	}
	defer rows.Close()

	var out []*person.WithPatents
	for rows.Next() {
		var p person.Person
		var patentCount int
		err := rows.Scan(
			&p.Kind, &p.TaxNumber, &p.FullName, &p.ShortName, &p.LegalAddress,
			&p.FactAddress, &p.RegDate, &p.Active, &p.Category, &patentCount,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan person row")
		}
		out = append(out, &person.WithPatents{Person: p, PatentCount: patentCount})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read person listing")
	}

	for _, p := range out {
		refs, err := r.loadPatentRefs(ctx, p.TaxNumber)
		if err != nil {
			return nil, 0, err
		}
		p.Patents = refs
	}
	return out, total, nil
}

const personColumnsQualified = `p.kind, p.tax_number, p.full_name, p.short_name,
	p.legal_address, p.fact_address, p.reg_date, p.active, p.category`

func personListPredicate(q person.ListQuery) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if q.Kind != nil {
		args = append(args, *q.Kind)
		clauses = append(clauses, fmt.Sprintf("p.kind = $%d", len(args)))
	}
	if q.Active != nil {
		args = append(args, *q.Active)
		clauses = append(clauses, fmt.Sprintf("p.active = $%d", len(args)))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		clauses = append(clauses, fmt.Sprintf("p.category = $%d", len(args)))
	}
	where := ""
	for i, c := range clauses {
		if i == 0 {
			where += " WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}

func (r *PersonRepository) loadPatentRefs(ctx context.Context, taxNumber string) ([]person.PatentRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patent_kind, patent_reg_number
		FROM ownerships
		WHERE person_tax_number = $1
		ORDER BY patent_reg_number`, taxNumber)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load owned patents")
	}
	defer rows.Close()

	var refs []person.PatentRef
	for rows.Next() {
		var ref person.PatentRef
		if err := rows.Scan(&ref.Kind, &ref.RegNumber); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan owned patent row")
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read owned patents")
	}
	return refs, nil
}

func scanPerson(row pgx.Row) (*person.Person, error) {
	var p person.Person
	err := row.Scan(
		&p.Kind, &p.TaxNumber, &p.FullName, &p.ShortName, &p.LegalAddress,
		&p.FactAddress, &p.RegDate, &p.Active, &p.Category,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
