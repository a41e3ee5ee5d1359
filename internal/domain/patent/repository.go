package patent

import "context"

// ListQuery carries the pagination and filtering parameters for List.
type ListQuery struct {
	Page     int
	PageSize int
	Kind     *Kind
	Actual   *bool

	// FilterID, when set, restricts the listing to patents owned by a person
	// whose tax number is a member of that filter.
	FilterID *int64
}

// Repository is the persistence contract for patent records.
//
// InsertBatch persists all records in a single transaction: either every
// record in the batch is committed or none is. A uniqueness violation on the
// (kind, reg_number) natural key fails the whole batch; the ingestion
// pipeline treats that as an expected, recoverable per-batch outcome.
type Repository interface {
	InsertBatch(ctx context.Context, records []*Patent) error
	Exists(ctx context.Context, key Key) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	FindByKey(ctx context.Context, key Key) (*WithHolders, error)
	List(ctx context.Context, q ListQuery) ([]*WithHolders, int64, error)
}
