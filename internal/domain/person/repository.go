package person

import "context"

// ListQuery carries the pagination and filtering parameters for List.
// Results are ordered by descending owned-patent count, matching the
// registry UI convention.
type ListQuery struct {
	Page     int
	PageSize int
	Kind     *Kind
	Active   *bool
	Category string
}

// Repository is the persistence contract for person records. InsertBatch has
// all-or-nothing semantics per call; see the patent repository for the
// natural-key collision contract shared by all registry stores.
type Repository interface {
	InsertBatch(ctx context.Context, records []*Person) error
	Exists(ctx context.Context, taxNumber string) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	FindByTaxNumber(ctx context.Context, taxNumber string) (*WithPatents, error)
	List(ctx context.Context, q ListQuery) ([]*WithPatents, int64, error)
}
