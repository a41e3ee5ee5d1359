// Package filterset defines operator-uploaded tax-number filters used to
// scope listings and statistics.
package filterset

import (
	"context"
	"time"
)

// Filter is a named, persisted set of tax numbers. Membership is immutable
// after creation; the only mutations are rename and whole-object deletion
// (which cascades to the member set).
type Filter struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Filename        string    `json:"filename"`
	Created         time.Time `json:"created"`
	TaxNumbersCount int       `json:"tax_numbers_count"`
}

// Repository is the persistence contract for filters.
//
// Create persists the filter and its full member set in one transaction and
// populates f.ID and f.Created on success. GetMembers returns the member tax
// numbers of an existing filter; a missing filter id yields a FilterNotFound
// error, never an empty set.
type Repository interface {
	Create(ctx context.Context, f *Filter, members []string) error
	Get(ctx context.Context, id int64) (*Filter, error)
	List(ctx context.Context) ([]*Filter, error)
	GetMembers(ctx context.Context, id int64) ([]string, error)
	Rename(ctx context.Context, id int64, name string) (*Filter, error)
	Delete(ctx context.Context, id int64) error
}
