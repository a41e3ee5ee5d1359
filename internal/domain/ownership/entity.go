// Package ownership defines the link entity connecting patents to the
// persons that own them.
package ownership

import (
	"context"
	"fmt"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
)

// Ownership links one patent to one owning person. The composite triple is
// the natural key; the store rejects duplicate links and links whose target
// patent or person is missing (foreign keys), not the pipeline.
type Ownership struct {
	PatentKind      patent.Kind
	PatentRegNumber int64
	PersonTaxNumber string
}

// DedupKey returns a canonical string form of the composite key, used for
// intra-chunk deduplication during ingestion.
func (o *Ownership) DedupKey() string {
	return fmt.Sprintf("%d:%d:%s", o.PatentKind, o.PatentRegNumber, o.PersonTaxNumber)
}

// Repository is the persistence contract for ownership links. InsertBatch
// has all-or-nothing semantics per call.
type Repository interface {
	InsertBatch(ctx context.Context, records []*Ownership) error
	Exists(ctx context.Context, link *Ownership) (bool, error)
	CountAll(ctx context.Context) (int64, error)
}
