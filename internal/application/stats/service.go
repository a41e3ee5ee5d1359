// Package stats computes aggregate statistics over persisted patent and
// person records, optionally scoped to a named tax-number filter.
package stats

import (
	"context"
	"math"

	"github.com/turtacn/patreg-insight/internal/domain/filterset"
	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Scope restricts statistics to records reachable through an ownership join
// to persons whose tax number is a member of the filter. A nil FilterID means
// unscoped.
type Scope struct {
	FilterID *int64
}

// Snapshot is one consistent read view of the store. Every query issued
// through the same Snapshot observes the same point in time, so the
// statistics in one response never mix epochs.
type Snapshot interface {
	CountPatents(ctx context.Context, scope Scope) (int64, error)
	CountDomesticPatents(ctx context.Context, scope Scope) (int64, error)
	CountPatentsWithHolders(ctx context.Context, scope Scope) (int64, error)
	CountDomesticPatentsWithHolders(ctx context.Context, scope Scope) (int64, error)
	GroupPatentsByKind(ctx context.Context, scope Scope) (map[patent.Kind]int64, error)
	GroupPatentsByAuthorBucket(ctx context.Context, scope Scope) (map[string]int64, error)

	CountPersons(ctx context.Context, scope Scope) (int64, error)
	CountActivePersons(ctx context.Context, scope Scope) (int64, error)
	GroupPersonsByKind(ctx context.Context, scope Scope) (map[person.Kind]int64, error)
	GroupPersonsByCategory(ctx context.Context, scope Scope) (map[string]int64, error)
}

// Querier opens consistent snapshots against the store.
type Querier interface {
	// WithSnapshot runs fn against one consistent snapshot, releasing it when
	// fn returns. The Snapshot must not be used after fn returns.
	WithSnapshot(ctx context.Context, fn func(Snapshot) error) error
}

// PatentStats is the full patent statistics response. Percentage fields are
// nil when the corresponding denominator is zero.
type PatentStats struct {
	Total               int64            `json:"total"`
	Domestic            int64            `json:"domestic"`
	DomesticPercent     *int             `json:"domestic_percent"`
	WithHolders         int64            `json:"with_holders"`
	WithHoldersPercent  *int             `json:"with_holders_percent"`
	DomesticWithHolders int64            `json:"domestic_with_holders"`
	DomesticHeldPercent *int             `json:"domestic_with_holders_percent"`
	ByKind              map[string]int64 `json:"by_kind"`
	ByAuthorBucket      map[string]int64 `json:"by_author_bucket"`
}

// PersonStats is the full person statistics response.
type PersonStats struct {
	Total         int64            `json:"total"`
	Active        int64            `json:"active"`
	ActivePercent *int             `json:"active_percent"`
	ByKind        map[string]int64 `json:"by_kind"`
	ByCategory    map[string]int64 `json:"by_category"`
}

// Percentage returns round(100*n/d), or nil when d is zero. A nil result is
// the defined "no data" value; callers render it as such instead of faulting
// on an empty store.
func Percentage(n, d int64) *int {
	if d == 0 {
		return nil
	}
	p := int(math.Round(100 * float64(n) / float64(d)))
	return &p
}

// Service computes statistics. It validates filter scope before touching the
// store: an unresolvable filter id aborts the whole computation.
type Service struct {
	querier Querier
	filters filterset.Repository
	logger  logging.Logger
}

// NewService constructs a statistics service.
func NewService(querier Querier, filters filterset.Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		querier: querier,
		filters: filters,
		logger:  logger.Named("stats"),
	}
}

// resolveScope verifies that a supplied filter id exists. Statistics never
// silently fall back to unscoped on a bad id.
func (s *Service) resolveScope(ctx context.Context, scope Scope) error {
	if scope.FilterID == nil {
		return nil
	}
	if _, err := s.filters.Get(ctx, *scope.FilterID); err != nil {
		return err
	}
	return nil
}

// PatentStats computes the patent statistics block from one snapshot.
func (s *Service) PatentStats(ctx context.Context, scope Scope) (*PatentStats, error) {
	if err := s.resolveScope(ctx, scope); err != nil {
		return nil, err
	}

	out := &PatentStats{}
	err := s.querier.WithSnapshot(ctx, func(snap Snapshot) error {
		var err error
		if out.Total, err = snap.CountPatents(ctx, scope); err != nil {
			return err
		}
		if out.Domestic, err = snap.CountDomesticPatents(ctx, scope); err != nil {
			return err
		}
		if out.WithHolders, err = snap.CountPatentsWithHolders(ctx, scope); err != nil {
			return err
		}
		if out.DomesticWithHolders, err = snap.CountDomesticPatentsWithHolders(ctx, scope); err != nil {
			return err
		}
		byKind, err := snap.GroupPatentsByKind(ctx, scope)
		if err != nil {
			return err
		}
		out.ByKind = kindCountsToStrings(byKind)
		if out.ByAuthorBucket, err = snap.GroupPatentsByAuthorBucket(ctx, scope); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to compute patent statistics")
	}

	out.DomesticPercent = Percentage(out.Domestic, out.Total)
	out.WithHoldersPercent = Percentage(out.WithHolders, out.Total)
	out.DomesticHeldPercent = Percentage(out.DomesticWithHolders, out.Domestic)
	return out, nil
}

// PersonStats computes the person statistics block from one snapshot.
func (s *Service) PersonStats(ctx context.Context, scope Scope) (*PersonStats, error) {
	if err := s.resolveScope(ctx, scope); err != nil {
		return nil, err
	}

	out := &PersonStats{}
	err := s.querier.WithSnapshot(ctx, func(snap Snapshot) error {
		var err error
		if out.Total, err = snap.CountPersons(ctx, scope); err != nil {
			return err
		}
		if out.Active, err = snap.CountActivePersons(ctx, scope); err != nil {
			return err
		}
		byKind, err := snap.GroupPersonsByKind(ctx, scope)
		if err != nil {
			return err
		}
		out.ByKind = personKindCountsToStrings(byKind)
		if out.ByCategory, err = snap.GroupPersonsByCategory(ctx, scope); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to compute person statistics")
	}

	out.ActivePercent = Percentage(out.Active, out.Total)
	return out, nil
}

func kindCountsToStrings(in map[patent.Kind]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, n := range in {
		out[k.String()] = n
	}
	return out
}

func personKindCountsToStrings(in map[person.Kind]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, n := range in {
		out[k.String()] = n
	}
	return out
}
