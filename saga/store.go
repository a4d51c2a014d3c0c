package saga

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/saga/store.go -package saga . Store

// ErrVersionConflict is returned by Update when the instance row was modified by a
// concurrent writer. The caller reloads the instance and retries against fresh state.
var ErrVersionConflict = errors.New("adoption instance was updated concurrently")

type FilterOption func(opts *filterOptions)

// Store persists adoption instances, one row per correlation id. Update applies
// optimistic concurrency on Instance.Version.
type Store interface {
	Create(ctx context.Context, inst *Instance) error
	GetByCorrelationID(ctx context.Context, correlationID string) (*Instance, error)
	// GetActiveByPetID returns a non-terminal instance for the pet, nil if none exists
	GetActiveByPetID(ctx context.Context, petID string) (*Instance, error)
	GetByFilter(ctx context.Context, filters ...FilterOption) ([]*Instance, error)
	Update(ctx context.Context, inst *Instance) error
}

func WithStatus(status Status) FilterOption {
	return func(opts *filterOptions) {
		opts.status = &status
	}
}

func WithPetID(petID string) FilterOption {
	return func(opts *filterOptions) {
		opts.petID = petID
	}
}

func WithUpdatedBefore(t time.Time) FilterOption {
	return func(opts *filterOptions) {
		opts.updatedBefore = &t
	}
}

func WithOffsetAndLimit(offset, limit int) FilterOption {
	return func(opts *filterOptions) {
		opts.offset = &offset
		opts.limit = &limit
	}
}

type filterOptions struct {
	status        *Status
	petID         string
	updatedBefore *time.Time
	offset        *int
	limit         *int
}
