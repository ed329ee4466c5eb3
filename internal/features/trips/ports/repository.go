package ports

import (
	"context"

	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/shared/paging"
)

// ListFilter narrows and pages the trip listing.
type ListFilter struct {
	UserID string
	// Search matches vehicle number, driver name, or device imei.
	Search string
	Page   int
	Limit  int
}

// TripRepository persists the trip aggregate. The Record* mutations are the
// lifecycle engine's write path: each one is a single conditional update so
// racing webhook deliveries cannot lose writes, and an already-recorded exit
// time is never regressed to an earlier one.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	Get(ctx context.Context, id string) (*domain.Trip, error)
	List(ctx context.Context, filter ListFilter) (*paging.Page[domain.Trip], error)
	// Update rewrites business metadata and planning fields only; lifecycle
	// milestones are owned by the Record* operations.
	Update(ctx context.Context, trip *domain.Trip) error
	Delete(ctx context.Context, id string) error

	// FindByDevice returns every trip referencing the device, in any
	// lifecycle state.
	FindByDevice(ctx context.Context, imei string) ([]domain.Trip, error)

	// RecordLoadingEntry marks the loading zone entry. Start snapshots are
	// taken only while the trip is not yet started; re-entry never resets
	// them.
	RecordLoadingEntry(ctx context.Context, tripID string, obs domain.LegObservation) error
	// RecordLoadingExit marks the loading zone exit.
	RecordLoadingExit(ctx context.Context, tripID string, obs domain.LegObservation) error
	// RecordUnloadingEntry marks entry into the unloading leg at legIdx.
	RecordUnloadingEntry(ctx context.Context, tripID string, legIdx int, obs domain.LegObservation) error
	// RecordUnloadingExit marks exit from the leg at legIdx and sets its
	// completed flag. When isFinal is set, the same call flips the trip to
	// ended and snapshots the end odometer and engine hours.
	RecordUnloadingExit(ctx context.Context, tripID string, legIdx int, obs domain.LegObservation, isFinal bool) error
}
