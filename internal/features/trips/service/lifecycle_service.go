package service

import (
	"context"
	"errors"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/features/trips/ports"

	"go.uber.org/zap"
)

// LifecycleService applies zone-crossing events to trips. One event can
// touch several trips for the same device, and several legs of one trip when
// their zones match; every positional match is updated independently. Zero
// matches is steady-state noise, never an error.
type LifecycleService struct {
	repo ports.TripRepository
	// strictByID makes the engine join events to legs on zone id when the
	// event carries one; name matching remains the fallback for legacy
	// payloads without ids.
	strictByID bool
	logger     *zap.Logger
}

// NewLifecycleService creates a new LifecycleService. matchMode is "zone_id"
// (strict, default) or "zone_name" (legacy compatibility).
func NewLifecycleService(repo ports.TripRepository, matchMode string) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		strictByID: matchMode != "zone_name",
		logger:     logger.Named("lifecycle"),
	}
}

// HandleZoneEvent runs the state machine for one event.
func (s *LifecycleService) HandleZoneEvent(ctx context.Context, event *domain.ZoneEvent) error {
	trips, err := s.repo.FindByDevice(ctx, event.IMEI)
	if err != nil {
		return err
	}

	obs := event.Observation()
	for i := range trips {
		trip := &trips[i]

		if event.MatchesZone(trip.LoadingZone.ID, trip.LoadingZone.Name, s.strictByID) {
			if err := s.applyLoading(ctx, trip, event, obs); err != nil {
				return err
			}
		}

		for legIdx := range trip.Legs {
			leg := &trip.Legs[legIdx]
			if !event.MatchesZone(leg.Zone.ID, leg.Zone.Name, s.strictByID) {
				continue
			}
			if err := s.applyUnloading(ctx, trip, legIdx, event, obs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *LifecycleService) applyLoading(ctx context.Context, trip *domain.Trip, event *domain.ZoneEvent, obs domain.LegObservation) error {
	var err error
	if event.Kind == domain.ZoneEntered {
		err = s.repo.RecordLoadingEntry(ctx, trip.ID, obs)
	} else {
		err = s.repo.RecordLoadingExit(ctx, trip.ID, obs)
	}
	if errors.Is(err, domain.ErrTripNotFound) {
		// trip deleted between lookup and update
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("loading milestone recorded",
		zap.String("trip_id", trip.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("zone", event.ZoneName))
	return nil
}

func (s *LifecycleService) applyUnloading(ctx context.Context, trip *domain.Trip, legIdx int, event *domain.ZoneEvent, obs domain.LegObservation) error {
	var err error
	isFinal := trip.IsFinalLeg(legIdx)
	if event.Kind == domain.ZoneEntered {
		err = s.repo.RecordUnloadingEntry(ctx, trip.ID, legIdx, obs)
	} else {
		err = s.repo.RecordUnloadingExit(ctx, trip.ID, legIdx, obs, isFinal)
	}
	if errors.Is(err, domain.ErrTripNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("unloading milestone recorded",
		zap.String("trip_id", trip.ID),
		zap.Int("leg", legIdx),
		zap.String("kind", string(event.Kind)),
		zap.Bool("final", isFinal && event.Kind == domain.ZoneExited))
	return nil
}
