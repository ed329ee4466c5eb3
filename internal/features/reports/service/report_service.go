package service

import (
	"context"
	"fmt"
	"time"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/reports/domain"
	"fleet-office/internal/features/reports/ports"
	teledomain "fleet-office/internal/features/telemetry/domain"
	tripdomain "fleet-office/internal/features/trips/domain"
	"fleet-office/internal/shared/timefmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService synthesizes flat report rows from trips. Self-contained mode
// uses locally recorded milestones; verified mode cross-checks them against
// the tracking provider's movement and zone-crossing reports. Trip state is
// always read before any gateway call so no trip is held while waiting on
// the provider.
type ReportService struct {
	trips     ports.TripReader
	gateway   ports.Gateway
	exporter  ports.Exporter
	artifacts ports.ArtifactRepository
	logger    *zap.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(trips ports.TripReader, gateway ports.Gateway, exporter ports.Exporter, artifacts ports.ArtifactRepository) *ReportService {
	return &ReportService{
		trips:     trips,
		gateway:   gateway,
		exporter:  exporter,
		artifacts: artifacts,
		logger:    logger.Named("reports"),
	}
}

// SelfContained builds one row per trip from stored milestones, plus a live
// distance-to-destination from the provider.
func (s *ReportService) SelfContained(ctx context.Context, apiKey string, tripIDs []string) ([]*domain.Row, error) {
	trips, err := s.loadTrips(ctx, tripIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]*domain.Row, 0, len(trips))
	for _, trip := range trips {
		row := baseRow(trip)

		row.Set("Source In", timefmt.DateTime(trip.LoadingDtIn))
		row.Set("Source Out", timefmt.DateTime(trip.LoadingDtOut))
		row.Set("Loading Time", durationCell(timefmt.Between(trip.LoadingDtIn, trip.LoadingDtOut)))

		for i := range trip.Legs {
			leg := &trip.Legs[i]
			col := fmt.Sprintf("Destination_%d", i+1)
			row.Set(col, leg.Zone.Name)
			row.Set(col+" In", timefmt.DateTime(leg.DtIn))
			row.Set(col+" Out", timefmt.DateTime(leg.DtOut))
			row.Set(col+" Unloading Time", durationCell(timefmt.Between(leg.DtIn, leg.DtOut)))
			row.Set(col+" Invoice", leg.InvoiceNo)
		}

		runKm := trip.EndOdometer - trip.StartOdometer
		row.Set("Runn KM", runKm)
		row.Set("Original KM", trip.DistanceKm)
		row.Set("Differ", runKm-trip.DistanceKm)

		final := trip.FinalLeg()
		if final == nil {
			return nil, fmt.Errorf("%w: trip %s has no unloading legs", domain.ErrInconsistentReportData, trip.ID)
		}
		total, totalKnown := timefmt.Between(trip.LoadingDtIn, final.DtOut)
		setTotals(row, total, totalKnown, trip.EstimatedTime)

		distance, err := s.gateway.DistanceFromZone(ctx, apiKey, trip.DeviceIMEI, final.Zone.ID)
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
		}
		row.Set("Distance From Destination", distance)

		rows = append(rows, row)
	}
	return rows, nil
}

// Verified builds one row per trip from the provider's general and zone
// crossing reports over the trip's window. A missing crossing for an
// intermediate destination becomes a marked cell; a missing crossing for the
// final destination is a data error.
func (s *ReportService) Verified(ctx context.Context, apiKey string, tripIDs []string, speedLimit float64, stopDuration time.Duration) ([]*domain.Row, error) {
	trips, err := s.loadTrips(ctx, tripIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]*domain.Row, 0, len(trips))
	for _, trip := range trips {
		from, to := reportWindow(trip)

		zoneIDs := make([]string, 0, len(trip.Legs)+1)
		zoneIDs = append(zoneIDs, trip.LoadingZone.ID)
		for i := range trip.Legs {
			zoneIDs = append(zoneIDs, trip.Legs[i].Zone.ID)
		}

		general, err := s.gateway.GeneralReport(ctx, apiKey, trip.DeviceIMEI, from, to, speedLimit, stopDuration)
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
		}
		crossings, err := s.gateway.ZoneInOutReport(ctx, apiKey, trip.DeviceIMEI, from, to, zoneIDs)
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
		}
		byZone := make(map[string]teledomain.ZoneCrossing, len(crossings))
		for _, crossing := range crossings {
			byZone[crossing.ZoneID] = crossing
		}

		final := trip.FinalLeg()
		if final == nil {
			return nil, fmt.Errorf("%w: trip %s has no unloading legs", domain.ErrInconsistentReportData, trip.ID)
		}
		finalCrossing, finalOK := byZone[final.Zone.ID]
		if !finalOK {
			return nil, fmt.Errorf("%w: trip %s destination %s has no crossing in window",
				domain.ErrInconsistentReportData, trip.ID, final.Zone.Name)
		}

		row := baseRow(trip)

		loading, loadingOK := byZone[trip.LoadingZone.ID]
		setCrossing(row, "Source", loading, loadingOK)
		row.Set("Loading Time", crossingDuration(loading, loadingOK))

		for i := range trip.Legs {
			leg := &trip.Legs[i]
			col := fmt.Sprintf("Destination_%d", i+1)
			crossing, ok := byZone[leg.Zone.ID]
			row.Set(col, leg.Zone.Name)
			setCrossing(row, col, crossing, ok)
			row.Set(col+" Unloading Time", crossingDuration(crossing, ok))
			row.Set(col+" Invoice", leg.InvoiceNo)
		}

		row.Set("Runn KM", general.RouteLengthKm)
		row.Set("Original KM", trip.DistanceKm)
		row.Set("Differ", general.RouteLengthKm-trip.DistanceKm)

		var total time.Duration
		totalKnown := loadingOK
		if loadingOK {
			total = finalCrossing.ZoneOut.Sub(loading.ZoneIn)
		}
		setTotals(row, total, totalKnown, trip.EstimatedTime)

		row.Set("Move Duration", timefmt.Duration(general.MoveDuration))
		row.Set("Stop Duration", timefmt.Duration(general.StopDuration))
		row.Set("Stops", general.StopCount)
		row.Set("Top Speed", general.TopSpeed)
		row.Set("Avg Speed", general.AvgSpeed)
		row.Set("Overspeed Count", general.OverspeedCount)

		rows = append(rows, row)
	}
	return rows, nil
}

// Export writes the rows to a spreadsheet and persists the artifact record.
func (s *ReportService) Export(ctx context.Context, userID string, rows []*domain.Row) (*domain.Artifact, error) {
	path, err := s.exporter.Write(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}

	artifact := &domain.Artifact{
		ID:     uuid.NewString(),
		UserID: userID,
		File:   path,
	}
	if err := s.artifacts.Save(ctx, artifact); err != nil {
		return nil, err
	}

	s.logger.Info("report exported",
		zap.String("user_id", userID),
		zap.Int("rows", len(rows)),
		zap.String("file", path))
	return artifact, nil
}

// Artifacts lists the user's previously generated reports.
func (s *ReportService) Artifacts(ctx context.Context, userID string) ([]domain.Artifact, error) {
	return s.artifacts.List(ctx, userID)
}

// loadTrips reads all requested trip state up front, before any gateway call.
func (s *ReportService) loadTrips(ctx context.Context, tripIDs []string) ([]*tripdomain.Trip, error) {
	trips := make([]*tripdomain.Trip, 0, len(tripIDs))
	for _, id := range tripIDs {
		trip, err := s.trips.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func baseRow(trip *tripdomain.Trip) *domain.Row {
	now := time.Now()
	row := domain.NewRow()
	row.Set("Date", timefmt.Date(&now))
	row.Set("Vehicle Number", trip.VehicleNo)
	row.Set("IMEI", trip.DeviceIMEI)
	row.Set("Source", trip.LoadingZone.Name)
	return row
}

func setTotals(row *domain.Row, total time.Duration, totalKnown bool, estimated time.Duration) {
	row.Set("Total Time", durationCell(total, totalKnown))
	row.Set("Expected Time", timefmt.Duration(estimated))
	if totalKnown {
		row.Set("Differ Time", timefmt.Duration(total-estimated))
	} else {
		row.Set("Differ Time", timefmt.NA)
	}
}

func setCrossing(row *domain.Row, col string, crossing teledomain.ZoneCrossing, ok bool) {
	if !ok {
		row.Set(col+" In", domain.NoCrossingData)
		row.Set(col+" Out", domain.NoCrossingData)
		return
	}
	row.Set(col+" In", timefmt.DateTime(&crossing.ZoneIn))
	row.Set(col+" Out", timefmt.DateTime(&crossing.ZoneOut))
}

func crossingDuration(crossing teledomain.ZoneCrossing, ok bool) string {
	if !ok {
		return domain.NoCrossingData
	}
	return timefmt.Duration(crossing.ZoneOut.Sub(crossing.ZoneIn))
}

func durationCell(d time.Duration, known bool) string {
	if !known {
		return timefmt.NA
	}
	return timefmt.Duration(d)
}

// reportWindow is the trip's loading-to-unloading span, falling back to
// creation time and now for trips still in flight.
func reportWindow(trip *tripdomain.Trip) (time.Time, time.Time) {
	from := trip.CreatedAt
	if trip.LoadingDtIn != nil {
		from = *trip.LoadingDtIn
	}
	to := time.Now()
	if final := trip.FinalLeg(); final != nil && final.DtOut != nil {
		to = *final.DtOut
	}
	return from, to
}
