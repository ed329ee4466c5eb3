package ports

import (
	"context"
	"time"

	"fleet-office/internal/features/reports/domain"
	teledomain "fleet-office/internal/features/telemetry/domain"
	tripdomain "fleet-office/internal/features/trips/domain"
)

// TripReader is the slice of the trip store the synthesizer consumes.
type TripReader interface {
	Get(ctx context.Context, id string) (*tripdomain.Trip, error)
}

// Gateway is the slice of the telemetry service the synthesizer consumes.
type Gateway interface {
	GeneralReport(ctx context.Context, apiKey, imei string, from, to time.Time, speedLimit float64, stopDuration time.Duration) (*teledomain.GeneralReport, error)
	ZoneInOutReport(ctx context.Context, apiKey, imei string, from, to time.Time, zoneIDs []string) ([]teledomain.ZoneCrossing, error)
	DistanceFromZone(ctx context.Context, apiKey, imei, zoneID string) (float64, error)
}

// Exporter writes rows to a spreadsheet file on durable storage and returns
// the file path.
type Exporter interface {
	Write(rows []*domain.Row) (string, error)
}

// ArtifactRepository persists generated-report records.
type ArtifactRepository interface {
	Save(ctx context.Context, artifact *domain.Artifact) error
	List(ctx context.Context, userID string) ([]domain.Artifact, error)
}
