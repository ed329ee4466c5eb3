package ports

import (
	"context"
	"time"

	"fleet-office/internal/features/telemetry/domain"
)

// Provider defines the gateway to the external vehicle-tracking service.
// Every operation is keyed by the calling user's provider API key. Transport
// and provider failures surface as domain.ErrTelemetryUnavailable; no
// operation retries internally.
type Provider interface {
	// ListZones returns the account's geofenced zones, unordered.
	ListZones(ctx context.Context, apiKey string) ([]domain.Zone, error)

	// ListDevices returns last-known snapshots of the account's devices.
	ListDevices(ctx context.Context, apiKey string) ([]domain.DeviceSnapshot, error)

	// GeneralReport returns the provider's movement summary for a device.
	GeneralReport(ctx context.Context, apiKey, imei string, from, to time.Time, speedLimit float64, stopDuration time.Duration) (*domain.GeneralReport, error)

	// ZoneInOutReport returns zone crossings for a device over a window,
	// limited to zoneIDs. Zones with no crossing in the window are absent.
	ZoneInOutReport(ctx context.Context, apiKey, imei string, from, to time.Time, zoneIDs []string) ([]domain.ZoneCrossing, error)

	// DistanceFromZone returns the live distance in km between the device's
	// current position and a zone. Not historical.
	DistanceFromZone(ctx context.Context, apiKey, imei, zoneID string) (float64, error)
}
