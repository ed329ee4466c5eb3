package ports

import (
	"context"

	teledomain "fleet-office/internal/features/telemetry/domain"
)

// ZoneResolver resolves provider zones at trip creation time. Satisfied by
// the telemetry service.
type ZoneResolver interface {
	Zone(ctx context.Context, apiKey, zoneID string) (*teledomain.Zone, error)
}
