package service

import (
	"context"
	"testing"
	"time"

	"fleet-office/internal/core/cache"
	"fleet-office/internal/features/telemetry/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a mock implementation of ports.Provider for testing.
type mockProvider struct {
	zones        []domain.Zone
	devices      []domain.DeviceSnapshot
	distance     float64
	returnError  error
	listCalls    int
	deviceCalls  int
	distanceImei string
}

func (m *mockProvider) ListZones(ctx context.Context, apiKey string) ([]domain.Zone, error) {
	m.listCalls++
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.zones, nil
}

func (m *mockProvider) ListDevices(ctx context.Context, apiKey string) ([]domain.DeviceSnapshot, error) {
	m.deviceCalls++
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.devices, nil
}

func (m *mockProvider) GeneralReport(ctx context.Context, apiKey, imei string, from, to time.Time, speedLimit float64, stopDuration time.Duration) (*domain.GeneralReport, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &domain.GeneralReport{RouteLengthKm: 100}, nil
}

func (m *mockProvider) ZoneInOutReport(ctx context.Context, apiKey, imei string, from, to time.Time, zoneIDs []string) ([]domain.ZoneCrossing, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return nil, nil
}

func (m *mockProvider) DistanceFromZone(ctx context.Context, apiKey, imei, zoneID string) (float64, error) {
	m.distanceImei = imei
	if m.returnError != nil {
		return 0, m.returnError
	}
	return m.distance, nil
}

func newCachedService(t *testing.T, provider *mockProvider) *TelemetryService {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return NewTelemetryService(provider, adapter, time.Minute)
}

// TestTelemetryService_Zones_CachesListing verifies the second call is served from cache.
func TestTelemetryService_Zones_CachesListing(t *testing.T) {
	provider := &mockProvider{zones: []domain.Zone{{ID: "101", Name: "Depot A"}}}
	svc := newCachedService(t, provider)

	ctx := context.Background()

	first, err := svc.Zones(ctx, "key-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Zones(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.listCalls)
}

// TestTelemetryService_Zones_MissingKey verifies the credential check.
func TestTelemetryService_Zones_MissingKey(t *testing.T) {
	svc := NewTelemetryService(&mockProvider{}, nil, time.Minute)

	_, err := svc.Zones(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrAuthKeyMissing)
}

// TestTelemetryService_Zone_Lookup verifies resolution by id and the not-found case.
func TestTelemetryService_Zone_Lookup(t *testing.T) {
	provider := &mockProvider{zones: []domain.Zone{
		{ID: "101", Name: "Depot A"},
		{ID: "102", Name: "Plant B"},
	}}
	svc := NewTelemetryService(provider, nil, time.Minute)

	zone, err := svc.Zone(context.Background(), "key-1", "102")
	require.NoError(t, err)
	assert.Equal(t, "Plant B", zone.Name)

	_, err = svc.Zone(context.Background(), "key-1", "999")
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)
}

// TestTelemetryService_ProviderErrorPassthrough verifies provider errors are not masked.
func TestTelemetryService_ProviderErrorPassthrough(t *testing.T) {
	provider := &mockProvider{returnError: domain.ErrTelemetryUnavailable}
	svc := newCachedService(t, provider)

	_, err := svc.Zones(context.Background(), "key-1")
	assert.ErrorIs(t, err, domain.ErrTelemetryUnavailable)
}

// TestTelemetryService_Devices_SeparateCacheKeys verifies per-credential cache isolation.
func TestTelemetryService_Devices_SeparateCacheKeys(t *testing.T) {
	provider := &mockProvider{devices: []domain.DeviceSnapshot{{IMEI: "356789000000001"}}}
	svc := newCachedService(t, provider)

	ctx := context.Background()

	_, err := svc.Devices(ctx, "key-1")
	require.NoError(t, err)
	_, err = svc.Devices(ctx, "key-2")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.deviceCalls)
}

// TestTelemetryService_DistanceFromZone verifies the pass-through call.
func TestTelemetryService_DistanceFromZone(t *testing.T) {
	provider := &mockProvider{distance: 42.5}
	svc := NewTelemetryService(provider, nil, time.Minute)

	d, err := svc.DistanceFromZone(context.Background(), "key-1", "imei-1", "101")
	require.NoError(t, err)
	assert.Equal(t, 42.5, d)
	assert.Equal(t, "imei-1", provider.distanceImei)

	_, err = svc.DistanceFromZone(context.Background(), "", "imei-1", "101")
	assert.ErrorIs(t, err, domain.ErrAuthKeyMissing)
}
