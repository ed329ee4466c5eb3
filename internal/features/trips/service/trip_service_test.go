package service

import (
	"context"
	"testing"

	teledomain "fleet-office/internal/features/telemetry/domain"
	"fleet-office/internal/features/trips/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockZoneResolver is a mock implementation of ports.ZoneResolver for testing.
type mockZoneResolver struct {
	zones map[string]teledomain.Zone
}

func (m *mockZoneResolver) Zone(ctx context.Context, apiKey, zoneID string) (*teledomain.Zone, error) {
	zone, ok := m.zones[zoneID]
	if !ok {
		return nil, teledomain.ErrZoneNotFound
	}
	return &zone, nil
}

func resolverWithZones() *mockZoneResolver {
	return &mockZoneResolver{zones: map[string]teledomain.Zone{
		"1": {ID: "1", Name: "Depot A"},
		"2": {ID: "2", Name: "Plant B"},
	}}
}

func createInput() CreateTripInput {
	return CreateTripInput{
		DeviceIMEI:       testIMEI,
		Buyer:            "Acme",
		Seller:           "Quarry Co",
		VehicleNo:        "KA01AB1234",
		DriverName:       "R. Kumar",
		Cargo:            "gravel",
		Weight:           24,
		LoadingZoneID:    "1",
		Legs:             []LegInput{{ZoneID: "2", InvoiceNo: "INV-1"}},
		DistanceKm:       200,
		EstimatedTimeMin: 480,
	}
}

func TestTripService_Create_SnapshotsZones(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewTripService(repo, resolverWithZones())

	trip, err := svc.Create(context.Background(), "user-1", "key-1", createInput())
	require.NoError(t, err)
	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, "Depot A", trip.LoadingZone.Name)
	require.Len(t, trip.Legs, 1)
	assert.Equal(t, "Plant B", trip.Legs[0].Zone.Name)
	assert.Equal(t, domain.StatusPlanned, trip.Status())

	stored, err := repo.Get(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, stored.ID)
}

func TestTripService_Create_UnresolvableZoneAborts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewTripService(repo, resolverWithZones())

	input := createInput()
	input.Legs = []LegInput{{ZoneID: "404", InvoiceNo: "INV-1"}}

	_, err := svc.Create(context.Background(), "user-1", "key-1", input)
	assert.ErrorIs(t, err, teledomain.ErrZoneNotFound)
	assert.Empty(t, repo.trips)
}

func TestTripService_Create_ValidationFailure(t *testing.T) {
	svc := NewTripService(newMemoryRepo(), resolverWithZones())

	input := createInput()
	input.DistanceKm = 0

	_, err := svc.Create(context.Background(), "user-1", "key-1", input)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Update_KeepsLifecycleFields(t *testing.T) {
	trip := plannedTrip()
	trip.TripStarted = true
	trip.StartOdometer = 100
	repo := newMemoryRepo(trip)
	svc := NewTripService(repo, resolverWithZones())

	updated, err := svc.Update(context.Background(), trip.ID, UpdateTripInput{
		Buyer:            "New Buyer",
		VehicleNo:        "KA02CD5678",
		Weight:           30,
		DistanceKm:       210,
		EstimatedTimeMin: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Buyer", updated.Buyer)
	assert.True(t, updated.TripStarted)
	assert.Equal(t, 100.0, updated.StartOdometer)
}

func TestTripService_Delete_NotFound(t *testing.T) {
	svc := NewTripService(newMemoryRepo(), resolverWithZones())
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), domain.ErrTripNotFound)
}
