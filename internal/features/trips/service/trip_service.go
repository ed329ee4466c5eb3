package service

import (
	"context"
	"fmt"
	"time"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/features/trips/ports"
	"fleet-office/internal/shared/paging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LegInput names one unloading stop by provider zone id.
type LegInput struct {
	ZoneID    string `json:"zone_id"`
	InvoiceNo string `json:"invoice_no"`
}

// CreateTripInput is the caller's trip plan. Zones are given as provider ids
// and snapshotted at creation; an unresolvable zone aborts the whole create.
type CreateTripInput struct {
	DeviceIMEI         string  `json:"device_imei"`
	Buyer              string  `json:"buyer"`
	Seller             string  `json:"seller"`
	TransportNameAndNo string  `json:"transport_name_and_no"`
	VehicleNo          string  `json:"vehicle_no"`
	DriverName         string  `json:"driver_name"`
	DriverMobileNo     string  `json:"driver_mobile_no"`
	LicenceNo          string  `json:"licence_no"`
	LRNo               string  `json:"lr_no"`
	DONo               string  `json:"do_no"`
	Cargo              string  `json:"cargo"`
	Weight             float64 `json:"weight"`

	LoadingZoneID string     `json:"loading_zone_id"`
	Legs          []LegInput `json:"unloading_legs"`

	DistanceKm       float64 `json:"distance_km"`
	EstimatedTimeMin int64   `json:"estimated_time_min"`
}

// UpdateTripInput carries the mutable business metadata. Lifecycle milestones
// and zone snapshots are never updated this way.
type UpdateTripInput struct {
	Buyer              string  `json:"buyer"`
	Seller             string  `json:"seller"`
	TransportNameAndNo string  `json:"transport_name_and_no"`
	VehicleNo          string  `json:"vehicle_no"`
	DriverName         string  `json:"driver_name"`
	DriverMobileNo     string  `json:"driver_mobile_no"`
	LicenceNo          string  `json:"licence_no"`
	LRNo               string  `json:"lr_no"`
	DONo               string  `json:"do_no"`
	Cargo              string  `json:"cargo"`
	Weight             float64 `json:"weight"`
	DistanceKm         float64 `json:"distance_km"`
	EstimatedTimeMin   int64   `json:"estimated_time_min"`
}

// TripService owns trip CRUD. Creation validates every referenced zone
// against the tracking provider and stores snapshot copies.
type TripService struct {
	repo   ports.TripRepository
	zones  ports.ZoneResolver
	logger *zap.Logger
}

// NewTripService creates a new TripService.
func NewTripService(repo ports.TripRepository, zones ports.ZoneResolver) *TripService {
	return &TripService{
		repo:   repo,
		zones:  zones,
		logger: logger.Named("trips"),
	}
}

// Create validates the plan, snapshots all referenced zones, and persists the
// new trip.
func (s *TripService) Create(ctx context.Context, userID, apiKey string, input CreateTripInput) (*domain.Trip, error) {
	loadingZone, err := s.zones.Zone(ctx, apiKey, input.LoadingZoneID)
	if err != nil {
		return nil, fmt.Errorf("loading zone %s: %w", input.LoadingZoneID, err)
	}

	legs := make([]domain.TripLeg, 0, len(input.Legs))
	for _, legInput := range input.Legs {
		zone, err := s.zones.Zone(ctx, apiKey, legInput.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("unloading zone %s: %w", legInput.ZoneID, err)
		}
		legs = append(legs, domain.TripLeg{
			Zone:      *zone,
			InvoiceNo: legInput.InvoiceNo,
		})
	}

	trip := &domain.Trip{
		ID:                 uuid.NewString(),
		UserID:             userID,
		DeviceIMEI:         input.DeviceIMEI,
		Buyer:              input.Buyer,
		Seller:             input.Seller,
		TransportNameAndNo: input.TransportNameAndNo,
		VehicleNo:          input.VehicleNo,
		DriverName:         input.DriverName,
		DriverMobileNo:     input.DriverMobileNo,
		LicenceNo:          input.LicenceNo,
		LRNo:               input.LRNo,
		DONo:               input.DONo,
		Cargo:              input.Cargo,
		Weight:             input.Weight,
		LoadingZone:        *loadingZone,
		Legs:               legs,
		DistanceKm:         input.DistanceKm,
		EstimatedTime:      time.Duration(input.EstimatedTimeMin) * time.Minute,
	}
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}
	s.logger.Info("trip created",
		zap.String("trip_id", trip.ID),
		zap.String("imei", trip.DeviceIMEI),
		zap.Int("legs", len(trip.Legs)))
	return trip, nil
}

// Get returns one trip.
func (s *TripService) Get(ctx context.Context, id string) (*domain.Trip, error) {
	return s.repo.Get(ctx, id)
}

// List pages through the user's trips.
func (s *TripService) List(ctx context.Context, filter ports.ListFilter) (*paging.Page[domain.Trip], error) {
	return s.repo.List(ctx, filter)
}

// Update rewrites the trip's business metadata.
func (s *TripService) Update(ctx context.Context, id string, input UpdateTripInput) (*domain.Trip, error) {
	trip, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	trip.Buyer = input.Buyer
	trip.Seller = input.Seller
	trip.TransportNameAndNo = input.TransportNameAndNo
	trip.VehicleNo = input.VehicleNo
	trip.DriverName = input.DriverName
	trip.DriverMobileNo = input.DriverMobileNo
	trip.LicenceNo = input.LicenceNo
	trip.LRNo = input.LRNo
	trip.DONo = input.DONo
	trip.Cargo = input.Cargo
	trip.Weight = input.Weight
	trip.DistanceKm = input.DistanceKm
	trip.EstimatedTime = time.Duration(input.EstimatedTimeMin) * time.Minute

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// Delete removes a trip. Deletion is an explicit administrative action; the
// lifecycle never deletes trips on its own.
func (s *TripService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("trip deleted", zap.String("trip_id", id))
	return nil
}
