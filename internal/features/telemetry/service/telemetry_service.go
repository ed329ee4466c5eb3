package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-office/internal/core/cache"
	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/telemetry/domain"
	"fleet-office/internal/features/telemetry/ports"

	"go.uber.org/zap"
)

// TelemetryService fronts the tracking provider with credential checks and a
// short-lived cache for the listing calls. Report calls always go straight to
// the provider. Cache failures never fail a request.
type TelemetryService struct {
	provider ports.Provider
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewTelemetryService creates a new TelemetryService. c may be nil to disable caching.
func NewTelemetryService(provider ports.Provider, c cache.Cache, ttl time.Duration) *TelemetryService {
	return &TelemetryService{
		provider: provider,
		cache:    c,
		ttl:      ttl,
		logger:   logger.Named("telemetry"),
	}
}

// Zones returns the account's zones, served from cache when fresh.
func (s *TelemetryService) Zones(ctx context.Context, apiKey string) ([]domain.Zone, error) {
	if apiKey == "" {
		return nil, domain.ErrAuthKeyMissing
	}

	key := cacheKey("zones", apiKey)
	var zones []domain.Zone
	if s.lookup(ctx, key, &zones) {
		return zones, nil
	}

	zones, err := s.provider.ListZones(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, zones)
	return zones, nil
}

// Devices returns last-known device snapshots, served from cache when fresh.
func (s *TelemetryService) Devices(ctx context.Context, apiKey string) ([]domain.DeviceSnapshot, error) {
	if apiKey == "" {
		return nil, domain.ErrAuthKeyMissing
	}

	key := cacheKey("devices", apiKey)
	var devices []domain.DeviceSnapshot
	if s.lookup(ctx, key, &devices) {
		return devices, nil
	}

	devices, err := s.provider.ListDevices(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, devices)
	return devices, nil
}

// Zone resolves a single zone by id. Trips snapshot the result at creation
// time; an unresolvable zone aborts trip creation.
func (s *TelemetryService) Zone(ctx context.Context, apiKey, zoneID string) (*domain.Zone, error) {
	zones, err := s.Zones(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	for i := range zones {
		if zones[i].ID == zoneID {
			return &zones[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
}

// GeneralReport proxies the provider's movement summary report.
func (s *TelemetryService) GeneralReport(ctx context.Context, apiKey, imei string, from, to time.Time, speedLimit float64, stopDuration time.Duration) (*domain.GeneralReport, error) {
	if apiKey == "" {
		return nil, domain.ErrAuthKeyMissing
	}
	return s.provider.GeneralReport(ctx, apiKey, imei, from, to, speedLimit, stopDuration)
}

// ZoneInOutReport proxies the provider's zone crossing report.
func (s *TelemetryService) ZoneInOutReport(ctx context.Context, apiKey, imei string, from, to time.Time, zoneIDs []string) ([]domain.ZoneCrossing, error) {
	if apiKey == "" {
		return nil, domain.ErrAuthKeyMissing
	}
	return s.provider.ZoneInOutReport(ctx, apiKey, imei, from, to, zoneIDs)
}

// DistanceFromZone proxies the provider's live distance computation.
func (s *TelemetryService) DistanceFromZone(ctx context.Context, apiKey, imei, zoneID string) (float64, error) {
	if apiKey == "" {
		return 0, domain.ErrAuthKeyMissing
	}
	return s.provider.DistanceFromZone(ctx, apiKey, imei, zoneID)
}

// lookup fills out from cache; false on miss, disabled cache, or decode failure.
func (s *TelemetryService) lookup(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Debug("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupt cache entry dropped", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *TelemetryService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Debug("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// cacheKey namespaces a listing by a digest of the credential, so the raw
// API key never lands in Redis.
func cacheKey(kind, apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "telemetry:" + kind + ":" + hex.EncodeToString(sum[:8])
}
