package domain

import (
	"errors"
	"fmt"
	"time"

	"fleet-office/internal/shared/geo"
)

var (
	// ErrAuthKeyMissing is returned when the principal has no provider API key.
	ErrAuthKeyMissing = errors.New("tracking provider API key missing")
	// ErrTelemetryUnavailable is returned when the provider call failed or timed out.
	// Callers own any retry policy; the gateway never retries.
	ErrTelemetryUnavailable = errors.New("tracking provider unavailable")
	// ErrZoneNotFound is returned when a zone id does not exist for the account.
	ErrZoneNotFound = errors.New("zone not found")
)

// Zone is a provider-defined geofenced region. Trips store a snapshot copy of
// the zone at creation time, never a live reference, because provider-side
// definitions can change afterwards.
type Zone struct {
	// ID is the provider's zone identifier.
	ID string `json:"id"`
	// Name is the display name; zone-crossing webhooks identify zones by it.
	Name string `json:"name"`
	// Color is the display color.
	Color string `json:"color"`
	// Visible reports whether the zone is drawn on the provider map.
	Visible bool `json:"visible"`
	// NameVisible reports whether the zone label is drawn.
	NameVisible bool `json:"name_visible"`
	// Area is the zone area in square meters.
	Area float64 `json:"area"`
	// Vertices encodes the polygon boundary as "lat lng,lat lng,...".
	// Empty for circular zones.
	Vertices string `json:"vertices"`
	// Radius is the circle radius in meters. Zero for polygon zones.
	Radius float64 `json:"radius,omitempty"`
}

// Center returns the geometric center of the zone boundary. Circular zones
// carry their center as a single vertex.
func (z Zone) Center() (geo.Point, error) {
	points, err := geo.ParseVertices(z.Vertices)
	if err != nil {
		return geo.Point{}, fmt.Errorf("zone %s: %w", z.ID, err)
	}

	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return geo.Point{Lat: lat / n, Lng: lng / n}, nil
}

// Contains reports whether the coordinate lies inside the zone boundary.
func (z Zone) Contains(lat, lng float64) (bool, error) {
	point := geo.Point{Lat: lat, Lng: lng}

	if z.Radius > 0 {
		center, err := z.Center()
		if err != nil {
			return false, err
		}
		return geo.WithinCircle(center, point, z.Radius)
	}

	points, err := geo.ParseVertices(z.Vertices)
	if err != nil {
		return false, fmt.Errorf("zone %s: %w", z.ID, err)
	}
	return geo.WithinPolygon(points, point)
}

// DeviceSnapshot is the provider's last known state of a tracked device.
type DeviceSnapshot struct {
	IMEI       string    `json:"imei"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Altitude   float64   `json:"altitude"`
	Angle      float64   `json:"angle"`
	Speed      float64   `json:"speed"`
	Odometer   float64   `json:"odometer"`
	LastUpdate time.Time `json:"last_update"`
}

// GeneralReport is the provider's movement summary for a device over a window.
type GeneralReport struct {
	RouteStart      time.Time     `json:"route_start"`
	RouteEnd        time.Time     `json:"route_end"`
	RouteLengthKm   float64       `json:"route_length_km"`
	MoveDuration    time.Duration `json:"move_duration"`
	StopDuration    time.Duration `json:"stop_duration"`
	StopCount       int           `json:"stop_count"`
	TopSpeed        float64       `json:"top_speed"`
	AvgSpeed        float64       `json:"avg_speed"`
	OverspeedCount  int           `json:"overspeed_count"`
	FuelConsumption float64       `json:"fuel_consumption"`
	EngineWork      time.Duration `json:"engine_work"`
	Odometer        float64       `json:"odometer"`
}

// ZoneCrossing is one zone in/out pair from the provider's zone report.
// The provider omits zones the device never entered in the window, so a
// missing entry for a requested zone means "no crossing recorded".
type ZoneCrossing struct {
	ZoneID  string    `json:"zone_id"`
	ZoneIn  time.Time `json:"zone_in"`
	ZoneOut time.Time `json:"zone_out"`
}
