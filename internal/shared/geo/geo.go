// Package geo provides geometric primitives over WGS84 coordinates: great
// circle distance, bearing, and geofence membership tests. All functions are
// pure; malformed input yields an error rather than a silent false.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

var (
	// ErrBadCoordinate is returned when a latitude or longitude is NaN or infinite.
	ErrBadCoordinate = errors.New("geo: coordinate is not a finite number")
	// ErrEmptyPolygon is returned when a polygon has no vertices.
	ErrEmptyPolygon = errors.New("geo: polygon has no vertices")
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

func rad2deg(rad float64) float64 {
	return rad * (180 / math.Pi)
}

func checkFinite(coords ...float64) error {
	for _, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrBadCoordinate
		}
	}
	return nil
}

// BearingDegrees returns the initial bearing from (lat1,lng1) to (lat2,lng2)
// in degrees, always in [0, 360).
func BearingDegrees(lat1, lng1, lat2, lng2 float64) (float64, error) {
	if err := checkFinite(lat1, lng1, lat2, lng2); err != nil {
		return 0, err
	}

	dLng := deg2rad(lng2) - deg2rad(lng1)
	y := math.Sin(dLng) * math.Cos(deg2rad(lat2))
	x := math.Cos(deg2rad(lat1))*math.Sin(deg2rad(lat2)) -
		math.Sin(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Cos(dLng)

	angle := math.Mod(rad2deg(math.Atan2(y, x))+360, 360)
	return angle, nil
}

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) (float64, error) {
	if err := checkFinite(lat1, lng1, lat2, lng2); err != nil {
		return 0, err
	}

	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// WithinCircle reports whether point lies within radiusMeters of center.
func WithinCircle(center, point Point, radiusMeters float64) (bool, error) {
	if err := checkFinite(radiusMeters); err != nil {
		return false, err
	}

	d, err := DistanceKm(center.Lat, center.Lng, point.Lat, point.Lng)
	if err != nil {
		return false, err
	}
	return d*1000 <= radiusMeters, nil
}

// WithinPolygon reports whether point lies inside the polygon described by
// the ordered vertex list, using the even-odd (crossing number) rule.
func WithinPolygon(vertices []Point, point Point) (bool, error) {
	if len(vertices) == 0 {
		return false, ErrEmptyPolygon
	}
	if err := checkFinite(point.Lat, point.Lng); err != nil {
		return false, err
	}
	for _, v := range vertices {
		if err := checkFinite(v.Lat, v.Lng); err != nil {
			return false, err
		}
	}

	oddNodes := false
	j := len(vertices) - 1

	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat < point.Lat && vj.Lat >= point.Lat) ||
			(vj.Lat < point.Lat && vi.Lat >= point.Lat) {
			if vi.Lng+((point.Lat-vi.Lat)/(vj.Lat-vi.Lat))*(vj.Lng-vi.Lng) < point.Lng {
				oddNodes = !oddNodes
			}
		}
		j = i
	}

	return oddNodes, nil
}

// ParseVertices decodes the provider vertex encoding "lat lng,lat lng,..."
// into an ordered point list.
func ParseVertices(s string) ([]Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyPolygon
	}

	pairs := strings.Split(s, ",")
	points := make([]Point, 0, len(pairs))

	for _, pair := range pairs {
		fields := strings.Fields(pair)
		if len(fields) != 2 {
			return nil, fmt.Errorf("geo: malformed vertex %q", pair)
		}
		lat, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: malformed vertex %q: %w", pair, err)
		}
		lng, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: malformed vertex %q: %w", pair, err)
		}
		points = append(points, Point{Lat: lat, Lng: lng})
	}

	return points, nil
}
