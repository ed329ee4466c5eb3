package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm_KnownRoute(t *testing.T) {
	// Mumbai (19.076, 72.8777) to Pune (18.5204, 73.8567) ~ 120 km
	d, err := DistanceKm(19.076, 72.8777, 18.5204, 73.8567)
	require.NoError(t, err)
	assert.InDelta(t, 120, d, 10)
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	d, err := DistanceKm(-6.2, 106.816, -6.2, 106.816)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDistanceKm_NaNCoordinate(t *testing.T) {
	_, err := DistanceKm(math.NaN(), 0, 0, 0)
	assert.ErrorIs(t, err, ErrBadCoordinate)
}

func TestBearingDegrees_Range(t *testing.T) {
	cases := [][4]float64{
		{0, 0, 10, 10},
		{10, 10, 0, 0},
		{52.5, 13.4, 48.85, 2.35},
		{-33.87, 151.21, 35.68, 139.69},
		{0, 0, 0, 0},
	}

	for _, c := range cases {
		b, err := BearingDegrees(c[0], c[1], c[2], c[3])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	}
}

func TestBearingDegrees_DueEast(t *testing.T) {
	b, err := BearingDegrees(0, 0, 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 90, b, 0.01)
}

func TestWithinPolygon_Triangle(t *testing.T) {
	triangle := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 0}}

	inside, err := WithinPolygon(triangle, Point{Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.True(t, inside)

	outside, err := WithinPolygon(triangle, Point{Lat: 20, Lng: 20})
	require.NoError(t, err)
	assert.False(t, outside)
}

func TestWithinPolygon_EmptyVertices(t *testing.T) {
	_, err := WithinPolygon(nil, Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrEmptyPolygon)
}

func TestWithinCircle(t *testing.T) {
	center := Point{Lat: 19.076, Lng: 72.8777}

	in, err := WithinCircle(center, Point{Lat: 19.0761, Lng: 72.8778}, 500)
	require.NoError(t, err)
	assert.True(t, in)

	out, err := WithinCircle(center, Point{Lat: 18.5204, Lng: 73.8567}, 500)
	require.NoError(t, err)
	assert.False(t, out)
}

func TestParseVertices(t *testing.T) {
	points, err := ParseVertices("19.1 72.8,19.2 72.9,19.3 72.7")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, Point{Lat: 19.2, Lng: 72.9}, points[1])
}

func TestParseVertices_Malformed(t *testing.T) {
	_, err := ParseVertices("19.1 72.8,oops")
	assert.Error(t, err)

	_, err = ParseVertices("")
	assert.ErrorIs(t, err, ErrEmptyPolygon)
}
