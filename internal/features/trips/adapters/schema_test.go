package adapters

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchema_ColumnTypesMatchScanTargets guards the shipped migration against
// drifting from the Go types the repository binds and scans. pgx rejects a
// float64 bound to a text column, so a mismatch here breaks every trip
// create/get/list against a freshly migrated database.
func TestSchema_ColumnTypesMatchScanTargets(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "001_schema.sql"))
	require.NoError(t, err)
	schema := string(raw)

	columnType := func(col string) string {
		re := regexp.MustCompile(`(?m)^\s*` + col + `\s+([a-z_ ]+?)(?: NOT NULL| DEFAULT| PRIMARY|,)`)
		m := re.FindStringSubmatch(schema)
		require.NotNilf(t, m, "column %s not found in schema", col)
		return strings.TrimSpace(m[1])
	}

	// float64 fields on domain.Trip
	for _, col := range []string{
		"weight", "start_odometer", "start_engine_hr",
		"end_odometer", "end_engine_hr", "distance_km",
	} {
		assert.Equalf(t, "double precision", columnType(col), "trips.%s", col)
	}

	// float64 fields on domain.TripLeg
	assert.Equal(t, "double precision", columnType("engine_hr"))

	assert.Equal(t, "bigint", columnType("estimated_time_ms"))
	assert.Equal(t, "jsonb", columnType("loading_zone"))
	assert.Equal(t, "boolean", columnType("trip_started"))
	assert.Equal(t, "boolean", columnType("trip_ended"))
	assert.Equal(t, "timestamptz", columnType("loading_dt_in"))
	assert.Equal(t, "timestamptz", columnType("dt_out"))
}
