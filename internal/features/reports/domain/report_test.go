package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_PreservesColumnOrder(t *testing.T) {
	row := NewRow()
	row.Set("Date", "02 Jan 2024")
	row.Set("Vehicle Number", "KA01AB1234")
	row.Set("Runn KM", 250.0)
	row.Set("Date", "03 Jan 2024") // overwrite keeps position

	assert.Equal(t, []string{"Date", "Vehicle Number", "Runn KM"}, row.Columns())

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"Date":"03 Jan 2024","Vehicle Number":"KA01AB1234","Runn KM":250}`, string(data))
}

func TestRow_Get(t *testing.T) {
	row := NewRow()
	row.Set("IMEI", "356789000000001")

	v, ok := row.Get("IMEI")
	assert.True(t, ok)
	assert.Equal(t, "356789000000001", v)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}
