package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrReportNotFound is returned when a report artifact id does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrInconsistentReportData is returned in verified mode when the
	// provider's zone report lacks a crossing for the trip's destination.
	ErrInconsistentReportData = errors.New("inconsistent report data from provider")
)

// NoCrossingData marks a cell whose zone crossing the provider did not
// record inside the report window.
const NoCrossingData = "no crossing data"

// Cell is one named report value.
type Cell struct {
	Name  string
	Value any
}

// Row is one trip's report line: an ordered mapping of column name to
// formatted value. Column order is insertion order and survives JSON
// encoding, which is what the spreadsheet export and API consumers rely on.
type Row struct {
	cells []Cell
	index map[string]int
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{index: make(map[string]int)}
}

// Set appends the column, or overwrites it in place when it already exists.
func (r *Row) Set(name string, value any) {
	if i, ok := r.index[name]; ok {
		r.cells[i].Value = value
		return
	}
	r.index[name] = len(r.cells)
	r.cells = append(r.cells, Cell{Name: name, Value: value})
}

// Get returns the column's value.
func (r *Row) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.cells[i].Value, true
}

// Columns lists the column names in order.
func (r *Row) Columns() []string {
	names := make([]string, len(r.cells))
	for i, cell := range r.cells {
		names[i] = cell.Name
	}
	return names
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range r.cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(cell.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cell.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Artifact is a persisted record of a generated export file, a
// cache-and-audit entry only.
type Artifact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"created_at"`
}
