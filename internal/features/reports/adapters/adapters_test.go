package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fleet-office/internal/features/reports/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelExporter_Write(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExcelExporter(dir)

	first := domain.NewRow()
	first.Set("Date", "02 Jan 2024")
	first.Set("Vehicle Number", "KA01AB1234")
	first.Set("Destination_1", "Plant B")

	// second trip has an extra destination column
	second := domain.NewRow()
	second.Set("Date", "03 Jan 2024")
	second.Set("Vehicle Number", "KA02CD5678")
	second.Set("Destination_1", "Plant B")
	second.Set("Destination_2", "Plant C")

	path, err := exporter.Write([]*domain.Row{first, second})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Vehicle Number", "Destination_1", "Destination_2"}, rows[0])
	assert.Equal(t, "KA01AB1234", rows[1][1])
	assert.Equal(t, "Plant C", rows[2][3])
}

func TestPostgresArtifactRepository_Save(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO trip_reports`).
		WithArgs("report-1", "user-1", "exports/trip-report-1.xlsx").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewPostgresArtifactRepository(mock)
	artifact := &domain.Artifact{ID: "report-1", UserID: "user-1", File: "exports/trip-report-1.xlsx"}
	require.NoError(t, repo.Save(context.Background(), artifact))
	assert.Equal(t, createdAt, artifact.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresArtifactRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, user_id, file, created_at FROM trip_reports`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "file", "created_at"}).
			AddRow("report-2", "user-1", "exports/b.xlsx", now).
			AddRow("report-1", "user-1", "exports/a.xlsx", now.Add(-time.Hour)))

	repo := NewPostgresArtifactRepository(mock)
	artifacts, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "report-2", artifacts[0].ID)
}
