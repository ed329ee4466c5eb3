package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-office/internal/core/db"
	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/features/trips/ports"
	"fleet-office/internal/shared/paging"

	"github.com/jackc/pgx/v5"
)

// PostgresTripRepository implements ports.TripRepository on postgres.
// Lifecycle mutations are single conditional UPDATEs so racing webhook
// deliveries for the same trip cannot lose writes.
type PostgresTripRepository struct {
	db db.Querier
}

// NewPostgresTripRepository creates a new PostgresTripRepository.
func NewPostgresTripRepository(q db.Querier) *PostgresTripRepository {
	return &PostgresTripRepository{db: q}
}

var _ ports.TripRepository = (*PostgresTripRepository)(nil)

const tripColumns = `id, user_id, device_imei, buyer, seller, transport_name_and_no,
	vehicle_no, driver_name, driver_mobile_no, licence_no, lr_no, do_no, cargo, weight,
	loading_zone, loading_dt_in, loading_dt_out,
	trip_started, start_odometer, start_engine_hr,
	trip_ended, end_odometer, end_engine_hr,
	distance_km, estimated_time_ms, created_at, updated_at`

// Create inserts the trip and its legs.
func (r *PostgresTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	loadingZone, err := json.Marshal(trip.LoadingZone)
	if err != nil {
		return fmt.Errorf("failed to encode loading zone: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO trips (id, user_id, device_imei, buyer, seller, transport_name_and_no,
			vehicle_no, driver_name, driver_mobile_no, licence_no, lr_no, do_no, cargo, weight,
			loading_zone, distance_km, estimated_time_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, trip.ID, trip.UserID, trip.DeviceIMEI, trip.Buyer, trip.Seller, trip.TransportNameAndNo,
		trip.VehicleNo, trip.DriverName, trip.DriverMobileNo, trip.LicenceNo, trip.LRNo, trip.DONo,
		trip.Cargo, trip.Weight, loadingZone, trip.DistanceKm, trip.EstimatedTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	for i := range trip.Legs {
		leg := &trip.Legs[i]
		zone, err := json.Marshal(leg.Zone)
		if err != nil {
			return fmt.Errorf("failed to encode leg zone: %w", err)
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO trip_legs (trip_id, leg_index, zone, invoice_no)
			VALUES ($1,$2,$3,$4)
		`, trip.ID, i, zone, leg.InvoiceNo)
		if err != nil {
			return fmt.Errorf("failed to insert trip leg %d: %w", i, err)
		}
	}
	return nil
}

// Get loads one trip with its legs.
func (r *PostgresTripRepository) Get(ctx context.Context, id string) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)

	trip, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTripNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	legs, err := r.loadLegs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	trip.Legs = legs[id]
	return trip, nil
}

// List pages through trips, newest first.
func (r *PostgresTripRepository) List(ctx context.Context, filter ports.ListFilter) (*paging.Page[domain.Trip], error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	where := `WHERE user_id = $1`
	args := []any{filter.UserID}
	if filter.Search != "" {
		where += ` AND (vehicle_no ILIKE $2 OR driver_name ILIKE $2 OR device_imei ILIKE $2)`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count trips: %w", err)
	}

	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}

	query := fmt.Sprintf(`SELECT %s FROM trips %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		tripColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	trips, err := collectTrips(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachLegs(ctx, trips); err != nil {
		return nil, err
	}

	return &paging.Page[domain.Trip]{
		Total:  total,
		Pages:  pages,
		Page:   page,
		Result: trips,
	}, nil
}

// Update rewrites business metadata and planning fields. Lifecycle columns
// are owned by the Record* operations and left untouched.
func (r *PostgresTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips SET buyer = $2, seller = $3, transport_name_and_no = $4, vehicle_no = $5,
			driver_name = $6, driver_mobile_no = $7, licence_no = $8, lr_no = $9, do_no = $10,
			cargo = $11, weight = $12, distance_km = $13, estimated_time_ms = $14,
			updated_at = now()
		WHERE id = $1
	`, trip.ID, trip.Buyer, trip.Seller, trip.TransportNameAndNo, trip.VehicleNo,
		trip.DriverName, trip.DriverMobileNo, trip.LicenceNo, trip.LRNo, trip.DONo,
		trip.Cargo, trip.Weight, trip.DistanceKm, trip.EstimatedTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTripNotFound, trip.ID)
	}
	return nil
}

// Delete removes the trip; legs go with it via the cascade.
func (r *PostgresTripRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTripNotFound, id)
	}
	return nil
}

// FindByDevice returns every trip referencing the device, any lifecycle state.
func (r *PostgresTripRepository) FindByDevice(ctx context.Context, imei string) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips WHERE device_imei = $1 ORDER BY created_at`, imei)
	if err != nil {
		return nil, fmt.Errorf("failed to find trips by device: %w", err)
	}
	trips, err := collectTrips(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachLegs(ctx, trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// RecordLoadingEntry marks loading-zone entry. Start snapshots are taken only
// on the first loading event; the guard lives in the statement itself so a
// racing re-entry cannot reset them.
func (r *PostgresTripRepository) RecordLoadingEntry(ctx context.Context, tripID string, obs domain.LegObservation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips SET
			start_odometer = CASE WHEN trip_started THEN start_odometer ELSE $2 END,
			start_engine_hr = CASE WHEN trip_started THEN start_engine_hr ELSE $3 END,
			trip_started = TRUE,
			loading_dt_in = $4,
			updated_at = now()
		WHERE id = $1
	`, tripID, obs.Odometer, obs.EngineHours, obs.Time)
	if err != nil {
		return fmt.Errorf("failed to record loading entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTripNotFound, tripID)
	}
	return nil
}

// RecordLoadingExit marks loading-zone exit. An already-recorded later exit
// time is never regressed.
func (r *PostgresTripRepository) RecordLoadingExit(ctx context.Context, tripID string, obs domain.LegObservation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips SET
			start_odometer = CASE WHEN trip_started THEN start_odometer ELSE $2 END,
			start_engine_hr = CASE WHEN trip_started THEN start_engine_hr ELSE $3 END,
			trip_started = TRUE,
			loading_dt_out = CASE WHEN loading_dt_out IS NULL OR loading_dt_out <= $4
				THEN $4 ELSE loading_dt_out END,
			updated_at = now()
		WHERE id = $1
	`, tripID, obs.Odometer, obs.EngineHours, obs.Time)
	if err != nil {
		return fmt.Errorf("failed to record loading exit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTripNotFound, tripID)
	}
	return nil
}

// RecordUnloadingEntry marks entry into the leg at legIdx.
func (r *PostgresTripRepository) RecordUnloadingEntry(ctx context.Context, tripID string, legIdx int, obs domain.LegObservation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trip_legs SET dt_in = $3, odometer = $4, engine_hr = $5
		WHERE trip_id = $1 AND leg_index = $2
	`, tripID, legIdx, obs.Time, obs.Odometer, obs.EngineHours)
	if err != nil {
		return fmt.Errorf("failed to record unloading entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s leg %d", domain.ErrTripNotFound, tripID, legIdx)
	}
	return nil
}

// RecordUnloadingExit marks exit from the leg at legIdx and completes it.
// The exit timestamp and its odometer/engine-hour readings move together:
// a delivery carrying an earlier timestamp than the recorded exit changes
// nothing. When the leg is the trip's final one, the same statement flips
// the trip to ended with end snapshots, so a crash cannot leave a completed
// final leg on an unfinished trip.
func (r *PostgresTripRepository) RecordUnloadingExit(ctx context.Context, tripID string, legIdx int, obs domain.LegObservation, isFinal bool) error {
	if !isFinal {
		tag, err := r.db.Exec(ctx, `
			UPDATE trip_legs SET
				dt_out = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $3 ELSE dt_out END,
				odometer = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $4 ELSE odometer END,
				engine_hr = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $5 ELSE engine_hr END,
				completed = TRUE
			WHERE trip_id = $1 AND leg_index = $2
		`, tripID, legIdx, obs.Time, obs.Odometer, obs.EngineHours)
		if err != nil {
			return fmt.Errorf("failed to record unloading exit: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s leg %d", domain.ErrTripNotFound, tripID, legIdx)
		}
		return nil
	}

	// The CTE's RETURNING exposes the post-update dt_out: it equals $3 only
	// when this delivery won the guard, which is when the end snapshots may
	// be (re)written.
	tag, err := r.db.Exec(ctx, `
		WITH leg AS (
			UPDATE trip_legs SET
				dt_out = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $3 ELSE dt_out END,
				odometer = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $4 ELSE odometer END,
				engine_hr = CASE WHEN dt_out IS NULL OR dt_out <= $3 THEN $5 ELSE engine_hr END,
				completed = TRUE
			WHERE trip_id = $1 AND leg_index = $2
			RETURNING dt_out
		)
		UPDATE trips SET
			trip_ended = TRUE,
			end_odometer = CASE WHEN (SELECT dt_out FROM leg) = $3 THEN $4 ELSE end_odometer END,
			end_engine_hr = CASE WHEN (SELECT dt_out FROM leg) = $3 THEN $5 ELSE end_engine_hr END,
			updated_at = now()
		WHERE id = $1 AND EXISTS (SELECT 1 FROM leg)
	`, tripID, legIdx, obs.Time, obs.Odometer, obs.EngineHours)
	if err != nil {
		return fmt.Errorf("failed to record trip end: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s leg %d", domain.ErrTripNotFound, tripID, legIdx)
	}
	return nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var (
		trip            domain.Trip
		loadingZone     []byte
		estimatedTimeMs int64
	)
	err := row.Scan(&trip.ID, &trip.UserID, &trip.DeviceIMEI, &trip.Buyer, &trip.Seller,
		&trip.TransportNameAndNo, &trip.VehicleNo, &trip.DriverName, &trip.DriverMobileNo,
		&trip.LicenceNo, &trip.LRNo, &trip.DONo, &trip.Cargo, &trip.Weight,
		&loadingZone, &trip.LoadingDtIn, &trip.LoadingDtOut,
		&trip.TripStarted, &trip.StartOdometer, &trip.StartEngineHr,
		&trip.TripEnded, &trip.EndOdometer, &trip.EndEngineHr,
		&trip.DistanceKm, &estimatedTimeMs, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(loadingZone, &trip.LoadingZone); err != nil {
		return nil, fmt.Errorf("failed to decode loading zone: %w", err)
	}
	trip.EstimatedTime = time.Duration(estimatedTimeMs) * time.Millisecond
	return &trip, nil
}

func collectTrips(rows pgx.Rows) ([]domain.Trip, error) {
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trips: %w", err)
	}
	return trips, nil
}

// loadLegs fetches legs for the given trip ids, grouped by trip, ordered by
// position within each trip.
func (r *PostgresTripRepository) loadLegs(ctx context.Context, tripIDs []string) (map[string][]domain.TripLeg, error) {
	rows, err := r.db.Query(ctx, `
		SELECT trip_id, leg_index, zone, invoice_no, dt_in, dt_out, odometer, engine_hr, completed
		FROM trip_legs WHERE trip_id = ANY($1) ORDER BY trip_id, leg_index
	`, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip legs: %w", err)
	}
	defer rows.Close()

	legs := make(map[string][]domain.TripLeg, len(tripIDs))
	for rows.Next() {
		var (
			tripID   string
			legIndex int
			zone     []byte
			leg      domain.TripLeg
		)
		if err := rows.Scan(&tripID, &legIndex, &zone, &leg.InvoiceNo,
			&leg.DtIn, &leg.DtOut, &leg.Odometer, &leg.EngineHours, &leg.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan trip leg: %w", err)
		}
		if err := json.Unmarshal(zone, &leg.Zone); err != nil {
			return nil, fmt.Errorf("failed to decode leg zone: %w", err)
		}
		legs[tripID] = append(legs[tripID], leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trip legs: %w", err)
	}
	return legs, nil
}

func (r *PostgresTripRepository) attachLegs(ctx context.Context, trips []domain.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	ids := make([]string, len(trips))
	for i := range trips {
		ids[i] = trips[i].ID
	}
	legs, err := r.loadLegs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range trips {
		trips[i].Legs = legs[trips[i].ID]
	}
	return nil
}
