package domain

import (
	"errors"
	"time"

	teledomain "fleet-office/internal/features/telemetry/domain"
)

var (
	// ErrTripNotFound is returned when a trip id does not exist.
	ErrTripNotFound = errors.New("trip not found")
	// ErrValidation is returned on missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
)

// TripStatus is the derived lifecycle state of a trip. It is never stored;
// the booleans and leg milestones are the source of truth.
type TripStatus string

const (
	StatusPlanned   TripStatus = "PLANNED"
	StatusLoading   TripStatus = "LOADING"
	StatusInTransit TripStatus = "IN_TRANSIT"
	StatusUnloading TripStatus = "UNLOADING"
	StatusCompleted TripStatus = "COMPLETED"
)

// LegObservation is the measured state carried by a zone-crossing event,
// applied to a leg milestone.
type LegObservation struct {
	Time        time.Time
	Odometer    float64
	EngineHours float64
}

// TripLeg is one unloading stop. Legs are ordered at creation and never
// reordered; the index position encodes distance from the start, and the
// final position decides trip completion.
type TripLeg struct {
	// Zone is a snapshot of the provider zone taken at trip creation.
	Zone teledomain.Zone `json:"zone"`
	// InvoiceNo is the delivery invoice for this stop.
	InvoiceNo string `json:"invoice_no"`
	// DtIn and DtOut are nil until the corresponding crossing is recorded.
	DtIn  *time.Time `json:"dt_in"`
	DtOut *time.Time `json:"dt_out"`
	// Odometer and EngineHours hold the device readings from the most
	// recent crossing applied to this leg.
	Odometer    float64 `json:"odometer"`
	EngineHours float64 `json:"engine_hours"`
	// Completed turns true when the exit crossing is recorded.
	Completed bool `json:"completed"`
}

// Trip is the aggregate root: one loading zone, an ordered list of unloading
// legs, cargo metadata, and derived lifecycle flags. Created whole, mutated
// leg by leg through zone-crossing events, deleted only by an administrator.
type Trip struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	DeviceIMEI string `json:"device_imei"`

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

	LoadingZone  teledomain.Zone `json:"loading_zone"`
	LoadingDtIn  *time.Time      `json:"loading_dt_in"`
	LoadingDtOut *time.Time      `json:"loading_dt_out"`

	TripStarted   bool    `json:"trip_started"`
	StartOdometer float64 `json:"start_odometer"`
	StartEngineHr float64 `json:"start_engine_hr"`
	TripEnded     bool    `json:"trip_ended"`
	EndOdometer   float64 `json:"end_odometer"`
	EndEngineHr   float64 `json:"end_engine_hr"`

	Legs []TripLeg `json:"unloading_legs"`

	// DistanceKm is the planned route length.
	DistanceKm float64 `json:"distance_km"`
	// EstimatedTime is the planned total duration.
	EstimatedTime time.Duration `json:"estimated_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFinalLeg reports whether idx is the trip's true end.
func (t *Trip) IsFinalLeg(idx int) bool {
	return len(t.Legs) > 0 && idx == len(t.Legs)-1
}

// Status derives the lifecycle state from the recorded milestones.
func (t *Trip) Status() TripStatus {
	switch {
	case t.TripEnded:
		return StatusCompleted
	case anyLegTouched(t.Legs):
		return StatusUnloading
	case t.LoadingDtOut != nil:
		return StatusInTransit
	case t.TripStarted:
		return StatusLoading
	default:
		return StatusPlanned
	}
}

func anyLegTouched(legs []TripLeg) bool {
	for i := range legs {
		if legs[i].DtIn != nil || legs[i].DtOut != nil {
			return true
		}
	}
	return false
}

// FinalLeg returns the last unloading leg, or nil for a trip with no legs.
func (t *Trip) FinalLeg() *TripLeg {
	if len(t.Legs) == 0 {
		return nil
	}
	return &t.Legs[len(t.Legs)-1]
}

// Validate checks the fields a new trip must carry.
func (t *Trip) Validate() error {
	switch {
	case t.DeviceIMEI == "":
		return validationErr("device_imei is required")
	case t.UserID == "":
		return validationErr("user is required")
	case t.LoadingZone.Name == "":
		return validationErr("loading zone is required")
	case len(t.Legs) == 0:
		return validationErr("at least one unloading leg is required")
	case t.DistanceKm <= 0:
		return validationErr("distance must be positive")
	case t.EstimatedTime <= 0:
		return validationErr("estimated_time must be positive")
	}
	for i := range t.Legs {
		if t.Legs[i].InvoiceNo == "" {
			return validationErr("invoice_no is required on every unloading leg")
		}
	}
	return nil
}
