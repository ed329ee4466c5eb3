package domain

import (
	"fmt"
	"strconv"
	"time"
)

// EventKind tags a zone-crossing event. The literals match the provider's
// webhook `type` parameter.
type EventKind string

const (
	ZoneEntered EventKind = "zone_in"
	ZoneExited  EventKind = "zone_out"
)

// ZoneEvent is a validated zone-crossing notification. The provider webhook
// identifies zones primarily by name; ZoneID is set only when the payload
// carries one.
type ZoneEvent struct {
	Kind        EventKind
	IMEI        string
	ZoneID      string
	ZoneName    string
	Timestamp   time.Time
	Odometer    float64
	EngineHours float64
}

// eventTimeLayout is the provider's datetime rendering on webhook payloads.
const eventTimeLayout = "2006-01-02 15:04:05"

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ParseZoneEvent converts raw webhook query parameters into a ZoneEvent, in a
// single parse-or-reject step. want is the kind the receiving endpoint
// accepts; a payload with any other `type` literal is rejected.
func ParseZoneEvent(want EventKind, query func(key string) string) (*ZoneEvent, error) {
	imei := query("imei")
	if imei == "" {
		return nil, validationErr("imei is required")
	}

	if kind := query("type"); kind != string(want) {
		return nil, validationErr(fmt.Sprintf("type must be %q", want))
	}

	zoneName := query("zone_name")
	if zoneName == "" {
		return nil, validationErr("zone_name is required")
	}

	rawDt := query("dt_tracker")
	if rawDt == "" {
		return nil, validationErr("dt_tracker is required")
	}
	ts, err := time.Parse(eventTimeLayout, rawDt)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("dt_tracker %q is not a valid datetime", rawDt))
	}

	odometer, err := parseEventFloat(query("odometer"), "odometer")
	if err != nil {
		return nil, err
	}
	engineHours, err := parseEventFloat(query("eng_hours"), "eng_hours")
	if err != nil {
		return nil, err
	}

	return &ZoneEvent{
		Kind:        want,
		IMEI:        imei,
		ZoneID:      query("zone_id"),
		ZoneName:    zoneName,
		Timestamp:   ts,
		Odometer:    odometer,
		EngineHours: engineHours,
	}, nil
}

func parseEventFloat(raw, field string) (float64, error) {
	if raw == "" {
		return 0, validationErr(field + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, validationErr(fmt.Sprintf("%s %q is not a number", field, raw))
	}
	return v, nil
}

// Observation projects the event's measured readings.
func (e *ZoneEvent) Observation() LegObservation {
	return LegObservation{
		Time:        e.Timestamp,
		Odometer:    e.Odometer,
		EngineHours: e.EngineHours,
	}
}

// MatchesZone reports whether the event refers to the given zone snapshot.
// When strictByID is set and the event carries a zone id, the id decides;
// otherwise the zone name does (legacy provider payloads omit ids).
func (e *ZoneEvent) MatchesZone(zoneID, zoneName string, strictByID bool) bool {
	if strictByID && e.ZoneID != "" {
		return e.ZoneID == zoneID
	}
	return e.ZoneName == zoneName
}
