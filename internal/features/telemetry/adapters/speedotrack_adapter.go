package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-office/internal/core/config"
	"fleet-office/internal/core/httpclient"
	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/telemetry/domain"
	"fleet-office/internal/shared/geo"

	"go.uber.org/zap"
)

// sqlDateTime is the datetime layout the provider API speaks.
const sqlDateTime = "2006-01-02 15:04:05"

// SpeedotrackAdapter implements the Provider port against the Speedotrack
// GPS-server mobile API. The base URL and timeout are carried by the adapter
// instance; there is no package-level client.
type SpeedotrackAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// baseURL is the provider mobile API endpoint.
	baseURL string
}

// NewSpeedotrackAdapter creates a new adapter from the telemetry config.
func NewSpeedotrackAdapter(cfg config.TelemetryConfig) *SpeedotrackAdapter {
	return &SpeedotrackAdapter{
		client:  httpclient.NewClient(cfg.Timeout),
		baseURL: cfg.BaseURL,
	}
}

// ListZones fetches the account's geofenced zones.
func (a *SpeedotrackAdapter) ListZones(ctx context.Context, apiKey string) ([]domain.Zone, error) {
	// The provider keys the zone map by its internal sql id.
	var raw map[string]stZone
	if err := a.call(ctx, apiKey, "USER_GET_ZONES", nil, &raw); err != nil {
		return nil, err
	}

	zones := make([]domain.Zone, 0, len(raw))
	for id, z := range raw {
		zones = append(zones, domain.Zone{
			ID:          id,
			Name:        z.Name,
			Color:       z.Color,
			Visible:     bool(z.Visible),
			NameVisible: bool(z.NameVisible),
			Area:        float64(z.Area),
			Vertices:    z.Vertices,
			Radius:      float64(z.Radius),
		})
	}
	return zones, nil
}

// ListDevices fetches last-known snapshots of the account's devices.
func (a *SpeedotrackAdapter) ListDevices(ctx context.Context, apiKey string) ([]domain.DeviceSnapshot, error) {
	var raw []stDevice
	if err := a.call(ctx, apiKey, "USER_GET_OBJECTS", nil, &raw); err != nil {
		return nil, err
	}

	devices := make([]domain.DeviceSnapshot, 0, len(raw))
	for _, d := range raw {
		devices = append(devices, domain.DeviceSnapshot{
			IMEI:       d.IMEI,
			Name:       d.Name,
			Lat:        float64(d.Lat),
			Lng:        float64(d.Lng),
			Altitude:   float64(d.Altitude),
			Angle:      float64(d.Angle),
			Speed:      float64(d.Speed),
			Odometer:   float64(d.Odometer),
			LastUpdate: time.Time(d.DtTracker),
		})
	}
	return devices, nil
}

// GeneralReport fetches the provider's movement summary for a device.
func (a *SpeedotrackAdapter) GeneralReport(ctx context.Context, apiKey, imei string, from, to time.Time, speedLimit float64, stopDuration time.Duration) (*domain.GeneralReport, error) {
	form := url.Values{}
	form.Set("imei", imei)
	form.Set("dtf", from.Format(sqlDateTime))
	form.Set("dtt", to.Format(sqlDateTime))
	form.Set("speed_limit", strconv.FormatFloat(speedLimit, 'f', -1, 64))
	form.Set("stop_duration", strconv.Itoa(int(stopDuration.Minutes())))
	form.Set("data_items", "route_length,move_duration,stop_duration,stop_count,top_speed,avg_speed,overspeed_count,fuel_consumption,engine_work,odometer")

	var raw stGeneralReport
	if err := a.call(ctx, apiKey, "REPORT_GENERAL", form, &raw); err != nil {
		return nil, err
	}

	return &domain.GeneralReport{
		RouteStart:      time.Time(raw.RouteStart),
		RouteEnd:        time.Time(raw.RouteEnd),
		RouteLengthKm:   float64(raw.RouteLength),
		MoveDuration:    time.Duration(float64(raw.MoveDuration) * float64(time.Second)),
		StopDuration:    time.Duration(float64(raw.StopDuration) * float64(time.Second)),
		StopCount:       int(raw.StopCount),
		TopSpeed:        float64(raw.TopSpeed),
		AvgSpeed:        float64(raw.AvgSpeed),
		OverspeedCount:  int(raw.OverspeedCount),
		FuelConsumption: float64(raw.FuelConsumption),
		EngineWork:      time.Duration(float64(raw.EngineWork) * float64(time.Second)),
		Odometer:        float64(raw.Odometer),
	}, nil
}

// ZoneInOutReport fetches zone crossings for a device over a window.
func (a *SpeedotrackAdapter) ZoneInOutReport(ctx context.Context, apiKey, imei string, from, to time.Time, zoneIDs []string) ([]domain.ZoneCrossing, error) {
	form := url.Values{}
	form.Set("imei", imei)
	form.Set("dtf", from.Format(sqlDateTime))
	form.Set("dtt", to.Format(sqlDateTime))
	form.Set("show_coordinates", "false")
	form.Set("show_addresses", "false")
	form.Set("zones_addresses", "false")
	form.Set("zone_ids", strings.Join(zoneIDs, ","))

	var raw []stZoneCrossing
	if err := a.call(ctx, apiKey, "REPORT_ZONE_IN_OUT", form, &raw); err != nil {
		return nil, err
	}

	crossings := make([]domain.ZoneCrossing, 0, len(raw))
	for _, c := range raw {
		crossings = append(crossings, domain.ZoneCrossing{
			ZoneID:  c.ZoneID,
			ZoneIn:  time.Time(c.ZoneIn),
			ZoneOut: time.Time(c.ZoneOut),
		})
	}
	return crossings, nil
}

// DistanceFromZone returns the live device distance to a zone in km. The
// provider API has no distance command, so it is derived from the device's
// last reported position and the zone center.
func (a *SpeedotrackAdapter) DistanceFromZone(ctx context.Context, apiKey, imei, zoneID string) (float64, error) {
	devices, err := a.ListDevices(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	var device *domain.DeviceSnapshot
	for i := range devices {
		if devices[i].IMEI == imei {
			device = &devices[i]
			break
		}
	}
	if device == nil {
		return 0, fmt.Errorf("device %s not reported by provider", imei)
	}

	zones, err := a.ListZones(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	for _, zone := range zones {
		if zone.ID != zoneID {
			continue
		}
		center, err := zone.Center()
		if err != nil {
			return 0, err
		}
		return geo.DistanceKm(device.Lat, device.Lng, center.Lat, center.Lng)
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
}

// call executes one provider command and decodes the JSON response into out.
// A nil form issues a GET; otherwise the form is POSTed urlencoded.
func (a *SpeedotrackAdapter) call(ctx context.Context, apiKey, cmd string, form url.Values, out any) error {
	endpoint := fmt.Sprintf("%s?key=%s&cmd=%s", a.baseURL, url.QueryEscape(apiKey), cmd)

	var req *http.Request
	var err error
	if form == nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", cmd, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrTelemetryUnavailable, cmd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrTelemetryUnavailable, cmd, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", domain.ErrTelemetryUnavailable, cmd, err)
	}
	return nil
}

// internal structs for mapping

// stZone represents one zone in the USER_GET_ZONES response.
type stZone struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Visible     stBool  `json:"visible"`
	NameVisible stBool  `json:"name_visible"`
	Area        stFloat `json:"area"`
	Vertices    string  `json:"vertices"`
	Radius      stFloat `json:"radius"`
}

// stDevice represents one device in the USER_GET_OBJECTS response.
type stDevice struct {
	IMEI      string  `json:"imei"`
	Name      string  `json:"name"`
	Lat       stFloat `json:"lat"`
	Lng       stFloat `json:"lng"`
	Altitude  stFloat `json:"altitude"`
	Angle     stFloat `json:"angle"`
	Speed     stFloat `json:"speed"`
	Odometer  stFloat `json:"odometer"`
	DtTracker stTime  `json:"dt_tracker"`
}

// stGeneralReport represents the REPORT_GENERAL response.
type stGeneralReport struct {
	RouteStart      stTime  `json:"route_start"`
	RouteEnd        stTime  `json:"route_end"`
	RouteLength     stFloat `json:"route_length"`
	MoveDuration    stFloat `json:"move_duration"`
	StopDuration    stFloat `json:"stop_duration"`
	StopCount       stFloat `json:"stop_count"`
	TopSpeed        stFloat `json:"top_speed"`
	AvgSpeed        stFloat `json:"avg_speed"`
	OverspeedCount  stFloat `json:"overspeed_count"`
	FuelConsumption stFloat `json:"fuel_consumption"`
	EngineWork      stFloat `json:"engine_work"`
	Odometer        stFloat `json:"odometer"`
}

// stZoneCrossing represents one entry of the REPORT_ZONE_IN_OUT response.
type stZoneCrossing struct {
	ZoneID  string `json:"zone_id"`
	ZoneIn  stTime `json:"zone_in"`
	ZoneOut stTime `json:"zone_out"`
}

// stFloat tolerates the provider returning numbers as strings.
type stFloat float64

// UnmarshalJSON parses a JSON number or a quoted numeric string.
func (f *stFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = stFloat(v)
	return nil
}

// stBool tolerates the provider returning booleans as strings or 0/1.
type stBool bool

// UnmarshalJSON parses true/false, "true"/"false" and 0/1 variants.
func (v *stBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	switch s {
	case "true", "1":
		*v = true
	case "false", "0", "", "null":
		*v = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

// stTime is a custom helper struct to handle the provider's date format.
type stTime time.Time

// UnmarshalJSON parses the provider's "2006-01-02 15:04:05" datetimes.
func (t *stTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" || s == "0000-00-00 00:00:00" {
		*t = stTime(time.Time{})
		return nil
	}
	parsed, err := time.Parse(sqlDateTime, s)
	if err != nil {
		// Try RFC3339 just in case
		parsed, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		logger.Get().Warn("Failed to parse provider date", zap.String("date", s), zap.Error(err))
		return nil
	}
	*t = stTime(parsed)
	return nil
}
