package handler

import (
	"io"
	"net/http/httptest"
	"net/url"
	"testing"

	"fleet-office/internal/features/trips/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookApp(repo *stubRepo) *fiber.App {
	handler := NewWebhookHandler(service.NewLifecycleService(repo, "zone_id"))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Get("/webhook/zone-in", handler.ZoneIn)
	app.Get("/webhook/zone-out", handler.ZoneOut)
	return app
}

func webhookQuery(eventType, zoneName string) string {
	q := url.Values{}
	q.Set("imei", "356789000000001")
	q.Set("type", eventType)
	q.Set("zone_name", zoneName)
	q.Set("dt_tracker", "2024-01-02 08:00:00")
	q.Set("odometer", "100")
	q.Set("eng_hours", "50")
	return q.Encode()
}

func TestWebhookHandler_ZoneIn_AppliesEvent(t *testing.T) {
	trip := sampleTrip()
	app := newWebhookApp(newStubRepo(trip))

	req := httptest.NewRequest("GET", "/webhook/zone-in?"+webhookQuery("zone_in", "Depot A"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))

	assert.True(t, trip.TripStarted)
	assert.NotNil(t, trip.LoadingDtIn)
}

func TestWebhookHandler_ZoneOut_NoMatchStillOK(t *testing.T) {
	trip := sampleTrip()
	app := newWebhookApp(newStubRepo(trip))

	req := httptest.NewRequest("GET", "/webhook/zone-out?"+webhookQuery("zone_out", "Elsewhere"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
	assert.False(t, trip.TripStarted)
}

func TestWebhookHandler_MissingIMEI(t *testing.T) {
	app := newWebhookApp(newStubRepo())

	q := url.Values{}
	q.Set("type", "zone_in")
	q.Set("zone_name", "Depot A")
	q.Set("dt_tracker", "2024-01-02 08:00:00")
	q.Set("odometer", "100")
	q.Set("eng_hours", "50")

	req := httptest.NewRequest("GET", "/webhook/zone-in?"+q.Encode(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookHandler_WrongTypeLiteral(t *testing.T) {
	app := newWebhookApp(newStubRepo())

	// zone_out payload delivered to the zone-in endpoint
	req := httptest.NewRequest("GET", "/webhook/zone-in?"+webhookQuery("zone_out", "Depot A"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookHandler_ZoneOut_CompletesFinalLeg(t *testing.T) {
	trip := sampleTrip()
	app := newWebhookApp(newStubRepo(trip))

	req := httptest.NewRequest("GET", "/webhook/zone-out?"+webhookQuery("zone_out", "Plant B"), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.True(t, trip.TripEnded)
	assert.True(t, trip.Legs[0].Completed)
}
