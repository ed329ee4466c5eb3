package handler

import (
	"errors"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/features/trips/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookHandler receives zone-crossing notifications from the tracking
// provider. The provider delivers them as GET requests with query-string
// payloads and expects a plain "OK" body.
type WebhookHandler struct {
	lifecycle *service.LifecycleService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(lifecycle *service.LifecycleService) *WebhookHandler {
	return &WebhookHandler{
		lifecycle: lifecycle,
	}
}

// ZoneIn godoc
// @Summary Zone entry webhook
// @Description Provider callback fired when a device enters a zone. Matching zero trips is still a success.
// @Tags webhooks
// @Produce plain
// @Param imei query string true "Device IMEI"
// @Param type query string true "Must be zone_in"
// @Param zone_name query string true "Zone display name"
// @Param zone_id query string false "Zone id, when the provider sends one"
// @Param dt_tracker query string true "Event time, YYYY-MM-DD HH:MM:SS"
// @Param odometer query number true "Odometer reading"
// @Param eng_hours query number true "Engine hours reading"
// @Success 200 {string} string "OK"
// @Failure 400 {object} ErrorResponse
// @Router /webhooks/zone-in [get]
func (h *WebhookHandler) ZoneIn(c *fiber.Ctx) error {
	return h.handle(c, domain.ZoneEntered)
}

// ZoneOut godoc
// @Summary Zone exit webhook
// @Description Provider callback fired when a device leaves a zone. Matching zero trips is still a success.
// @Tags webhooks
// @Produce plain
// @Param imei query string true "Device IMEI"
// @Param type query string true "Must be zone_out"
// @Param zone_name query string true "Zone display name"
// @Param zone_id query string false "Zone id, when the provider sends one"
// @Param dt_tracker query string true "Event time, YYYY-MM-DD HH:MM:SS"
// @Param odometer query number true "Odometer reading"
// @Param eng_hours query number true "Engine hours reading"
// @Success 200 {string} string "OK"
// @Failure 400 {object} ErrorResponse
// @Router /webhooks/zone-out [get]
func (h *WebhookHandler) ZoneOut(c *fiber.Ctx) error {
	return h.handle(c, domain.ZoneExited)
}

func (h *WebhookHandler) handle(c *fiber.Ctx, kind domain.EventKind) error {
	event, err := domain.ParseZoneEvent(kind, func(key string) string {
		return c.Query(key)
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return replyError(c, fiber.StatusBadRequest, err.Error())
		}
		return replyError(c, fiber.StatusInternalServerError, "internal server error")
	}

	if err := h.lifecycle.HandleZoneEvent(c.Context(), event); err != nil {
		logger.Get().Error("zone event failed",
			zap.String("kind", string(kind)),
			zap.String("imei", event.IMEI),
			zap.Error(err))
		return replyError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.SendString("OK")
}
