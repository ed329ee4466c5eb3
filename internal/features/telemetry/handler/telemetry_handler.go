package handler

import (
	"errors"
	"strings"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/auth"
	"fleet-office/internal/features/telemetry/domain"
	"fleet-office/internal/features/telemetry/service"
	"fleet-office/internal/shared/paging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TelemetryHandler handles HTTP requests for provider zones and devices.
type TelemetryHandler struct {
	service *service.TelemetryService
}

// NewTelemetryHandler creates a new TelemetryHandler.
func NewTelemetryHandler(service *service.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{
		service: service,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// GetUserZones godoc
// @Summary List the caller's geofence zones
// @Description Lists zones defined on the tracking provider for the caller's account, paginated.
// @Tags telemetry
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param rows query int false "Rows per page" default(10)
// @Param sort query string false "Sort field (name or id)" default(name)
// @Param sort_order query string false "asc or desc" default(asc)
// @Param search query string false "Substring match on zone name"
// @Success 200 {object} paging.Page[domain.Zone]
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /zones [get]
func (h *TelemetryHandler) GetUserZones(c *fiber.Ctx) error {
	zones, err := h.service.Zones(c.Context(), telemetryKey(c))
	if err != nil {
		return h.replyError(c, err)
	}

	less := zoneLess(c.Query("sort", "name"), c.Query("sort_order", "asc"))
	var filter func(domain.Zone) bool
	if search := c.Query("search"); search != "" {
		needle := strings.ToLower(search)
		filter = func(z domain.Zone) bool {
			return strings.Contains(strings.ToLower(z.Name), needle)
		}
	}

	page, ok := paging.Query(zones, c.QueryInt("page", 1), c.QueryInt("rows", 10), less, filter)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "page limit reached"})
	}
	return c.JSON(page)
}

// GetUserDevices godoc
// @Summary List the caller's tracked devices
// @Description Lists last-known device snapshots from the tracking provider, paginated.
// @Tags telemetry
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param rows query int false "Rows per page" default(10)
// @Param sort query string false "Sort field (name or imei)" default(name)
// @Param sort_order query string false "asc or desc" default(asc)
// @Param search query string false "Substring match on device name or imei"
// @Success 200 {object} paging.Page[domain.DeviceSnapshot]
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /devices [get]
func (h *TelemetryHandler) GetUserDevices(c *fiber.Ctx) error {
	devices, err := h.service.Devices(c.Context(), telemetryKey(c))
	if err != nil {
		return h.replyError(c, err)
	}

	less := deviceLess(c.Query("sort", "name"), c.Query("sort_order", "asc"))
	var filter func(domain.DeviceSnapshot) bool
	if search := c.Query("search"); search != "" {
		needle := strings.ToLower(search)
		filter = func(d domain.DeviceSnapshot) bool {
			return strings.Contains(strings.ToLower(d.Name), needle) ||
				strings.Contains(d.IMEI, needle)
		}
	}

	page, ok := paging.Query(devices, c.QueryInt("page", 1), c.QueryInt("rows", 10), less, filter)
	if !ok {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "page limit reached"})
	}
	return c.JSON(page)
}

// telemetryKey reads the provider credential off the authenticated principal.
// Empty when absent; the service turns that into ErrAuthKeyMissing.
func telemetryKey(c *fiber.Ctx) string {
	if principal := auth.FromCtx(c); principal != nil {
		return principal.TelemetryKey
	}
	return ""
}

func (h *TelemetryHandler) replyError(c *fiber.Ctx, err error) error {
	rayID, _ := c.Locals("requestid").(string)

	switch {
	case errors.Is(err, domain.ErrAuthKeyMissing):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Message: "tracking provider API key not configured for this account",
			RayID:   rayID,
		})
	case errors.Is(err, domain.ErrTelemetryUnavailable):
		logger.Get().Warn("provider listing failed", zap.Error(err), zap.String("ray_id", rayID))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: "tracking provider unavailable",
			RayID:   rayID,
		})
	default:
		logger.Get().Error("provider listing failed", zap.Error(err), zap.String("ray_id", rayID))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: "internal server error",
			RayID:   rayID,
		})
	}
}

func zoneLess(field, order string) func(a, b domain.Zone) bool {
	desc := order == "desc"
	return func(a, b domain.Zone) bool {
		if desc {
			a, b = b, a
		}
		switch field {
		case "id":
			return a.ID < b.ID
		default:
			return a.Name < b.Name
		}
	}
}

func deviceLess(field, order string) func(a, b domain.DeviceSnapshot) bool {
	desc := order == "desc"
	return func(a, b domain.DeviceSnapshot) bool {
		if desc {
			a, b = b, a
		}
		switch field {
		case "imei":
			return a.IMEI < b.IMEI
		default:
			return a.Name < b.Name
		}
	}
}
