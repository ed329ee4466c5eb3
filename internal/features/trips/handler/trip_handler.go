package handler

import (
	"errors"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/auth"
	teledomain "fleet-office/internal/features/telemetry/domain"
	"fleet-office/internal/features/trips/domain"
	"fleet-office/internal/features/trips/ports"
	"fleet-office/internal/features/trips/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TripHandler handles HTTP requests for trip CRUD.
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{
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

// CreateTrip godoc
// @Summary Create a trip
// @Description Creates a trip plan. Every referenced zone is resolved against the tracking provider and snapshotted; an unresolvable zone aborts creation.
// @Tags trips
// @Accept json
// @Produce json
// @Param trip body service.CreateTripInput true "Trip plan"
// @Success 201 {object} domain.Trip
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /trips [post]
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	var input service.CreateTripInput
	if err := c.BodyParser(&input); err != nil {
		return replyError(c, fiber.StatusBadRequest, "invalid request body")
	}

	principal := auth.FromCtx(c)
	trip, err := h.service.Create(c.Context(), principal.UserID, principal.TelemetryKey, input)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(trip)
}

// ListTrips godoc
// @Summary List trips
// @Description Pages through the caller's trips, newest first.
// @Tags trips
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param rows query int false "Rows per page" default(10)
// @Param search query string false "Substring match on vehicle, driver, or imei"
// @Success 200 {object} paging.Page[domain.Trip]
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /trips [get]
func (h *TripHandler) ListTrips(c *fiber.Ctx) error {
	principal := auth.FromCtx(c)
	page, err := h.service.List(c.Context(), ports.ListFilter{
		UserID: principal.UserID,
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("rows", 10),
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(page)
}

// GetTrip godoc
// @Summary Get one trip
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} domain.Trip
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /trips/{id} [get]
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	trip, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(trip)
}

// UpdateTrip godoc
// @Summary Update trip metadata
// @Description Rewrites business metadata and planning fields. Lifecycle milestones are webhook-owned and cannot be edited here.
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param trip body service.UpdateTripInput true "New metadata"
// @Success 200 {object} domain.Trip
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	var input service.UpdateTripInput
	if err := c.BodyParser(&input); err != nil {
		return replyError(c, fiber.StatusBadRequest, "invalid request body")
	}

	trip, err := h.service.Update(c.Context(), c.Params("id"), input)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(trip)
}

// DeleteTrip godoc
// @Summary Delete a trip
// @Description Administrative removal. Trips are never deleted automatically.
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "trip deleted"})
}

func (h *TripHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return replyError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTripNotFound), errors.Is(err, teledomain.ErrZoneNotFound):
		return replyError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, teledomain.ErrAuthKeyMissing):
		return replyError(c, fiber.StatusForbidden, "tracking provider API key not configured for this account")
	case errors.Is(err, teledomain.ErrTelemetryUnavailable):
		return replyError(c, fiber.StatusBadGateway, "tracking provider unavailable")
	default:
		logger.Get().Error("trip request failed", zap.Error(err))
		return replyError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func replyError(c *fiber.Ctx, status int, message string) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(ErrorResponse{Message: message, RayID: rayID})
}
