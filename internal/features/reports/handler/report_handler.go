package handler

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fleet-office/internal/core/logger"
	"fleet-office/internal/features/auth"
	"fleet-office/internal/features/reports/domain"
	"fleet-office/internal/features/reports/service"
	teledomain "fleet-office/internal/features/telemetry/domain"
	tripdomain "fleet-office/internal/features/trips/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReportHandler handles HTTP requests for trip reports.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{
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

// ReportRequest selects the trips and mode for a report.
type ReportRequest struct {
	// IDs lists the trips to report on.
	IDs []string `json:"ids"`
	// Verified switches to provider-verified mode; SpeedLimit and
	// StopDurationMin are then required.
	Verified        bool    `json:"verified"`
	SpeedLimit      float64 `json:"speed_limit"`
	StopDurationMin int64   `json:"stop_duration"`
}

// ExportResponse points at a generated spreadsheet.
type ExportResponse struct {
	ID   string `json:"id"`
	File string `json:"file"`
	URL  string `json:"url"`
}

// GetReport godoc
// @Summary Generate a trip report
// @Description Returns one row per requested trip. Self-contained mode uses stored milestones; verified mode cross-checks against the tracking provider and requires speed_limit and stop_duration.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body ReportRequest true "Trips and mode"
// @Success 200 {array} domain.Row
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /trip/report [post]
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	rows, err := h.synthesize(c)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(rows)
}

// ExportReport godoc
// @Summary Generate and download a trip report spreadsheet
// @Description Builds the report, writes an .xlsx file, persists the artifact record, and returns a download URL.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body ReportRequest true "Trips and mode"
// @Success 200 {object} ExportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /trip/report/excel [post]
func (h *ReportHandler) ExportReport(c *fiber.Ctx) error {
	rows, err := h.synthesize(c)
	if err != nil {
		return h.mapError(c, err)
	}

	principal := auth.FromCtx(c)
	artifact, err := h.service.Export(c.Context(), principal.UserID, rows)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(ExportResponse{
		ID:   artifact.ID,
		File: artifact.File,
		URL:  "/downloads/" + filepath.Base(artifact.File),
	})
}

// ListReports godoc
// @Summary List generated reports
// @Tags reports
// @Produce json
// @Success 200 {array} domain.Artifact
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /trip/reports [get]
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	principal := auth.FromCtx(c)
	artifacts, err := h.service.Artifacts(c.Context(), principal.UserID)
	if err != nil {
		return h.mapError(c, err)
	}
	if artifacts == nil {
		artifacts = []domain.Artifact{}
	}
	return c.JSON(artifacts)
}

func (h *ReportHandler) synthesize(c *fiber.Ctx) ([]*domain.Row, error) {
	var req ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, tripdomain.ErrValidation
	}
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("%w: ids is required", tripdomain.ErrValidation)
	}

	principal := auth.FromCtx(c)
	if !req.Verified {
		return h.service.SelfContained(c.Context(), principal.TelemetryKey, req.IDs)
	}

	if req.SpeedLimit <= 0 || req.StopDurationMin <= 0 {
		return nil, fmt.Errorf("%w: speed_limit and stop_duration are required in verified mode", tripdomain.ErrValidation)
	}
	return h.service.Verified(c.Context(), principal.TelemetryKey, req.IDs,
		req.SpeedLimit, time.Duration(req.StopDurationMin)*time.Minute)
}

func (h *ReportHandler) mapError(c *fiber.Ctx, err error) error {
	rayID, _ := c.Locals("requestid").(string)
	reply := func(status int, message string) error {
		return c.Status(status).JSON(ErrorResponse{Message: message, RayID: rayID})
	}

	switch {
	case errors.Is(err, tripdomain.ErrValidation):
		return reply(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, tripdomain.ErrTripNotFound), errors.Is(err, domain.ErrReportNotFound):
		return reply(fiber.StatusNotFound, err.Error())
	case errors.Is(err, teledomain.ErrAuthKeyMissing):
		return reply(fiber.StatusForbidden, "tracking provider API key not configured for this account")
	case errors.Is(err, domain.ErrInconsistentReportData):
		return reply(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, teledomain.ErrTelemetryUnavailable):
		return reply(fiber.StatusBadGateway, "tracking provider unavailable")
	default:
		logger.Get().Error("report request failed", zap.Error(err), zap.String("ray_id", rayID))
		return reply(fiber.StatusInternalServerError, "internal server error")
	}
}
