package handlers

import (
	"errors"

	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ValidateAdmissionRequest struct {
	SignedPayload string `json:"signed_payload" validate:"required"`
	SectorID      string `json:"sector_id" validate:"required,uuid"`
	DeviceID      string `json:"device_id"`
}

type CheckInRequest struct {
	TicketID string `json:"ticket_id" validate:"required,uuid"`
	SectorID string `json:"sector_id" validate:"required,uuid"`
	DeviceID string `json:"device_id"`
}

// ValidateAdmission runs the grant/deny decision for one scanned payload. The
// decision document comes back unwrapped so gate devices can branch on it
// directly: 200 for granted, 403 for denied.
// @Summary Validate admission payload
// @Tags Gate
// @Accept json
// @Produce json
// @Param request body ValidateAdmissionRequest true "Scan data"
// @Success 200 {object} services.Decision
// @Failure 403 {object} services.Decision
// @Router /gate/validate [post]
func (h *Handler) ValidateAdmission(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	var req ValidateAdmissionRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	decision, err := h.admissionSvc.Validate(services.ValidateRequest{
		EventID:       eventID,
		SignedPayload: req.SignedPayload,
		SectorID:      req.SectorID,
		DeviceID:      req.DeviceID,
	})
	if err != nil {
		return respondAdmissionError(c, err)
	}

	status := fiber.StatusOK
	if !decision.Granted {
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(decision)
}

// RecordCheckIn persists a manual check-in when scanning is not possible
// @Summary Record manual check-in
// @Tags Gate
// @Accept json
// @Produce json
// @Param request body CheckInRequest true "Check-in data"
// @Success 201 {object} utils.Response
// @Router /gate/checkins [post]
func (h *Handler) RecordCheckIn(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	var req CheckInRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.admissionSvc.RecordCheckIn(eventID, req.TicketID, req.SectorID, req.DeviceID)
	if err != nil {
		return respondAdmissionError(c, err)
	}

	return utils.Success(c, result, "Check-in recorded", fiber.StatusCreated)
}

// GateStats summarizes validation activity for the gate dashboard
// @Summary Gate statistics
// @Tags Gate
// @Produce json
// @Success 200 {object} utils.Response
// @Router /gate/stats [get]
func (h *Handler) GateStats(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	stats, err := h.admissionSvc.Stats(eventID)
	if err != nil {
		return respondAdmissionError(c, err)
	}

	return utils.Success(c, stats, "Statistics retrieved successfully")
}

func respondAdmissionError(c *fiber.Ctx, err error) error {
	var aerr *services.AdmissionError
	if !errors.As(err, &aerr) {
		return utils.Error(c, "Internal Server Error", fiber.StatusInternalServerError)
	}

	status := fiber.StatusInternalServerError
	switch aerr.Code {
	case services.ErrInvalidCredential, services.ErrPayloadExpired:
		status = fiber.StatusForbidden
	case services.ErrTicketNotFound:
		status = fiber.StatusNotFound
	case services.ErrAdmissionValidation:
		status = fiber.StatusBadRequest
	case services.ErrAdmissionDatabase:
		status = fiber.StatusInternalServerError
	}

	return utils.ErrorWithCode(c, aerr.Message, string(aerr.Code), status)
}
