package handlers

import (
	"crypto/subtle"

	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type SelfRegisterRequest struct {
	Participant ParticipantPayload `json:"participant" validate:"required"`
}

// GetRegistrationInfo returns the public registration view of an event. The
// registration token travels in the shared URL, so it arrives as a query
// parameter rather than a header.
// @Summary Registration page data
// @Tags Registration
// @Produce json
// @Param slug path string true "Event slug"
// @Param token query string true "Registration token"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /register/{slug} [get]
func (h *Handler) GetRegistrationInfo(c *fiber.Ctx) error {
	event, err := h.registrationEvent(c)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.Map{
		"name":        event.Name,
		"slug":        event.Slug,
		"description": event.Description,
		"date":        event.Date,
	}, "Event retrieved successfully")
}

// SelfRegister issues a default-type ticket from the public registration form.
// The same duplicate arbitration as the box office applies: one ticket per
// national id per event, whichever entry point gets there first.
// @Summary Public self-registration
// @Tags Registration
// @Accept json
// @Produce json
// @Param slug path string true "Event slug"
// @Param token query string true "Registration token"
// @Param request body SelfRegisterRequest true "Participant data"
// @Success 201 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /register/{slug} [post]
func (h *Handler) SelfRegister(c *fiber.Ctx) error {
	event, err := h.registrationEvent(c)
	if err != nil {
		return err
	}

	var req SelfRegisterRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.issuanceSvc.IssueWithDefaultType(event.ID.String(), participantFields(req.Participant), nil)
	if err != nil {
		return respondIssuanceError(c, err)
	}

	return utils.Success(c, result, "Registration completed", fiber.StatusCreated)
}

func (h *Handler) registrationEvent(c *fiber.Ctx) (*models.Event, error) {
	event, err := h.eventSvc.GetEventBySlug(c.Params("slug"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "event not found")
	}

	token := c.Query("token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(event.RegistrationToken)) != 1 {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid registration token")
	}

	return event, nil
}
