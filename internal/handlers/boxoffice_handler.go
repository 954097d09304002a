package handlers

import (
	"errors"
	"time"

	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ParticipantPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	NationalID  string `json:"national_id" validate:"required"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Nationality string `json:"nationality"`
}

type IssueTicketRequest struct {
	TicketTypeID string             `json:"ticket_type_id" validate:"required,uuid"`
	Participant  ParticipantPayload `json:"participant" validate:"required"`
	ExpiresAt    *time.Time         `json:"expires_at"`
}

type IssueDefaultTicketRequest struct {
	Participant ParticipantPayload `json:"participant" validate:"required"`
	ExpiresAt   *time.Time         `json:"expires_at"`
}

// GetBoxOfficeEvent returns the event the box-office token is scoped to
// @Summary Box office event
// @Tags BoxOffice
// @Produce json
// @Success 200 {object} utils.Response
// @Router /boxoffice/event [get]
func (h *Handler) GetBoxOfficeEvent(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	event, err := h.eventSvc.GetEvent(eventID)
	if err != nil {
		return utils.Error(c, "Event not found", fiber.StatusNotFound)
	}

	return utils.Success(c, event, "Event retrieved successfully")
}

// IssueTicket registers a participant and issues a ticket of an explicit type
// @Summary Issue ticket
// @Tags BoxOffice
// @Accept json
// @Produce json
// @Param request body IssueTicketRequest true "Ticket data"
// @Success 201 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /boxoffice/tickets [post]
func (h *Handler) IssueTicket(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	var req IssueTicketRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.issuanceSvc.Issue(services.IssueRequest{
		EventID:      eventID,
		TicketTypeID: req.TicketTypeID,
		Participant:  participantFields(req.Participant),
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		return respondIssuanceError(c, err)
	}

	return issuedResponse(c, result)
}

// IssueDefaultTicket issues a ticket of the event's default type
// @Summary Issue default ticket
// @Tags BoxOffice
// @Accept json
// @Produce json
// @Param request body IssueDefaultTicketRequest true "Participant data"
// @Success 201 {object} utils.Response
// @Router /boxoffice/tickets/default [post]
func (h *Handler) IssueDefaultTicket(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	var req IssueDefaultTicketRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.issuanceSvc.IssueWithDefaultType(eventID, participantFields(req.Participant), req.ExpiresAt)
	if err != nil {
		return respondIssuanceError(c, err)
	}

	return issuedResponse(c, result)
}

// issuedResponse returns the issue result as JSON, or as the QR image itself
// when the client asked for ?format=png.
func issuedResponse(c *fiber.Ctx, result *services.IssueResult) error {
	if c.Query("format") == "png" {
		png, err := utils.GenerateQRCodePNG(result.SignedPayload, 256)
		if err != nil {
			return utils.Error(c, "Failed to render QR code", fiber.StatusInternalServerError)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Status(fiber.StatusCreated).Send(png)
	}

	return utils.Success(c, result, "Ticket issued successfully", fiber.StatusCreated)
}

// ReprintTicket re-derives the signed payload of an existing ticket without
// creating or mutating any row. With ?format=png the response body is the QR
// image itself.
// @Summary Reprint ticket
// @Tags BoxOffice
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} utils.Response
// @Router /boxoffice/tickets/{id}/reprint [post]
func (h *Handler) ReprintTicket(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	ticketID := c.Params("id")
	if _, err := uuid.Parse(ticketID); err != nil {
		return utils.Error(c, "Invalid ticket ID", fiber.StatusBadRequest)
	}

	result, err := h.issuanceSvc.Reprint(ticketID)
	if err != nil {
		return respondIssuanceError(c, err)
	}

	// A box-office token never reaches across events.
	if result.Ticket.EventID.String() != eventID {
		return utils.ErrorWithCode(c, "ticket not found", string(services.ErrUnknownTicket), fiber.StatusNotFound)
	}

	if c.Query("format") == "png" {
		png, err := utils.GenerateQRCodePNG(result.SignedPayload, 256)
		if err != nil {
			return utils.Error(c, "Failed to render QR code", fiber.StatusInternalServerError)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}

	return utils.Success(c, result, "Ticket reprinted successfully")
}

// LookupTicket resolves an existing registration by national id. Re-asking for
// a CPF that is already registered returns its ticket, it is not a conflict.
// @Summary Lookup ticket by national id
// @Tags BoxOffice
// @Produce json
// @Param national_id query string true "National ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /boxoffice/participants/lookup [get]
func (h *Handler) LookupTicket(c *fiber.Ctx) error {
	eventID, err := eventScope(c)
	if err != nil {
		return err
	}

	nationalID := c.Query("national_id")
	if nationalID == "" {
		return utils.Error(c, "national_id query parameter is required", fiber.StatusBadRequest)
	}

	result, err := h.issuanceSvc.FindTicketByNationalID(eventID, nationalID)
	if err != nil {
		return respondIssuanceError(c, err)
	}

	return utils.Success(c, result, "Ticket retrieved successfully")
}

func participantFields(p ParticipantPayload) services.ParticipantFields {
	return services.ParticipantFields{
		Name:        p.Name,
		Email:       p.Email,
		NationalID:  p.NationalID,
		Phone:       p.Phone,
		Company:     p.Company,
		Nationality: p.Nationality,
	}
}

func respondIssuanceError(c *fiber.Ctx, err error) error {
	var ierr *services.IssuanceError
	if !errors.As(err, &ierr) {
		return utils.Error(c, "Internal Server Error", fiber.StatusInternalServerError)
	}

	status := fiber.StatusInternalServerError
	switch ierr.Code {
	case services.ErrIssueValidation:
		status = fiber.StatusBadRequest
	case services.ErrDuplicateParticipant:
		status = fiber.StatusConflict
	case services.ErrUnknownTicketType, services.ErrUnknownTicket:
		status = fiber.StatusNotFound
	case services.ErrIssueDatabase:
		status = fiber.StatusInternalServerError
	}

	return utils.ErrorWithCode(c, ierr.Message, string(ierr.Code), status)
}
