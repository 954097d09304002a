package handlers

import (
	"strconv"
	"time"

	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,min=1,max=200"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
}

type AddSectorRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Capacity *int   `json:"capacity"`
}

type AddTicketTypeRequest struct {
	Description string   `json:"description" validate:"required,min=1,max=100"`
	SectorIDs   []string `json:"sector_ids" validate:"dive,uuid"`
}

type SetSectorsRequest struct {
	SectorIDs []string `json:"sector_ids" validate:"required,dive,uuid"`
}

// CreateEvent creates an event with its three access secrets
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "Event data"
// @Success 201 {object} utils.Response
// @Router /admin/events [post]
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var req CreateEventRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	event, err := h.eventSvc.CreateEvent(services.CreateEventRequest{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	// The creation response is the only place the access tokens are shown.
	return utils.Success(c, fiber.Map{
		"event":              event,
		"box_office_token":   event.BoxOfficeToken,
		"gate_token":         event.GateToken,
		"registration_token": event.RegistrationToken,
	}, "Event created successfully", fiber.StatusCreated)
}

// ListEvents returns a paginated list of events
func (h *Handler) ListEvents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	events, total, totalPages, err := h.eventSvc.ListEvents(page, pageSize)
	if err != nil {
		return utils.Error(c, "Failed to fetch events", fiber.StatusInternalServerError)
	}

	meta := &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}

	return utils.SuccessWithMeta(c, events, meta, "Events retrieved successfully")
}

// GetEvent returns one event with sectors and ticket types
func (h *Handler) GetEvent(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	event, err := h.eventSvc.GetEvent(eventID)
	if err != nil {
		return utils.Error(c, "Event not found", fiber.StatusNotFound)
	}

	return utils.Success(c, event, "Event retrieved successfully")
}

// UpdateEvent applies partial changes to an event
func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	var req UpdateEventRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	event, err := h.eventSvc.UpdateEvent(eventID, services.UpdateEventRequest{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, event, "Event updated successfully")
}

// RotateTokens replaces the box-office and gate secrets for an event
func (h *Handler) RotateTokens(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	event, err := h.eventSvc.RotateTokens(eventID)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, fiber.Map{
		"box_office_token": event.BoxOfficeToken,
		"gate_token":       event.GateToken,
	}, "Tokens rotated successfully")
}

// AddSector adds an access zone to an event
func (h *Handler) AddSector(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	var req AddSectorRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	sector, err := h.eventSvc.AddSector(eventID, req.Name, req.Capacity)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, sector, "Sector created successfully", fiber.StatusCreated)
}

// AddTicketType adds an admission category to an event
func (h *Handler) AddTicketType(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	var req AddTicketTypeRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	ticketType, err := h.eventSvc.AddTicketType(eventID, req.Description, req.SectorIDs)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, ticketType, "Ticket type created successfully", fiber.StatusCreated)
}

// SetDefaultTicketType flags one ticket type as the event default, clearing
// the flag on every sibling in the same transaction
func (h *Handler) SetDefaultTicketType(c *fiber.Ctx) error {
	ticketTypeID := c.Params("id")
	if _, err := uuid.Parse(ticketTypeID); err != nil {
		return utils.Error(c, "Invalid ticket type ID", fiber.StatusBadRequest)
	}

	ticketType, err := h.eventSvc.GetTicketType(ticketTypeID)
	if err != nil {
		return utils.Error(c, "Ticket type not found", fiber.StatusNotFound)
	}

	if err := h.eventSvc.SetDefaultTicketType(ticketType.EventID.String(), ticketTypeID); err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, nil, "Default ticket type updated")
}

// SetTicketTypeSectors replaces the permitted sector set of a ticket type
func (h *Handler) SetTicketTypeSectors(c *fiber.Ctx) error {
	ticketTypeID := c.Params("id")
	if _, err := uuid.Parse(ticketTypeID); err != nil {
		return utils.Error(c, "Invalid ticket type ID", fiber.StatusBadRequest)
	}

	var req SetSectorsRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	ticketType, err := h.eventSvc.SetTicketTypeSectors(ticketTypeID, req.SectorIDs)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	return utils.Success(c, ticketType, "Sector permissions updated")
}

// CancelTicket transitions a ticket to cancelled; gates will deny it at
// every sector from then on
func (h *Handler) CancelTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	if _, err := uuid.Parse(ticketID); err != nil {
		return utils.Error(c, "Invalid ticket ID", fiber.StatusBadRequest)
	}

	ticket, err := h.eventSvc.CancelTicket(ticketID)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusNotFound)
	}

	return utils.Success(c, ticket, "Ticket cancelled")
}

// ListParticipants returns paginated participants for an event
func (h *Handler) ListParticipants(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	participants, total, totalPages, err := h.eventSvc.ListParticipants(eventID, page, pageSize)
	if err != nil {
		return utils.Error(c, "Failed to fetch participants", fiber.StatusInternalServerError)
	}

	meta := &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}

	return utils.SuccessWithMeta(c, participants, meta, "Participants retrieved successfully")
}

// ListValidations returns the paginated admission audit trail for an event
func (h *Handler) ListValidations(c *fiber.Ctx) error {
	eventID := c.Params("id")
	if _, err := uuid.Parse(eventID); err != nil {
		return utils.Error(c, "Invalid event ID", fiber.StatusBadRequest)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	records, total, totalPages, err := h.eventSvc.ListValidations(eventID, page, pageSize)
	if err != nil {
		return utils.Error(c, "Failed to fetch validations", fiber.StatusInternalServerError)
	}

	meta := &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}

	return utils.SuccessWithMeta(c, records, meta, "Validations retrieved successfully")
}
