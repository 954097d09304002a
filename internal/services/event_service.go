package services

import (
	"errors"
	"time"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/utils"
	"event-ticketing-backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventService struct {
	repo *repositories.Repository
	cfg  *config.Config
}

func NewEventService(repo *repositories.Repository, cfg *config.Config) *EventService {
	return &EventService{repo: repo, cfg: cfg}
}

type CreateEventRequest struct {
	Name        string
	Description string
	Date        time.Time
}

// CreateEvent mints the three independent per-event access secrets alongside
// the event itself. The slug comes from the normalized name and backs the
// public registration URL.
func (s *EventService) CreateEvent(req CreateEventRequest) (*models.Event, error) {
	boxOfficeToken, err := utils.GenerateAccessToken()
	if err != nil {
		return nil, err
	}
	gateToken, err := utils.GenerateAccessToken()
	if err != nil {
		return nil, err
	}
	registrationToken, err := utils.GenerateAccessToken()
	if err != nil {
		return nil, err
	}

	slug := utils.Slugify(req.Name)
	if slug == "" {
		return nil, errors.New("event name does not produce a usable slug")
	}

	event := &models.Event{
		ID:                uuid.New(),
		Name:              req.Name,
		Slug:              slug,
		Description:       req.Description,
		Date:              req.Date,
		BoxOfficeToken:    boxOfficeToken,
		GateToken:         gateToken,
		RegistrationToken: registrationToken,
	}

	if err := s.repo.EventRepo.CreateEvent(event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.New("an event with this name already exists")
		}
		return nil, err
	}

	return event, nil
}

type UpdateEventRequest struct {
	Name        *string
	Description *string
	Date        *time.Time
}

// UpdateEvent applies partial changes. The slug is derived from the name once
// at creation and never changes; registration URLs in circulation stay valid.
func (s *EventService) UpdateEvent(eventID string, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.repo.EventRepo.GetEventByID(eventID)
	if err != nil {
		return nil, errors.New("event not found")
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}

	if err := s.repo.EventRepo.UpdateEvent(event); err != nil {
		return nil, err
	}

	return event, nil
}

// RotateTokens replaces the box-office and gate secrets, revoking every
// device holding the old ones.
func (s *EventService) RotateTokens(eventID string) (*models.Event, error) {
	event, err := s.repo.EventRepo.GetEventByID(eventID)
	if err != nil {
		return nil, errors.New("event not found")
	}

	if event.BoxOfficeToken, err = utils.GenerateAccessToken(); err != nil {
		return nil, err
	}
	if event.GateToken, err = utils.GenerateAccessToken(); err != nil {
		return nil, err
	}

	if err := s.repo.EventRepo.UpdateEvent(event); err != nil {
		return nil, err
	}

	logger.WithField("event_id", event.ID).Info("event access tokens rotated")
	return event, nil
}

func (s *EventService) AddSector(eventID, name string, capacity *int) (*models.Sector, error) {
	event, err := s.repo.EventRepo.GetEventByID(eventID)
	if err != nil {
		return nil, errors.New("event not found")
	}

	sector := &models.Sector{
		ID:       uuid.New(),
		EventID:  event.ID,
		Name:     name,
		Capacity: capacity,
	}

	if err := s.repo.EventRepo.CreateSector(sector); err != nil {
		return nil, err
	}

	return sector, nil
}

// AddTicketType creates an admission category. The repository assigns the
// sequential number and flags the first type of an event as default.
func (s *EventService) AddTicketType(eventID, description string, sectorIDs []string) (*models.TicketType, error) {
	event, err := s.repo.EventRepo.GetEventByID(eventID)
	if err != nil {
		return nil, errors.New("event not found")
	}

	ticketType := &models.TicketType{
		ID:          uuid.New(),
		EventID:     event.ID,
		Description: description,
	}

	if err := s.repo.EventRepo.CreateTicketType(ticketType); err != nil {
		return nil, err
	}

	if len(sectorIDs) > 0 {
		if err := s.repo.EventRepo.ReplaceTicketTypeSectors(ticketType.ID.String(), sectorIDs); err != nil {
			return nil, err
		}
	}

	return s.repo.EventRepo.GetTicketTypeByID(ticketType.ID.String())
}

func (s *EventService) GetTicketType(ticketTypeID string) (*models.TicketType, error) {
	return s.repo.EventRepo.GetTicketTypeByID(ticketTypeID)
}

func (s *EventService) SetDefaultTicketType(eventID, ticketTypeID string) error {
	return s.repo.EventRepo.SetDefaultTicketType(eventID, ticketTypeID)
}

func (s *EventService) SetTicketTypeSectors(ticketTypeID string, sectorIDs []string) (*models.TicketType, error) {
	if err := s.repo.EventRepo.ReplaceTicketTypeSectors(ticketTypeID, sectorIDs); err != nil {
		return nil, err
	}
	return s.repo.EventRepo.GetTicketTypeByID(ticketTypeID)
}

// CancelTicket is the only administrative transition out of issued. The row
// stays for audit integrity; gates deny cancelled tickets at every sector.
func (s *EventService) CancelTicket(ticketID string) (*models.Ticket, error) {
	ticket, err := s.repo.TicketRepo.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("ticket not found")
		}
		return nil, err
	}

	if ticket.Status == models.TicketStatusCancelled {
		return ticket, nil // already cancelled, idempotent
	}

	if err := s.repo.TicketRepo.UpdateTicketStatus(ticketID, models.TicketStatusCancelled); err != nil {
		return nil, err
	}

	ticket.Status = models.TicketStatusCancelled
	logger.WithField("ticket_id", ticket.ID).Info("ticket cancelled")
	return ticket, nil
}

func (s *EventService) GetEvent(id string) (*models.Event, error) {
	return s.repo.EventRepo.GetEventByID(id)
}

func (s *EventService) GetEventBySlug(slug string) (*models.Event, error) {
	return s.repo.EventRepo.GetEventBySlug(slug)
}

func (s *EventService) ListEvents(page, pageSize int) ([]models.Event, int64, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	events, total, err := s.repo.EventRepo.ListEvents(offset, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return events, total, totalPages, nil
}

func (s *EventService) ListParticipants(eventID string, page, pageSize int) ([]models.Participant, int64, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	participants, total, err := s.repo.ParticipantRepo.ListParticipantsByEvent(eventID, offset, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return participants, total, totalPages, nil
}

func (s *EventService) ListValidations(eventID string, page, pageSize int) ([]*models.ValidationRecord, int64, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	records, total, err := s.repo.ValidationRepo.ListValidationsByEvent(eventID, offset, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return records, total, totalPages, nil
}
