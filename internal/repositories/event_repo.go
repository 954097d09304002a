package repositories

import (
	"errors"
	"fmt"

	"event-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

type EventRepository interface {
	CreateEvent(event *models.Event) error
	GetEventByID(id string) (*models.Event, error)
	GetEventBySlug(slug string) (*models.Event, error)
	GetEventByBoxOfficeToken(token string) (*models.Event, error)
	GetEventByGateToken(token string) (*models.Event, error)
	ListEvents(offset, limit int) ([]models.Event, int64, error)
	UpdateEvent(event *models.Event) error

	// Sectors
	CreateSector(sector *models.Sector) error
	GetSectorByID(id string) (*models.Sector, error)
	GetSectorsByEventID(eventID string) ([]models.Sector, error)

	// Ticket types
	CreateTicketType(ticketType *models.TicketType) error
	GetTicketTypeByID(id string) (*models.TicketType, error)
	GetTicketTypesByEventID(eventID string) ([]models.TicketType, error)
	GetDefaultTicketType(eventID string) (*models.TicketType, error)
	SetDefaultTicketType(eventID, ticketTypeID string) error
	ReplaceTicketTypeSectors(ticketTypeID string, sectorIDs []string) error
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

// CreateEvent creates a new event. Uniqueness of slug and access tokens is
// owned by the store's indexes.
func (r *eventRepo) CreateEvent(event *models.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	return r.db.Create(event).Error
}

// GetEventByID retrieves an event with its sectors and ticket types
func (r *eventRepo) GetEventByID(id string) (*models.Event, error) {
	if id == "" {
		return nil, errors.New("event ID cannot be empty")
	}

	var event models.Event
	if err := r.db.
		Preload("Sectors").
		Preload("TicketTypes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_types.number ASC")
		}).
		Preload("TicketTypes.Sectors").
		Where("id = ?", id).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event not found with ID: %s", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

// GetEventBySlug retrieves an event by its public registration slug
func (r *eventRepo) GetEventBySlug(slug string) (*models.Event, error) {
	if slug == "" {
		return nil, errors.New("event slug cannot be empty")
	}

	var event models.Event
	if err := r.db.Where("slug = ?", slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event not found with slug: %s", slug)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

func (r *eventRepo) GetEventByBoxOfficeToken(token string) (*models.Event, error) {
	return r.getEventByToken("box_office_token", token)
}

func (r *eventRepo) GetEventByGateToken(token string) (*models.Event, error) {
	return r.getEventByToken("gate_token", token)
}

func (r *eventRepo) getEventByToken(column, token string) (*models.Event, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var event models.Event
	if err := r.db.Where(column+" = ?", token).First(&event).Error; err != nil {
		return nil, err
	}

	return &event, nil
}

// ListEvents retrieves a paginated list of events
func (r *eventRepo) ListEvents(offset, limit int) ([]models.Event, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var events []models.Event
	var total int64

	if err := r.db.Model(&models.Event{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	if err := r.db.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// UpdateEvent updates an existing event
func (r *eventRepo) UpdateEvent(event *models.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	var existing models.Event
	if err := r.db.Where("id = ?", event.ID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("event not found with ID: %s", event.ID)
		}
		return fmt.Errorf("failed to check event existence: %w", err)
	}

	return r.db.Save(event).Error
}

// CreateSector creates a new access zone for an event
func (r *eventRepo) CreateSector(sector *models.Sector) error {
	if sector == nil {
		return errors.New("sector cannot be nil")
	}

	var event models.Event
	if err := r.db.Where("id = ?", sector.EventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("event not found with ID: %s", sector.EventID)
		}
		return fmt.Errorf("failed to check event existence: %w", err)
	}

	return r.db.Create(sector).Error
}

// GetSectorByID retrieves a sector by its ID
func (r *eventRepo) GetSectorByID(id string) (*models.Sector, error) {
	if id == "" {
		return nil, errors.New("sector ID cannot be empty")
	}

	var sector models.Sector
	if err := r.db.Where("id = ?", id).First(&sector).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sector not found with ID: %s", id)
		}
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}

	return &sector, nil
}

// GetSectorsByEventID retrieves all sectors for an event
func (r *eventRepo) GetSectorsByEventID(eventID string) ([]models.Sector, error) {
	if eventID == "" {
		return nil, errors.New("event ID cannot be empty")
	}

	var sectors []models.Sector
	if err := r.db.
		Where("event_id = ?", eventID).
		Order("name ASC").
		Find(&sectors).Error; err != nil {
		return nil, fmt.Errorf("failed to get sectors: %w", err)
	}

	return sectors, nil
}

// CreateTicketType assigns the next sequential number for the event and
// creates the type in one transaction. The first type of an event becomes the
// default automatically. Concurrent creations race on the (event_id, number)
// unique index; the loser gets gorm.ErrDuplicatedKey and may retry.
func (r *eventRepo) CreateTicketType(ticketType *models.TicketType) error {
	if ticketType == nil {
		return errors.New("ticket type cannot be nil")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("id = ?", ticketType.EventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("event not found with ID: %s", ticketType.EventID)
			}
			return fmt.Errorf("failed to check event existence: %w", err)
		}

		var maxNumber int64
		if err := tx.Model(&models.TicketType{}).
			Where("event_id = ?", ticketType.EventID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("failed to get next ticket type number: %w", err)
		}

		ticketType.Number = int(maxNumber) + 1
		if ticketType.Number == 1 {
			ticketType.IsDefault = true
		}

		return tx.Create(ticketType).Error
	})
}

// GetTicketTypeByID retrieves a ticket type with its permitted sectors
func (r *eventRepo) GetTicketTypeByID(id string) (*models.TicketType, error) {
	if id == "" {
		return nil, errors.New("ticket type ID cannot be empty")
	}

	var ticketType models.TicketType
	if err := r.db.
		Preload("Sectors").
		Where("id = ?", id).
		First(&ticketType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ticket type not found with ID: %s", id)
		}
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}

	return &ticketType, nil
}

// GetTicketTypesByEventID retrieves all ticket types for an event
func (r *eventRepo) GetTicketTypesByEventID(eventID string) ([]models.TicketType, error) {
	if eventID == "" {
		return nil, errors.New("event ID cannot be empty")
	}

	var ticketTypes []models.TicketType
	if err := r.db.
		Preload("Sectors").
		Where("event_id = ?", eventID).
		Order("number ASC").
		Find(&ticketTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to get ticket types: %w", err)
	}

	return ticketTypes, nil
}

// GetDefaultTicketType retrieves the ticket type flagged as default for the
// event. The partial unique index guarantees at most one row matches.
func (r *eventRepo) GetDefaultTicketType(eventID string) (*models.TicketType, error) {
	if eventID == "" {
		return nil, errors.New("event ID cannot be empty")
	}

	var ticketType models.TicketType
	if err := r.db.
		Preload("Sectors").
		Where("event_id = ? AND is_default = ?", eventID, true).
		First(&ticketType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no default ticket type for event: %s", eventID)
		}
		return nil, fmt.Errorf("failed to get default ticket type: %w", err)
	}

	return &ticketType, nil
}

// SetDefaultTicketType clears the default flag on every sibling type and sets
// it on the given one, inside a single transaction so no two defaults are
// ever observable. The partial unique index backstops the invariant.
func (r *eventRepo) SetDefaultTicketType(eventID, ticketTypeID string) error {
	if eventID == "" || ticketTypeID == "" {
		return errors.New("event ID and ticket type ID cannot be empty")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var ticketType models.TicketType
		if err := tx.Where("id = ? AND event_id = ?", ticketTypeID, eventID).
			First(&ticketType).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("ticket type not found with ID: %s", ticketTypeID)
			}
			return fmt.Errorf("failed to get ticket type: %w", err)
		}

		if err := tx.Model(&models.TicketType{}).
			Where("event_id = ? AND is_default = ?", eventID, true).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("failed to clear default flag: %w", err)
		}

		return tx.Model(&models.TicketType{}).
			Where("id = ?", ticketTypeID).
			Update("is_default", true).Error
	})
}

// ReplaceTicketTypeSectors replaces the permitted sector set of a ticket type
func (r *eventRepo) ReplaceTicketTypeSectors(ticketTypeID string, sectorIDs []string) error {
	if ticketTypeID == "" {
		return errors.New("ticket type ID cannot be empty")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var ticketType models.TicketType
		if err := tx.Where("id = ?", ticketTypeID).First(&ticketType).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("ticket type not found with ID: %s", ticketTypeID)
			}
			return fmt.Errorf("failed to get ticket type: %w", err)
		}

		var sectors []models.Sector
		if len(sectorIDs) > 0 {
			if err := tx.Where("id IN ? AND event_id = ?", sectorIDs, ticketType.EventID).
				Find(&sectors).Error; err != nil {
				return fmt.Errorf("failed to load sectors: %w", err)
			}
			if len(sectors) != len(sectorIDs) {
				return errors.New("one or more sectors do not belong to the ticket type's event")
			}
		}

		return tx.Model(&ticketType).Association("Sectors").Replace(sectors)
	})
}
