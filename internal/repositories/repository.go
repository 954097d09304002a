package repositories

import (
	"event-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	DB              *gorm.DB
	EventRepo       EventRepository
	UserRepo        UserRepository
	ParticipantRepo ParticipantRepository
	TicketRepo      TicketRepository
	ValidationRepo  ValidationRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:              db,
		EventRepo:       NewEventRepository(db),
		UserRepo:        NewUserRepository(db),
		ParticipantRepo: NewParticipantRepository(db),
		TicketRepo:      NewTicketRepository(db),
		ValidationRepo:  NewValidationRepository(db),
	}
}

func AutoMigrate(db *gorm.DB) error {
	// Enable UUID extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	// Migrate models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Sector{},
		&models.TicketType{},
		&models.Participant{},
		&models.Ticket{},
		&models.ValidationRecord{},
	); err != nil {
		return err
	}

	// At most one default ticket type per event. GORM tags cannot express a
	// partial unique index, so it is created directly.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_types_event_default
		 ON ticket_types (event_id) WHERE is_default;`,
	).Error
}

// Interface definitions
type UserRepository interface {
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error
}

type ParticipantRepository interface {
	CreateParticipant(participant *models.Participant) error
	GetParticipantByID(id string) (*models.Participant, error)
	GetParticipantByNationalID(eventID, nationalID string) (*models.Participant, error)
	GetParticipantCountByEventID(eventID string) (int64, error)
	ListParticipantsByEvent(eventID string, offset, limit int) ([]models.Participant, int64, error)
}

type TicketRepository interface {
	CreateTicket(ticket *models.Ticket) error
	GetTicketByID(id string) (*models.Ticket, error)
	GetTicketByPayloadHash(hash string) (*models.Ticket, error)
	GetTicketsByParticipantID(participantID string) ([]models.Ticket, error)
	UpdateTicketStatus(id, status string) error
}

type ValidationRepository interface {
	CreateValidationRecord(record *models.ValidationRecord) error
	ListValidationsByEvent(eventID string, offset, limit int) ([]*models.ValidationRecord, int64, error)
	CountValidationsByEvent(eventID string) (int64, error)
	CountValidationsBySector(eventID string) ([]SectorValidationCount, error)
	GetRecentValidations(eventID string, limit int) ([]*models.ValidationRecord, error)
}

type SectorValidationCount struct {
	SectorID   string `json:"sector_id"`
	SectorName string `json:"sector_name"`
	Total      int64  `json:"total"`
}
