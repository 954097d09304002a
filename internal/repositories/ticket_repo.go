package repositories

import (
	"event-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

type ticketRepo struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) CreateTicket(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

func (r *ticketRepo) GetTicketByID(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.
		Preload("TicketType").
		Preload("TicketType.Sectors").
		Preload("Participant").
		Where("id = ?", id).
		First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepo) GetTicketByPayloadHash(hash string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.
		Preload("TicketType").
		Preload("TicketType.Sectors").
		Preload("Participant").
		Where("payload_hash = ?", hash).
		First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepo) GetTicketsByParticipantID(participantID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := r.db.
		Preload("TicketType").
		Where("participant_id = ?", participantID).
		Order("issued_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepo) UpdateTicketStatus(id, status string) error {
	result := r.db.Model(&models.Ticket{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
