package repositories

import (
	"event-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

type participantRepo struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepo{db: db}
}

// CreateParticipant inserts without a prior existence check. The compound
// unique index on (event_id, national_id) is the sole arbiter of duplicates;
// callers inspect the error for gorm.ErrDuplicatedKey.
func (r *participantRepo) CreateParticipant(participant *models.Participant) error {
	return r.db.Create(participant).Error
}

func (r *participantRepo) GetParticipantByID(id string) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.Where("id = ?", id).First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) GetParticipantByNationalID(eventID, nationalID string) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.Where("event_id = ? AND national_id = ?", eventID, nationalID).
		First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) GetParticipantCountByEventID(eventID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Participant{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *participantRepo) ListParticipantsByEvent(eventID string, offset, limit int) ([]models.Participant, int64, error) {
	var participants []models.Participant
	var total int64

	if err := r.db.Model(&models.Participant{}).Where("event_id = ?", eventID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Where("event_id = ?", eventID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&participants).Error; err != nil {
		return nil, 0, err
	}

	return participants, total, nil
}
