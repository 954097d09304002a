package repositories

import (
	"event-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

type validationRepo struct {
	db *gorm.DB
}

func NewValidationRepository(db *gorm.DB) ValidationRepository {
	return &validationRepo{db: db}
}

// CreateValidationRecord appends one entry. Records are never updated or
// deleted; RecordedAt defaults to the store clock when unset.
func (r *validationRepo) CreateValidationRecord(record *models.ValidationRecord) error {
	return r.db.Create(record).Error
}

func (r *validationRepo) ListValidationsByEvent(eventID string, offset, limit int) ([]*models.ValidationRecord, int64, error) {
	var records []*models.ValidationRecord
	var total int64

	if err := r.db.Model(&models.ValidationRecord{}).
		Where("event_id = ?", eventID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.
		Preload("Ticket").
		Preload("Ticket.Participant").
		Where("event_id = ?", eventID).
		Offset(offset).Limit(limit).
		Order("recorded_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *validationRepo) CountValidationsByEvent(eventID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ValidationRecord{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *validationRepo) CountValidationsBySector(eventID string) ([]SectorValidationCount, error) {
	var counts []SectorValidationCount
	if err := r.db.Model(&models.ValidationRecord{}).
		Select("validation_records.sector_id, sectors.name AS sector_name, COUNT(*) AS total").
		Joins("LEFT JOIN sectors ON sectors.id = validation_records.sector_id").
		Where("validation_records.event_id = ?", eventID).
		Group("validation_records.sector_id, sectors.name").
		Order("total DESC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *validationRepo) GetRecentValidations(eventID string, limit int) ([]*models.ValidationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var records []*models.ValidationRecord
	if err := r.db.
		Preload("Ticket").
		Preload("Ticket.Participant").
		Where("event_id = ?", eventID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
