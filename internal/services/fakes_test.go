package services

import (
	"sync"

	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/repositories"

	"gorm.io/gorm"
)

// In-memory repository fakes. They reproduce the store-owned behaviors the
// services depend on: gorm.ErrDuplicatedKey on the (event_id, national_id)
// unique index and gorm.ErrRecordNotFound on missing rows.

type fakeEventRepo struct {
	repositories.EventRepository

	mu          sync.Mutex
	ticketTypes map[string]*models.TicketType
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{ticketTypes: make(map[string]*models.TicketType)}
}

func (f *fakeEventRepo) addTicketType(tt *models.TicketType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketTypes[tt.ID.String()] = tt
}

func (f *fakeEventRepo) GetTicketTypeByID(id string) (*models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tt, ok := f.ticketTypes[id]; ok {
		return tt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEventRepo) GetDefaultTicketType(eventID string) (*models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tt := range f.ticketTypes {
		if tt.EventID.String() == eventID && tt.IsDefault {
			return tt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeParticipantRepo struct {
	repositories.ParticipantRepository

	mu    sync.Mutex
	byKey map[string]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{byKey: make(map[string]*models.Participant)}
}

func participantKey(eventID, nationalID string) string {
	return eventID + "/" + nationalID
}

func (f *fakeParticipantRepo) CreateParticipant(p *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := participantKey(p.EventID.String(), p.NationalID)
	if _, exists := f.byKey[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.byKey[key] = p
	return nil
}

func (f *fakeParticipantRepo) GetParticipantByNationalID(eventID, nationalID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.byKey[participantKey(eventID, nationalID)]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTicketRepo struct {
	repositories.TicketRepository

	mu   sync.Mutex
	byID map[string]*models.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: make(map[string]*models.Ticket)}
}

func (f *fakeTicketRepo) CreateTicket(t *models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[t.ID.String()] = t
	return nil
}

func (f *fakeTicketRepo) GetTicketByID(id string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTicketRepo) GetTicketsByParticipantID(participantID string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Ticket
	for _, t := range f.byID {
		if t.ParticipantID.String() == participantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateTicketStatus(id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

type fakeValidationRepo struct {
	repositories.ValidationRepository

	mu       sync.Mutex
	records  []*models.ValidationRecord
	failures int
}

func newFakeValidationRepo() *fakeValidationRepo {
	return &fakeValidationRepo{}
}

func (f *fakeValidationRepo) CreateValidationRecord(r *models.ValidationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return gorm.ErrInvalidDB
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeValidationRepo) CountValidationsByEvent(eventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, r := range f.records {
		if r.EventID.String() == eventID {
			total++
		}
	}
	return total, nil
}

func (f *fakeValidationRepo) CountValidationsBySector(eventID string) ([]repositories.SectorValidationCount, error) {
	return nil, nil
}

func (f *fakeValidationRepo) GetRecentValidations(eventID string, limit int) ([]*models.ValidationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.ValidationRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if f.records[i].EventID.String() == eventID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeValidationRepo) all() []*models.ValidationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.ValidationRecord(nil), f.records...)
}
