package ledger

import (
	"sync"
	"testing"

	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type stubValidationRepo struct {
	repositories.ValidationRepository

	mu       sync.Mutex
	records  []*models.ValidationRecord
	failures int
}

func (s *stubValidationRepo) CreateValidationRecord(r *models.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return gorm.ErrInvalidDB
	}
	s.records = append(s.records, r)
	return nil
}

func (s *stubValidationRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func record() *models.ValidationRecord {
	return &models.ValidationRecord{
		ID:       uuid.New(),
		TicketID: uuid.New(),
		EventID:  uuid.New(),
		SectorID: uuid.New(),
		DeviceID: "gate-01",
		Decision: models.DecisionGranted,
	}
}

func TestLedger_AppendPersistsSynchronously(t *testing.T) {
	repo := &stubValidationRepo{}
	l := New(repo, 8)

	l.Append(record())
	assert.Equal(t, 1, repo.count())

	l.Close()
}

func TestLedger_AppendFailureDoesNotReachCaller(t *testing.T) {
	repo := &stubValidationRepo{failures: 1}
	l := New(repo, 8)

	// The failed append is queued and retried in the background; the caller
	// sees nothing either way.
	l.Append(record())
	l.Close()

	assert.Equal(t, 1, repo.count())
}

func TestLedger_EveryAppendBecomesOneRecord(t *testing.T) {
	repo := &stubValidationRepo{}
	l := New(repo, 8)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(record())
		}()
	}
	wg.Wait()
	l.Close()

	assert.Equal(t, n, repo.count())
}

func TestLedger_CloseIsIdempotent(t *testing.T) {
	repo := &stubValidationRepo{}
	l := New(repo, 8)

	l.Close()
	l.Close()
}
