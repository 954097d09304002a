// Package ledger is the append-only audit sink for admission decisions. An
// append never fails the caller: the decision already returned to the gate
// device is authoritative, so store hiccups go to a retry queue instead of
// blocking entry.
package ledger

import (
	"sync"
	"time"

	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/monitoring"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

const maxRetries = 3

type Ledger struct {
	repo  repositories.ValidationRepository
	queue chan *models.ValidationRecord
	wg    sync.WaitGroup

	closeOnce sync.Once
}

func New(repo repositories.ValidationRepository, queueLen int) *Ledger {
	if queueLen <= 0 {
		queueLen = 1024
	}

	l := &Ledger{
		repo:  repo,
		queue: make(chan *models.ValidationRecord, queueLen),
	}

	l.wg.Add(1)
	go l.retryLoop()

	return l
}

// Append writes the record synchronously and hands it to the retry worker on
// failure. The error never reaches the caller.
func (l *Ledger) Append(record *models.ValidationRecord) {
	if err := l.repo.CreateValidationRecord(record); err == nil {
		return
	} else {
		logger.WithFields(logrus.Fields{
			"ticket_id": record.TicketID,
			"event_id":  record.EventID,
			"decision":  record.Decision,
		}).WithError(err).Warn("audit append failed, queueing for retry")
	}

	monitoring.RecordLedgerRetry()

	select {
	case l.queue <- record:
	default:
		monitoring.RecordLedgerDrop()
		logger.WithField("ticket_id", record.TicketID).
			Error("audit retry queue full, record dropped")
	}
}

func (l *Ledger) retryLoop() {
	defer l.wg.Done()

	for record := range l.queue {
		var err error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			if err = l.repo.CreateValidationRecord(record); err == nil {
				break
			}
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		if err != nil {
			monitoring.RecordLedgerDrop()
			logger.WithFields(logrus.Fields{
				"ticket_id": record.TicketID,
				"event_id":  record.EventID,
			}).WithError(err).Error("audit record lost after retries")
		}
	}
}

// Close stops accepting retries and drains the queue.
func (l *Ledger) Close() {
	l.closeOnce.Do(func() {
		close(l.queue)
	})
	l.wg.Wait()
}
