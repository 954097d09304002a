package services

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing-backend/internal/ledger"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/monitoring"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/signing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdmissionService decides grant/deny per gate scan and appends the audit
// trail. Tickets are sector-gated, not single-use: a grant does not consume
// the ticket, and re-entry to the same sector is the normal case.
type AdmissionService struct {
	ticketRepo     repositories.TicketRepository
	validationRepo repositories.ValidationRepository
	auditLedger    *ledger.Ledger
	codec          *signing.Codec
}

func NewAdmissionService(
	ticketRepo repositories.TicketRepository,
	validationRepo repositories.ValidationRepository,
	auditLedger *ledger.Ledger,
	codec *signing.Codec,
) *AdmissionService {
	return &AdmissionService{
		ticketRepo:     ticketRepo,
		validationRepo: validationRepo,
		auditLedger:    auditLedger,
		codec:          codec,
	}
}

type ValidateRequest struct {
	// EventID is asserted by the gate credential, never by the scanned payload.
	EventID       string
	SignedPayload string
	SectorID      string
	DeviceID      string
}

type ParticipantSnapshot struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
}

type Decision struct {
	Granted     bool                 `json:"granted"`
	Reason      string               `json:"reason,omitempty"`
	TicketID    string               `json:"ticket_id,omitempty"`
	TicketType  string               `json:"ticket_type,omitempty"`
	Participant *ParticipantSnapshot `json:"participant,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type CheckInResult struct {
	CheckInID string    `json:"checkin_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate runs the admission decision for one scan. Every decision on a
// known ticket, granted or denied, appends exactly one validation record;
// the denied path is a product requirement (abuse detection), never skipped.
// Scans that fail before a ticket is identified (bad signature, cross-event
// payload, unknown id) have no ticket row to reference and are rejected as
// terminal errors instead.
func (s *AdmissionService) Validate(req ValidateRequest) (*Decision, error) {
	claims, err := s.codec.Verify(req.SignedPayload)
	if err != nil {
		if errors.Is(err, signing.ErrExpired) {
			return nil, NewAdmissionError("admission payload has expired", ErrPayloadExpired, err)
		}
		return nil, NewAdmissionError("admission payload is invalid", ErrInvalidCredential, err)
	}

	// A gate credential from one event must never accept another event's
	// tickets, even with a valid MAC.
	if claims.EventID.String() != req.EventID {
		return nil, NewAdmissionError("payload does not belong to this event", ErrInvalidCredential, nil)
	}

	sectorID, err := uuid.Parse(req.SectorID)
	if err != nil {
		return nil, NewAdmissionError("invalid sector ID", ErrAdmissionValidation, err)
	}

	ticket, err := s.ticketRepo.GetTicketByID(claims.TicketID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewAdmissionError("ticket not found", ErrTicketNotFound, err)
		}
		return nil, NewAdmissionError("failed to load ticket", ErrAdmissionDatabase, err)
	}

	if ticket.EventID != claims.EventID {
		return nil, NewAdmissionError("payload does not belong to this event", ErrInvalidCredential, nil)
	}

	if ticket.Status == models.TicketStatusCancelled {
		return s.deny(ticket, sectorID, req.DeviceID, models.ReasonTicketCancelled), nil
	}

	if !sectorPermitted(&ticket.TicketType, sectorID) {
		return s.deny(ticket, sectorID, req.DeviceID, models.ReasonSectorNotPermitted), nil
	}

	return s.grant(ticket, sectorID, req.DeviceID), nil
}

// RecordCheckIn is the manual check-in path for gate operators when a scan is
// not possible. Unlike Validate, the append is synchronous because the caller
// needs the record's identity back.
func (s *AdmissionService) RecordCheckIn(eventID, ticketID, sectorID, deviceID string) (*CheckInResult, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewAdmissionError("ticket not found", ErrTicketNotFound, err)
		}
		return nil, NewAdmissionError("failed to load ticket", ErrAdmissionDatabase, err)
	}

	if ticket.EventID.String() != eventID {
		return nil, NewAdmissionError("ticket does not belong to this event", ErrInvalidCredential, nil)
	}

	sector, err := uuid.Parse(sectorID)
	if err != nil {
		return nil, NewAdmissionError("invalid sector ID", ErrAdmissionValidation, err)
	}

	record := &models.ValidationRecord{
		ID:         uuid.New(),
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		SectorID:   sector,
		DeviceID:   deviceID,
		Decision:   models.DecisionGranted,
		Reason:     models.ReasonManualCheckIn,
		RecordedAt: time.Now().UTC(),
	}

	if err := s.validationRepo.CreateValidationRecord(record); err != nil {
		return nil, NewAdmissionError("failed to record check-in", ErrAdmissionDatabase, err)
	}

	monitoring.RecordAdmissionDecision(eventID, record.Decision, record.Reason)

	return &CheckInResult{
		CheckInID: record.ID.String(),
		Timestamp: record.RecordedAt,
	}, nil
}

type GateStats struct {
	TotalValidations    int64                                `json:"total_validations"`
	ValidationsBySector []repositories.SectorValidationCount `json:"validations_by_sector"`
	RecentValidations   []*models.ValidationRecord           `json:"recent_validations"`
}

// Stats summarizes validation activity for the gate dashboard.
func (s *AdmissionService) Stats(eventID string) (*GateStats, error) {
	total, err := s.validationRepo.CountValidationsByEvent(eventID)
	if err != nil {
		return nil, NewAdmissionError("failed to count validations", ErrAdmissionDatabase, err)
	}

	bySector, err := s.validationRepo.CountValidationsBySector(eventID)
	if err != nil {
		return nil, NewAdmissionError("failed to count sector validations", ErrAdmissionDatabase, err)
	}

	recent, err := s.validationRepo.GetRecentValidations(eventID, 10)
	if err != nil {
		return nil, NewAdmissionError("failed to load recent validations", ErrAdmissionDatabase, err)
	}

	return &GateStats{
		TotalValidations:    total,
		ValidationsBySector: bySector,
		RecentValidations:   recent,
	}, nil
}

func (s *AdmissionService) grant(ticket *models.Ticket, sectorID uuid.UUID, deviceID string) *Decision {
	s.appendRecord(ticket, sectorID, deviceID, models.DecisionGranted, "")

	return &Decision{
		Granted:    true,
		TicketID:   ticket.ID.String(),
		TicketType: ticket.TicketType.Description,
		Participant: &ParticipantSnapshot{
			ID:         ticket.Participant.ID.String(),
			Name:       ticket.Participant.Name,
			NationalID: ticket.Participant.NationalID,
		},
		Timestamp: time.Now().UTC(),
	}
}

func (s *AdmissionService) deny(ticket *models.Ticket, sectorID uuid.UUID, deviceID, reason string) *Decision {
	s.appendRecord(ticket, sectorID, deviceID, models.DecisionDenied, reason)

	return &Decision{
		Granted:   false,
		Reason:    reason,
		TicketID:  ticket.ID.String(),
		Timestamp: time.Now().UTC(),
	}
}

func (s *AdmissionService) appendRecord(ticket *models.Ticket, sectorID uuid.UUID, deviceID, decision, reason string) {
	s.auditLedger.Append(&models.ValidationRecord{
		ID:       uuid.New(),
		TicketID: ticket.ID,
		EventID:  ticket.EventID,
		SectorID: sectorID,
		DeviceID: deviceID,
		Decision: decision,
		Reason:   reason,
	})

	monitoring.RecordAdmissionDecision(ticket.EventID.String(), decision, reason)
}

func sectorPermitted(ticketType *models.TicketType, sectorID uuid.UUID) bool {
	for _, sector := range ticketType.Sectors {
		if sector.ID == sectorID {
			return true
		}
	}
	return false
}

// Error handling types and constants
type AdmissionErrorType string

const (
	ErrInvalidCredential   AdmissionErrorType = "INVALID_CREDENTIAL"
	ErrPayloadExpired      AdmissionErrorType = "EXPIRED"
	ErrTicketNotFound      AdmissionErrorType = "UNKNOWN_TICKET"
	ErrAdmissionValidation AdmissionErrorType = "VALIDATION_ERROR"
	ErrAdmissionDatabase   AdmissionErrorType = "DATABASE_ERROR"
)

type AdmissionError struct {
	Message string             `json:"message"`
	Code    AdmissionErrorType `json:"code"`
	Details error              `json:"details,omitempty"`
}

func (e *AdmissionError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *AdmissionError) Unwrap() error {
	return e.Details
}

func NewAdmissionError(message string, code AdmissionErrorType, details error) *AdmissionError {
	return &AdmissionError{
		Message: message,
		Code:    code,
		Details: details,
	}
}

func GetAdmissionErrorCode(err error) AdmissionErrorType {
	var aerr *AdmissionError
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return ""
}
