package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/monitoring"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/signing"
	"event-ticketing-backend/internal/utils"
	"event-ticketing-backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssuanceService enforces the one-ticket-per-national-id-per-event invariant
// and mints the signed admission payload for every new ticket.
type IssuanceService struct {
	eventRepo       repositories.EventRepository
	participantRepo repositories.ParticipantRepository
	ticketRepo      repositories.TicketRepository
	codec           *signing.Codec
	cfg             *config.Config
}

func NewIssuanceService(
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	ticketRepo repositories.TicketRepository,
	codec *signing.Codec,
	cfg *config.Config,
) *IssuanceService {
	return &IssuanceService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		ticketRepo:      ticketRepo,
		codec:           codec,
		cfg:             cfg,
	}
}

type ParticipantFields struct {
	Name        string
	Email       string
	NationalID  string
	Phone       string
	Company     string
	Nationality string
}

type IssueRequest struct {
	EventID      string
	TicketTypeID string
	Participant  ParticipantFields
	ExpiresAt    *time.Time
}

type IssueResult struct {
	Ticket        *models.Ticket      `json:"ticket"`
	Participant   *models.Participant `json:"participant"`
	SignedPayload string              `json:"signed_payload"`
}

// Issue registers the participant and creates their ticket. The participant
// insert races straight to the store; a unique violation on
// (event_id, national_id) is the one and only duplicate signal, so two
// issuance requests for the same national id arriving microseconds apart
// resolve deterministically no matter which entry point sent them.
func (s *IssuanceService) Issue(req IssueRequest) (*IssueResult, error) {
	fields, err := s.validateParticipantFields(req.Participant)
	if err != nil {
		return nil, err
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, NewIssuanceError("invalid event ID", ErrIssueValidation, err)
	}

	// Checking the type before inserting avoids orphan participant rows when
	// the request names a type from another event.
	ticketType, err := s.eventRepo.GetTicketTypeByID(req.TicketTypeID)
	if err != nil || ticketType.EventID != eventID {
		return nil, NewIssuanceError("ticket type not found for this event", ErrUnknownTicketType, err)
	}

	participant := &models.Participant{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        fields.Name,
		Email:       fields.Email,
		NationalID:  fields.NationalID,
		Phone:       fields.Phone,
		Company:     fields.Company,
		Nationality: fields.Nationality,
	}

	if err := s.participantRepo.CreateParticipant(participant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewIssuanceError(
				"participant already registered for this event",
				ErrDuplicateParticipant,
				err,
			)
		}
		return nil, NewIssuanceError("failed to create participant", ErrIssueDatabase, err)
	}

	return s.createTicket(eventID, ticketType, participant, req.ExpiresAt)
}

// IssueWithDefaultType serves the public self-registration form and the
// box-office quick-add button, which do not pick a type explicitly.
func (s *IssuanceService) IssueWithDefaultType(eventID string, fields ParticipantFields, expiresAt *time.Time) (*IssueResult, error) {
	ticketType, err := s.eventRepo.GetDefaultTicketType(eventID)
	if err != nil {
		return nil, NewIssuanceError("event has no default ticket type", ErrUnknownTicketType, err)
	}

	return s.Issue(IssueRequest{
		EventID:      eventID,
		TicketTypeID: ticketType.ID.String(),
		Participant:  fields,
		ExpiresAt:    expiresAt,
	})
}

// Reprint re-derives the signed payload for an existing ticket. Signing is
// deterministic over the stored claims, so the result matches the original
// payload (and its stored hash) exactly; no row is created or changed.
func (s *IssuanceService) Reprint(ticketID string) (*IssueResult, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewIssuanceError("ticket not found", ErrUnknownTicket, err)
		}
		return nil, NewIssuanceError("failed to load ticket", ErrIssueDatabase, err)
	}

	payload, err := s.codec.Sign(claimsFor(ticket))
	if err != nil {
		return nil, NewIssuanceError("failed to sign payload", ErrIssueDatabase, err)
	}

	logger.WithField("ticket_id", ticket.ID).Info("ticket reprinted")

	return &IssueResult{
		Ticket:        ticket,
		Participant:   &ticket.Participant,
		SignedPayload: payload,
	}, nil
}

// FindTicketByNationalID is the idempotent re-resolution path ("find the
// ticket for this CPF"): an existing registration is the answer here, not a
// conflict.
func (s *IssuanceService) FindTicketByNationalID(eventID, rawNationalID string) (*IssueResult, error) {
	nationalID, err := utils.ValidateNationalID(rawNationalID)
	if err != nil {
		return nil, NewIssuanceError(err.Error(), ErrIssueValidation, err)
	}

	participant, err := s.participantRepo.GetParticipantByNationalID(eventID, nationalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewIssuanceError("no registration for this national id", ErrUnknownTicket, err)
		}
		return nil, NewIssuanceError("failed to look up participant", ErrIssueDatabase, err)
	}

	tickets, err := s.ticketRepo.GetTicketsByParticipantID(participant.ID.String())
	if err != nil {
		return nil, NewIssuanceError("failed to load tickets", ErrIssueDatabase, err)
	}

	for i := range tickets {
		if tickets[i].EventID.String() == eventID {
			return s.Reprint(tickets[i].ID.String())
		}
	}

	return nil, NewIssuanceError("no ticket for this national id", ErrUnknownTicket, nil)
}

func (s *IssuanceService) createTicket(
	eventID uuid.UUID,
	ticketType *models.TicketType,
	participant *models.Participant,
	expiresAt *time.Time,
) (*IssueResult, error) {
	ticket := &models.Ticket{
		ID:            uuid.New(),
		EventID:       eventID,
		TicketTypeID:  ticketType.ID,
		ParticipantID: participant.ID,
		Status:        models.TicketStatusIssued,
		IssuedAt:      time.Now().UTC().Truncate(time.Second),
		ExpiresAt:     expiresAt,
	}

	payload, err := s.codec.Sign(claimsFor(ticket))
	if err != nil {
		return nil, NewIssuanceError("failed to sign payload", ErrIssueDatabase, err)
	}
	ticket.PayloadHash = signing.Hash(payload)

	if err := s.ticketRepo.CreateTicket(ticket); err != nil {
		return nil, NewIssuanceError("failed to create ticket", ErrIssueDatabase, err)
	}

	ticket.TicketType = *ticketType
	ticket.Participant = *participant
	monitoring.RecordTicketIssued(eventID.String())

	return &IssueResult{
		Ticket:        ticket,
		Participant:   participant,
		SignedPayload: payload,
	}, nil
}

func (s *IssuanceService) validateParticipantFields(fields ParticipantFields) (*ParticipantFields, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Name == "" {
		return nil, NewIssuanceError("participant name is required", ErrIssueValidation, nil)
	}

	nationalID, err := utils.ValidateNationalID(fields.NationalID)
	if err != nil {
		return nil, NewIssuanceError(err.Error(), ErrIssueValidation, err)
	}
	fields.NationalID = nationalID

	fields.Email = strings.TrimSpace(strings.ToLower(fields.Email))
	fields.Phone = strings.TrimSpace(fields.Phone)
	fields.Company = strings.TrimSpace(fields.Company)
	fields.Nationality = strings.TrimSpace(fields.Nationality)

	return &fields, nil
}

func claimsFor(ticket *models.Ticket) signing.Claims {
	claims := signing.Claims{
		TicketID:      ticket.ID,
		EventID:       ticket.EventID,
		ParticipantID: ticket.ParticipantID,
		IssuedAt:      ticket.IssuedAt.Unix(),
	}
	if ticket.ExpiresAt != nil {
		claims.ExpiresAt = ticket.ExpiresAt.Unix()
	}
	return claims
}

// Error handling types and constants
type IssuanceErrorType string

const (
	ErrIssueValidation      IssuanceErrorType = "VALIDATION_ERROR"
	ErrDuplicateParticipant IssuanceErrorType = "DUPLICATE_PARTICIPANT"
	ErrUnknownTicketType    IssuanceErrorType = "UNKNOWN_TICKET_TYPE"
	ErrUnknownTicket        IssuanceErrorType = "UNKNOWN_TICKET"
	ErrIssueDatabase        IssuanceErrorType = "DATABASE_ERROR"
)

type IssuanceError struct {
	Message string            `json:"message"`
	Code    IssuanceErrorType `json:"code"`
	Details error             `json:"details,omitempty"`
}

func (e *IssuanceError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *IssuanceError) Unwrap() error {
	return e.Details
}

func NewIssuanceError(message string, code IssuanceErrorType, details error) *IssuanceError {
	return &IssuanceError{
		Message: message,
		Code:    code,
		Details: details,
	}
}

func GetIssuanceErrorCode(err error) IssuanceErrorType {
	var ierr *IssuanceError
	if errors.As(err, &ierr) {
		return ierr.Code
	}
	return ""
}
