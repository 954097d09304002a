package services

import (
	"sync"
	"testing"
	"time"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/signing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validNationalID      = "52998224725"
	otherValidNationalID = "11144477735"
)

type issuanceFixture struct {
	svc        *IssuanceService
	eventRepo  *fakeEventRepo
	ticketRepo *fakeTicketRepo
	codec      *signing.Codec
	eventID    uuid.UUID
	ticketType *models.TicketType
}

func newIssuanceFixture(t *testing.T) *issuanceFixture {
	t.Helper()

	eventRepo := newFakeEventRepo()
	participantRepo := newFakeParticipantRepo()
	ticketRepo := newFakeTicketRepo()
	codec := signing.NewCodec("test-secret", 5*time.Second)

	eventID := uuid.New()
	ticketType := &models.TicketType{
		ID:          uuid.New(),
		EventID:     eventID,
		Number:      1,
		Description: "General",
		IsDefault:   true,
	}
	eventRepo.addTicketType(ticketType)

	return &issuanceFixture{
		svc:        NewIssuanceService(eventRepo, participantRepo, ticketRepo, codec, &config.Config{}),
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		codec:      codec,
		eventID:    eventID,
		ticketType: ticketType,
	}
}

func (f *issuanceFixture) request(nationalID string) IssueRequest {
	return IssueRequest{
		EventID:      f.eventID.String(),
		TicketTypeID: f.ticketType.ID.String(),
		Participant: ParticipantFields{
			Name:       "Jordan Silva",
			Email:      "jordan@example.com",
			NationalID: nationalID,
		},
	}
}

func TestIssue_Success(t *testing.T) {
	f := newIssuanceFixture(t)

	result, err := f.svc.Issue(f.request(validNationalID))
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusIssued, result.Ticket.Status)
	assert.Equal(t, f.eventID, result.Ticket.EventID)
	assert.Equal(t, validNationalID, result.Participant.NationalID)
	assert.Equal(t, signing.Hash(result.SignedPayload), result.Ticket.PayloadHash)

	claims, err := f.codec.Verify(result.SignedPayload)
	require.NoError(t, err)
	assert.Equal(t, result.Ticket.ID, claims.TicketID)
	assert.Equal(t, f.eventID, claims.EventID)
	assert.Equal(t, result.Participant.ID, claims.ParticipantID)
}

func TestIssue_NormalizesFormattedNationalID(t *testing.T) {
	f := newIssuanceFixture(t)

	result, err := f.svc.Issue(f.request("529.982.247-25"))
	require.NoError(t, err)
	assert.Equal(t, validNationalID, result.Participant.NationalID)

	// The formatted and plain forms are the same person.
	_, err = f.svc.Issue(f.request(validNationalID))
	assert.Equal(t, ErrDuplicateParticipant, GetIssuanceErrorCode(err))
}

func TestIssue_DuplicateNationalIDRejected(t *testing.T) {
	f := newIssuanceFixture(t)

	_, err := f.svc.Issue(f.request(validNationalID))
	require.NoError(t, err)

	_, err = f.svc.Issue(f.request(validNationalID))
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateParticipant, GetIssuanceErrorCode(err))

	// A different person still registers fine.
	_, err = f.svc.Issue(f.request(otherValidNationalID))
	assert.NoError(t, err)
}

func TestIssue_ConcurrentDuplicatesResolveToOneWinner(t *testing.T) {
	f := newIssuanceFixture(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Issue(f.request(validNationalID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, ErrDuplicateParticipant, GetIssuanceErrorCode(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestIssue_InvalidNationalIDRejected(t *testing.T) {
	f := newIssuanceFixture(t)

	_, err := f.svc.Issue(f.request("12345678901"))
	require.Error(t, err)
	assert.Equal(t, ErrIssueValidation, GetIssuanceErrorCode(err))
}

func TestIssue_UnknownTicketTypeRejected(t *testing.T) {
	f := newIssuanceFixture(t)

	req := f.request(validNationalID)
	req.TicketTypeID = uuid.NewString()

	_, err := f.svc.Issue(req)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTicketType, GetIssuanceErrorCode(err))
}

func TestIssue_TicketTypeFromAnotherEventRejected(t *testing.T) {
	f := newIssuanceFixture(t)

	foreign := &models.TicketType{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		Number:      1,
		Description: "VIP",
	}
	f.eventRepo.addTicketType(foreign)

	req := f.request(validNationalID)
	req.TicketTypeID = foreign.ID.String()

	_, err := f.svc.Issue(req)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTicketType, GetIssuanceErrorCode(err))
}

func TestIssueWithDefaultType(t *testing.T) {
	f := newIssuanceFixture(t)

	result, err := f.svc.IssueWithDefaultType(f.eventID.String(), ParticipantFields{
		Name:       "Jordan Silva",
		NationalID: validNationalID,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, f.ticketType.ID, result.Ticket.TicketTypeID)
}

func TestIssueWithDefaultType_NoDefaultConfigured(t *testing.T) {
	f := newIssuanceFixture(t)
	f.ticketType.IsDefault = false

	_, err := f.svc.IssueWithDefaultType(f.eventID.String(), ParticipantFields{
		Name:       "Jordan Silva",
		NationalID: validNationalID,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTicketType, GetIssuanceErrorCode(err))
}

func TestReprint_ReproducesOriginalPayload(t *testing.T) {
	f := newIssuanceFixture(t)

	issued, err := f.svc.Issue(f.request(validNationalID))
	require.NoError(t, err)

	reprinted, err := f.svc.Reprint(issued.Ticket.ID.String())
	require.NoError(t, err)

	assert.Equal(t, issued.SignedPayload, reprinted.SignedPayload)
	assert.Equal(t, issued.Ticket.PayloadHash, signing.Hash(reprinted.SignedPayload))
}

func TestReprint_UnknownTicket(t *testing.T) {
	f := newIssuanceFixture(t)

	_, err := f.svc.Reprint(uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTicket, GetIssuanceErrorCode(err))
}

func TestFindTicketByNationalID(t *testing.T) {
	f := newIssuanceFixture(t)

	issued, err := f.svc.Issue(f.request(validNationalID))
	require.NoError(t, err)

	found, err := f.svc.FindTicketByNationalID(f.eventID.String(), "529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, issued.Ticket.ID, found.Ticket.ID)
	assert.Equal(t, issued.SignedPayload, found.SignedPayload)
}

func TestFindTicketByNationalID_Unregistered(t *testing.T) {
	f := newIssuanceFixture(t)

	_, err := f.svc.FindTicketByNationalID(f.eventID.String(), validNationalID)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTicket, GetIssuanceErrorCode(err))
}
