package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/ledger"
	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/signing"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubEventRepo struct {
	repositories.EventRepository

	event *models.Event
}

func (s *stubEventRepo) GetEventByGateToken(token string) (*models.Event, error) {
	if token == s.event.GateToken {
		return s.event, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEventRepo) GetEventByBoxOfficeToken(token string) (*models.Event, error) {
	if token == s.event.BoxOfficeToken {
		return s.event, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTicketRepo struct {
	repositories.TicketRepository

	ticket *models.Ticket
}

func (s *stubTicketRepo) GetTicketByID(id string) (*models.Ticket, error) {
	if id == s.ticket.ID.String() {
		return s.ticket, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubValidationRepo struct {
	repositories.ValidationRepository

	mu      sync.Mutex
	records []*models.ValidationRecord
}

func (s *stubValidationRepo) CreateValidationRecord(r *models.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

type gateFixture struct {
	app     *fiber.App
	event   *models.Event
	sector  models.Sector
	ticket  *models.Ticket
	payload string
	codec   *signing.Codec
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	event := &models.Event{
		ID:             uuid.New(),
		Name:           "Tech Summit",
		Slug:           "tech-summit",
		BoxOfficeToken: "boxoffice-secret",
		GateToken:      "gate-secret",
	}
	sector := models.Sector{ID: uuid.New(), EventID: event.ID, Name: "General"}
	ticketType := models.TicketType{
		ID:          uuid.New(),
		EventID:     event.ID,
		Number:      1,
		Description: "General",
		Sectors:     []models.Sector{sector},
	}
	ticket := &models.Ticket{
		ID:            uuid.New(),
		EventID:       event.ID,
		TicketTypeID:  ticketType.ID,
		ParticipantID: uuid.New(),
		Status:        models.TicketStatusIssued,
		IssuedAt:      time.Now().UTC().Truncate(time.Second),
		TicketType:    ticketType,
		Participant:   models.Participant{ID: uuid.New(), Name: "Jordan Silva"},
	}

	cfg := &config.Config{JWTSecret: "session-secret", PayloadSecret: "payload-secret"}
	codec := signing.NewCodec(cfg.PayloadSecret, 5*time.Second)

	payload, err := codec.Sign(signing.Claims{
		TicketID:      ticket.ID,
		EventID:       event.ID,
		ParticipantID: ticket.ParticipantID,
		IssuedAt:      ticket.IssuedAt.Unix(),
	})
	require.NoError(t, err)
	ticket.PayloadHash = signing.Hash(payload)

	validationRepo := &stubValidationRepo{}
	auditLedger := ledger.New(validationRepo, 8)
	t.Cleanup(auditLedger.Close)

	admissionSvc := services.NewAdmissionService(
		&stubTicketRepo{ticket: ticket},
		validationRepo,
		auditLedger,
		codec,
	)
	resolve := middleware.ResolveCredential(&stubEventRepo{event: event}, cfg)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	handler := NewHandler(nil, nil, nil, admissionSvc, resolve, cfg)
	handler.RegisterRoutes(app.Group("/api/v1"))

	return &gateFixture{
		app:     app,
		event:   event,
		sector:  sector,
		ticket:  ticket,
		payload: payload,
		codec:   codec,
	}
}

func postValidate(t *testing.T, f *gateFixture, token string, body ValidateAdmissionRequest) (int, []byte) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/gate/validate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Gate-Token", token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, buf.Bytes()
}

func TestValidateAdmission_Granted(t *testing.T) {
	f := newGateFixture(t)

	status, body := postValidate(t, f, f.event.GateToken, ValidateAdmissionRequest{
		SignedPayload: f.payload,
		SectorID:      f.sector.ID.String(),
		DeviceID:      "gate-01",
	})
	require.Equal(t, fiber.StatusOK, status)

	var decision services.Decision
	require.NoError(t, json.Unmarshal(body, &decision))
	assert.True(t, decision.Granted)
	assert.Equal(t, f.ticket.ID.String(), decision.TicketID)
	assert.Equal(t, "Jordan Silva", decision.Participant.Name)
}

func TestValidateAdmission_DeniedUnpermittedSector(t *testing.T) {
	f := newGateFixture(t)

	status, body := postValidate(t, f, f.event.GateToken, ValidateAdmissionRequest{
		SignedPayload: f.payload,
		SectorID:      uuid.NewString(),
		DeviceID:      "gate-01",
	})
	require.Equal(t, fiber.StatusForbidden, status)

	var decision services.Decision
	require.NoError(t, json.Unmarshal(body, &decision))
	assert.False(t, decision.Granted)
	assert.Equal(t, models.ReasonSectorNotPermitted, decision.Reason)
}

func TestValidateAdmission_CrossEventPayload(t *testing.T) {
	f := newGateFixture(t)

	foreign, err := f.codec.Sign(signing.Claims{
		TicketID:      f.ticket.ID,
		EventID:       uuid.New(),
		ParticipantID: f.ticket.ParticipantID,
		IssuedAt:      f.ticket.IssuedAt.Unix(),
	})
	require.NoError(t, err)

	status, body := postValidate(t, f, f.event.GateToken, ValidateAdmissionRequest{
		SignedPayload: foreign,
		SectorID:      f.sector.ID.String(),
		DeviceID:      "gate-01",
	})
	require.Equal(t, fiber.StatusForbidden, status)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, string(services.ErrInvalidCredential), resp.Code)
}

func TestValidateAdmission_BoxOfficeTokenForbidden(t *testing.T) {
	f := newGateFixture(t)

	status, _ := postValidate(t, f, "", ValidateAdmissionRequest{
		SignedPayload: f.payload,
		SectorID:      f.sector.ID.String(),
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	raw, err := json.Marshal(ValidateAdmissionRequest{
		SignedPayload: f.payload,
		SectorID:      f.sector.ID.String(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/gate/validate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-BoxOffice-Token", f.event.BoxOfficeToken)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
