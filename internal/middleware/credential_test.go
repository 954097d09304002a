package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/models"
	"event-ticketing-backend/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
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

func credentialTestApp(t *testing.T) (*fiber.App, *models.Event, *config.Config) {
	t.Helper()

	event := &models.Event{
		ID:             uuid.New(),
		Name:           "Tech Summit",
		Slug:           "tech-summit",
		BoxOfficeToken: "boxoffice-secret",
		GateToken:      "gate-secret",
	}
	cfg := &config.Config{JWTSecret: "session-secret"}
	resolve := ResolveCredential(&stubEventRepo{event: event}, cfg)

	app := fiber.New()
	app.Get("/whoami", resolve, func(c *fiber.Ctx) error {
		cred, err := CredentialFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(cred)
	})
	app.Post("/tickets", resolve, RequireCapability(CapWriteTickets), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/validate", resolve, RequireCapability(CapValidateQR), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, event, cfg
}

func sessionToken(t *testing.T, secret string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestResolveCredential_GateToken(t *testing.T) {
	app, event, _ := credentialTestApp(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Gate-Token", event.GateToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cred Credential
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cred))
	assert.Equal(t, CredentialGate, cred.Kind)
	assert.Equal(t, event.ID.String(), cred.EventID)
	assert.True(t, cred.Has(CapValidateQR))
	assert.False(t, cred.Has(CapWriteTickets))
}

func TestResolveCredential_BoxOfficeToken(t *testing.T) {
	app, event, _ := credentialTestApp(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-BoxOffice-Token", event.BoxOfficeToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cred Credential
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cred))
	assert.Equal(t, CredentialBoxOffice, cred.Kind)
	assert.Equal(t, event.ID.String(), cred.EventID)
	assert.True(t, cred.Has(CapWriteTickets))
	assert.False(t, cred.Has(CapValidateQR))
}

func TestResolveCredential_AdminSessionToken(t *testing.T) {
	app, _, cfg := credentialTestApp(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, cfg.JWTSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cred Credential
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cred))
	assert.Equal(t, CredentialAdmin, cred.Kind)
	assert.Empty(t, cred.EventID)
	assert.True(t, cred.Has(CapWriteTickets))
	assert.True(t, cred.Has(CapValidateQR))
}

func TestResolveCredential_InvalidTokens(t *testing.T) {
	app, _, _ := credentialTestApp(t)

	for name, header := range map[string][2]string{
		"wrong gate token":      {"X-Gate-Token", "nope"},
		"wrong boxoffice token": {"X-BoxOffice-Token", "nope"},
		"forged session":        {"Authorization", "Bearer " + sessionToken(t, "other-secret")},
		"malformed bearer":      {"Authorization", "garbage"},
	} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(header[0], header[1])

		resp, err := app.Test(req)
		require.NoError(t, err, name)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestResolveCredential_MissingCredential(t *testing.T) {
	app, _, _ := credentialTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireCapability_GateCannotIssueTickets(t *testing.T) {
	app, event, _ := credentialTestApp(t)

	req := httptest.NewRequest("POST", "/tickets", nil)
	req.Header.Set("X-Gate-Token", event.GateToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireCapability_BoxOfficeCannotValidate(t *testing.T) {
	app, event, _ := credentialTestApp(t)

	req := httptest.NewRequest("POST", "/validate", nil)
	req.Header.Set("X-BoxOffice-Token", event.BoxOfficeToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireCapability_AdminHasAllCapabilities(t *testing.T) {
	app, _, cfg := credentialTestApp(t)

	req := httptest.NewRequest("POST", "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, cfg.JWTSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}
