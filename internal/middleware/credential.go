package middleware

import (
	"errors"
	"strings"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

// Abstract capabilities attached to resolved credentials. Handlers declare
// the capability they need; they never inspect the credential kind.
const (
	CapAll              = "*"
	CapReadParticipants = "read:participants"
	CapWriteTickets     = "write:tickets"
	CapReadEvents       = "read:events"
	CapReadTickets      = "read:tickets"
	CapWriteCheckins    = "write:checkins"
	CapValidateQR       = "validate:qr"
)

const credentialLocal = "credential"

type CredentialKind string

const (
	CredentialAdmin     CredentialKind = "admin"
	CredentialBoxOffice CredentialKind = "box_office"
	CredentialGate      CredentialKind = "gate"
)

// Credential is the tagged result of resolving a bearer credential once at
// the boundary. EventID is empty for administrative sessions, which are not
// scoped to a single event.
type Credential struct {
	Kind         CredentialKind `json:"kind"`
	EventID      string         `json:"event_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Capabilities []string       `json:"capabilities"`
}

func (cr *Credential) Has(capability string) bool {
	for _, c := range cr.Capabilities {
		if c == CapAll || c == capability {
			return true
		}
	}
	return false
}

func boxOfficeCapabilities() []string {
	return []string{CapReadParticipants, CapWriteTickets, CapReadEvents}
}

func gateCapabilities() []string {
	return []string{CapReadTickets, CapWriteCheckins, CapValidateQR}
}

// ResolveCredential authenticates whichever credential carrier the request
// presents: X-Gate-Token or X-BoxOffice-Token (static per-event secrets) or
// Authorization: Bearer (administrative session JWT). The kind is decided by
// the carrier, not the token content. Missing or unknown credentials end the
// request with 401.
func ResolveCredential(eventRepo repositories.EventRepository, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Get("X-Gate-Token"); token != "" {
			event, err := eventRepo.GetEventByGateToken(token)
			if err != nil {
				return utils.Error(c, "Invalid gate token", fiber.StatusUnauthorized)
			}
			return next(c, &Credential{
				Kind:         CredentialGate,
				EventID:      event.ID.String(),
				Capabilities: gateCapabilities(),
			})
		}

		if token := c.Get("X-BoxOffice-Token"); token != "" {
			event, err := eventRepo.GetEventByBoxOfficeToken(token)
			if err != nil {
				return utils.Error(c, "Invalid box office token", fiber.StatusUnauthorized)
			}
			return next(c, &Credential{
				Kind:         CredentialBoxOffice,
				EventID:      event.ID.String(),
				Capabilities: boxOfficeCapabilities(),
			})
		}

		if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
			cred, err := resolveAdminSession(auth, cfg.JWTSecret)
			if err != nil {
				return utils.Error(c, "Invalid session token", fiber.StatusUnauthorized)
			}
			return next(c, cred)
		}

		return utils.Error(c, "Authentication required", fiber.StatusUnauthorized)
	}
}

func next(c *fiber.Ctx, cred *Credential) error {
	c.Locals(credentialLocal, cred)
	return c.Next()
}

func resolveAdminSession(authHeader, secret string) (*Credential, error) {
	raw, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return nil, errors.New("malformed authorization header")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid session claims")
	}

	userID, _ := claims["user_id"].(string)
	return &Credential{
		Kind:         CredentialAdmin,
		UserID:       userID,
		Capabilities: []string{CapAll},
	}, nil
}

// RequireCapability enforces the capability declared by a route. 401 when no
// credential was resolved, 403 when the capability set lacks the entry.
func RequireCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred, ok := c.Locals(credentialLocal).(*Credential)
		if !ok || cred == nil {
			return utils.Error(c, "Authentication required", fiber.StatusUnauthorized)
		}
		if !cred.Has(capability) {
			return utils.Error(c, "Insufficient capability", fiber.StatusForbidden)
		}
		return c.Next()
	}
}

// AdminSession protects administrative routes with the session JWT. It feeds
// the same credential local as ResolveCredential so downstream capability
// checks are uniform.
func AdminSession(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ContextKey: "session",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return utils.Error(c, "Unauthorized", fiber.StatusUnauthorized)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("session").(*jwt.Token)
			claims := token.Claims.(jwt.MapClaims)
			userID, _ := claims["user_id"].(string)
			c.Locals(credentialLocal, &Credential{
				Kind:         CredentialAdmin,
				UserID:       userID,
				Capabilities: []string{CapAll},
			})
			return c.Next()
		},
	})
}

// CredentialFromContext returns the resolved credential for the request.
func CredentialFromContext(c *fiber.Ctx) (*Credential, error) {
	cred, ok := c.Locals(credentialLocal).(*Credential)
	if !ok || cred == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "credential not resolved")
	}
	return cred, nil
}
