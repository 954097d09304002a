package handlers

import (
	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/utils"
	"event-ticketing-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	authSvc      *services.AuthService
	eventSvc     *services.EventService
	issuanceSvc  *services.IssuanceService
	admissionSvc *services.AdmissionService
	resolve      fiber.Handler
	cfg          *config.Config
}

func NewHandler(
	authSvc *services.AuthService,
	eventSvc *services.EventService,
	issuanceSvc *services.IssuanceService,
	admissionSvc *services.AdmissionService,
	resolve fiber.Handler,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authSvc:      authSvc,
		eventSvc:     eventSvc,
		issuanceSvc:  issuanceSvc,
		admissionSvc: admissionSvc,
		resolve:      resolve,
		cfg:          cfg,
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	// Public routes
	router.Post("/auth/login", h.Login)
	router.Get("/register/:slug", h.GetRegistrationInfo)
	router.Post("/register/:slug", h.SelfRegister)

	// Credential resolution works for all three credential kinds
	router.Get("/auth/whoami", h.resolve, h.WhoAmI)

	// Administrative routes (session JWT)
	admin := router.Group("/admin", middleware.AdminSession(h.cfg))
	{
		admin.Post("/users", h.CreateUser)
		admin.Get("/profile", h.GetProfile)

		admin.Post("/events", h.CreateEvent)
		admin.Get("/events", h.ListEvents)
		admin.Get("/events/:id", h.GetEvent)
		admin.Put("/events/:id", h.UpdateEvent)
		admin.Post("/events/:id/rotate-tokens", h.RotateTokens)
		admin.Post("/events/:id/sectors", h.AddSector)
		admin.Post("/events/:id/ticket-types", h.AddTicketType)
		admin.Get("/events/:id/participants", h.ListParticipants)
		admin.Get("/events/:id/validations", h.ListValidations)

		admin.Put("/ticket-types/:id/default", h.SetDefaultTicketType)
		admin.Put("/ticket-types/:id/sectors", h.SetTicketTypeSectors)

		admin.Post("/tickets/:id/cancel", h.CancelTicket)
	}

	// Box office routes (static per-event token)
	boxoffice := router.Group("/boxoffice", h.resolve)
	{
		boxoffice.Get("/event", middleware.RequireCapability(middleware.CapReadEvents), h.GetBoxOfficeEvent)
		boxoffice.Post("/tickets", middleware.RequireCapability(middleware.CapWriteTickets), h.IssueTicket)
		boxoffice.Post("/tickets/default", middleware.RequireCapability(middleware.CapWriteTickets), h.IssueDefaultTicket)
		boxoffice.Post("/tickets/:id/reprint", middleware.RequireCapability(middleware.CapWriteTickets), h.ReprintTicket)
		boxoffice.Get("/participants/lookup", middleware.RequireCapability(middleware.CapReadParticipants), h.LookupTicket)
	}

	// Gate routes (static per-event token)
	gate := router.Group("/gate", h.resolve)
	{
		gate.Post("/validate", middleware.RequireCapability(middleware.CapValidateQR), h.ValidateAdmission)
		gate.Post("/checkins", middleware.RequireCapability(middleware.CapWriteCheckins), h.RecordCheckIn)
		gate.Get("/stats", middleware.RequireCapability(middleware.CapReadTickets), h.GateStats)
	}
}

// RegisterOperational mounts health and metrics outside the API group.
func (h *Handler) RegisterOperational(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// ErrorHandler handles global errors
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		logger.WithError(err).Error("unhandled request error")
	}

	return utils.Error(c, message, code)
}

// eventScope returns the event id asserted by the resolved credential.
// Administrative sessions are not event-scoped and cannot call the
// box-office or gate surfaces directly.
func eventScope(c *fiber.Ctx) (string, error) {
	cred, err := middleware.CredentialFromContext(c)
	if err != nil {
		return "", err
	}
	if cred.EventID == "" {
		return "", fiber.NewError(fiber.StatusForbidden, "an event-scoped credential is required")
	}
	return cred.EventID, nil
}
