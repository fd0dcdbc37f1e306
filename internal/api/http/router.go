package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/snowsync/internal/api/http/handlers"
	"github.com/spec-kit/snowsync/internal/auth"
	"github.com/spec-kit/snowsync/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Jira           *handlers.GatewayHandler
	Snow           *handlers.GatewayHandler
	JSDAttachments *handlers.GatewayHandler
	Presign        *handlers.GatewayHandler
	Events         *handlers.EventsHandler
	Journal        *handlers.JournalHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Function routes accept every method so
// the gateway answers disallowed ones with its own 405 body.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authn := cfg.AuthMiddleware.Handle
	jiraOnly := auth.RequireSystem(cfg.AuthMiddleware, domain.SystemJira)
	snowOnly := auth.RequireSystem(cfg.AuthMiddleware, domain.SystemSnow)
	either := auth.RequireSystem(cfg.AuthMiddleware, domain.SystemJira, domain.SystemSnow)

	jira := app.Group("/jira", authn, jiraOnly)
	jira.All("/incidents", cfg.Jira.Handle)
	jira.All("/incidents/:incidentId", cfg.Jira.Handle)

	snow := app.Group("/snow", authn, snowOnly)
	snow.All("/incidents", cfg.Snow.Handle)
	snow.All("/incidents/:incidentId", cfg.Snow.Handle)

	app.All("/jsd/attachments", authn, jiraOnly, cfg.JSDAttachments.Handle)
	app.All("/attachments/presign", authn, either, cfg.Presign.Handle)

	app.Post("/events/s3/:direction", authn, either, cfg.Events.Handle)

	app.Get("/sync/:ticketRef", authn, either, cfg.Journal.List)
}
