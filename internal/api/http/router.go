package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Groups         *handlers.GroupsHandler
	Incidents      *handlers.IncidentsHandler
	Queues         *handlers.QueuesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/signup", cfg.Users.Signup)
	app.Post("/auth/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Post("/groups", cfg.Groups.EnsureGroup)
	protected.Post("/groups/members", cfg.Groups.AddMember)

	protected.Post("/incidents", cfg.Incidents.Create)
	protected.Get("/incidents/my", cfg.Queues.MyIncidents)
	protected.Get("/incidents/queue", cfg.Queues.GroupQueue)
	protected.Get("/incidents/assigned", cfg.Queues.AssignedToMe)
	protected.Get("/incidents/:id", cfg.Incidents.Get)
	protected.Post("/incidents/:id/assign", cfg.Incidents.Assign)
	protected.Post("/incidents/:id/status", cfg.Incidents.UpdateStatus)

	protected.Get("/dashboard/summary", cfg.Queues.Summary)
	protected.Post("/predict", cfg.Incidents.Predict)
}
