package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"reportapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ProjectService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/projects", CreateProject(svc))
	api.Get("/projects/:id", GetProject(svc))
	api.Delete("/projects/:id", DeleteProject(svc))
	api.Get("/projects/:id/ingestions", ListIngestions(svc))
	api.Get("/projects/:id/reports/*", ServeReport(svc))
	api.Post("/send-results", SendResults(svc))
}
