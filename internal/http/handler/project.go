package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"reportapi/internal/apperr"
	"reportapi/internal/service"
)

// HealthCheck reports service health. When the ingestion audit database
// is configured it is pinged; otherwise the check is a plain liveness.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(message("dependency unavailable"))
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateProject handles POST /api/projects. The body must be JSON with a
// string id attribute.
func CreateProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.Is("json") {
			return c.Status(fiber.StatusBadRequest).
				JSON(message("Header 'Content-Type' is not 'application/json'"))
		}

		var body map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(message(err.Error()))
		}
		raw, ok := body["id"]
		if !ok {
			return c.Status(fiber.StatusBadRequest).
				JSON(message("The body should contain an id attribute"))
		}
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(message("The id should be a string"))
		}

		created, err := svc.Create(c.UserContext(), id)
		if err != nil {
			// Conflict and validation both answer 400 on this endpoint.
			return c.Status(fiber.StatusBadRequest).JSON(message(err.Error()))
		}

		return c.Status(fiber.StatusCreated).
			JSON(message(fmt.Sprintf("Successfully created project with id %s", created)))
	}
}

// GetProject handles GET /api/projects/:id: the ordered, aliased report
// listing for one project.
func GetProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		baseURL := c.Protocol() + "://" + c.Hostname()

		project, err := svc.GetReports(c.UserContext(), id, baseURL)
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				return c.Status(fiber.StatusNotFound).
					JSON(meta(fmt.Sprintf("project_id '%s' not found", id)))
			}
			return c.Status(fiber.StatusBadRequest).JSON(meta(err.Error()))
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"data": fiber.Map{
				"project": project,
			},
			"meta_data": metaData{Message: "Project successfully obtained"},
		})
	}
}

// DeleteProject handles DELETE /api/projects/:id. Irreversible.
func DeleteProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if err := svc.Delete(c.UserContext(), id); err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				return c.Status(fiber.StatusNotFound).
					JSON(message(fmt.Sprintf("No project found with id %s", id)))
			}
			return c.Status(fiber.StatusBadRequest).JSON(message(err.Error()))
		}

		return c.Status(fiber.StatusOK).
			JSON(message(fmt.Sprintf("Successfully deleted project with id %s", id)))
	}
}

// ServeReport handles GET /api/projects/:id/reports/*, streaming a file
// out of the project's reports tree. Discovery links point here.
func ServeReport(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		path, err := svc.ResolveReportFile(id, c.Params("*"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(meta(err.Error()))
		}
		return c.SendFile(path)
	}
}

// ListIngestions handles GET /api/projects/:id/ingestions: the project's
// ingestion audit records, newest first.
func ListIngestions(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(message("invalid limit"))
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(message("invalid offset"))
		}

		res, err := svc.ListIngestions(c.UserContext(), c.Params("id"), limit, offset)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(message(err.Error()))
		}
		return c.JSON(res)
	}
}
