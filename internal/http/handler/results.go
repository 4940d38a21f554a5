package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"reportapi/internal/apperr"
	"reportapi/internal/model"
	"reportapi/internal/service"
)

const contentTypeRequired = "The request must have a 'Content-Type' of 'application/json' or 'multipart/form-data'."

// SendResults handles POST /api/send-results?project-id=. The declared
// content type selects the protocol: application/json carries a base64
// batch under the results key, multipart/form-data carries raw files[]
// parts. Exactly one path executes per request.
func SendResults(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct := c.Get(fiber.HeaderContentType)
		isJSON := strings.HasPrefix(ct, fiber.MIMEApplicationJSON)
		isMultipart := strings.HasPrefix(ct, fiber.MIMEMultipartForm)
		if !isJSON && !isMultipart {
			return c.Status(fiber.StatusBadRequest).JSON(meta(contentTypeRequired))
		}

		projectID := c.Query("project-id")
		if projectID == "" {
			return c.Status(fiber.StatusBadRequest).
				JSON(meta("'project-id' query parameter is required"))
		}

		var summary *service.IngestionSummary
		var err error
		if isJSON {
			summary, err = ingestJSONBody(c, svc, projectID)
		} else {
			summary, err = ingestMultipartBody(c, svc, projectID)
		}
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				return c.Status(fiber.StatusNotFound).
					JSON(meta(fmt.Sprintf("No project found for project ID %s.", projectID)))
			}
			return c.Status(fiber.StatusBadRequest).JSON(meta(err.Error()))
		}

		msg := fmt.Sprintf("Results successfully sent for project_id '%s'", projectID)
		if summary == nil {
			// Less-verbose deployment: confirmation only.
			return c.Status(fiber.StatusOK).JSON(meta(msg))
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"data":      summary,
			"meta_data": metaData{Message: msg},
		})
	}
}

func ingestJSONBody(c *fiber.Ctx, svc service.ProjectService, projectID string) (*service.IngestionSummary, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil, &apperr.ValidationError{Reason: err.Error()}
	}
	raw, ok := body["results"]
	if !ok {
		return nil, &apperr.ValidationError{Reason: "'results' array is required in the body"}
	}
	var results []model.ResultPayload
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, &apperr.ValidationError{Reason: "'results' should be an array"}
	}

	return svc.IngestJSON(c.UserContext(), projectID, results)
}

func ingestMultipartBody(c *fiber.Ctx, svc service.ProjectService, projectID string) (*service.IngestionSummary, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, &apperr.ValidationError{Reason: err.Error()}
	}
	files := form.File["files[]"]

	save := func(fh *multipart.FileHeader, path string) error {
		return c.SaveFile(fh, path)
	}
	return svc.IngestFiles(c.UserContext(), projectID, files, save)
}
