package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reportapi/internal/apperr"
	"reportapi/internal/model"
	"reportapi/internal/service"
	serviceMocks "reportapi/internal/service/mocks"
)

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func metaMessage(t *testing.T, body map[string]any) string {
	t.Helper()
	md, ok := body["meta_data"].(map[string]any)
	require.True(t, ok, "body has no meta_data: %v", body)
	msg, _ := md["message"].(string)
	return msg
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy with db", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy db", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("healthy without db", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProject(t *testing.T) {
	newApp := func(mockSvc *serviceMocks.MockProjectService) *fiber.App {
		app := fiber.New()
		app.Post("/api/projects", CreateProject(mockSvc))
		return app
	}

	post := func(app *fiber.App, contentType, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		mockSvc.On("Create", mock.Anything, "my-project").Return("my-project", nil).Once()

		resp := post(newApp(mockSvc), "application/json", `{"id": "my-project"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Successfully created project with id my-project", body["message"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("wrong content type", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)

		resp := post(newApp(mockSvc), "text/plain", `{"id": "my-project"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Header 'Content-Type' is not 'application/json'", body["message"])
	})

	t.Run("missing id attribute", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)

		resp := post(newApp(mockSvc), "application/json", `{}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "The body should contain an id attribute", body["message"])
	})

	t.Run("id is not a string", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)

		resp := post(newApp(mockSvc), "application/json", `{"id": 42}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "The id should be a string", body["message"])
	})

	t.Run("validation error from service", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		mockSvc.On("Create", mock.Anything, "BAD").
			Return("", &apperr.ValidationError{Reason: "The project id can only contain alpha-numeric characters and dashes."}).Once()

		resp := post(newApp(mockSvc), "application/json", `{"id": "BAD"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body["message"], "alpha-numeric")
		mockSvc.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		mockSvc.On("Create", mock.Anything, "dup").
			Return("", &apperr.ConflictError{ID: "dup"}).Once()

		resp := post(newApp(mockSvc), "application/json", `{"id": "dup"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "A project with id dup already exists.", body["message"])
		mockSvc.AssertExpectations(t)
	})
}

func TestGetProject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Get("/api/projects/:id", GetProject(mockSvc))

		project := &model.Project{
			ID:        "my-project",
			Reports:   []string{"http://example.com/api/projects/my-project/reports/latest/index.html"},
			ReportsID: []string{"latest"},
		}
		mockSvc.On("GetReports", mock.Anything, "my-project", mock.Anything).Return(project, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Project successfully obtained", metaMessage(t, body))

		data := body["data"].(map[string]any)
		p := data["project"].(map[string]any)
		assert.Equal(t, "my-project", p["id"])
		assert.Equal(t, []any{"latest"}, p["reports_id"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Get("/api/projects/:id", GetProject(mockSvc))

		mockSvc.On("GetReports", mock.Anything, "ghost", mock.Anything).
			Return(nil, &apperr.NotFoundError{ID: "ghost"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/ghost", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "project_id 'ghost' not found", metaMessage(t, body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("scan fault", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Get("/api/projects/:id", GetProject(mockSvc))

		mockSvc.On("GetReports", mock.Anything, "my-project", mock.Anything).
			Return(nil, &apperr.InternalError{Err: errors.New("permission denied")}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "permission denied", metaMessage(t, body))
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteProject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Delete("/api/projects/:id", DeleteProject(mockSvc))

		mockSvc.On("Delete", mock.Anything, "my-project").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/projects/my-project", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Successfully deleted project with id my-project", body["message"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Delete("/api/projects/:id", DeleteProject(mockSvc))

		mockSvc.On("Delete", mock.Anything, "ghost").
			Return(&apperr.NotFoundError{ID: "ghost"}).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/projects/ghost", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "No project found with id ghost", body["message"])
		mockSvc.AssertExpectations(t)
	})
}

func TestSendResults_JSON(t *testing.T) {
	newApp := func(mockSvc *serviceMocks.MockProjectService) *fiber.App {
		app := fiber.New()
		app.Post("/api/send-results", SendResults(mockSvc))
		return app
	}

	t.Run("success with verbose summary", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		summary := &service.IngestionSummary{
			CurrentFiles:        []string{"a.json"},
			CurrentFilesCount:   1,
			FailedFiles:         []apperr.FileFailure{},
			ProcessedFiles:      []string{"a.json"},
			ProcessedFilesCount: 1,
			SentFilesCount:      1,
		}
		mockSvc.On("IngestJSON", mock.Anything, "my-project",
			[]model.ResultPayload{{FileName: "a.json", ContentBase64: "aGk="}}).
			Return(summary, nil).Once()

		payload := `{"results": [{"file_name": "a.json", "content_base64": "aGk="}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Results successfully sent for project_id 'my-project'", metaMessage(t, body))

		data := body["data"].(map[string]any)
		assert.Equal(t, float64(1), data["processed_files_count"])
		assert.Equal(t, float64(1), data["sent_files_count"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("success in less-verbose mode", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		mockSvc.On("IngestJSON", mock.Anything, "my-project", mock.Anything).
			Return(nil, nil).Once()

		payload := `{"results": [{"file_name": "a.json", "content_base64": "aGk="}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Results successfully sent for project_id 'my-project'", metaMessage(t, body))
		assert.NotContains(t, body, "data")
		mockSvc.AssertExpectations(t)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, contentTypeRequired, metaMessage(t, body))
	})

	t.Run("missing project-id", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/send-results", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing results key", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "'results' array is required in the body", metaMessage(t, body))
	})

	t.Run("results is not an array", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader(`{"results": "nope"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "'results' should be an array", metaMessage(t, body))
	})

	t.Run("project not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		mockSvc.On("IngestJSON", mock.Anything, "ghost", mock.Anything).
			Return(nil, &apperr.NotFoundError{ID: "ghost"}).Once()

		payload := `{"results": [{"file_name": "a.json", "content_base64": "aGk="}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=ghost", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "No project found for project ID ghost.", metaMessage(t, body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("batch failure", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := newApp(mockSvc)

		mockSvc.On("IngestJSON", mock.Anything, "my-project", mock.Anything).
			Return(nil, &apperr.BatchError{Failed: []apperr.FileFailure{
				{FileName: "bad.json", Message: "disk full"},
			}}).Once()

		payload := `{"results": [{"file_name": "bad.json", "content_base64": "aGk="}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		msg := metaMessage(t, body)
		assert.Contains(t, msg, "Problems with files")
		assert.Contains(t, msg, "bad.json")
		assert.Contains(t, msg, "disk full")
		mockSvc.AssertExpectations(t)
	})
}

func TestSendResults_Multipart(t *testing.T) {
	mockSvc := new(serviceMocks.MockProjectService)
	app := fiber.New()
	app.Post("/api/send-results", SendResults(mockSvc))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files[]", "result.json")
	require.NoError(t, err)
	part.Write([]byte(`{"status": "passed"}`))
	require.NoError(t, writer.Close())

	mockSvc.On("IngestFiles", mock.Anything, "my-project",
		mock.MatchedBy(func(files []*multipart.FileHeader) bool {
			return len(files) == 1 && files[0].Filename == "result.json"
		}), mock.Anything).
		Return(&service.IngestionSummary{SentFilesCount: 1, ProcessedFilesCount: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/send-results?project-id=my-project", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestServeReport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Get("/api/projects/:id/reports/*", ServeReport(mockSvc))

		dir := t.TempDir()
		indexPath := dir + "/index.html"
		require.NoError(t, os.WriteFile(indexPath, []byte("<html>report</html>"), 0o644))

		mockSvc.On("ResolveReportFile", "my-project", "latest/index.html").
			Return(indexPath, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project/reports/latest/index.html", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<html>report</html>", string(raw))
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockProjectService)
		app := fiber.New()
		app.Get("/api/projects/:id/reports/*", ServeReport(mockSvc))

		mockSvc.On("ResolveReportFile", "my-project", "gone/index.html").
			Return("", &apperr.NotFoundError{ID: "my-project"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project/reports/gone/index.html", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListIngestions(t *testing.T) {
	mockSvc := new(serviceMocks.MockProjectService)
	app := fiber.New()
	app.Get("/api/projects/:id/ingestions", ListIngestions(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ListIngestions", mock.Anything, "my-project", 10, 0).
			Return(&service.IngestionListResult{
				Items: []model.Ingestion{{ID: "b1", ProjectID: "my-project"}},
				Total: 1,
			}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project/ingestions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.IngestionListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/projects/my-project/ingestions?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockProjectService)
	RegisterRoutes(app, nil, mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "resource not found", body["message"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "method not allowed", body["message"])
	})
}
