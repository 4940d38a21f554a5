package service

import (
	"context"
	"log"
	"mime/multipart"

	"reportapi/internal/apperr"
	"reportapi/internal/model"
	"reportapi/internal/repository"
	"reportapi/internal/storage"
	"reportapi/internal/store"
)

// SaveFunc persists one multipart file to a destination path. The HTTP
// boundary supplies the transport's own save-to-path primitive.
type SaveFunc func(fh *multipart.FileHeader, path string) error

// IngestionSummary is the verbose outcome of a fully successful batch:
// the current contents of the results directory plus per-batch counts.
type IngestionSummary struct {
	CurrentFiles        []string             `json:"current_files"`
	CurrentFilesCount   int                  `json:"current_files_count"`
	FailedFiles         []apperr.FileFailure `json:"failed_files"`
	FailedFilesCount    int                  `json:"failed_files_count"`
	ProcessedFiles      []string             `json:"processed_files"`
	ProcessedFilesCount int                  `json:"processed_files_count"`
	SentFilesCount      int                  `json:"sent_files_count"`
}

// IngestionListResult is the service-level DTO for paginated audit records.
type IngestionListResult struct {
	Items []model.Ingestion `json:"data"`
	Total int               `json:"total"`
}

// ProjectService defines the use cases for projects, result ingestion and
// report discovery.
type ProjectService interface {
	// Create validates the id and lays out a new project directory.
	Create(ctx context.Context, id string) (string, error)

	// Delete removes a project recursively. Irreversible.
	Delete(ctx context.Context, id string) error

	// GetReports reconstructs the ordered, aliased report listing for a
	// project. Links are absolute, rooted at baseURL.
	GetReports(ctx context.Context, projectID, baseURL string) (*model.Project, error)

	// ResolveReportFile maps a request-supplied relative path to a file
	// inside the project's reports tree, rejecting traversal attempts.
	ResolveReportFile(projectID, rel string) (string, error)

	// IngestJSON validates and persists a batch of base64-encoded payloads.
	// A nil summary with nil error means the verbose summary is disabled.
	IngestJSON(ctx context.Context, projectID string, results []model.ResultPayload) (*IngestionSummary, error)

	// IngestFiles persists a batch of multipart files using the supplied
	// save primitive.
	IngestFiles(ctx context.Context, projectID string, files []*multipart.FileHeader, save SaveFunc) (*IngestionSummary, error)

	// ListIngestions returns the project's audit records, newest first.
	ListIngestions(ctx context.Context, projectID string, limit, offset int) (*IngestionListResult, error)
}

// projectService is the concrete implementation of ProjectService.
// mirror and audit are optional; a nil value disables the concern.
type projectService struct {
	store       *store.Store
	mirror      storage.Mirror
	audit       repository.IngestionRepository
	lessVerbose bool
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(st *store.Store, mirror storage.Mirror, audit repository.IngestionRepository, lessVerbose bool) ProjectService {
	return &projectService{store: st, mirror: mirror, audit: audit, lessVerbose: lessVerbose}
}

func (s *projectService) Create(ctx context.Context, id string) (string, error) {
	return s.store.Create(id)
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.RemovePrefix(ctx, id+"/"); err != nil {
			log.Printf("mirror: remove prefix for project %s: %v", id, err)
		}
	}
	return nil
}

func (s *projectService) ListIngestions(ctx context.Context, projectID string, limit, offset int) (*IngestionListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if s.audit == nil {
		return &IngestionListResult{Items: []model.Ingestion{}, Total: 0}, nil
	}

	res, err := s.audit.ListByProject(ctx, projectID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &IngestionListResult{Items: res.Items, Total: res.Total}, nil
}
