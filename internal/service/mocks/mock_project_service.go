package mocks

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"

	"reportapi/internal/model"
	"reportapi/internal/service"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectService) GetReports(ctx context.Context, projectID, baseURL string) (*model.Project, error) {
	args := m.Called(ctx, projectID, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) ResolveReportFile(projectID, rel string) (string, error) {
	args := m.Called(projectID, rel)
	return args.String(0), args.Error(1)
}

func (m *MockProjectService) IngestJSON(ctx context.Context, projectID string, results []model.ResultPayload) (*service.IngestionSummary, error) {
	args := m.Called(ctx, projectID, results)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestionSummary), args.Error(1)
}

func (m *MockProjectService) IngestFiles(ctx context.Context, projectID string, files []*multipart.FileHeader, save service.SaveFunc) (*service.IngestionSummary, error) {
	args := m.Called(ctx, projectID, files, save)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestionSummary), args.Error(1)
}

func (m *MockProjectService) ListIngestions(ctx context.Context, projectID string, limit, offset int) (*service.IngestionListResult, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestionListResult), args.Error(1)
}
