package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reportapi/internal/model"
	"reportapi/internal/repository"
)

type MockIngestionRepository struct {
	mock.Mock
}

func (m *MockIngestionRepository) Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error) {
	args := m.Called(ctx, ing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ingestion), args.Error(1)
}

func (m *MockIngestionRepository) ListByProject(ctx context.Context, projectID string, pq repository.PageQuery) (*repository.PageResult[model.Ingestion], error) {
	args := m.Called(ctx, projectID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Ingestion]), args.Error(1)
}
