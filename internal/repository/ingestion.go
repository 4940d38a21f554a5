package repository

import (
	"context"

	"reportapi/internal/model"
)

// IngestionRepository defines data access for the ingestion audit log
// using SQL queries only. No business logic here — strictly persistence.
type IngestionRepository interface {
	// Create inserts one audit record for a completed ingestion batch.
	// Returns the stored record (may include values set by the DB).
	Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error)

	// ListByProject returns a paginated list of audit records for one
	// project, newest first, plus the total count for that project.
	ListByProject(ctx context.Context, projectID string, pq PageQuery) (*PageResult[model.Ingestion], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
