package postgres

import (
	"context"
	"database/sql"

	"reportapi/internal/model"
	"reportapi/internal/repository"
)

// IngestionPostgres is a PostgreSQL implementation of
// repository.IngestionRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type IngestionPostgres struct {
	db *sql.DB
}

// NewIngestionPostgres creates a new IngestionPostgres repository.
func NewIngestionPostgres(db *sql.DB) *IngestionPostgres {
	return &IngestionPostgres{db: db}
}

var _ repository.IngestionRepository = (*IngestionPostgres)(nil)

// Create inserts one ingestion audit row and returns the stored record.
func (r *IngestionPostgres) Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error) {
	const q = `
		INSERT INTO ingestions (id, project_id, sent_files, processed_files, failed_files, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, sent_files, processed_files, failed_files, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		ing.ID,
		ing.ProjectID,
		ing.SentFiles,
		ing.ProcessedFiles,
		ing.FailedFiles,
		ing.CreatedAt,
	)
	var out model.Ingestion
	if err := row.Scan(
		&out.ID,
		&out.ProjectID,
		&out.SentFiles,
		&out.ProcessedFiles,
		&out.FailedFiles,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByProject returns audit rows for one project using LIMIT/OFFSET
// pagination, newest first, and the project's total row count.
func (r *IngestionPostgres) ListByProject(ctx context.Context, projectID string, pq repository.PageQuery) (*repository.PageResult[model.Ingestion], error) {
	const qCount = `SELECT COUNT(*) FROM ingestions WHERE project_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, projectID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, project_id, sent_files, processed_files, failed_files, created_at
		FROM ingestions
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, projectID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Ingestion, 0)
	for rows.Next() {
		var ing model.Ingestion
		if err := rows.Scan(
			&ing.ID,
			&ing.ProjectID,
			&ing.SentFiles,
			&ing.ProcessedFiles,
			&ing.FailedFiles,
			&ing.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Ingestion]{
		Items: items,
		Total: total,
	}, nil
}
