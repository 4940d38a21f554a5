package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reportapi/internal/apperr"
	"reportapi/internal/model"
)

// validatedResult is one decoded entry of the JSON ingestion protocol.
type validatedResult struct {
	fileName string
	content  []byte
}

// batchOutcome accumulates the per-file results of one persistence pass.
// It is returned as a value; no caller-supplied collections are mutated.
type batchOutcome struct {
	processed []string
	failed    []apperr.FileFailure
}

// validateJSONResults checks the whole batch before any write happens:
// non-empty array, non-blank unique file names, decodable base64 content.
// Input order is preserved in the output.
func validateJSONResults(results []model.ResultPayload) ([]validatedResult, error) {
	if len(results) == 0 {
		return nil, &apperr.ValidationError{Reason: "'results' array is empty"}
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.FileName) == "" {
			return nil, &apperr.ValidationError{Reason: "'file_name' attribute is required for all results"}
		}
		seen[r.FileName] = struct{}{}
	}
	if len(seen) != len(results) {
		return nil, &apperr.ValidationError{Reason: "Duplicated file names in 'results'"}
	}

	validated := make([]validatedResult, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.ContentBase64) == "" {
			return nil, &apperr.ValidationError{
				Reason: fmt.Sprintf("'content_base64' attribute is required for '%s' file", r.FileName),
			}
		}
		content, err := base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			return nil, &apperr.ValidationError{
				Reason: fmt.Sprintf("'content_base64' attribute content for '%s' file should be encoded to base64", r.FileName),
			}
		}
		validated = append(validated, validatedResult{fileName: r.FileName, content: content})
	}

	return validated, nil
}

// validateFilesBatch checks the multipart batch is non-empty. Duplicate
// names are not rejected here; the last write for a name wins.
func validateFilesBatch(files []*multipart.FileHeader) ([]*multipart.FileHeader, error) {
	if len(files) == 0 {
		return nil, &apperr.ValidationError{Reason: "'files[]' array is empty"}
	}
	return files, nil
}

// persistJSONResults writes each validated entry independently; one file's
// failure never blocks the others, and earlier writes are not rolled back.
func persistJSONResults(resultsDir string, validated []validatedResult) batchOutcome {
	out := batchOutcome{processed: []string{}, failed: []apperr.FileFailure{}}
	for _, r := range validated {
		path := filepath.Join(resultsDir, r.fileName)
		if err := os.WriteFile(path, r.content, 0o644); err != nil {
			out.failed = append(out.failed, apperr.FileFailure{FileName: r.fileName, Message: err.Error()})
			continue
		}
		out.processed = append(out.processed, r.fileName)
	}
	return out
}

// persistFilesResults saves each multipart part through the transport's
// save primitive, with the same independent-failure semantics.
func persistFilesResults(resultsDir string, files []*multipart.FileHeader, save SaveFunc) batchOutcome {
	out := batchOutcome{processed: []string{}, failed: []apperr.FileFailure{}}
	for _, fh := range files {
		path := filepath.Join(resultsDir, fh.Filename)
		if err := save(fh, path); err != nil {
			out.failed = append(out.failed, apperr.FileFailure{FileName: fh.Filename, Message: err.Error()})
			continue
		}
		out.processed = append(out.processed, fh.Filename)
	}
	return out
}

func (s *projectService) IngestJSON(ctx context.Context, projectID string, results []model.ResultPayload) (*IngestionSummary, error) {
	if !s.store.Exists(projectID) {
		return nil, &apperr.NotFoundError{ID: projectID}
	}

	validated, err := validateJSONResults(results)
	if err != nil {
		return nil, err
	}

	outcome := persistJSONResults(s.store.ResultsPath(projectID), validated)
	s.mirrorProcessed(ctx, projectID, outcome.processed)
	s.recordIngestion(ctx, projectID, len(validated), outcome)

	return s.finishIngestion(projectID, len(validated), outcome)
}

func (s *projectService) IngestFiles(ctx context.Context, projectID string, files []*multipart.FileHeader, save SaveFunc) (*IngestionSummary, error) {
	if !s.store.Exists(projectID) {
		return nil, &apperr.NotFoundError{ID: projectID}
	}

	validated, err := validateFilesBatch(files)
	if err != nil {
		return nil, err
	}

	outcome := persistFilesResults(s.store.ResultsPath(projectID), validated, save)
	s.mirrorProcessed(ctx, projectID, outcome.processed)
	s.recordIngestion(ctx, projectID, len(validated), outcome)

	return s.finishIngestion(projectID, len(validated), outcome)
}

// finishIngestion turns a batch outcome into either an aggregated failure
// or, unless suppressed, a verbose summary of the results directory.
func (s *projectService) finishIngestion(projectID string, sent int, outcome batchOutcome) (*IngestionSummary, error) {
	if len(outcome.failed) > 0 {
		return nil, &apperr.BatchError{Failed: outcome.failed}
	}
	if s.lessVerbose {
		return nil, nil
	}

	entries, err := os.ReadDir(s.store.ResultsPath(projectID))
	if err != nil {
		return nil, &apperr.InternalError{Err: err}
	}
	current := make([]string, 0, len(entries))
	for _, e := range entries {
		current = append(current, e.Name())
	}

	return &IngestionSummary{
		CurrentFiles:        current,
		CurrentFilesCount:   len(current),
		FailedFiles:         outcome.failed,
		FailedFilesCount:    len(outcome.failed),
		ProcessedFiles:      outcome.processed,
		ProcessedFilesCount: len(outcome.processed),
		SentFilesCount:      sent,
	}, nil
}

// mirrorProcessed uploads successfully written files to the object-storage
// mirror. Best effort: a mirror fault is logged, never surfaced.
func (s *projectService) mirrorProcessed(ctx context.Context, projectID string, processed []string) {
	if s.mirror == nil {
		return
	}
	for _, name := range processed {
		content, err := os.ReadFile(filepath.Join(s.store.ResultsPath(projectID), name))
		if err != nil {
			log.Printf("mirror: read %s for project %s: %v", name, projectID, err)
			continue
		}
		key := projectID + "/results/" + name
		if err := s.mirror.Put(ctx, key, bytes.NewReader(content), int64(len(content))); err != nil {
			log.Printf("mirror: put %s: %v", key, err)
		}
	}
}

// recordIngestion appends one audit row for the batch. Best effort.
func (s *projectService) recordIngestion(ctx context.Context, projectID string, sent int, outcome batchOutcome) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Create(ctx, &model.Ingestion{
		ID:             uuid.New().String(),
		ProjectID:      projectID,
		SentFiles:      sent,
		ProcessedFiles: len(outcome.processed),
		FailedFiles:    len(outcome.failed),
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("audit: record ingestion for project %s: %v", projectID, err)
	}
}
