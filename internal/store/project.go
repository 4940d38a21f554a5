package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"reportapi/internal/apperr"
)

// Store maps project ids to their filesystem locations and owns the
// per-project layout invariant: a created project always contains
// reports/latest and results subdirectories.
type Store struct {
	root string
}

// idPattern: lowercase alphanumerics with interior spaces/dashes, starting
// and ending with an alphanumeric.
var idPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9 -]*[a-z0-9])?$`)

const maxIDLength = 50

// New returns a Store rooted at the given projects directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Path resolves a project id to its root directory. Pure, no I/O.
func (s *Store) Path(id string) string {
	return filepath.Join(s.root, id)
}

// ReportsPath resolves the reports subdirectory of a project.
func (s *Store) ReportsPath(id string) string {
	return filepath.Join(s.root, id, "reports")
}

// ResultsPath resolves the results subdirectory of a project.
func (s *Store) ResultsPath(id string) string {
	return filepath.Join(s.root, id, "results")
}

// Exists reports whether the project root is a directory. A blank id is
// never considered existing; absence is a normal result, not an error.
func (s *Store) Exists(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	info, err := os.Stat(s.Path(id))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Create validates the id, rejects an already-existing project, and lays
// out reports/latest and results. Directory creation is idempotent; no
// file is written.
func (s *Store) Create(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &apperr.ValidationError{Reason: "The id should not be empty."}
	}
	if len(id) > maxIDLength {
		return "", &apperr.ValidationError{Reason: "The project id cannot be longer than 50 characters."}
	}
	if !idPattern.MatchString(id) {
		return "", &apperr.ValidationError{Reason: "The project id can only contain alpha-numeric characters and dashes."}
	}
	if s.Exists(id) {
		return "", &apperr.ConflictError{ID: id}
	}

	latestDir := filepath.Join(s.ReportsPath(id), "latest")
	if err := os.MkdirAll(latestDir, 0o755); err != nil {
		return "", &apperr.InternalError{Err: fmt.Errorf("create reports directory: %w", err)}
	}
	if err := os.MkdirAll(s.ResultsPath(id), 0o755); err != nil {
		return "", &apperr.InternalError{Err: fmt.Errorf("create results directory: %w", err)}
	}

	return id, nil
}

// Delete recursively removes the project root. Destructive and
// unconditional: no soft delete, no undo.
func (s *Store) Delete(id string) error {
	if !s.Exists(id) {
		return &apperr.NotFoundError{ID: id}
	}
	if err := os.RemoveAll(s.Path(id)); err != nil {
		return &apperr.InternalError{Err: err}
	}
	return nil
}
