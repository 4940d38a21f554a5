package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reportapi/internal/apperr"
	"reportapi/internal/model"
)

// latestAlias is the reserved report directory name that is always
// surfaced first in discovery output, regardless of its timestamp.
const latestAlias = "latest"

// reportEntry is one qualifying report bundle found under reports/.
type reportEntry struct {
	link  string
	mtime time.Time
	name  string
}

// scanReports lists the reports tree and qualifies each entry by the
// presence of a regular <entry>/index.html. Anything else (empty
// directories, stray files) is silently dropped.
func scanReports(reportsDir, baseURL, projectID string) ([]reportEntry, error) {
	entries, err := os.ReadDir(reportsDir)
	if err != nil {
		return nil, err
	}

	found := make([]reportEntry, 0, len(entries))
	for _, e := range entries {
		indexPath := filepath.Join(reportsDir, e.Name(), "index.html")
		info, err := os.Stat(indexPath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found = append(found, reportEntry{
			link:  fmt.Sprintf("%s/api/projects/%s/reports/%s/index.html", baseURL, projectID, e.Name()),
			mtime: info.ModTime(),
			name:  e.Name(),
		})
	}
	return found, nil
}

// sortByMtime orders entries most-recently generated first. The sort is
// stable; ties keep their scan order.
func sortByMtime(entries []reportEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].mtime.After(entries[j].mtime)
	})
}

// pinLatest partitions the sorted entries into the client-facing link and
// id lists, moving the reserved latest entry to the front under its alias.
func pinLatest(entries []reportEntry) (reports, reportsID []string) {
	reports = []string{}
	reportsID = []string{}
	var latest string

	for _, e := range entries {
		if strings.EqualFold(e.name, latestAlias) {
			latest = e.link
			continue
		}
		reports = append(reports, e.link)
		reportsID = append(reportsID, e.name)
	}

	if latest != "" {
		reports = append([]string{latest}, reports...)
		reportsID = append([]string{latestAlias}, reportsID...)
	}
	return reports, reportsID
}

func (s *projectService) GetReports(ctx context.Context, projectID, baseURL string) (*model.Project, error) {
	if !s.store.Exists(projectID) {
		return nil, &apperr.NotFoundError{ID: projectID}
	}

	entries, err := scanReports(s.store.ReportsPath(projectID), baseURL, projectID)
	if err != nil {
		return nil, &apperr.InternalError{Err: err}
	}

	sortByMtime(entries)
	reports, reportsID := pinLatest(entries)

	return &model.Project{
		ID:        projectID,
		Reports:   reports,
		ReportsID: reportsID,
	}, nil
}

// ResolveReportFile maps a relative request path to a file inside the
// project's reports tree. Paths escaping the tree are rejected.
func (s *projectService) ResolveReportFile(projectID, rel string) (string, error) {
	if !s.store.Exists(projectID) {
		return "", &apperr.NotFoundError{ID: projectID}
	}

	reportsDir := s.store.ReportsPath(projectID)
	path := filepath.Join(reportsDir, filepath.FromSlash(rel))
	if path != reportsDir && !strings.HasPrefix(path, reportsDir+string(filepath.Separator)) {
		return "", &apperr.ValidationError{Reason: "invalid report path"}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", &apperr.NotFoundError{ID: projectID}
	}
	return path, nil
}
