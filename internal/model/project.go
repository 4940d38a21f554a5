package model

import "time"

// Project is the client-facing view of a stored project: its id plus the
// ordered report links and their aliases as produced by report discovery.
// This is a pure domain model with no framework or persistence tags beyond JSON.
type Project struct {
	ID        string   `json:"id"`
	Reports   []string `json:"reports"`
	ReportsID []string `json:"reports_id"`
}

// ResultPayload is one element of the JSON ingestion protocol: a file name
// and its base64-encoded content, exactly as sent on the wire.
type ResultPayload struct {
	FileName      string `json:"file_name"`
	ContentBase64 string `json:"content_base64"`
}

// Ingestion is one audit record of a completed ingestion batch.
type Ingestion struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	SentFiles      int       `json:"sent_files"`
	ProcessedFiles int       `json:"processed_files"`
	FailedFiles    int       `json:"failed_files"`
	CreatedAt      time.Time `json:"created_at"`
}
