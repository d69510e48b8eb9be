package model

import "time"

// IngestRunStatus tracks the lifecycle of one ingestion run.
type IngestRunStatus string

const (
	IngestRunRunning  IngestRunStatus = "running"
	IngestRunComplete IngestRunStatus = "complete"
	IngestRunFailed   IngestRunStatus = "failed"
)

// IngestRun is the audit record for a single batch ingestion: which
// dataset and source file, how many features were loaded, and how many
// were skipped under the malformed-record tolerance policy.
type IngestRun struct {
	ID          string          `json:"id"`
	Dataset     string          `json:"dataset"`
	Source      string          `json:"source"`
	Status      IngestRunStatus `json:"status"`
	Loaded      int             `json:"loaded"`
	Skipped     int             `json:"skipped"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
