package models

import "time"

// RowWarning records a source row that was skipped during parsing.
type RowWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// RenderedReport is the final output of one pipeline run.
type RenderedReport struct {
	PDF         []byte    `json:"-"`
	Filename    string    `json:"filename"`
	RecordCount int       `json:"recordCount"`
	SkippedRows int       `json:"skippedRows"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ReportInfo is metadata about a stored report file.
type ReportInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	RecordCount int       `json:"recordCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// JobStatus represents the status of a report generation job.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusError    JobStatus = "error"
)

// ReportJob tracks one asynchronous report generation run.
type ReportJob struct {
	ID               string         `json:"id"`
	DatasetID        string         `json:"datasetId,omitempty"`
	Criteria         FilterCriteria `json:"criteria"`
	Status           JobStatus      `json:"status"`
	Progress         float64        `json:"progress"` // 0-100
	ReportID         string         `json:"reportId,omitempty"`
	Filename         string         `json:"filename,omitempty"`
	RecordCount      int            `json:"recordCount,omitempty"`
	SkippedRows      int            `json:"skippedRows,omitempty"`
	Error            string         `json:"error,omitempty"`
	Stage            string         `json:"stage,omitempty"` // failing stage when Status is error
	ProcessingTimeMs int64          `json:"processingTimeMs,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// NewReportJob creates a pending report job.
func NewReportJob(id, datasetID string, criteria FilterCriteria) *ReportJob {
	return &ReportJob{
		ID:        id,
		DatasetID: datasetID,
		Criteria:  criteria,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Dataset is a cached, parsed copy of the inspection sheet.
type Dataset struct {
	ID          string       `json:"id"`
	SheetID     string       `json:"sheetId"`
	GID         string       `json:"gid"`
	RecordCount int          `json:"recordCount"`
	Warnings    []RowWarning `json:"warnings,omitempty"`
	LoadedAt    time.Time    `json:"loadedAt"`
}
