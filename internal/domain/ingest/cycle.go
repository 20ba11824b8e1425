package ingest

import "time"

type CycleStatus string

const (
	CycleCompleted           CycleStatus = "completed"
	CycleCompletedWithErrors CycleStatus = "completed_with_errors"
	CycleAborted             CycleStatus = "aborted"
)

type FileResult struct {
	Path     string
	Accepted int64
	Rejected int64
	Failed   bool
	Reason   string
}

type CycleSummary struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          CycleStatus
	FilesProcessed  int64
	FilesFailed     int64
	RecordsAccepted int64
	RecordsRejected int64
	Files           []FileResult
}
