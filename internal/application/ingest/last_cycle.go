package ingest

import (
	"context"
	"time"

	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
)

type CycleFileOutput struct {
	Path     string `json:"path"`
	Accepted int64  `json:"accepted"`
	Rejected int64  `json:"rejected"`
	Failed   bool   `json:"failed"`
	Reason   string `json:"reason,omitempty"`
}

type GetLastCycleOutput struct {
	Status          string            `json:"status"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	FilesProcessed  int64             `json:"files_processed"`
	FilesFailed     int64             `json:"files_failed"`
	RecordsAccepted int64             `json:"records_accepted"`
	RecordsRejected int64             `json:"records_rejected"`
	Files           []CycleFileOutput `json:"files"`
}

type GetLastCycle interface {
	Execute(ctx context.Context) (GetLastCycleOutput, error)
}

type cycleReader interface {
	LastCycle() (domain.CycleSummary, bool)
}

type getLastCycle struct {
	scheduler cycleReader
}

func NewGetLastCycle(scheduler cycleReader) GetLastCycle {
	return &getLastCycle{scheduler: scheduler}
}

func (uc *getLastCycle) Execute(ctx context.Context) (GetLastCycleOutput, error) {
	_ = ctx

	summary, ok := uc.scheduler.LastCycle()
	if !ok {
		return GetLastCycleOutput{}, ErrNoCompletedCycles
	}

	files := make([]CycleFileOutput, 0, len(summary.Files))
	for _, f := range summary.Files {
		files = append(files, CycleFileOutput{
			Path:     f.Path,
			Accepted: f.Accepted,
			Rejected: f.Rejected,
			Failed:   f.Failed,
			Reason:   f.Reason,
		})
	}

	return GetLastCycleOutput{
		Status:          string(summary.Status),
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		FilesProcessed:  summary.FilesProcessed,
		FilesFailed:     summary.FilesFailed,
		RecordsAccepted: summary.RecordsAccepted,
		RecordsRejected: summary.RecordsRejected,
		Files:           files,
	}, nil
}
