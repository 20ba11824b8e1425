package ingest

import "time"

type FileStatus string

const (
	FilePending  FileStatus = "pending"
	FileClaimed  FileStatus = "claimed"
	FileConsumed FileStatus = "consumed"
	FileFailed   FileStatus = "failed"
)

// DiscoveredFile is what a scanner yields before the file has any durable state.
type DiscoveredFile struct {
	Path       string
	ModifiedAt time.Time
}

type SourceFile struct {
	ID           string
	Path         string
	Status       FileStatus
	DiscoveredAt time.Time
}
