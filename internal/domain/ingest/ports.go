package ingest

import "context"

// SourceFileRepository is the durable half of file discovery: the status
// table that survives restarts and makes crash recovery possible.
type SourceFileRepository interface {
	RegisterDiscovered(ctx context.Context, files []DiscoveredFile) error
	ListPending(ctx context.Context) ([]SourceFile, error)
	Claim(ctx context.Context, fileID string) error
	MarkConsumed(ctx context.Context, fileID string) error
	MarkFailed(ctx context.Context, fileID string, reason string) error
	ResetStaleClaims(ctx context.Context) (int64, error)
}

type ImportStore interface {
	Upsert(ctx context.Context, record ImportableRecord) (UpsertResult, error)
}
