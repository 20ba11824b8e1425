package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
)

type ImportRecordRepository struct {
	pool *pgxpool.Pool
}

func NewImportRecordRepository(pool *pgxpool.Pool) *ImportRecordRepository {
	return &ImportRecordRepository{pool: pool}
}

// Upsert is idempotent on dedup_key. The DO UPDATE is guarded with
// IS DISTINCT FROM so a replayed record with identical content touches
// nothing; in that case the statement returns no row and we classify the
// call as an update with no content change.
func (r *ImportRecordRepository) Upsert(ctx context.Context, record domain.ImportableRecord) (domain.UpsertResult, error) {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO import_records (dedup_key, source_file_id, payload, imported_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (dedup_key) DO UPDATE
  SET source_file_id = EXCLUDED.source_file_id,
      payload = EXCLUDED.payload,
      imported_at = EXCLUDED.imported_at
  WHERE import_records.payload IS DISTINCT FROM EXCLUDED.payload
RETURNING (xmax = 0) AS inserted
`, record.DedupKey, record.SourceFileID, payload, record.ImportedAt)

	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UpsertUpdated, nil
		}
		if isIntegrityViolation(err) {
			return 0, fmt.Errorf("%w: %v", domain.ErrRecordConflict, err)
		}
		return 0, fmt.Errorf("upsert import record: %w", err)
	}

	if inserted {
		return domain.UpsertInserted, nil
	}
	return domain.UpsertUpdated, nil
}
