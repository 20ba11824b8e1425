package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceFileRepository owns the durable lifecycle of discovered files:
// pending -> claimed -> consumed|failed. This table is the only state that
// has to survive restarts for crash recovery to work.
type SourceFileRepository struct {
	db *gorm.DB
}

func NewSourceFileRepository(db *gorm.DB) *SourceFileRepository {
	return &SourceFileRepository{db: db}
}

func (r *SourceFileRepository) RegisterDiscovered(ctx context.Context, files []domain.DiscoveredFile) error {
	if len(files) == 0 {
		return nil
	}

	rows := make([]models.SourceFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, models.SourceFile{
			ID:           uuid.NewString(),
			Path:         f.Path,
			Status:       string(domain.FilePending),
			DiscoveredAt: f.ModifiedAt,
		})
	}

	// A known path is left alone, with one exception: a failed file
	// re-registered with a newer timestamp goes back to pending, so a
	// producer can replace a bad file and have it retried.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "path"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":        string(domain.FilePending),
				"discovered_at": gorm.Expr("excluded.discovered_at"),
				"claimed_at":    nil,
				"finished_at":   nil,
				"fail_reason":   nil,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{
					SQL:  "source_files.status = ? AND excluded.discovered_at > source_files.discovered_at",
					Vars: []any{string(domain.FileFailed)},
				},
			}},
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("register discovered files: %w", err)
	}
	return nil
}

func (r *SourceFileRepository) ListPending(ctx context.Context) ([]domain.SourceFile, error) {
	var rows []models.SourceFile

	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.FilePending)).
		Order("discovered_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list pending files: %w", err)
	}

	files := make([]domain.SourceFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, domain.SourceFile{
			ID:           row.ID,
			Path:         row.Path,
			Status:       domain.FileStatus(row.Status),
			DiscoveredAt: row.DiscoveredAt,
		})
	}
	return files, nil
}

func (r *SourceFileRepository) Claim(ctx context.Context, fileID string) error {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&models.SourceFile{}).
		Where("id = ? AND status = ?", fileID, string(domain.FilePending)).
		Updates(map[string]any{
			"status":     string(domain.FileClaimed),
			"claimed_at": now,
		})
	if tx.Error != nil {
		return fmt.Errorf("claim file %s: %w", fileID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAlreadyClaimed
	}
	return nil
}

func (r *SourceFileRepository) MarkConsumed(ctx context.Context, fileID string) error {
	return r.finish(ctx, fileID, domain.FileConsumed, nil)
}

func (r *SourceFileRepository) MarkFailed(ctx context.Context, fileID string, reason string) error {
	return r.finish(ctx, fileID, domain.FileFailed, &reason)
}

func (r *SourceFileRepository) finish(ctx context.Context, fileID string, status domain.FileStatus, reason *string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":      string(status),
		"finished_at": now,
	}
	if reason != nil {
		updates["fail_reason"] = *reason
	}

	tx := r.db.WithContext(ctx).
		Model(&models.SourceFile{}).
		Where("id = ? AND status = ?", fileID, string(domain.FileClaimed)).
		Updates(updates)
	if tx.Error != nil {
		return fmt.Errorf("mark file %s %s: %w", fileID, status, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("mark file %s %s: file is not claimed", fileID, status)
	}
	return nil
}

func (r *SourceFileRepository) ResetStaleClaims(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.SourceFile{}).
		Where("status = ?", string(domain.FileClaimed)).
		Updates(map[string]any{
			"status":     string(domain.FilePending),
			"claimed_at": nil,
		})
	if tx.Error != nil {
		return 0, fmt.Errorf("reset stale claims: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}
