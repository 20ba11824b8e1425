package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	return db
}

func setupSourceFilesSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	schemaSQL := `
    CREATE TABLE IF NOT EXISTS source_files (
      id UUID PRIMARY KEY,
      path TEXT NOT NULL UNIQUE,
      status TEXT NOT NULL,
      discovered_at TIMESTAMPTZ NOT NULL,
      claimed_at TIMESTAMPTZ,
      finished_at TIMESTAMPTZ,
      fail_reason TEXT,
      created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
      updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
      CHECK (status IN ('pending','claimed','consumed','failed'))
    );
    `
	if err := db.Exec(schemaSQL).Error; err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	if err := db.Exec("DELETE FROM source_files").Error; err != nil {
		t.Fatalf("failed cleanup: %v", err)
	}
}

func TestSourceFileRepositoryDiscoveryOrderingIntegration(t *testing.T) {
	db := openTestDB(t)
	setupSourceFilesSchema(t, db)

	repo := repository.NewSourceFileRepository(db)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	// Arrival order t3, t1, t2.
	err := repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "c.json", ModifiedAt: t3},
		{Path: "a.json", ModifiedAt: t1},
		{Path: "b.json", ModifiedAt: t2},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Registering again is a no-op.
	err = repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: t1},
	})
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}

	pending, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending files, got %d", len(pending))
	}

	want := []string{"a.json", "b.json", "c.json"}
	for i, path := range want {
		if pending[i].Path != path {
			t.Fatalf("unexpected order: got %s at %d, want %s", pending[i].Path, i, path)
		}
	}
}

func TestSourceFileRepositoryClaimLifecycleIntegration(t *testing.T) {
	db := openTestDB(t)
	setupSourceFilesSchema(t, db)

	repo := repository.NewSourceFileRepository(db)

	err := repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pending, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending file, got %d", len(pending))
	}
	fileID := pending[0].ID

	if err := repo.Claim(context.Background(), fileID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	err = repo.Claim(context.Background(), fileID)
	if !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	if err := repo.MarkConsumed(context.Background(), fileID); err != nil {
		t.Fatalf("mark consumed failed: %v", err)
	}

	pending, err = repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("consumed file must not be pending, got %d", len(pending))
	}
}

func TestSourceFileRepositoryFailedFileReplacedIntegration(t *testing.T) {
	db := openTestDB(t)
	setupSourceFilesSchema(t, db)

	repo := repository.NewSourceFileRepository(db)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	err := repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: t1},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pending, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if err := repo.Claim(context.Background(), pending[0].ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := repo.MarkFailed(context.Background(), pending[0].ID, "bad payload"); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}

	// Re-registering the same timestamp leaves the failed state alone.
	err = repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: t1},
	})
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	pending, err = repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("unchanged failed file must not be retried, got %d pending", len(pending))
	}

	// A newer timestamp means the producer replaced the file: retry it.
	t2 := t1.Add(time.Hour)
	err = repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: t2},
	})
	if err != nil {
		t.Fatalf("replacement register failed: %v", err)
	}
	pending, err = repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("replaced failed file must be pending again, got %d", len(pending))
	}
	if !pending[0].DiscoveredAt.Equal(t2) {
		t.Fatalf("expected refreshed discovery time %s, got %s", t2, pending[0].DiscoveredAt)
	}
}

func TestSourceFileRepositoryCrashRecoveryIntegration(t *testing.T) {
	db := openTestDB(t)
	setupSourceFilesSchema(t, db)

	repo := repository.NewSourceFileRepository(db)

	err := repo.RegisterDiscovered(context.Background(), []domain.DiscoveredFile{
		{Path: "a.json", ModifiedAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pending, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if err := repo.Claim(context.Background(), pending[0].ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// Simulated crash: the claim is never resolved. A fresh scheduler run
	// resets it.
	reset, err := repo.ResetStaleClaims(context.Background())
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset claim, got %d", reset)
	}

	pending, err = repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected the file back in pending, got %d", len(pending))
	}

	if err := repo.MarkConsumed(context.Background(), pending[0].ID); err == nil {
		t.Fatal("expected mark consumed to fail for an unclaimed file")
	}
}
