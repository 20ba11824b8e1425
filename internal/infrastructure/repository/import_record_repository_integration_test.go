package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/repository"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestImportRecordRepositoryUpsertIdempotentIntegration(t *testing.T) {
	pool := openTestPool(t)

	schemaSQL := `
    CREATE TABLE IF NOT EXISTS import_records (
      dedup_key TEXT PRIMARY KEY,
      source_file_id UUID NOT NULL,
      payload JSONB NOT NULL,
      imported_at TIMESTAMPTZ NOT NULL
    );
    `
	if _, err := pool.Exec(context.Background(), schemaSQL); err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	if _, err := pool.Exec(context.Background(), "DELETE FROM import_records"); err != nil {
		t.Fatalf("failed cleanup: %v", err)
	}

	repo := repository.NewImportRecordRepository(pool)

	record := domain.ImportableRecord{
		SourceFileID: "f7bc5d17-e7b2-49a1-9fd2-061b58f44f85",
		DedupKey:     "key-1",
		Payload: domain.Payload{
			ExternalID:  "ext-1",
			FirstName:   "Alice",
			LastName:    "Smith",
			Email:       "alice@example.com",
			PhoneNumber: "1111111111",
		},
		ImportedAt: time.Now().UTC(),
	}

	result, err := repo.Upsert(context.Background(), record)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if result != domain.UpsertInserted {
		t.Fatalf("expected inserted, got %v", result)
	}

	var importedAt time.Time
	if err := pool.QueryRow(context.Background(), "SELECT imported_at FROM import_records WHERE dedup_key = 'key-1'").Scan(&importedAt); err != nil {
		t.Fatalf("read imported_at failed: %v", err)
	}

	// Identical content: reported as an update, nothing written.
	record.ImportedAt = record.ImportedAt.Add(time.Hour)
	result, err = repo.Upsert(context.Background(), record)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if result != domain.UpsertUpdated {
		t.Fatalf("expected updated, got %v", result)
	}

	var count int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM import_records").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one stored record, got %d", count)
	}

	var afterReplay time.Time
	if err := pool.QueryRow(context.Background(), "SELECT imported_at FROM import_records WHERE dedup_key = 'key-1'").Scan(&afterReplay); err != nil {
		t.Fatalf("read imported_at failed: %v", err)
	}
	if !afterReplay.Equal(importedAt) {
		t.Fatal("unchanged replay must not touch the stored row")
	}

	// Changed content under the same key: updated in place.
	record.Payload.PhoneNumber = "2222222222"
	result, err = repo.Upsert(context.Background(), record)
	if err != nil {
		t.Fatalf("third upsert failed: %v", err)
	}
	if result != domain.UpsertUpdated {
		t.Fatalf("expected updated, got %v", result)
	}

	var phone string
	if err := pool.QueryRow(context.Background(), "SELECT payload->>'phone_number' FROM import_records WHERE dedup_key = 'key-1'").Scan(&phone); err != nil {
		t.Fatalf("read payload failed: %v", err)
	}
	if phone != "2222222222" {
		t.Fatalf("expected updated phone number, got %s", phone)
	}
}
