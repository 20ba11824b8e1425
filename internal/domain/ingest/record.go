package ingest

import "time"

type Payload struct {
	ExternalID  string `json:"external_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// ImportableRecord is the normalized result of mapping one raw input record.
// DedupKey is derived from content only, so replaying the same raw bytes
// always targets the same stored row.
type ImportableRecord struct {
	SourceFileID string
	DedupKey     string
	Payload      Payload
	ImportedAt   time.Time
}

type UpsertResult int

const (
	UpsertInserted UpsertResult = iota
	UpsertUpdated
)
