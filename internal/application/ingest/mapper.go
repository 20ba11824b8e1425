package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
	"github.com/mohammadpnp/data-importer/internal/domain/membership"
)

// RawRecord is the tagged variant shape of one entry in an input file.
// Anything with an unrecognized Type maps to the malformed path; we never
// guess at a record's meaning.
type RawRecord struct {
	Type        string   `json:"type"`
	ExternalID  string   `json:"external_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	Groups      []string `json:"groups"`
}

const (
	recordTypeContact      = "contact"
	recordTypeMembership   = "membership"
	recordTypeDeactivation = "deactivation"
)

type RecordKind int

const (
	KindContact RecordKind = iota
	KindMembership
	KindDeactivation
)

type MappedRecord struct {
	Kind       RecordKind
	Record     domain.ImportableRecord
	Principal  membership.Principal
	Groups     []string
	ExternalID string
}

// MapRecord converts one raw record into its normalized form. Pure: no I/O,
// and mapping identical raw bytes always yields an identical dedup key.
func MapRecord(sourceFileID string, raw RawRecord, now time.Time) (MappedRecord, error) {
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case recordTypeContact:
		return mapContact(sourceFileID, raw, now)
	case recordTypeMembership:
		return mapMembership(raw)
	case recordTypeDeactivation:
		return mapDeactivation(raw)
	default:
		return MappedRecord{}, fmt.Errorf("%w: unrecognized record type %q", domain.ErrMalformedRecord, raw.Type)
	}
}

func mapContact(sourceFileID string, raw RawRecord, now time.Time) (MappedRecord, error) {
	if _, err := mail.ParseAddress(raw.Email); err != nil {
		return MappedRecord{}, fmt.Errorf("%w: invalid email %q", domain.ErrMalformedRecord, raw.Email)
	}

	identity := strings.TrimSpace(raw.ExternalID)
	if identity == "" {
		identity = strings.ToLower(strings.TrimSpace(raw.Email))
	}
	if identity == "" {
		return MappedRecord{}, fmt.Errorf("%w: contact carries no identity", domain.ErrMalformedRecord)
	}

	return MappedRecord{
		Kind: KindContact,
		Record: domain.ImportableRecord{
			SourceFileID: sourceFileID,
			DedupKey:     dedupKey(recordTypeContact, identity),
			Payload: domain.Payload{
				ExternalID:  strings.TrimSpace(raw.ExternalID),
				FirstName:   strings.TrimSpace(raw.FirstName),
				LastName:    strings.TrimSpace(raw.LastName),
				Email:       raw.Email,
				PhoneNumber: strings.TrimSpace(raw.PhoneNumber),
			},
			ImportedAt: now,
		},
	}, nil
}

func mapMembership(raw RawRecord) (MappedRecord, error) {
	principal, err := membership.NewPrincipal(raw.ExternalID, raw.FirstName, raw.LastName, raw.Email)
	if err != nil {
		return MappedRecord{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	groups := make([]string, 0, len(raw.Groups))
	for _, name := range raw.Groups {
		name = strings.TrimSpace(name)
		if name != "" {
			groups = append(groups, name)
		}
	}
	if len(groups) == 0 {
		return MappedRecord{}, fmt.Errorf("%w: membership record names no groups", domain.ErrMalformedRecord)
	}

	return MappedRecord{
		Kind:      KindMembership,
		Principal: principal,
		Groups:    groups,
	}, nil
}

func mapDeactivation(raw RawRecord) (MappedRecord, error) {
	externalID := strings.TrimSpace(raw.ExternalID)
	if externalID == "" {
		return MappedRecord{}, fmt.Errorf("%w: deactivation carries no external id", domain.ErrMalformedRecord)
	}

	return MappedRecord{
		Kind:       KindDeactivation,
		ExternalID: externalID,
	}, nil
}

func dedupKey(kind, identity string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + identity))
	return hex.EncodeToString(sum[:])
}
