package membership

import (
	"net/mail"
	"strings"
)

// Principal carries the identity fields the pipeline needs from an import
// record. It is resolved to (or created as) an ApplicationUser by the store.
type Principal struct {
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
}

func NewPrincipal(externalID, firstName, lastName, email string) (Principal, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Principal{}, ErrUnknownPrincipal
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Principal{}, ErrUnknownPrincipal
	}

	return Principal{
		ExternalID: externalID,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Email:      email,
	}, nil
}

type Group struct {
	ID   string
	Name string
}

type ApplicationUser struct {
	ID         string
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
	Active     bool
	Groups     []Group
}

func (u ApplicationUser) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}
