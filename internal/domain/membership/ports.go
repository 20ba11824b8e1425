package membership

import "context"

// Store maintains users and their group memberships. ApplyMembership is
// union-only: it adds edges, it never removes ones established elsewhere.
// Deactivate is the only destructive operation the pipeline may perform.
type Store interface {
	ApplyMembership(ctx context.Context, principal Principal, groupNames []string) (ApplicationUser, error)
	Deactivate(ctx context.Context, externalID string) error
}
