package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/data-importer/internal/domain/membership"
)

// MembershipRepository owns ApplicationUser/Group state. Changes are
// visible to the authorization layer as soon as the transaction commits;
// no cache sits in between.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// ApplyMembership creates or refreshes the user identified by the
// principal's external id, creates any missing groups, and adds the
// membership edges. Union policy: existing edges are never removed.
func (r *MembershipRepository) ApplyMembership(ctx context.Context, principal membership.Principal, groupNames []string) (membership.ApplicationUser, error) {
	validated, err := membership.NewPrincipal(principal.ExternalID, principal.FirstName, principal.LastName, principal.Email)
	if err != nil {
		return membership.ApplicationUser{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return membership.ApplicationUser{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user := membership.ApplicationUser{
		ExternalID: validated.ExternalID,
		FirstName:  validated.FirstName,
		LastName:   validated.LastName,
		Email:      validated.Email,
	}

	err = tx.QueryRow(ctx, `
INSERT INTO app_users (id, external_id, first_name, last_name, email, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
ON CONFLICT (external_id) DO UPDATE
  SET first_name = EXCLUDED.first_name,
      last_name = EXCLUDED.last_name,
      email = EXCLUDED.email,
      updated_at = NOW()
RETURNING id, active
`, uuid.NewString(), validated.ExternalID, validated.FirstName, validated.LastName, validated.Email).
		Scan(&user.ID, &user.Active)
	if err != nil {
		if isIntegrityViolation(err) {
			return membership.ApplicationUser{}, fmt.Errorf("%w: user %s: %v", membership.ErrConflictingIdentity, validated.ExternalID, err)
		}
		return membership.ApplicationUser{}, fmt.Errorf("upsert user %s: %w", validated.ExternalID, err)
	}

	for _, name := range groupNames {
		var groupID string
		err := tx.QueryRow(ctx, `
INSERT INTO groups (id, name, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, uuid.NewString(), name).Scan(&groupID)
		if err != nil {
			if isIntegrityViolation(err) {
				return membership.ApplicationUser{}, fmt.Errorf("%w: group %s: %v", membership.ErrConflictingIdentity, name, err)
			}
			return membership.ApplicationUser{}, fmt.Errorf("upsert group %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO user_groups (user_id, group_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, user.ID, groupID); err != nil {
			return membership.ApplicationUser{}, fmt.Errorf("add %s to %s: %w", validated.ExternalID, name, err)
		}
	}

	rows, err := tx.Query(ctx, `
SELECT g.id, g.name
FROM groups g
JOIN user_groups ug ON ug.group_id = g.id
WHERE ug.user_id = $1
ORDER BY g.name
`, user.ID)
	if err != nil {
		return membership.ApplicationUser{}, fmt.Errorf("load groups for %s: %w", validated.ExternalID, err)
	}
	for rows.Next() {
		var g membership.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			rows.Close()
			return membership.ApplicationUser{}, fmt.Errorf("scan group: %w", err)
		}
		user.Groups = append(user.Groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return membership.ApplicationUser{}, fmt.Errorf("load groups for %s: %w", validated.ExternalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return membership.ApplicationUser{}, fmt.Errorf("commit membership: %w", err)
	}

	return user, nil
}

// Deactivate clears the active flag. The pipeline never deletes a user.
func (r *MembershipRepository) Deactivate(ctx context.Context, externalID string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE app_users
SET active = FALSE, updated_at = NOW()
WHERE external_id = $1
`, externalID)
	if err != nil {
		return fmt.Errorf("deactivate user %s: %w", externalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deactivate user %s: %w", externalID, membership.ErrUnknownPrincipal)
	}
	return nil
}
