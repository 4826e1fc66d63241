package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
)

// MembershipRepository manages the user-to-group membership relation.
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	GetByUserAndGroup(ctx context.Context, userID, groupID int64) (*domain.Membership, error)
	// ActiveExists reports whether the user holds an active membership in
	// the group.
	ActiveExists(ctx context.Context, userID, groupID int64) (bool, error)
}

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository constructs repository.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

func (r *membershipRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

func (r *membershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	const query = `
        INSERT INTO group_memberships (user_id, group_id, is_active)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.q(ctx).QueryRow(ctx, query,
		membership.UserID,
		membership.GroupID,
		membership.IsActive,
	).Scan(&membership.ID, &membership.CreatedAt)
}

func (r *membershipRepository) GetByUserAndGroup(ctx context.Context, userID, groupID int64) (*domain.Membership, error) {
	const query = `
        SELECT id, user_id, group_id, is_active, created_at
        FROM group_memberships WHERE user_id=$1 AND group_id=$2`
	var membership domain.Membership
	if err := r.q(ctx).QueryRow(ctx, query, userID, groupID).Scan(
		&membership.ID,
		&membership.UserID,
		&membership.GroupID,
		&membership.IsActive,
		&membership.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) ActiveExists(ctx context.Context, userID, groupID int64) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM group_memberships
            WHERE user_id=$1 AND group_id=$2 AND is_active=TRUE
        )`
	var exists bool
	if err := r.q(ctx).QueryRow(ctx, query, userID, groupID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
