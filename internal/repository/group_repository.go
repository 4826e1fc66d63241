package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
)

// GroupRepository manages persistence for routing groups.
type GroupRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	// EnsureByName returns the group with the given name, creating it when
	// absent. Concurrent callers racing on the same name both receive the
	// surviving row.
	EnsureByName(ctx context.Context, name string) (*domain.Group, error)
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository constructs repository.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	const query = `SELECT id, name, created_at FROM groups WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *groupRepository) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	const query = `SELECT id, name, created_at FROM groups WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *groupRepository) EnsureByName(ctx context.Context, name string) (*domain.Group, error) {
	// The no-op update makes RETURNING yield the row on conflict as well.
	const query = `
        INSERT INTO groups (name) VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
        RETURNING id, name, created_at`
	var group domain.Group
	if err := r.q(ctx).QueryRow(ctx, query, name).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Group, error) {
	var group domain.Group
	if err := r.q(ctx).QueryRow(ctx, query, arg).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &group, nil
}
