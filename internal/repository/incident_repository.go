package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
)

// IncidentRepository encapsulates incident persistence. Incidents are never
// deleted; closure is a terminal state, not a removal.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so concurrent mutations serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Incident, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]domain.Incident, error)
	ListGroupQueue(ctx context.Context, groupID int64) ([]domain.Incident, error)
	ListByHandler(ctx context.Context, handlerID int64) ([]domain.Incident, error)
	CountOpenByRequester(ctx context.Context, requesterID int64) (int, error)
	LatestByRequester(ctx context.Context, requesterID int64) (*domain.Incident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

func (r *incidentRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const incidentColumns = `
        i.id, i.title, i.description, i.status, i.requester_id,
        i.assigned_group_id, i.assigned_handler_id, i.created_at, i.updated_at, i.closed_at,
        g.name AS group_name, h.email AS handler_email`

const incidentFrom = `
        FROM incidents i
        JOIN groups g ON g.id = i.assigned_group_id
        LEFT JOIN users h ON h.id = i.assigned_handler_id`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (title, description, status, requester_id, assigned_group_id, assigned_handler_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.q(ctx).QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.RequesterID,
		incident.AssignedGroupID,
		incident.AssignedHandlerID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	const query = `
        UPDATE incidents SET status=$1, assigned_handler_id=$2, closed_at=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := r.q(ctx).Exec(ctx, query,
		incident.Status,
		incident.AssignedHandlerID,
		incident.ClosedAt,
		incident.UpdatedAt,
		incident.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentFrom + ` WHERE i.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *incidentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Incident, error) {
	const query = `
        SELECT id, title, description, status, requester_id,
               assigned_group_id, assigned_handler_id, created_at, updated_at, closed_at
        FROM incidents WHERE id=$1 FOR UPDATE`
	var incident domain.Incident
	if err := r.q(ctx).QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Status,
		&incident.RequesterID,
		&incident.AssignedGroupID,
		&incident.AssignedHandlerID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}

// ListByRequester returns the requester's incidents, newest first.
func (r *incidentRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentFrom + `
        WHERE i.requester_id=$1 ORDER BY i.id DESC`
	return r.fetchMany(ctx, query, requesterID)
}

// ListGroupQueue returns the group's open, unassigned incidents, oldest
// first, so routing stays FIFO-fair.
func (r *incidentRepository) ListGroupQueue(ctx context.Context, groupID int64) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentFrom + `
        WHERE i.assigned_group_id=$1 AND i.assigned_handler_id IS NULL AND i.status=$2
        ORDER BY i.id ASC`
	return r.fetchMany(ctx, query, groupID, domain.StatusOpen)
}

// ListByHandler returns incidents assigned to the handler, newest first.
func (r *incidentRepository) ListByHandler(ctx context.Context, handlerID int64) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentFrom + `
        WHERE i.assigned_handler_id=$1 ORDER BY i.id DESC`
	return r.fetchMany(ctx, query, handlerID)
}

func (r *incidentRepository) CountOpenByRequester(ctx context.Context, requesterID int64) (int, error) {
	const query = `
        SELECT COUNT(*) FROM incidents WHERE requester_id=$1 AND status <> $2`
	var count int
	if err := r.q(ctx).QueryRow(ctx, query, requesterID, domain.StatusClosed).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *incidentRepository) LatestByRequester(ctx context.Context, requesterID int64) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentFrom + `
        WHERE i.requester_id=$1 ORDER BY i.id DESC LIMIT 1`
	return r.fetchSingle(ctx, query, requesterID)
}

func (r *incidentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Incident, error) {
	var incident domain.Incident
	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Status,
		&incident.RequesterID,
		&incident.AssignedGroupID,
		&incident.AssignedHandlerID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ClosedAt,
		&incident.GroupName,
		&incident.HandlerEmail,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Incident, error) {
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func scanIncidents(rows pgx.Rows) ([]domain.Incident, error) {
	var result []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(
			&incident.ID,
			&incident.Title,
			&incident.Description,
			&incident.Status,
			&incident.RequesterID,
			&incident.AssignedGroupID,
			&incident.AssignedHandlerID,
			&incident.CreatedAt,
			&incident.UpdatedAt,
			&incident.ClosedAt,
			&incident.GroupName,
			&incident.HandlerEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}
