package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
)

// JournalRepository stores the append-only audit log. It performs no
// transition validation; legality of status changes is the lifecycle
// service's responsibility.
type JournalRepository interface {
	Append(ctx context.Context, entry *domain.JournalEntry) error
	ListByIncident(ctx context.Context, incidentID int64) ([]domain.JournalEntry, error)
}

type journalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository builds repository.
func NewJournalRepository(pool *pgxpool.Pool) JournalRepository {
	return &journalRepository{pool: pool}
}

func (r *journalRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

func (r *journalRepository) Append(ctx context.Context, entry *domain.JournalEntry) error {
	const query = `
        INSERT INTO incident_journal (incident_id, author_id, comment, status, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.q(ctx).QueryRow(ctx, query,
		entry.IncidentID,
		entry.AuthorID,
		entry.Comment,
		entry.Status,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

// ListByIncident returns entries ascending by creation time; re-reading
// yields the same sequence given no new appends.
func (r *journalRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.JournalEntry, error) {
	const query = `
        SELECT j.id, j.incident_id, j.author_id, j.comment, j.status, j.created_at, u.email
        FROM incident_journal j
        JOIN users u ON u.id = j.author_id
        WHERE j.incident_id=$1
        ORDER BY j.created_at ASC, j.id ASC`
	rows, err := r.q(ctx).Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JournalEntry
	for rows.Next() {
		var entry domain.JournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.IncidentID,
			&entry.AuthorID,
			&entry.Comment,
			&entry.Status,
			&entry.CreatedAt,
			&entry.AuthorEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
