package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/estimate"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// TxRunner executes a function as one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LifecycleService owns the incident state machine: creation, routing,
// assignment, status transitions and closure. Every transition commits
// together with its journal entry.
type LifecycleService struct {
	users       repository.UserRepository
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
	incidents   repository.IncidentRepository
	journal     repository.JournalRepository
	tx          TxRunner
	estimator   estimate.Estimator
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	UserRepo       repository.UserRepository
	GroupRepo      repository.GroupRepository
	MembershipRepo repository.MembershipRepository
	IncidentRepo   repository.IncidentRepository
	JournalRepo    repository.JournalRepository
	Tx             TxRunner
	Estimator      estimate.Estimator
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		users:       deps.UserRepo,
		groups:      deps.GroupRepo,
		memberships: deps.MembershipRepo,
		incidents:   deps.IncidentRepo,
		journal:     deps.JournalRepo,
		tx:          deps.Tx,
		estimator:   deps.Estimator,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// CreateIncidentInput describes incident creation payload.
type CreateIncidentInput struct {
	Title       string
	Description string
	GroupName   string
}

// CreateIncident routes a new incident to its group with status open, then
// attempts a best-effort resolution-time estimate. Estimation failure never
// fails creation; the returned estimate is nil in that case.
func (s *LifecycleService) CreateIncident(ctx context.Context, requesterEmail string, input CreateIncidentInput) (*domain.Incident, *float64, error) {
	requester, err := s.users.GetByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("requester", map[string]any{"email": requesterEmail})
		}
		return nil, nil, apperrors.MapError(err)
	}

	incident := &domain.Incident{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.StatusOpen,
		RequesterID: requester.ID,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		group, err := s.groups.EnsureByName(ctx, input.GroupName)
		if err != nil {
			return apperrors.MapError(err)
		}
		incident.AssignedGroupID = group.ID
		incident.GroupName = group.Name
		return apperrors.MapError(s.incidents.Create(ctx, incident))
	})
	if err != nil {
		return nil, nil, err
	}

	// Estimation runs outside the transaction boundary: slow or failing
	// model calls must not hold or roll back the committed incident.
	projected := s.projectResolution(ctx, requester.ID, incident)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		Actor:      actorFor(requester),
		Payload: events.IncidentCreatedPayload{
			GroupName:       incident.GroupName,
			Title:           incident.Title,
			ProjectedHours:  projected,
			DerivedCategory: string(estimate.Categorize(incident.Title, incident.Description)),
		},
	})
	return incident, projected, nil
}

// projectResolution derives features, calls the estimator, and when it
// succeeds records the projection as a pure-comment journal entry. Every
// failure path yields nil.
func (s *LifecycleService) projectResolution(ctx context.Context, authorID int64, incident *domain.Incident) *float64 {
	vector := estimate.BuildVector(incident.Title, incident.Description, incident.GroupName)
	hours, err := s.estimator.Estimate(ctx, vector)
	if err != nil {
		s.metrics.RecordEstimation(false)
		s.logger.Debug("estimate unavailable",
			zap.Int64("incident_id", incident.ID), zap.Error(err))
		return nil
	}
	s.metrics.RecordEstimation(true)

	entry := &domain.JournalEntry{
		IncidentID: incident.ID,
		AuthorID:   authorID,
		Comment:    fmt.Sprintf("Projected resolution: %.1f hours", hours),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		// The projection note is informational; losing it is not a
		// creation failure.
		s.logger.Warn("failed to journal projection",
			zap.Int64("incident_id", incident.ID), zap.Error(err))
	}
	return &hours
}

// Assign sets the incident's handler and moves it to assigned. Reassigning
// an already-assigned incident overwrites the handler and re-logs; callers
// needing single-assignment semantics must check current state first.
func (s *LifecycleService) Assign(ctx context.Context, incidentID int64, handlerEmail string) (*domain.Incident, error) {
	handler, err := s.users.GetByEmail(ctx, handlerEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("handler", map[string]any{"email": handlerEmail})
		}
		return nil, apperrors.MapError(err)
	}
	if handler.Role != domain.RoleHandler {
		return nil, apperrors.NewRoleMismatch("user is not a handler", map[string]any{"email": handlerEmail})
	}

	var prevHandler *int64
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		incident, err := s.incidents.GetByIDForUpdate(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.Status.IsTerminal() {
			return apperrors.NewInvalidTransition("incident is closed", map[string]any{"incident_id": incidentID})
		}

		active, err := s.memberships.ActiveExists(ctx, handler.ID, incident.AssignedGroupID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !active {
			return apperrors.NewForbidden("handler is not an active member of the incident's group", map[string]any{
				"email":    handlerEmail,
				"group_id": incident.AssignedGroupID,
			})
		}

		now := time.Now().UTC()
		prevHandler = incident.AssignedHandlerID
		incident.AssignedHandlerID = &handler.ID
		incident.Status = domain.StatusAssigned
		incident.UpdatedAt = now
		if err := s.incidents.Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}

		status := domain.StatusAssigned
		return apperrors.MapError(s.journal.Append(ctx, &domain.JournalEntry{
			IncidentID: incident.ID,
			AuthorID:   handler.ID,
			Comment:    "Assigned to " + handler.Email,
			Status:     &status,
			CreatedAt:  now,
		}))
	})
	if err != nil {
		return nil, err
	}

	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentAssigned,
		IncidentID: incident.ID,
		Actor:      actorFor(handler),
		Payload: events.IncidentAssignedPayload{
			HandlerID:    handler.ID,
			HandlerEmail: handler.Email,
			PrevHandler:  prevHandler,
			GroupName:    incident.GroupName,
		},
	})
	return incident, nil
}

// UpdateStatus applies an explicit status update. Targets are limited to
// assigned, in-progress, resolved and closed; open can never be re-entered.
// Closing stamps closed_at exactly once; any update against an already
// closed incident is rejected.
func (s *LifecycleService) UpdateStatus(ctx context.Context, incidentID int64, authorEmail string, newStatus domain.IncidentStatus, comment string) (*domain.Incident, error) {
	author, err := s.users.GetByEmail(ctx, authorEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("author", map[string]any{"email": authorEmail})
		}
		return nil, apperrors.MapError(err)
	}
	if !newStatus.IsUpdateTarget() {
		return nil, apperrors.NewInvalidStatus(string(newStatus))
	}

	var oldStatus domain.IncidentStatus
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		incident, err := s.incidents.GetByIDForUpdate(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.Status.IsTerminal() {
			return apperrors.NewInvalidTransition("incident is already closed", map[string]any{"incident_id": incidentID})
		}

		now := time.Now().UTC()
		oldStatus = incident.Status
		incident.Status = newStatus
		incident.UpdatedAt = now
		if newStatus == domain.StatusClosed {
			incident.ClosedAt = &now
		}
		if err := s.incidents.Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}

		status := newStatus
		return apperrors.MapError(s.journal.Append(ctx, &domain.JournalEntry{
			IncidentID: incident.ID,
			AuthorID:   author.ID,
			Comment:    comment,
			Status:     &status,
			CreatedAt:  now,
		}))
	})
	if err != nil {
		return nil, err
	}

	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentStatusChanged,
		IncidentID: incident.ID,
		Actor:      actorFor(author),
		Payload: events.IncidentStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return incident, nil
}

// GetDetail returns an incident with its ordered journal.
func (s *LifecycleService) GetDetail(ctx context.Context, incidentID int64) (*domain.Incident, []domain.JournalEntry, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	entries, err := s.journal.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return incident, entries, nil
}

// Predict estimates resolution time for a caller-supplied vector without
// touching any incident. Unlike incident mutations, here unavailability is
// surfaced to the caller.
func (s *LifecycleService) Predict(ctx context.Context, title, description, groupName string) (float64, error) {
	vector := estimate.BuildVector(title, description, groupName)
	hours, err := s.estimator.Estimate(ctx, vector)
	if err != nil {
		s.metrics.RecordEstimation(false)
		return 0, apperrors.NewUnavailable("model not loaded or prediction failed")
	}
	s.metrics.RecordEstimation(true)
	return hours, nil
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(user *domain.User) events.Actor {
	return events.Actor{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
}
