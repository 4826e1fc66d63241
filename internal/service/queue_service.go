package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/estimate"
	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// QueueService answers read-only projections of the incident set. It never
// mutates state.
type QueueService struct {
	users     repository.UserRepository
	groups    repository.GroupRepository
	incidents repository.IncidentRepository
	estimator estimate.Estimator
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// QueueDependencies bundles collaborators for queue views.
type QueueDependencies struct {
	UserRepo     repository.UserRepository
	GroupRepo    repository.GroupRepository
	IncidentRepo repository.IncidentRepository
	Estimator    estimate.Estimator
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{
		users:     deps.UserRepo,
		groups:    deps.GroupRepo,
		incidents: deps.IncidentRepo,
		estimator: deps.Estimator,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// MyIncidents lists the requester's incidents, newest first.
func (s *QueueService) MyIncidents(ctx context.Context, email string) ([]domain.Incident, error) {
	user, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	incidents, err := s.incidents.ListByRequester(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return incidents, nil
}

// GroupQueue lists a group's open, unassigned incidents, oldest first.
func (s *QueueService) GroupQueue(ctx context.Context, groupName string) ([]domain.Incident, error) {
	group, err := s.groups.GetByName(ctx, groupName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("group", map[string]any{"name": groupName})
		}
		return nil, apperrors.MapError(err)
	}
	incidents, err := s.incidents.ListGroupQueue(ctx, group.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return incidents, nil
}

// AssignedTo lists incidents assigned to the handler, newest first.
func (s *QueueService) AssignedTo(ctx context.Context, email string) ([]domain.Incident, error) {
	user, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleHandler {
		return nil, apperrors.NewRoleMismatch("user is not a handler", map[string]any{"email": email})
	}
	incidents, err := s.incidents.ListByHandler(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return incidents, nil
}

// DashboardSummary is the requester's dashboard card: count of non-closed
// incidents plus a projection for the most recently created one. The
// projection is recomputed on every read, never cached.
type DashboardSummary struct {
	OpenCount            int
	LatestProjectedHours *float64
}

// Summary builds the dashboard summary for a requester.
func (s *QueueService) Summary(ctx context.Context, email string) (*DashboardSummary, error) {
	user, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	openCount, err := s.incidents.CountOpenByRequester(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summary := &DashboardSummary{OpenCount: openCount}

	latest, err := s.incidents.LatestByRequester(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, nil
		}
		return nil, apperrors.MapError(err)
	}

	vector := estimate.BuildVector(latest.Title, latest.Description, latest.GroupName)
	hours, err := s.estimator.Estimate(ctx, vector)
	if err != nil {
		s.metrics.RecordEstimation(false)
		s.logger.Debug("summary estimate unavailable",
			zap.Int64("incident_id", latest.ID), zap.Error(err))
		return summary, nil
	}
	s.metrics.RecordEstimation(true)
	summary.LatestProjectedHours = &hours
	return summary, nil
}

func (s *QueueService) resolveUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
