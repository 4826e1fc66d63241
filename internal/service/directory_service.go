package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// DirectoryService resolves users and groups and manages the membership
// relation that gates assignment.
type DirectoryService struct {
	users       repository.UserRepository
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
	dispatcher  events.Dispatcher
}

// DirectoryDependencies bundles repositories for the directory service.
type DirectoryDependencies struct {
	UserRepo       repository.UserRepository
	GroupRepo      repository.GroupRepository
	MembershipRepo repository.MembershipRepository
	Dispatcher     events.Dispatcher
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		users:       deps.UserRepo,
		groups:      deps.GroupRepo,
		memberships: deps.MembershipRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// ResolveUser looks up a user by contact key.
func (s *DirectoryService) ResolveUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ResolveGroup looks up a group by name.
func (s *DirectoryService) ResolveGroup(ctx context.Context, name string) (*domain.Group, error) {
	group, err := s.groups.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("group", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return group, nil
}

// EnsureGroup returns the named group, creating it if absent. Routing never
// fails merely because a group was not pre-registered.
func (s *DirectoryService) EnsureGroup(ctx context.Context, name string) (*domain.Group, error) {
	group, err := s.groups.EnsureByName(ctx, name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return group, nil
}

// IsActiveMember reports whether the user holds an active membership in the
// group.
func (s *DirectoryService) IsActiveMember(ctx context.Context, userID, groupID int64) (bool, error) {
	active, err := s.memberships.ActiveExists(ctx, userID, groupID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return active, nil
}

// AddMembership joins a handler to a group. Non-handlers are rejected with
// RoleMismatch; adding an existing membership returns it unchanged.
func (s *DirectoryService) AddMembership(ctx context.Context, handlerEmail, groupName string) (*domain.Membership, error) {
	user, err := s.ResolveUser(ctx, handlerEmail)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleHandler {
		return nil, apperrors.NewRoleMismatch("user is not a handler", map[string]any{"email": handlerEmail})
	}
	group, err := s.ResolveGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}

	existing, err := s.memberships.GetByUserAndGroup(ctx, user.ID, group.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	membership := &domain.Membership{
		UserID:   user.ID,
		GroupID:  group.ID,
		IsActive: true,
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMembershipAdded,
			Actor:     actorFor(user),
			Timestamp: time.Now().UTC(),
			Payload:   events.MembershipAddedPayload{GroupName: group.Name},
		})
	}
	return membership, nil
}
