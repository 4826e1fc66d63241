package service

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/estimate"
)

// memStore is a shared in-memory backing for the fake repositories so joins
// (group name, handler email) behave like the Postgres implementations.
type memStore struct {
	users       map[int64]*domain.User
	groups      map[int64]*domain.Group
	memberships []*domain.Membership
	incidents   map[int64]*domain.Incident
	journal     []*domain.JournalEntry

	nextUser       int64
	nextGroup      int64
	nextMembership int64
	nextIncident   int64
	nextJournal    int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*domain.User),
		groups:    make(map[int64]*domain.Group),
		incidents: make(map[int64]*domain.Incident),
	}
}

func (s *memStore) addUser(name, email string, role domain.UserRole) *domain.User {
	s.nextUser++
	user := &domain.User{
		ID:        s.nextUser,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) addGroup(name string) *domain.Group {
	for _, group := range s.groups {
		if group.Name == name {
			return group
		}
	}
	s.nextGroup++
	group := &domain.Group{ID: s.nextGroup, Name: name, CreatedAt: time.Now().UTC()}
	s.groups[group.ID] = group
	return group
}

func (s *memStore) addMembership(userID, groupID int64, active bool) *domain.Membership {
	s.nextMembership++
	membership := &domain.Membership{
		ID:        s.nextMembership,
		UserID:    userID,
		GroupID:   groupID,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	s.memberships = append(s.memberships, membership)
	return membership
}

func (s *memStore) denormalize(incident domain.Incident) domain.Incident {
	if group, ok := s.groups[incident.AssignedGroupID]; ok {
		incident.GroupName = group.Name
	}
	if incident.AssignedHandlerID != nil {
		if handler, ok := s.users[*incident.AssignedHandlerID]; ok {
			email := handler.Email
			incident.HandlerEmail = &email
		}
	}
	return incident
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.nextUser++
	user.ID = r.store.nextUser
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeGroupRepo struct{ store *memStore }

func (r *fakeGroupRepo) GetByID(_ context.Context, id int64) (*domain.Group, error) {
	group, ok := r.store.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *group
	return &clone, nil
}

func (r *fakeGroupRepo) GetByName(_ context.Context, name string) (*domain.Group, error) {
	for _, group := range r.store.groups {
		if group.Name == name {
			clone := *group
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeGroupRepo) EnsureByName(_ context.Context, name string) (*domain.Group, error) {
	clone := *r.store.addGroup(name)
	return &clone, nil
}

type fakeMembershipRepo struct{ store *memStore }

func (r *fakeMembershipRepo) Create(_ context.Context, membership *domain.Membership) error {
	created := r.store.addMembership(membership.UserID, membership.GroupID, membership.IsActive)
	membership.ID = created.ID
	membership.CreatedAt = created.CreatedAt
	return nil
}

func (r *fakeMembershipRepo) GetByUserAndGroup(_ context.Context, userID, groupID int64) (*domain.Membership, error) {
	for _, membership := range r.store.memberships {
		if membership.UserID == userID && membership.GroupID == groupID {
			clone := *membership
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMembershipRepo) ActiveExists(_ context.Context, userID, groupID int64) (bool, error) {
	for _, membership := range r.store.memberships {
		if membership.UserID == userID && membership.GroupID == groupID && membership.IsActive {
			return true, nil
		}
	}
	return false, nil
}

type fakeIncidentRepo struct{ store *memStore }

func (r *fakeIncidentRepo) Create(_ context.Context, incident *domain.Incident) error {
	r.store.nextIncident++
	incident.ID = r.store.nextIncident
	incident.CreatedAt = time.Now().UTC()
	incident.UpdatedAt = incident.CreatedAt
	clone := *incident
	r.store.incidents[incident.ID] = &clone
	return nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, incident *domain.Incident) error {
	stored, ok := r.store.incidents[incident.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = incident.Status
	stored.AssignedHandlerID = incident.AssignedHandlerID
	stored.ClosedAt = incident.ClosedAt
	stored.UpdatedAt = incident.UpdatedAt
	return nil
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, id int64) (*domain.Incident, error) {
	stored, ok := r.store.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	incident := r.store.denormalize(*stored)
	return &incident, nil
}

func (r *fakeIncidentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Incident, error) {
	stored, ok := r.store.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeIncidentRepo) ListByRequester(_ context.Context, requesterID int64) ([]domain.Incident, error) {
	return r.list(func(i *domain.Incident) bool { return i.RequesterID == requesterID }, false), nil
}

func (r *fakeIncidentRepo) ListGroupQueue(_ context.Context, groupID int64) ([]domain.Incident, error) {
	return r.list(func(i *domain.Incident) bool {
		return i.AssignedGroupID == groupID && i.AssignedHandlerID == nil && i.Status == domain.StatusOpen
	}, true), nil
}

func (r *fakeIncidentRepo) ListByHandler(_ context.Context, handlerID int64) ([]domain.Incident, error) {
	return r.list(func(i *domain.Incident) bool {
		return i.AssignedHandlerID != nil && *i.AssignedHandlerID == handlerID
	}, false), nil
}

func (r *fakeIncidentRepo) CountOpenByRequester(_ context.Context, requesterID int64) (int, error) {
	count := 0
	for _, incident := range r.store.incidents {
		if incident.RequesterID == requesterID && incident.Status != domain.StatusClosed {
			count++
		}
	}
	return count, nil
}

func (r *fakeIncidentRepo) LatestByRequester(_ context.Context, requesterID int64) (*domain.Incident, error) {
	incidents := r.list(func(i *domain.Incident) bool { return i.RequesterID == requesterID }, false)
	if len(incidents) == 0 {
		return nil, pgx.ErrNoRows
	}
	latest := incidents[0]
	return &latest, nil
}

func (r *fakeIncidentRepo) list(match func(*domain.Incident) bool, ascending bool) []domain.Incident {
	var result []domain.Incident
	for _, incident := range r.store.incidents {
		if match(incident) {
			result = append(result, r.store.denormalize(*incident))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if ascending {
			return result[i].ID < result[j].ID
		}
		return result[i].ID > result[j].ID
	})
	return result
}

type fakeJournalRepo struct{ store *memStore }

func (r *fakeJournalRepo) Append(_ context.Context, entry *domain.JournalEntry) error {
	r.store.nextJournal++
	entry.ID = r.store.nextJournal
	clone := *entry
	if clone.Status != nil {
		status := *entry.Status
		clone.Status = &status
	}
	r.store.journal = append(r.store.journal, &clone)
	return nil
}

func (r *fakeJournalRepo) ListByIncident(_ context.Context, incidentID int64) ([]domain.JournalEntry, error) {
	var result []domain.JournalEntry
	for _, entry := range r.store.journal {
		if entry.IncidentID != incidentID {
			continue
		}
		clone := *entry
		if author, ok := r.store.users[entry.AuthorID]; ok {
			clone.AuthorEmail = author.Email
		}
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// nopTx satisfies TxRunner without a database.
type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixedEstimator returns a constant estimate or a fixed error.
type fixedEstimator struct {
	hours float64
	err   error
}

func (e fixedEstimator) Estimate(_ context.Context, _ estimate.Vector) (float64, error) {
	if e.err != nil {
		return 0, e.err
	}
	return e.hours, nil
}
