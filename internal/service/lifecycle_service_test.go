package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/estimate"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

func newLifecycleFixture(estimator estimate.Estimator) (*LifecycleService, *memStore) {
	store := newMemStore()
	svc := NewLifecycleService(LifecycleDependencies{
		UserRepo:       &fakeUserRepo{store: store},
		GroupRepo:      &fakeGroupRepo{store: store},
		MembershipRepo: &fakeMembershipRepo{store: store},
		IncidentRepo:   &fakeIncidentRepo{store: store},
		JournalRepo:    &fakeJournalRepo{store: store},
		Tx:             nopTx{},
		Estimator:      estimator,
	})
	return svc, store
}

func requireDomainCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
	return domainErr
}

func TestCreateIncidentEstimatorUnavailable(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)

	incident, projected, err := svc.CreateIncident(context.Background(), "rita@example.com", CreateIncidentInput{
		Title:       "Printer offline",
		Description: "Third floor printer unreachable",
		GroupName:   "Facilities",
	})
	require.NoError(t, err)
	require.NotNil(t, incident)

	assert.Equal(t, int64(1), incident.ID)
	assert.Equal(t, domain.StatusOpen, incident.Status)
	assert.Equal(t, "Facilities", incident.GroupName)
	assert.Nil(t, incident.AssignedHandlerID)
	assert.Nil(t, projected)
	assert.Empty(t, store.journal, "no projection entry when the estimate fails")
}

func TestCreateIncidentJournalsProjection(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{hours: 5.5})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)

	incident, projected, err := svc.CreateIncident(context.Background(), "rita@example.com", CreateIncidentInput{
		Title:       "VPN broken",
		Description: "Cannot reach internal services",
		GroupName:   "Network",
	})
	require.NoError(t, err)
	require.NotNil(t, projected)
	assert.Equal(t, 5.5, *projected)

	entries, err := (&fakeJournalRepo{store: store}).ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Projected resolution: 5.5 hours", entries[0].Comment)
	assert.Nil(t, entries[0].Status, "projection note carries no status change")
	assert.Equal(t, "rita@example.com", entries[0].AuthorEmail)
}

func TestCreateIncidentUnknownRequester(t *testing.T) {
	svc, _ := newLifecycleFixture(fixedEstimator{hours: 1})

	_, _, err := svc.CreateIncident(context.Background(), "ghost@example.com", CreateIncidentInput{
		Title: "x", Description: "y", GroupName: "Infra",
	})
	requireDomainCode(t, err, "NOT_FOUND")
}

func createOpenIncident(t *testing.T, svc *LifecycleService, requesterEmail, group string) *domain.Incident {
	t.Helper()
	incident, _, err := svc.CreateIncident(context.Background(), requesterEmail, CreateIncidentInput{
		Title:       "Database down",
		Description: "Primary refuses connections",
		GroupName:   group,
	})
	require.NoError(t, err)
	return incident
}

func TestAssignHappyPath(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	handler := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(handler.ID, incident.AssignedGroupID, true)

	updated, err := svc.Assign(context.Background(), incident.ID, "h@x.com")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedHandlerID)
	assert.Equal(t, handler.ID, *updated.AssignedHandlerID)
	require.NotNil(t, updated.HandlerEmail)
	assert.Equal(t, "h@x.com", *updated.HandlerEmail)

	entries, err := (&fakeJournalRepo{store: store}).ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Assigned to h@x.com", entries[0].Comment)
	require.NotNil(t, entries[0].Status)
	assert.Equal(t, domain.StatusAssigned, *entries[0].Status)
}

func TestAssignRejectsInactiveMembership(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	handler := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(handler.ID, incident.AssignedGroupID, false)

	_, err := svc.Assign(context.Background(), incident.ID, "h@x.com")
	requireDomainCode(t, err, "FORBIDDEN")

	unchanged, getErr := (&fakeIncidentRepo{store: store}).GetByID(context.Background(), incident.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusOpen, unchanged.Status)
	assert.Nil(t, unchanged.AssignedHandlerID)
}

func TestAssignRejectsNonHandler(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")

	_, err := svc.Assign(context.Background(), incident.ID, "rita@example.com")
	requireDomainCode(t, err, "ROLE_MISMATCH")
}

func TestAssignUnknownIncident(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Hal", "h@x.com", domain.RoleHandler)

	_, err := svc.Assign(context.Background(), 404, "h@x.com")
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestReassignOverwritesHandler(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	first := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	second := store.addUser("Ida", "ida@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(first.ID, incident.AssignedGroupID, true)
	store.addMembership(second.ID, incident.AssignedGroupID, true)

	_, err := svc.Assign(context.Background(), incident.ID, "h@x.com")
	require.NoError(t, err)
	updated, err := svc.Assign(context.Background(), incident.ID, "ida@x.com")
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedHandlerID)
	assert.Equal(t, second.ID, *updated.AssignedHandlerID)

	entries, err := (&fakeJournalRepo{store: store}).ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Assigned to h@x.com", entries[0].Comment)
	assert.Equal(t, "Assigned to ida@x.com", entries[1].Comment)
}

func TestUpdateStatusRejectsOpenTarget(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Hal", "h@x.com", domain.RoleHandler)
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")

	_, err := svc.UpdateStatus(context.Background(), incident.ID, "h@x.com", domain.StatusOpen, "reopening")
	requireDomainCode(t, err, "INVALID_STATUS")
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Hal", "h@x.com", domain.RoleHandler)
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")

	_, err := svc.UpdateStatus(context.Background(), incident.ID, "h@x.com", domain.IncidentStatus("escalated"), "")
	requireDomainCode(t, err, "INVALID_STATUS")
}

func TestUpdateStatusProgressionAndClosure(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	handler := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(handler.ID, incident.AssignedGroupID, true)

	_, err := svc.Assign(context.Background(), incident.ID, "h@x.com")
	require.NoError(t, err)

	inProgress, err := svc.UpdateStatus(context.Background(), incident.ID, "h@x.com", domain.StatusInProgress, "working on it")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, inProgress.Status)
	assert.Nil(t, inProgress.ClosedAt)

	resolved, err := svc.UpdateStatus(context.Background(), incident.ID, "h@x.com", domain.StatusResolved, "fix deployed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	assert.Nil(t, resolved.ClosedAt)

	closed, err := svc.UpdateStatus(context.Background(), incident.ID, "rita@example.com", domain.StatusClosed, "confirmed fixed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	entries, err := (&fakeJournalRepo{store: store}).ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	var statuses []domain.IncidentStatus
	for _, entry := range entries {
		require.NotNil(t, entry.Status)
		statuses = append(statuses, *entry.Status)
	}
	assert.Equal(t, []domain.IncidentStatus{
		domain.StatusAssigned,
		domain.StatusInProgress,
		domain.StatusResolved,
		domain.StatusClosed,
	}, statuses)
}

func TestClosedIncidentIsTerminal(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	handler := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(handler.ID, incident.AssignedGroupID, true)

	closed, err := svc.UpdateStatus(context.Background(), incident.ID, "rita@example.com", domain.StatusClosed, "never mind")
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	firstClosedAt := *closed.ClosedAt

	_, err = svc.UpdateStatus(context.Background(), incident.ID, "h@x.com", domain.StatusClosed, "closing again")
	requireDomainCode(t, err, "INVALID_TRANSITION")

	_, err = svc.Assign(context.Background(), incident.ID, "h@x.com")
	requireDomainCode(t, err, "INVALID_TRANSITION")

	current, err := (&fakeIncidentRepo{store: store}).GetByID(context.Background(), incident.ID)
	require.NoError(t, err)
	require.NotNil(t, current.ClosedAt)
	assert.Equal(t, firstClosedAt, *current.ClosedAt, "closed_at set exactly once")
}

func TestGetDetailOrdersJournal(t *testing.T) {
	svc, store := newLifecycleFixture(fixedEstimator{hours: 2.0})
	store.addUser("Rita", "rita@example.com", domain.RoleRequester)
	handler := store.addUser("Hal", "h@x.com", domain.RoleHandler)
	incident := createOpenIncident(t, svc, "rita@example.com", "Infra")
	store.addMembership(handler.ID, incident.AssignedGroupID, true)

	_, err := svc.Assign(context.Background(), incident.ID, "h@x.com")
	require.NoError(t, err)

	detail, entries, err := svc.GetDetail(context.Background(), incident.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.ID, detail.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, "Projected resolution: 2.0 hours", entries[0].Comment)
	assert.Equal(t, "Assigned to h@x.com", entries[1].Comment)
}

func TestGetDetailNotFound(t *testing.T) {
	svc, _ := newLifecycleFixture(fixedEstimator{hours: 1})

	_, _, err := svc.GetDetail(context.Background(), 9000)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestPredictSurfacesUnavailability(t *testing.T) {
	svc, _ := newLifecycleFixture(fixedEstimator{err: estimate.ErrUnavailable})

	_, err := svc.Predict(context.Background(), "App crash", "UI freezes on load", "Software")
	requireDomainCode(t, err, "UNAVAILABLE")
}

func TestPredictReturnsEstimate(t *testing.T) {
	svc, _ := newLifecycleFixture(fixedEstimator{hours: 7.25})

	hours, err := svc.Predict(context.Background(), "App crash", "UI freezes on load", "Software")
	require.NoError(t, err)
	assert.Equal(t, 7.25, hours)
}
