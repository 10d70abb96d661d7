package service_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/delacruzpj/deskhub_client/internal/api"
	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/cache"
	"github.com/delacruzpj/deskhub_client/internal/config"
	"github.com/delacruzpj/deskhub_client/internal/models"
	"github.com/delacruzpj/deskhub_client/internal/service"
	"github.com/delacruzpj/deskhub_client/internal/service/mocks"
	"github.com/delacruzpj/deskhub_client/internal/session"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type lifecycleEnv struct {
	svc      *service.ReportService
	reports  *mocks.MockReportsAPI
	cache    *cache.Cache
	sessions *session.Manager
	key      cache.Key
}

func newLifecycleEnv(t *testing.T, role models.Role, cfg *config.Config) *lifecycleEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportsAPI(ctrl)
	log := testLogger()

	sessions := session.NewManager(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")), log)
	sess := &models.Session{
		Identity: models.Identity{ID: "acct-1", Name: "Test Account", Role: role},
		Token:    "token-1",
	}
	require.NoError(t, sessions.Replace(context.Background(), sess))

	c := cache.New(service.NewFetcher(reports, sessions), log)
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &lifecycleEnv{
		svc:      service.NewReportService(reports, c, sessions, log, cfg),
		reports:  reports,
		cache:    c,
		sessions: sessions,
		key:      service.OwnerKey(sess),
	}
}

func (e *lifecycleEnv) seed(reps ...*models.Report) {
	for _, r := range reps {
		e.cache.Upsert(e.key, r)
	}
}

func seededReport(id string, status models.Status) *models.Report {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Report{
		ID:           id,
		ReporterID:   "acct-1",
		ReporterName: "Juan Dela Cruz",
		ReporterType: "victim",
		IncidentType: "Physical Abuse",
		Description:  "initial description",
		City:         "Manila",
		BarangayComplainant: "Brgy 1",
		BarangayIncident:    "Brgy 5",
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestTransition_RequiresSession(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	require.NoError(t, env.sessions.Logout(context.Background()))

	_, err := env.svc.Transition(context.Background(), "r-1", models.StatusOpened)
	assert.ErrorIs(t, err, service.ErrNotLoggedIn)
}

func TestTransition_UnknownReport(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)

	_, err := env.svc.Transition(context.Background(), "missing", models.StatusOpened)
	assert.ErrorIs(t, err, service.ErrReportNotFound)
}

func TestTransition_CommitsServerRecord(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusOpened))

	confirmed := seededReport("r-1", models.StatusPending)
	confirmed.UpdatedAt = confirmed.UpdatedAt.Add(time.Minute)
	env.reports.EXPECT().
		SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusPending).
		Return(confirmed, nil)

	got, err := env.svc.Transition(context.Background(), "r-1", models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	cached, _ := env.cache.Get(env.key, "r-1")
	assert.Equal(t, confirmed.UpdatedAt, cached.UpdatedAt, "cache holds the server-confirmed record")
}

func TestTransition_SameStatusIsNoOp(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusResolved))

	// no SetReportStatus expectation: re-issuing the current status must
	// not reach the network
	got, err := env.svc.Transition(context.Background(), "r-1", models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
}

func TestTransition_InvalidMoveRejected(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusOpened))

	_, err := env.svc.Transition(context.Background(), "r-1", models.StatusUnopened)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestTransition_ResolvedIsTerminalByDefault(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusResolved))

	_, err := env.svc.Transition(context.Background(), "r-1", models.StatusPending)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestTransition_ResolvedRevertWithPolicy(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, &config.Config{AllowResolvedRevert: true})
	env.seed(seededReport("r-1", models.StatusResolved))

	reverted := seededReport("r-1", models.StatusPending)
	env.reports.EXPECT().
		SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusPending).
		Return(reverted, nil)

	got, err := env.svc.Transition(context.Background(), "r-1", models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestTransition_RollsBackOnFailure(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusOpened))

	gomock.InOrder(
		env.reports.EXPECT().
			SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusResolved).
			Return(nil, &apperrors.MutationError{StatusCode: 500, Message: "server error"}),
		env.reports.EXPECT().
			SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusResolved).
			Return(seededReport("r-1", models.StatusResolved), nil),
	)

	_, err := env.svc.Transition(context.Background(), "r-1", models.StatusResolved)
	require.Error(t, err)
	var merr *apperrors.MutationError
	assert.ErrorAs(t, err, &merr)

	cached, _ := env.cache.Get(env.key, "r-1")
	assert.Equal(t, models.StatusOpened, cached.Status, "optimistic status rolled back")

	// the failed mutation released its slot, so a retry goes through
	got, err := env.svc.Transition(context.Background(), "r-1", models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
}

func TestTransition_RejectedWhileInFlight(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusOpened))

	require.NoError(t, env.cache.TrackMutation("r-1"))

	_, err := env.svc.Transition(context.Background(), "r-1", models.StatusResolved)
	assert.ErrorIs(t, err, cache.ErrMutationInFlight)
}

func TestView_AgentAutoOpensExactlyOnce(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	env.reports.EXPECT().
		SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusOpened).
		Return(seededReport("r-1", models.StatusOpened), nil).
		Times(1)

	got, err := env.svc.View(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpened, got.Status)

	// second view finds an opened report and issues nothing
	got, err = env.svc.View(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpened, got.Status)
}

func TestView_FailedAutoOpenStillReturnsReport(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	gomock.InOrder(
		env.reports.EXPECT().
			SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusOpened).
			Return(nil, &apperrors.MutationError{StatusCode: 502, Message: "bad gateway"}),
		env.reports.EXPECT().
			SetReportStatus(gomock.Any(), "token-1", "r-1", models.StatusOpened).
			Return(seededReport("r-1", models.StatusOpened), nil),
	)

	got, err := env.svc.View(context.Background(), "r-1")
	require.Error(t, err)
	require.NotNil(t, got, "screen still gets the report alongside the error")
	assert.Equal(t, models.StatusUnopened, got.Status)

	// the crossing was not consumed by the failure, so the next view retries
	got, err = env.svc.View(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpened, got.Status)
}

func TestView_ReporterNeverAutoOpens(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	got, err := env.svc.View(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnopened, got.Status)
}

func TestFile_CreatesUnopenedCase(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)

	created := seededReport("r-new", models.StatusUnopened)
	env.reports.EXPECT().
		CreateReport(gomock.Any(), "token-1", gomock.AssignableToTypeOf(api.CreateReportRequest{})).
		DoAndReturn(func(_ context.Context, _ string, req api.CreateReportRequest) (*models.Report, error) {
			assert.Equal(t, "acct-1", req.ReporterID)
			assert.Equal(t, "Juan Dela Cruz", req.Name)
			assert.Equal(t, "Brgy 5", req.BarangayIncident)
			require.Len(t, req.Evidence, 1)
			assert.Equal(t, "image", req.Evidence[0].FileType)
			return created, nil
		})

	got, err := env.svc.File(context.Background(), service.FileCaseInput{
		Name:                "Juan Dela Cruz",
		City:                "Manila",
		Description:         "initial description",
		BarangayComplainant: "Brgy 1",
		BarangayIncident:    "Brgy 5",
		ReporterType:        "victim",
		IncidentType:        "Physical Abuse",
		Evidence:            []service.EvidenceInput{{MIMEType: "image/jpeg", URL: "blob:1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnopened, got.Status)

	cached, ok := env.cache.Get(env.key, "r-new")
	require.True(t, ok)
	assert.Equal(t, models.StatusUnopened, cached.Status)
}

func TestFile_ValidatesBeforeNetwork(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)

	// no CreateReport expectation: missing fields must fail locally
	_, err := env.svc.File(context.Background(), service.FileCaseInput{
		Name: "Juan Dela Cruz",
	})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = env.svc.File(context.Background(), service.FileCaseInput{
		Name:                "Juan Dela Cruz",
		City:                "Manila",
		Description:         "desc",
		BarangayComplainant: "Brgy 1",
		BarangayIncident:    "Brgy 5",
		ReporterType:        "bystander",
		IncidentType:        "Physical Abuse",
	})
	assert.ErrorAs(t, err, &verr, "reporter type is restricted to victim or witness")
}

func TestFile_AgentNotPermitted(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)

	_, err := env.svc.File(context.Background(), service.FileCaseInput{})
	assert.ErrorIs(t, err, service.ErrNotPermitted)
}

func TestUpdate_DraftRoundTrip(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	rep := seededReport("r-1", models.StatusUnopened)
	env.seed(rep)

	draft := models.NewDraft(rep)
	draft.Description = "edited description"
	draft.City = "Quezon City"

	env.reports.EXPECT().
		UpdateReport(gomock.Any(), "token-1", "r-1", gomock.AssignableToTypeOf(api.UpdateReportRequest{})).
		DoAndReturn(func(_ context.Context, _, _ string, req api.UpdateReportRequest) (*models.Report, error) {
			assert.Equal(t, "edited description", req.Description)
			assert.Equal(t, "Quezon City", req.City)
			assert.Equal(t, "Physical Abuse", req.IncidentType, "untouched fields are carried over")
			updated := rep.Clone()
			updated.Description = req.Description
			updated.City = req.City
			updated.UpdatedAt = rep.UpdatedAt.Add(time.Minute)
			return updated, nil
		})

	got, err := env.svc.Update(context.Background(), "r-1", draft)
	require.NoError(t, err)
	assert.Equal(t, "edited description", got.Description)
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, rep.CreatedAt, got.CreatedAt, "server-assigned fields never change")
}

func TestUpdate_ValidatesBeforeNetwork(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	rep := seededReport("r-1", models.StatusUnopened)
	env.seed(rep)

	draft := models.NewDraft(rep)
	draft.Description = ""

	_, err := env.svc.Update(context.Background(), "r-1", draft)
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdate_AgentNotPermitted(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	_, err := env.svc.Update(context.Background(), "r-1", models.Draft{})
	assert.ErrorIs(t, err, service.ErrNotPermitted)
}

func TestUpdate_OtherReportersRecordNotPermitted(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	rep := seededReport("r-1", models.StatusUnopened)
	rep.ReporterID = "someone-else"
	env.seed(rep)

	_, err := env.svc.Update(context.Background(), "r-1", models.NewDraft(rep))
	assert.ErrorIs(t, err, service.ErrNotPermitted)
}

func TestUpdate_LockedAfterReviewWithPolicy(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, &config.Config{LockEditsAfterReview: true})
	rep := seededReport("r-1", models.StatusPending)
	env.seed(rep)

	_, err := env.svc.Update(context.Background(), "r-1", models.NewDraft(rep))
	assert.ErrorIs(t, err, service.ErrEditLocked)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	// no DeleteReport expectation: an unconfirmed delete never reaches
	// the network
	err := env.svc.Delete(context.Background(), "r-1", false)
	assert.ErrorIs(t, err, service.ErrConfirmationRequired)

	_, ok := env.cache.Get(env.key, "r-1")
	assert.True(t, ok)
}

func TestDelete_ConfirmedRemovesEntry(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	env.reports.EXPECT().DeleteReport(gomock.Any(), "token-1", "r-1").Return(nil)

	require.NoError(t, env.svc.Delete(context.Background(), "r-1", true))

	_, ok := env.cache.Get(env.key, "r-1")
	assert.False(t, ok)
}

func TestDelete_FailureKeepsEntry(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	env.seed(seededReport("r-1", models.StatusUnopened))

	env.reports.EXPECT().DeleteReport(gomock.Any(), "token-1", "r-1").
		Return(&apperrors.MutationError{StatusCode: 500, Message: "server error"})

	err := env.svc.Delete(context.Background(), "r-1", true)
	require.Error(t, err)

	_, ok := env.cache.Get(env.key, "r-1")
	assert.True(t, ok)
	assert.NoError(t, env.cache.TrackMutation("r-1"), "failed delete releases the in-flight slot")
}

func TestStats_CountsCurrentSessionsList(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleAgent, nil)
	env.seed(
		seededReport("r-1", models.StatusUnopened),
		seededReport("r-2", models.StatusOpened),
		seededReport("r-3", models.StatusPending),
		seededReport("r-4", models.StatusResolved),
	)

	stats, err := env.svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Unopened: 1, InProgress: 2, Resolved: 1, Total: 4}, stats)
}

func TestAccountSwitchDropsCachedReports(t *testing.T) {
	env := newLifecycleEnv(t, models.RoleReporter, nil)
	env.sessions.OnInvalidate(env.cache.InvalidateAll)
	env.seed(seededReport("r-1", models.StatusUnopened))

	require.NoError(t, env.sessions.Replace(context.Background(), &models.Session{
		Identity: models.Identity{ID: "acct-2", Role: models.RoleReporter},
		Token:    "token-2",
	}))

	_, ok := env.cache.Get(env.key, "r-1")
	assert.False(t, ok, "one account's reports never show under another")
}

func TestFetcher_RoutesByRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportsAPI(ctrl)
	log := testLogger()

	sessions := session.NewManager(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")), log)
	require.NoError(t, sessions.Replace(context.Background(), &models.Session{
		Identity: models.Identity{ID: "agent-1", Role: models.RoleAgent},
		Token:    "token-agent",
	}))

	f := service.NewFetcher(reports, sessions)

	reports.EXPECT().ReportsByAgent(gomock.Any(), "token-agent", "agent-1").Return(nil, nil)
	_, err := f.FetchReports(context.Background(), cache.Key{Role: models.RoleAgent, OwnerID: "agent-1"})
	require.NoError(t, err)

	reports.EXPECT().ReportsByReporter(gomock.Any(), "token-agent", "rep-1").Return(nil, nil)
	_, err = f.FetchReports(context.Background(), cache.Key{Role: models.RoleReporter, OwnerID: "rep-1"})
	require.NoError(t, err)

	require.NoError(t, sessions.Logout(context.Background()))
	_, err = f.FetchReports(context.Background(), cache.Key{Role: models.RoleAgent, OwnerID: "agent-1"})
	var aerr *apperrors.AuthError
	assert.ErrorAs(t, err, &aerr)
}
