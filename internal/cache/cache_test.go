package cache_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/delacruzpj/deskhub_client/internal/cache"
	"github.com/delacruzpj/deskhub_client/internal/cache/mocks"
	"github.com/delacruzpj/deskhub_client/internal/models"
)

var testKey = cache.Key{Role: models.RoleReporter, OwnerID: "u-1"}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func report(id string, status models.Status, createdAt time.Time) *models.Report {
	return &models.Report{
		ID:        id,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestCache_ListUnfetchedKeyIsEmpty(t *testing.T) {
	c := cache.New(mocks.NewMockFetcher(gomock.NewController(t)), testLogger())

	assert.Empty(t, c.List(testKey))
	assert.False(t, c.Meta(testKey).Fetched)
}

func TestCache_RefreshSortsNewestFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("old", models.StatusResolved, base),
		report("tie-a", models.StatusUnopened, base.Add(time.Hour)),
		report("tie-b", models.StatusUnopened, base.Add(time.Hour)),
		report("new", models.StatusPending, base.Add(2*time.Hour)),
	}, nil)

	c := cache.New(fetcher, testLogger())
	got, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old"}, ids,
		"created_at descending, ties keep first-seen order")

	meta := c.Meta(testKey)
	assert.True(t, meta.Fetched)
	assert.False(t, meta.Stale)
	assert.NoError(t, meta.Err)
}

func TestCache_EmptyResultIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{}, nil)

	c := cache.New(fetcher, testLogger())
	got, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)
	assert.Empty(t, got)

	meta := c.Meta(testKey)
	assert.True(t, meta.Fetched)
	assert.NoError(t, meta.Err)
}

func TestCache_FailedRefreshKeepsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fetchErr := assert.AnError
	gomock.InOrder(
		fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
			report("r-1", models.StatusUnopened, base),
			report("r-2", models.StatusPending, base.Add(time.Hour)),
		}, nil),
		fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return(nil, fetchErr),
	)

	c := cache.New(fetcher, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, testKey)
	require.NoError(t, err)

	_, err = c.Refresh(ctx, testKey)
	require.ErrorIs(t, err, fetchErr)

	assert.Len(t, c.List(testKey), 2, "previous snapshot keeps serving")
	meta := c.Meta(testKey)
	assert.True(t, meta.Stale)
	assert.ErrorIs(t, meta.Err, fetchErr)
}

func TestCache_RefreshSuppressesPileUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).
		DoAndReturn(func(_ context.Context, _ cache.Key) ([]*models.Report, error) {
			close(entered)
			<-release
			return []*models.Report{report("r-1", models.StatusUnopened, time.Now())}, nil
		}).Times(1)

	c := cache.New(fetcher, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Refresh(ctx, testKey)
		assert.NoError(t, err)
	}()

	<-entered
	// while the first refresh is still in flight, further calls return the
	// current snapshot without issuing a second request
	got, err := c.Refresh(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, got)

	close(release)
	wg.Wait()
	assert.Len(t, c.List(testKey), 1)
}

func TestCache_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("r-1", models.StatusUnopened, base),
		report("r-2", models.StatusOpened, base),
		report("r-3", models.StatusPending, base),
		report("r-4", models.StatusResolved, base),
	}, nil)

	c := cache.New(fetcher, testLogger())
	_, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	assert.Equal(t, cache.Stats{Unopened: 1, InProgress: 2, Resolved: 1, Total: 4}, c.Stats(testKey))
}

func TestCache_MutationGateIsPerReport(t *testing.T) {
	c := cache.New(mocks.NewMockFetcher(gomock.NewController(t)), testLogger())

	require.NoError(t, c.TrackMutation("r-1"))
	assert.ErrorIs(t, c.TrackMutation("r-1"), cache.ErrMutationInFlight)
	require.NoError(t, c.TrackMutation("r-2"), "other reports stay mutable")

	c.UntrackMutation("r-1")
	assert.NoError(t, c.TrackMutation("r-1"))
}

func TestCache_OptimisticRollback(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("r-1", models.StatusOpened, time.Now()),
	}, nil)

	c := cache.New(fetcher, testLogger())
	_, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	require.NoError(t, c.TrackMutation("r-1"))
	prev, ok := c.ApplyOptimistic(testKey, "r-1", models.StatusResolved)
	require.True(t, ok)
	assert.Equal(t, models.StatusOpened, prev)

	got, _ := c.Get(testKey, "r-1")
	assert.Equal(t, models.StatusResolved, got.Status)

	c.RollbackMutation(testKey, "r-1", prev)
	got, _ = c.Get(testKey, "r-1")
	assert.Equal(t, models.StatusOpened, got.Status)
	assert.NoError(t, c.TrackMutation("r-1"), "rollback releases the in-flight slot")
}

func TestCache_CommitReplacesWithServerRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("r-1", models.StatusOpened, base),
	}, nil)

	c := cache.New(fetcher, testLogger())
	_, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	require.NoError(t, c.TrackMutation("r-1"))
	confirmed := report("r-1", models.StatusResolved, base)
	confirmed.UpdatedAt = base.Add(time.Minute)
	c.CommitMutation(testKey, confirmed)

	got, ok := c.Get(testKey, "r-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Equal(t, base.Add(time.Minute), got.UpdatedAt)
	assert.NoError(t, c.TrackMutation("r-1"), "commit releases the in-flight slot")
}

func TestCache_InvalidateAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("r-1", models.StatusOpened, time.Now()),
	}, nil)

	c := cache.New(fetcher, testLogger())
	_, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)
	require.NoError(t, c.TrackMutation("r-1"))

	c.InvalidateAll()

	assert.Empty(t, c.List(testKey))
	assert.False(t, c.Meta(testKey).Fetched)
	assert.NoError(t, c.TrackMutation("r-1"), "in-flight gates are dropped with the snapshots")
}

func TestCache_ListReturnsCopies(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).Return([]*models.Report{
		report("r-1", models.StatusOpened, time.Now()),
	}, nil)

	c := cache.New(fetcher, testLogger())
	_, err := c.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	c.List(testKey)[0].Status = models.StatusResolved

	got, _ := c.Get(testKey, "r-1")
	assert.Equal(t, models.StatusOpened, got.Status, "callers cannot mutate the snapshot")
}

func TestReconcile(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	none := map[string]struct{}{}

	local := report("r-1", models.StatusResolved, base)
	local.UpdatedAt = base.Add(time.Hour)
	stalePoll := report("r-1", models.StatusOpened, base)
	stalePoll.UpdatedAt = base

	t.Run("poll wins without in-flight mutation", func(t *testing.T) {
		merged := cache.Reconcile(
			[]*models.Report{local},
			[]*models.Report{stalePoll},
			none,
		)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusOpened, merged[0].Status)
	})

	t.Run("in-flight optimistic value survives a stale poll", func(t *testing.T) {
		merged := cache.Reconcile(
			[]*models.Report{local},
			[]*models.Report{stalePoll},
			map[string]struct{}{"r-1": {}},
		)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusResolved, merged[0].Status)
	})

	t.Run("strictly newer poll wins even in flight", func(t *testing.T) {
		fresh := report("r-1", models.StatusPending, base)
		fresh.UpdatedAt = base.Add(2 * time.Hour)
		merged := cache.Reconcile(
			[]*models.Report{local},
			[]*models.Report{fresh},
			map[string]struct{}{"r-1": {}},
		)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusPending, merged[0].Status)
	})

	t.Run("records missing from the poll are dropped", func(t *testing.T) {
		merged := cache.Reconcile(
			[]*models.Report{local},
			nil,
			none,
		)
		assert.Empty(t, merged)
	})

	t.Run("in-flight records missing from the poll are kept", func(t *testing.T) {
		merged := cache.Reconcile(
			[]*models.Report{local},
			nil,
			map[string]struct{}{"r-1": {}},
		)
		require.Len(t, merged, 1)
		assert.Equal(t, "r-1", merged[0].ID)
	})

	t.Run("new records from the poll are added", func(t *testing.T) {
		merged := cache.Reconcile(
			nil,
			[]*models.Report{report("r-2", models.StatusUnopened, base)},
			none,
		)
		require.Len(t, merged, 1)
		assert.Equal(t, "r-2", merged[0].ID)
	})
}

func TestPoller_StopHaltsRefreshes(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchReports(gomock.Any(), testKey).
		Return([]*models.Report{}, nil).MinTimes(1)

	c := cache.New(fetcher, testLogger())
	p := c.StartPolling(context.Background(), testKey, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Meta(testKey).Fetched
	}, time.Second, time.Millisecond)

	p.Stop()
	// Stop waits for the loop to exit, so no further fetches can happen
	// after this point and the controller's expectations stay satisfied.
}
