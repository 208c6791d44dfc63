package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	navout "storefront/internal/modules/navigation/adapter/out"
	"storefront/internal/modules/navigation/domain"
	"storefront/internal/platform/clock/clocktest"
	apperrors "storefront/internal/platform/errors"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRouter(latency time.Duration) (*navout.MemoryRouter, *clocktest.Clock) {
	clk := clocktest.New(epoch)
	return navout.NewMemoryRouter(clk, domain.RouteKeys(domain.StorefrontRoutes), "Dashboard", latency, nil), clk
}

func TestRouterCommitsAfterLatency(t *testing.T) {
	t.Parallel()
	router, clk := newRouter(200 * time.Millisecond)
	var seen []string
	router.Subscribe(func(loc string) { seen = append(seen, loc) })

	require.NoError(t, router.Navigate(context.Background(), "Orders"))
	assert.Equal(t, "dashboard", router.Current())

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, "orders", router.Current())
	assert.Equal(t, []string{"orders"}, seen)

	prev, ok := router.Previous()
	require.True(t, ok)
	assert.Equal(t, "dashboard", prev)
}

func TestRouterRejectsUnknownRoutes(t *testing.T) {
	t.Parallel()
	router, clk := newRouter(0)

	err := router.Navigate(context.Background(), "loyalty")
	assert.ErrorIs(t, err, apperrors.ErrUnknownRoute)
	assert.Zero(t, clk.Pending())
}

func TestRouterSameLocationDoesNotNotify(t *testing.T) {
	t.Parallel()
	router, _ := newRouter(0)
	calls := 0
	router.Subscribe(func(string) { calls++ })

	require.NoError(t, router.Navigate(context.Background(), "dashboard"))
	assert.Zero(t, calls)
	_, ok := router.Previous()
	assert.False(t, ok)
}

func TestRouterBackPopsHistory(t *testing.T) {
	t.Parallel()
	router, _ := newRouter(0)

	require.NoError(t, router.Navigate(context.Background(), "catalog"))
	require.NoError(t, router.Navigate(context.Background(), "orders"))
	prev, _ := router.Previous()
	require.Equal(t, "catalog", prev)

	require.NoError(t, router.Navigate(context.Background(), prev))
	prev, _ = router.Previous()
	assert.Equal(t, "dashboard", prev)
}

func TestRouterLoaderFailureKeepsLocation(t *testing.T) {
	t.Parallel()
	router, clk := newRouter(100 * time.Millisecond)
	router.SetLoader(func(_ context.Context, route string) error {
		if route == "orders" {
			return errors.New("orders api unavailable")
		}
		return nil
	})

	require.NoError(t, router.Navigate(context.Background(), "orders"))
	clk.Advance(time.Second)
	assert.Equal(t, "dashboard", router.Current())

	require.NoError(t, router.Navigate(context.Background(), "catalog"))
	clk.Advance(time.Second)
	assert.Equal(t, "catalog", router.Current())
}

func TestRouterSkipsCanceledNavigation(t *testing.T) {
	t.Parallel()
	router, clk := newRouter(100 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, router.Navigate(ctx, "catalog"))
	cancel()
	clk.Advance(time.Second)
	assert.Equal(t, "dashboard", router.Current())
}

func TestRouterSurvivesPanickingSubscriber(t *testing.T) {
	t.Parallel()
	router, _ := newRouter(0)
	router.Subscribe(func(string) { panic("bad view") })
	got := ""
	unsubscribe := router.Subscribe(func(loc string) { got = loc })

	require.NoError(t, router.Navigate(context.Background(), "branding"))
	assert.Equal(t, "branding", got)

	unsubscribe()
	require.NoError(t, router.Navigate(context.Background(), "settings"))
	assert.Equal(t, "branding", got)
}

func TestJournalAppendUpserts(t *testing.T) {
	t.Parallel()
	journal, err := navout.NewSQLiteSessionJournal(filepath.Join(t.TempDir(), "nested", "storefront.db"))
	require.NoError(t, err)
	ctx := context.Background()

	session := domain.Session{ID: "s-1", Target: "orders", From: "dashboard", Location: "dashboard", Outcome: domain.OutcomeStopped, StartedAt: epoch, EndedAt: epoch.Add(time.Second)}
	require.NoError(t, journal.Append(ctx, session))
	session.Outcome = domain.OutcomeCompleted
	session.Location = "orders"
	require.NoError(t, journal.Append(ctx, session))

	got, err := journal.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.OutcomeCompleted, got[0].Outcome)
	assert.Equal(t, "orders", got[0].Location)
	assert.True(t, got[0].StartedAt.Equal(epoch))
	assert.Equal(t, time.Second, got[0].Duration())
}
