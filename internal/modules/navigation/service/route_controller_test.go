package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loadingdto "storefront/internal/modules/loading/dto"
	loadingservice "storefront/internal/modules/loading/service"
	navout "storefront/internal/modules/navigation/adapter/out"
	"storefront/internal/modules/navigation/domain"
	"storefront/internal/modules/navigation/service"
	"storefront/internal/platform/clock/clocktest"
	apperrors "storefront/internal/platform/errors"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeNavigator struct {
	mu      sync.Mutex
	calls   []string
	err     error
	panicky bool
	onCall  func(target string)
}

func (f *fakeNavigator) Navigate(_ context.Context, target string) error {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	onCall := f.onCall
	f.mu.Unlock()
	if onCall != nil {
		onCall(target)
	}
	if f.panicky {
		panic("router exploded")
	}
	return f.err
}

func (f *fakeNavigator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLocation struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(string)
	next    int
}

func newFakeLocation(initial string) *fakeLocation {
	return &fakeLocation{current: initial, subs: map[int]func(string){}}
}

func (f *fakeLocation) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeLocation) Subscribe(fn func(string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeLocation) set(location string) {
	f.mu.Lock()
	f.current = location
	subs := make([]func(string), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(location)
	}
}

func (f *fakeLocation) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeJournal struct {
	mu       sync.Mutex
	sessions []domain.Session
}

func (f *fakeJournal) Append(_ context.Context, s domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeJournal) Recent(context.Context, int) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Session(nil), f.sessions...), nil
}

type fakeIDs struct{}

func (fakeIDs) New() string { return "nav-1" }

type hookLog struct {
	mu        sync.Mutex
	events    []string
	completed []string
	errs      []error
}

func (h *hookLog) hooks() service.Hooks {
	return service.Hooks{
		OnRouteStart: func(target string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, "start:"+target)
		},
		OnRouteComplete: func(location string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, "complete:"+location)
			h.completed = append(h.completed, location)
		},
		OnRouteError: func(err error, target string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, "error:"+target)
			h.errs = append(h.errs, err)
		},
	}
}

type fixture struct {
	clock     *clocktest.Clock
	loading   *loadingservice.Coordinator
	navigator *fakeNavigator
	location  *fakeLocation
	journal   *fakeJournal
	hooks     *hookLog
	ctrl      *service.RouteController
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:     clocktest.New(epoch),
		navigator: &fakeNavigator{},
		location:  newFakeLocation("dashboard"),
		journal:   &fakeJournal{},
		hooks:     &hookLog{},
	}
	f.loading = loadingservice.NewCoordinator(f.clock, nil)
	base := []service.Option{
		service.WithHooks(f.hooks.hooks()),
		service.WithJournal(f.journal),
		service.WithClock(f.clock),
		service.WithIDs(fakeIDs{}),
	}
	f.ctrl = service.NewRouteController(f.loading, f.navigator, f.location, append(base, opts...)...)
	t.Cleanup(f.ctrl.Close)
	return f
}

func TestNavigateWithLoadingStartsCoordinatorAndSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "catalog"))

	state := f.ctrl.Loading()
	assert.True(t, state.Loading)
	assert.Equal(t, service.DefaultMessage("catalog"), state.Message)
	assert.Equal(t, []string{"catalog"}, f.navigator.calls)

	session := f.ctrl.Session()
	assert.True(t, session.Active)
	assert.Equal(t, "catalog", session.Target)
	assert.Equal(t, "dashboard", session.From)
	assert.Equal(t, epoch, session.StartedAt)
}

func TestRouteStartFiresBeforeNavigation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.navigator.onCall = func(target string) {
		f.hooks.mu.Lock()
		defer f.hooks.mu.Unlock()
		f.hooks.events = append(f.hooks.events, "navigate:"+target)
	}

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))
	assert.Equal(t, []string{"start:orders", "navigate:orders"}, f.hooks.events)
}

func TestConcurrentNavigationsAreDeduplicated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "catalog"))
	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))
	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "catalog"))

	assert.Equal(t, 1, f.navigator.count())
	assert.Equal(t, "catalog", f.ctrl.Session().Target)
	assert.Equal(t, service.DefaultMessage("catalog"), f.ctrl.Loading().Message)
}

func TestParallelNavigationsDispatchOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.ctrl.NavigateWithLoading(context.Background(), "catalog")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.navigator.count())
}

func TestLocationChangeCompletesNavigation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "catalog"))
	f.clock.Advance(120 * time.Millisecond)
	f.location.set("catalog")

	assert.Equal(t, []string{"catalog"}, f.hooks.completed)
	assert.False(t, f.ctrl.Session().Active)
	assert.True(t, f.ctrl.Loading().Loading, "minimum display still applies")

	f.clock.Advance(180 * time.Millisecond)
	assert.False(t, f.ctrl.Loading().Loading)

	f.location.set("orders")
	assert.Len(t, f.hooks.completed, 1, "completion fires once per navigation")

	require.Len(t, f.journal.sessions, 1)
	recorded := f.journal.sessions[0]
	assert.Equal(t, domain.OutcomeCompleted, recorded.Outcome)
	assert.Equal(t, "catalog", recorded.Location)
	assert.Equal(t, 120*time.Millisecond, recorded.Duration())
}

func TestLocationChangeWithoutSessionIsIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.location.set("orders")

	assert.Empty(t, f.hooks.completed)
	assert.False(t, f.ctrl.Loading().Loading)
	assert.Empty(t, f.journal.sessions)
}

func TestDispatchFailureResetsLoading(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.navigator.err = errors.New("no such page")

	err := f.ctrl.NavigateWithLoading(context.Background(), "missing")

	var dispatchErr *domain.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "missing", dispatchErr.Target)
	assert.False(t, f.ctrl.Loading().Loading)
	assert.Empty(t, f.ctrl.Loading().Message)
	assert.Zero(t, f.clock.Pending(), "no timers may remain armed")
	require.Len(t, f.hooks.errs, 1)
	assert.ErrorIs(t, f.hooks.errs[0], f.navigator.err)
	assert.Equal(t, []string{"start:missing", "error:missing"}, f.hooks.events)

	require.Len(t, f.journal.sessions, 1)
	assert.Equal(t, domain.OutcomeFailed, f.journal.sessions[0].Outcome)
	assert.Contains(t, f.journal.sessions[0].Error, "no such page")

	f.clock.Advance(time.Minute)
	assert.Len(t, f.hooks.errs, 1)
}

func TestDispatchPanicIsReportedAsError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.navigator.panicky = true

	err := f.ctrl.NavigateWithLoading(context.Background(), "orders")

	var dispatchErr *domain.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Contains(t, err.Error(), "router exploded")
	assert.False(t, f.ctrl.Loading().Loading)
	assert.Len(t, f.hooks.errs, 1)
}

func TestNavigationAllowedAgainAfterDispatchFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.navigator.err = errors.New("offline")
	require.Error(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))

	f.navigator.err = nil
	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))
	assert.Equal(t, 2, f.navigator.count())
	assert.True(t, f.ctrl.Loading().Loading)
}

func TestNavigateWithoutLoadingNeverTouchesCoordinator(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.NavigateWithoutLoading(context.Background(), "branding"))
	assert.False(t, f.ctrl.Loading().Loading)
	assert.Equal(t, uint64(0), f.ctrl.Loading().Cycle)
	assert.Empty(t, f.hooks.events)

	f.navigator.err = errors.New("nope")
	err := f.ctrl.NavigateWithoutLoading(context.Background(), "branding")
	var dispatchErr *domain.DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
	assert.Empty(t, f.hooks.errs)
}

func TestStopLoadingClosesSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "settings"))
	f.ctrl.StopLoading()

	assert.False(t, f.ctrl.Session().Active)
	f.clock.Advance(300 * time.Millisecond)
	assert.False(t, f.ctrl.Loading().Loading)

	f.location.set("settings")
	assert.Empty(t, f.hooks.completed)
	require.Len(t, f.journal.sessions, 1)
	assert.Equal(t, domain.OutcomeStopped, f.journal.sessions[0].Outcome)
}

func TestSameLocationNavigationNeedsExplicitStop(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(epoch)
	router := navout.NewMemoryRouter(clk, domain.RouteKeys(domain.StorefrontRoutes), "dashboard", 0, nil)
	loading := loadingservice.NewCoordinator(clk, nil)
	hooks := &hookLog{}
	ctrl := service.NewRouteController(loading, router, router, service.WithHooks(hooks.hooks()), service.WithClock(clk))
	t.Cleanup(ctrl.Close)

	require.NoError(t, ctrl.NavigateWithLoading(context.Background(), "dashboard"))
	clk.Advance(time.Second)
	assert.True(t, ctrl.Loading().Loading, "no location change means no completion")
	assert.Empty(t, hooks.completed)

	ctrl.StopLoading()
	assert.False(t, ctrl.Loading().Loading)
}

func TestTimeoutInterruptsSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.WithDefaults(loadingdto.WithTimeout(2*time.Second)))

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))
	f.clock.Advance(2 * time.Second)

	assert.False(t, f.ctrl.Loading().Loading)
	assert.False(t, f.ctrl.Session().Active)
	require.Len(t, f.journal.sessions, 1)
	assert.Equal(t, domain.OutcomeInterrupted, f.journal.sessions[0].Outcome)

	f.location.set("orders")
	assert.Empty(t, f.hooks.completed, "a late location change belongs to no session")
}

func TestCycleEndedDuringStartInterruptsSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.loading.Subscribe(func(s loadingdto.State) {
		if s.Loading && s.Cycle == 1 {
			f.loading.Abort()
			f.loading.Start(loadingdto.WithMessage("someone else"))
		}
	})

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "orders"))

	assert.Equal(t, uint64(2), f.ctrl.Loading().Cycle)
	assert.False(t, f.ctrl.Session().Active)
	require.Len(t, f.journal.sessions, 1)
	assert.Equal(t, domain.OutcomeInterrupted, f.journal.sessions[0].Outcome)

	f.ctrl.StopLoading()
	f.clock.Advance(time.Second)
	assert.Len(t, f.journal.sessions, 1, "the second cycle is not this session's")
}

func TestDefaultsAndPerCallOptionsMerge(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.WithDefaults(
		loadingdto.WithVariant(loadingdto.VariantOverlay),
		loadingdto.WithMinimumDisplay(time.Second),
	))

	require.NoError(t, f.ctrl.NavigateWithLoading(context.Background(), "branding", loadingdto.WithMessage("Saving theme")))

	state := f.ctrl.Loading()
	assert.Equal(t, "Saving theme", state.Message)
	assert.Equal(t, loadingdto.VariantOverlay, state.Variant)
	assert.Equal(t, time.Second, state.MinimumDisplay)
}

func TestMemoryRouterCompletesAfterLatency(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(epoch)
	router := navout.NewMemoryRouter(clk, domain.RouteKeys(domain.StorefrontRoutes), "dashboard", 450*time.Millisecond, nil)
	loading := loadingservice.NewCoordinator(clk, nil)
	hooks := &hookLog{}
	ctrl := service.NewRouteController(loading, router, router,
		service.WithHooks(hooks.hooks()),
		service.WithClock(clk),
		service.WithBackStack(router),
	)
	t.Cleanup(ctrl.Close)

	require.NoError(t, ctrl.NavigateWithLoading(context.Background(), "Catalog"))
	clk.Advance(449 * time.Millisecond)
	assert.Equal(t, "dashboard", ctrl.Location())
	assert.True(t, ctrl.Loading().Loading)

	clk.Advance(time.Millisecond)
	assert.Equal(t, "catalog", ctrl.Location())
	assert.False(t, ctrl.Loading().Loading, "450ms already exceeds the minimum window")
	assert.Equal(t, []string{"catalog"}, hooks.completed)

	require.NoError(t, ctrl.NavigateBack(context.Background()))
	clk.Advance(450 * time.Millisecond)
	assert.Equal(t, "dashboard", ctrl.Location())
	assert.False(t, ctrl.Loading().Loading)
	assert.Len(t, hooks.completed, 1)

	assert.ErrorIs(t, ctrl.NavigateBack(context.Background()), service.ErrNoHistory)
}

func TestUnknownRouteFailsDispatch(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(epoch)
	router := navout.NewMemoryRouter(clk, domain.RouteKeys(domain.StorefrontRoutes), "dashboard", 0, nil)
	loading := loadingservice.NewCoordinator(clk, nil)
	ctrl := service.NewRouteController(loading, router, router, service.WithClock(clk))
	t.Cleanup(ctrl.Close)

	err := ctrl.NavigateWithLoading(context.Background(), "reservations")
	assert.ErrorIs(t, err, apperrors.ErrUnknownRoute)
	assert.False(t, ctrl.Loading().Loading)
	assert.Zero(t, clk.Pending())
}

func TestCloseUnsubscribes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.Equal(t, 1, f.location.subscribers())

	f.ctrl.Close()
	assert.Equal(t, 0, f.location.subscribers())
	f.ctrl.Close()
}
