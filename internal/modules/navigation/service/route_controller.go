package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	loadingdto "storefront/internal/modules/loading/dto"
	loadingin "storefront/internal/modules/loading/port/in"
	"storefront/internal/modules/navigation/domain"
	navin "storefront/internal/modules/navigation/port/in"
	navout "storefront/internal/modules/navigation/port/out"
	"storefront/internal/platform/clock"
	"storefront/internal/platform/id"
)

var ErrNoHistory = errors.New("no previous location")

// Hooks are optional callbacks fired around a loading navigation. They run
// outside the controller lock.
type Hooks struct {
	OnRouteStart    func(target string)
	OnRouteComplete func(location string)
	OnRouteError    func(err error, target string)
}

type Option func(*RouteController)

func WithHooks(h Hooks) Option {
	return func(c *RouteController) { c.hooks = h }
}

// WithDefaults sets loading options applied to every NavigateWithLoading
// call before the per-call overrides.
func WithDefaults(opts ...loadingdto.Option) Option {
	return func(c *RouteController) { c.defaults = append(c.defaults, opts...) }
}

func WithJournal(j navout.SessionJournal) Option {
	return func(c *RouteController) { c.journal = j }
}

func WithBackStack(b navout.BackStack) Option {
	return func(c *RouteController) { c.back = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *RouteController) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *RouteController) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithIDs(g id.Generator) Option {
	return func(c *RouteController) {
		if g != nil {
			c.ids = g
		}
	}
}

// RouteController starts the loading coordinator before each navigation and
// stops it once the observed location changes. At most one loading
// navigation is in flight; extra requests while loading are dropped.
type RouteController struct {
	loading   loadingin.Coordinator
	navigator navout.Navigator
	location  navout.LocationSignal
	journal   navout.SessionJournal
	back      navout.BackStack
	clock     clock.Clock
	ids       id.Generator
	logger    *zap.Logger
	hooks     Hooks
	defaults  []loadingdto.Option

	mu          sync.Mutex
	session     domain.Session
	cycle       uint64
	unsubscribe []func()
}

var _ navin.Controller = (*RouteController)(nil)

func NewRouteController(loading loadingin.Coordinator, navigator navout.Navigator, location navout.LocationSignal, opts ...Option) *RouteController {
	c := &RouteController{
		loading:   loading,
		navigator: navigator,
		location:  location,
		clock:     clock.SystemClock{},
		ids:       id.UUID{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = append(c.unsubscribe,
		location.Subscribe(c.onLocation),
		loading.Subscribe(c.onLoading),
	)
	return c
}

// DefaultMessage is the status text shown while navigating to target.
func DefaultMessage(target string) string {
	return fmt.Sprintf("Loading %s…", target)
}

func (c *RouteController) NavigateWithLoading(ctx context.Context, target string, opts ...loadingdto.Option) error {
	merged := make([]loadingdto.Option, 0, len(c.defaults)+len(opts)+1)
	merged = append(merged, loadingdto.WithMessage(DefaultMessage(target)))
	merged = append(merged, c.defaults...)
	merged = append(merged, opts...)

	cycle, ok := c.loading.TryStart(merged...)
	if !ok {
		c.logger.Debug("navigation dropped while loading", zap.String("target", target))
		return nil
	}
	from := c.location.Current()

	c.mu.Lock()
	c.session = domain.Session{
		ID:        c.ids.New(),
		Active:    true,
		Target:    target,
		From:      from,
		StartedAt: c.clock.Now(),
	}
	c.cycle = cycle
	c.mu.Unlock()
	// A zero timeout can end the cycle before the session was recorded.
	if st := c.loading.State(); !st.Loading || st.Cycle != cycle {
		c.interrupt(cycle)
	}

	if c.hooks.OnRouteStart != nil {
		c.hooks.OnRouteStart(target)
	}

	if err := c.dispatch(ctx, target); err != nil {
		dispatchErr := &domain.DispatchError{Target: target, Err: err}
		if s, ok := c.closeSession(domain.OutcomeFailed, "", dispatchErr); ok {
			c.record(s)
		}
		c.loading.Abort()
		c.logger.Warn("navigation dispatch failed", zap.String("target", target), zap.Error(err))
		if c.hooks.OnRouteError != nil {
			c.hooks.OnRouteError(dispatchErr, target)
		}
		return dispatchErr
	}
	return nil
}

func (c *RouteController) NavigateWithoutLoading(ctx context.Context, target string) error {
	if err := c.dispatch(ctx, target); err != nil {
		return &domain.DispatchError{Target: target, Err: err}
	}
	return nil
}

func (c *RouteController) NavigateBack(ctx context.Context) error {
	if c.back == nil {
		return ErrNoHistory
	}
	prev, ok := c.back.Previous()
	if !ok {
		return ErrNoHistory
	}
	return c.NavigateWithoutLoading(ctx, prev)
}

// StopLoading stops the coordinator and closes the session whether or not
// completion was observed.
func (c *RouteController) StopLoading() {
	if s, ok := c.closeSession(domain.OutcomeStopped, "", nil); ok {
		c.record(s)
	}
	c.loading.Stop()
}

func (c *RouteController) Loading() loadingdto.State {
	return c.loading.State()
}

func (c *RouteController) Location() string {
	return c.location.Current()
}

func (c *RouteController) SubscribeLocation(fn func(location string)) func() {
	return c.location.Subscribe(fn)
}

// Session returns a snapshot of the current or most recent session.
func (c *RouteController) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Close detaches the controller from the location signal and coordinator.
func (c *RouteController) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	for _, fn := range unsubscribe {
		fn()
	}
}

func (c *RouteController) dispatch(ctx context.Context, target string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("navigator panicked: %v", r)
		}
	}()
	return c.navigator.Navigate(ctx, target)
}

func (c *RouteController) onLocation(location string) {
	s, ok := c.closeSession(domain.OutcomeCompleted, location, nil)
	if !ok {
		return
	}
	c.loading.Stop()
	c.record(s)
	c.logger.Debug("navigation completed",
		zap.String("target", s.Target),
		zap.String("location", location),
		zap.Duration("duration", s.Duration()),
	)
	if c.hooks.OnRouteComplete != nil {
		c.hooks.OnRouteComplete(location)
	}
}

// onLoading closes the session when the coordinator ends the cycle on its
// own, which in practice is the safety timeout.
func (c *RouteController) onLoading(state loadingdto.State) {
	if state.Loading {
		return
	}
	c.interrupt(state.Cycle)
}

func (c *RouteController) interrupt(cycle uint64) {
	c.mu.Lock()
	sameCycle := c.cycle == cycle
	c.mu.Unlock()
	if !sameCycle {
		return
	}
	s, ok := c.closeSession(domain.OutcomeInterrupted, "", nil)
	if !ok {
		return
	}
	c.record(s)
	c.logger.Warn("navigation interrupted before completion",
		zap.String("target", s.Target),
		zap.Duration("duration", s.Duration()),
	)
}

func (c *RouteController) closeSession(outcome domain.Outcome, location string, err error) (domain.Session, bool) {
	if location == "" {
		location = c.location.Current()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Active {
		return domain.Session{}, false
	}
	c.session.Close(c.clock.Now(), outcome)
	c.session.Location = location
	if err != nil {
		c.session.Error = err.Error()
	}
	return c.session, true
}

func (c *RouteController) record(s domain.Session) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(context.Background(), s); err != nil {
		c.logger.Warn("record navigation session", zap.String("session_id", s.ID), zap.Error(err))
	}
}
