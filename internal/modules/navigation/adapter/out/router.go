package out

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/platform/clock"
	apperrors "storefront/internal/platform/errors"
	"storefront/internal/platform/slug"
)

// PageLoader fetches whatever a page needs before it can be shown. A
// non-nil error leaves the router on the previous location.
type PageLoader func(ctx context.Context, route string) error

// MemoryRouter is an in-process navigation primitive and location signal.
// Navigate validates the target synchronously and commits the new location
// after the configured latency, the way a page fetch would.
type MemoryRouter struct {
	clock   clock.Clock
	latency time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	routes  map[string]struct{}
	current string
	history []string
	loader  PageLoader
	subs    map[uint64]func(string)
	nextSub uint64
}

func NewMemoryRouter(clk clock.Clock, routes []string, initial string, latency time.Duration, logger *zap.Logger) *MemoryRouter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[slug.Route(r)] = struct{}{}
	}
	return &MemoryRouter{
		clock:   clk,
		latency: latency,
		logger:  logger,
		routes:  known,
		current: slug.Route(initial),
		subs:    map[uint64]func(string){},
	}
}

// SetLoader installs the page loader run before a location is committed.
func (r *MemoryRouter) SetLoader(loader PageLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = loader
}

func (r *MemoryRouter) Navigate(ctx context.Context, target string) error {
	key := slug.Route(target)
	r.mu.Lock()
	_, ok := r.routes[key]
	loader := r.loader
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownRoute, target)
	}

	load := func() {
		if ctx.Err() != nil {
			r.logger.Debug("navigation canceled", zap.String("route", key))
			return
		}
		if loader != nil {
			if err := loader(ctx, key); err != nil {
				r.logger.Warn("page load failed", zap.String("route", key), zap.Error(err))
				return
			}
		}
		r.commit(key)
	}
	if r.latency <= 0 {
		load()
		return nil
	}
	r.clock.AfterFunc(r.latency, load)
	return nil
}

func (r *MemoryRouter) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Previous returns the location a back navigation would return to.
func (r *MemoryRouter) Previous() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return "", false
	}
	return r.history[len(r.history)-1], true
}

func (r *MemoryRouter) Subscribe(fn func(location string)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSub++
	id := r.nextSub
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// commit moves to key and notifies subscribers. Committing the current
// location is not a change and notifies nobody.
func (r *MemoryRouter) commit(key string) {
	r.mu.Lock()
	if key == r.current {
		r.mu.Unlock()
		return
	}
	if n := len(r.history); n > 0 && r.history[n-1] == key {
		r.history = r.history[:n-1]
	} else {
		r.history = append(r.history, r.current)
	}
	r.current = key
	subs := make([]func(string), 0, len(r.subs))
	for id := uint64(1); id <= r.nextSub; id++ {
		if fn, ok := r.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range subs {
		r.safeCall(fn, key)
	}
}

func (r *MemoryRouter) safeCall(fn func(string), location string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("location subscriber panicked",
				zap.String("location", location),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	fn(location)
}
