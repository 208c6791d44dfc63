package service

import (
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/modules/loading/domain"
	"storefront/internal/modules/loading/dto"
	loadingin "storefront/internal/modules/loading/port/in"
	"storefront/internal/platform/clock"
)

type stopReason string

const (
	reasonStopped  stopReason = "stopped"
	reasonDeferred stopReason = "minimum_display_elapsed"
	reasonTimeout  stopReason = "timeout"
	reasonAborted  stopReason = "aborted"
)

type timerKind int

const (
	timeoutTimer timerKind = iota
	deferredTimer
)

// scheduled is an armed timer tagged with the cycle it belongs to.
type scheduled struct {
	timer clock.Timer
	cycle uint64
	token uint64
}

// Coordinator owns one loading state and arbitrates between the caller's
// stop request, the minimum-display window and the safety timeout. Exactly
// one terminal transition happens per activation cycle.
type Coordinator struct {
	clock  clock.Clock
	logger *zap.Logger

	mu        sync.Mutex
	state     domain.State
	timeout   *scheduled
	deferred  *scheduled
	tokens    uint64
	listeners map[uint64]func(dto.State)
	nextSub   uint64
}

var _ loadingin.Coordinator = (*Coordinator)(nil)

// NewCoordinator returns an idle coordinator. defaults are applied once
// and persist across cycles until overridden.
func NewCoordinator(clk clock.Clock, logger *zap.Logger, defaults ...dto.Option) *Coordinator {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	state := domain.NewState()
	state.Apply(toPatch(dto.Collect(defaults...)))
	state.Message = ""
	return &Coordinator{
		clock:     clk,
		logger:    logger,
		state:     state,
		listeners: map[uint64]func(dto.State){},
	}
}

func (c *Coordinator) Start(opts ...dto.Option) {
	c.start(false, opts)
}

func (c *Coordinator) TryStart(opts ...dto.Option) (uint64, bool) {
	return c.start(true, opts)
}

func (c *Coordinator) start(onlyIfIdle bool, opts []dto.Option) (uint64, bool) {
	c.mu.Lock()
	if onlyIfIdle && c.state.Loading {
		c.mu.Unlock()
		return 0, false
	}
	fresh := !c.state.Loading
	c.cancelLocked()
	if fresh {
		c.state.Begin(c.clock.Now())
	}
	c.state.Apply(toPatch(dto.Collect(opts...)))
	c.armLocked(timeoutTimer, c.state.Timeout)
	snap, listeners := c.publishLocked()
	c.mu.Unlock()

	if fresh {
		c.logger.Debug("loading started",
			zap.Uint64("cycle", snap.Cycle),
			zap.String("message", snap.Message),
			zap.String("variant", string(snap.Variant)),
			zap.Duration("minimum_display", snap.MinimumDisplay),
			zap.Duration("timeout", snap.Timeout),
		)
	} else {
		c.logger.Debug("loading updated", zap.Uint64("cycle", snap.Cycle), zap.String("message", snap.Message))
	}
	c.notify(listeners, snap)
	return snap.Cycle, true
}

func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.state.Loading || c.deferred != nil {
		c.mu.Unlock()
		return
	}
	remaining := c.state.Remaining(c.clock.Now())
	if remaining > 0 {
		c.armLocked(deferredTimer, remaining)
		cycle := c.state.Cycle
		c.mu.Unlock()
		c.logger.Debug("loading stop deferred", zap.Uint64("cycle", cycle), zap.Duration("remaining", remaining))
		return
	}
	c.finish(reasonStopped)
}

func (c *Coordinator) Set(loading bool, opts ...dto.Option) {
	if loading {
		c.Start(opts...)
		return
	}
	c.Stop()
}

func (c *Coordinator) Abort() {
	c.mu.Lock()
	if !c.state.Loading {
		c.mu.Unlock()
		return
	}
	c.finish(reasonAborted)
}

func (c *Coordinator) State() dto.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toDTO(c.state)
}

// Subscribe registers fn for every state change. fn runs outside the
// coordinator lock, so it may call back into the coordinator.
func (c *Coordinator) Subscribe(fn func(dto.State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// finish performs the terminal transition. The caller holds c.mu; finish
// releases it before notifying listeners.
func (c *Coordinator) finish(reason stopReason) {
	cycle := c.state.Cycle
	elapsed := c.clock.Now().Sub(c.state.StartedAt)
	c.cancelLocked()
	c.state.End()
	snap, listeners := c.publishLocked()
	c.mu.Unlock()

	c.logger.Debug("loading finished",
		zap.Uint64("cycle", cycle),
		zap.String("reason", string(reason)),
		zap.Duration("elapsed", elapsed),
	)
	c.notify(listeners, snap)
}

func (c *Coordinator) fire(kind timerKind, cycle, token uint64) {
	c.mu.Lock()
	current := c.timeout
	reason := reasonTimeout
	if kind == deferredTimer {
		current = c.deferred
		reason = reasonDeferred
	}
	if !c.state.Loading || c.state.Cycle != cycle || current == nil || current.token != token {
		c.mu.Unlock()
		return
	}
	if kind == timeoutTimer {
		c.logger.Warn("loading timed out", zap.Uint64("cycle", cycle), zap.Duration("timeout", c.state.Timeout))
	}
	c.finish(reason)
}

func (c *Coordinator) armLocked(kind timerKind, d time.Duration) {
	c.tokens++
	s := &scheduled{cycle: c.state.Cycle, token: c.tokens}
	cycle, token := s.cycle, s.token
	s.timer = c.clock.AfterFunc(d, func() { c.fire(kind, cycle, token) })
	if kind == deferredTimer {
		c.deferred = s
		return
	}
	c.timeout = s
}

func (c *Coordinator) cancelLocked() {
	if c.timeout != nil {
		c.timeout.timer.Stop()
		c.timeout = nil
	}
	if c.deferred != nil {
		c.deferred.timer.Stop()
		c.deferred = nil
	}
}

func (c *Coordinator) publishLocked() (dto.State, []func(dto.State)) {
	listeners := make([]func(dto.State), 0, len(c.listeners))
	for id := uint64(1); id <= c.nextSub; id++ {
		if fn, ok := c.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	return toDTO(c.state), listeners
}

func (c *Coordinator) notify(listeners []func(dto.State), snap dto.State) {
	for _, fn := range listeners {
		c.safeCall(fn, snap)
	}
}

func (c *Coordinator) safeCall(fn func(dto.State), snap dto.State) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("loading listener panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	fn(snap)
}

func toPatch(o dto.Options) domain.Patch {
	p := domain.Patch{
		Message:        o.Message,
		MinimumDisplay: o.MinimumDisplay,
		Timeout:        o.Timeout,
	}
	if o.Variant != nil {
		v := domain.Variant(*o.Variant)
		p.Variant = &v
	}
	return p
}

func toDTO(s domain.State) dto.State {
	return dto.State{
		Loading:        s.Loading,
		Message:        s.Message,
		Variant:        dto.Variant(s.Variant),
		MinimumDisplay: s.MinimumDisplay,
		Timeout:        s.Timeout,
		Cycle:          s.Cycle,
		StartedAt:      s.StartedAt,
	}
}
