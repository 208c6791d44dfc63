package domain

import (
	"fmt"
	"time"
)

const (
	DefaultMinimumDisplay = 300 * time.Millisecond
	DefaultTimeout        = 10 * time.Second
)

type Variant string

const (
	VariantTopbar  Variant = "topbar"
	VariantOverlay Variant = "overlay"
)

func ParseVariant(raw string) (Variant, error) {
	switch Variant(raw) {
	case "", VariantTopbar:
		return VariantTopbar, nil
	case VariantOverlay:
		return VariantOverlay, nil
	default:
		return "", fmt.Errorf("unknown loading variant %q", raw)
	}
}

// Patch is a partial update of the presentation and timing fields.
type Patch struct {
	Message        *string
	Variant        *Variant
	MinimumDisplay *time.Duration
	Timeout        *time.Duration
}

// State is the single loading record owned by a coordinator.
// Loading == false implies Message == "" and a zero StartedAt.
type State struct {
	Loading        bool
	Message        string
	Variant        Variant
	MinimumDisplay time.Duration
	Timeout        time.Duration
	Cycle          uint64
	StartedAt      time.Time
}

func NewState() State {
	return State{
		Variant:        VariantTopbar,
		MinimumDisplay: DefaultMinimumDisplay,
		Timeout:        DefaultTimeout,
	}
}

// Begin opens a new activation cycle at now. It is only meaningful while idle.
func (s *State) Begin(now time.Time) {
	s.Loading = true
	s.Cycle++
	s.StartedAt = now
}

// End closes the current cycle and clears the message.
func (s *State) End() {
	s.Loading = false
	s.Message = ""
	s.StartedAt = time.Time{}
}

// Apply overwrites the fields set in p. Negative durations clamp to zero.
func (s *State) Apply(p Patch) {
	if p.Message != nil {
		s.Message = *p.Message
	}
	if p.Variant != nil {
		if v, err := ParseVariant(string(*p.Variant)); err == nil {
			s.Variant = v
		}
	}
	if p.MinimumDisplay != nil {
		s.MinimumDisplay = clamp(*p.MinimumDisplay)
	}
	if p.Timeout != nil {
		s.Timeout = clamp(*p.Timeout)
	}
}

// Remaining is how much of the minimum-display window is left at now.
func (s State) Remaining(now time.Time) time.Duration {
	if !s.Loading {
		return 0
	}
	left := s.MinimumDisplay - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
