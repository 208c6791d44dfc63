package dto

import "time"

type Variant string

const (
	VariantTopbar  Variant = "topbar"
	VariantOverlay Variant = "overlay"
)

// State is a read-only snapshot of the shared loading state.
type State struct {
	Loading        bool
	Message        string
	Variant        Variant
	MinimumDisplay time.Duration
	Timeout        time.Duration
	Cycle          uint64
	StartedAt      time.Time
}

// Options carries per-call overrides. Nil fields keep the current value.
type Options struct {
	Message        *string
	Variant        *Variant
	MinimumDisplay *time.Duration
	Timeout        *time.Duration
}

type Option func(*Options)

func WithMessage(message string) Option {
	return func(o *Options) { o.Message = &message }
}

func WithVariant(variant Variant) Option {
	return func(o *Options) { o.Variant = &variant }
}

func WithMinimumDisplay(d time.Duration) Option {
	return func(o *Options) { o.MinimumDisplay = &d }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = &d }
}

// Collect folds opts in order; later options win.
func Collect(opts ...Option) Options {
	out := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
