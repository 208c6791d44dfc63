package in

import "storefront/internal/modules/loading/dto"

// Coordinator is the shared loading state every page reads from.
type Coordinator interface {
	Start(opts ...dto.Option)
	// TryStart starts a cycle only when idle. It returns the id of the
	// cycle it opened, or false when a cycle was already active.
	TryStart(opts ...dto.Option) (uint64, bool)
	Stop()
	Set(loading bool, opts ...dto.Option)
	// Abort ends the cycle immediately, ignoring the minimum-display window.
	Abort()
	State() dto.State
	Subscribe(fn func(dto.State)) (unsubscribe func())
}
