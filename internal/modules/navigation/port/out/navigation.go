package out

import (
	"context"

	"storefront/internal/modules/navigation/domain"
)

// Navigator is the host's navigation primitive. It may complete
// asynchronously; an error means the navigation could not be dispatched.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// LocationSignal exposes the current location and notifies on change.
type LocationSignal interface {
	Current() string
	Subscribe(fn func(location string)) (unsubscribe func())
}

// BackStack knows where a back navigation leads.
type BackStack interface {
	Previous() (string, bool)
}

// SessionJournal keeps finished navigation sessions for diagnostics.
type SessionJournal interface {
	Append(ctx context.Context, session domain.Session) error
	Recent(ctx context.Context, limit int) ([]domain.Session, error)
}

// ReportStore persists rendered navigation reports.
type ReportStore interface {
	Save(ctx context.Context, meta map[string]any, body string) (string, error)
}
