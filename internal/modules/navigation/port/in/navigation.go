package in

import (
	"context"

	loadingdto "storefront/internal/modules/loading/dto"
	"storefront/internal/modules/navigation/dto"
)

// Controller binds navigation to the shared loading state.
type Controller interface {
	NavigateWithLoading(ctx context.Context, target string, opts ...loadingdto.Option) error
	NavigateWithoutLoading(ctx context.Context, target string) error
	// NavigateBack returns to the previous location without loading.
	NavigateBack(ctx context.Context) error
	StopLoading()
	Loading() loadingdto.State
	Location() string
	SubscribeLocation(fn func(location string)) (unsubscribe func())
}

// Usecase serves navigation diagnostics.
type Usecase interface {
	History(ctx context.Context, input dto.HistoryInput) ([]dto.SessionOutput, error)
	Report(ctx context.Context, input dto.HistoryInput) (dto.ReportOutput, error)
}
