package in

import (
	"context"

	loadingdto "storefront/internal/modules/loading/dto"
	loadingin "storefront/internal/modules/loading/port/in"
	"storefront/internal/modules/navigation/dto"
	navin "storefront/internal/modules/navigation/port/in"
)

// TUIHandler is the surface the terminal UI drives navigation through.
type TUIHandler struct {
	controller navin.Controller
	loading    loadingin.Coordinator
	routes     []dto.RouteOutput
}

func NewTUIHandler(controller navin.Controller, loading loadingin.Coordinator, routes []dto.RouteOutput) TUIHandler {
	return TUIHandler{controller: controller, loading: loading, routes: routes}
}

func (h TUIHandler) Routes() []dto.RouteOutput {
	return append([]dto.RouteOutput(nil), h.routes...)
}

func (h TUIHandler) Navigate(ctx context.Context, route string) error {
	return h.controller.NavigateWithLoading(ctx, route)
}

func (h TUIHandler) NavigateOverlay(ctx context.Context, route, message string) error {
	return h.controller.NavigateWithLoading(ctx, route,
		loadingdto.WithVariant(loadingdto.VariantOverlay),
		loadingdto.WithMessage(message),
	)
}

func (h TUIHandler) Back(ctx context.Context) error {
	return h.controller.NavigateBack(ctx)
}

func (h TUIHandler) StopLoading() {
	h.controller.StopLoading()
}

func (h TUIHandler) Location() string {
	return h.controller.Location()
}

func (h TUIHandler) Loading() loadingdto.State {
	return h.controller.Loading()
}

// Watch calls onLoading and onLocation from whichever goroutine produced
// the change. The returned func detaches both.
func (h TUIHandler) Watch(onLoading func(loadingdto.State), onLocation func(string)) func() {
	stopLoading := h.loading.Subscribe(onLoading)
	stopLocation := h.controller.SubscribeLocation(onLocation)
	return func() {
		stopLoading()
		stopLocation()
	}
}
