package bootstrap

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	loadingdto "storefront/internal/modules/loading/dto"
	loadingservice "storefront/internal/modules/loading/service"
	navinadapter "storefront/internal/modules/navigation/adapter/in"
	navoutadapter "storefront/internal/modules/navigation/adapter/out"
	navdomain "storefront/internal/modules/navigation/domain"
	navdto "storefront/internal/modules/navigation/dto"
	navservice "storefront/internal/modules/navigation/service"
	navusecase "storefront/internal/modules/navigation/usecase"
	"storefront/internal/platform/clock"
	"storefront/internal/platform/config"
	apperrors "storefront/internal/platform/errors"
	"storefront/internal/platform/id"
	"storefront/internal/platform/logging"
	"storefront/internal/platform/slug"
	uiapp "storefront/internal/ui/app"
)

type App struct {
	Config config.Config
	Logger *zap.Logger
	NavCLI navinadapter.CLIHandler
	NavTUI navinadapter.TUIHandler

	controller *navservice.RouteController
	journal    *navoutadapter.SQLiteSessionJournal
}

func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.SystemClock{}

	// Restated on every navigation so a per-call override, such as the
	// overlay variant, lasts only for its own cycle.
	loadingDefaults := []loadingdto.Option{
		loadingdto.WithMinimumDisplay(cfg.Loading.MinimumDisplay()),
		loadingdto.WithTimeout(cfg.Loading.Timeout()),
		loadingdto.WithVariant(loadingdto.Variant(cfg.Loading.Variant)),
	}
	coordinator := loadingservice.NewCoordinator(clk, logger.Named("loading"), loadingDefaults...)

	routes := navdomain.StorefrontRoutes
	router := navoutadapter.NewMemoryRouter(clk, navdomain.RouteKeys(routes), navdomain.HomeRoute,
		cfg.Navigation.SimulatedLatency(), logger.Named("router"))
	router.SetLoader(unavailableLoader(cfg.Navigation.UnavailableRoutes))

	journal, err := navoutadapter.NewSQLiteSessionJournal(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new session journal: %w", err)
	}

	navLog := logger.Named("navigation")
	controller := navservice.NewRouteController(coordinator, router, router,
		navservice.WithClock(clk),
		navservice.WithIDs(id.UUID{}),
		navservice.WithLogger(navLog),
		navservice.WithJournal(journal),
		navservice.WithBackStack(router),
		navservice.WithDefaults(loadingDefaults...),
		navservice.WithHooks(navservice.Hooks{
			OnRouteStart: func(target string) {
				navLog.Info("route start", zap.String("target", target))
			},
			OnRouteComplete: func(location string) {
				navLog.Info("route complete", zap.String("location", location))
			},
			OnRouteError: func(err error, target string) {
				navLog.Error("route error", zap.String("target", target), zap.Error(err))
			},
		}),
	)

	navUC := navusecase.NewInteractor(journal, navoutadapter.NewFileReportStore(cfg.DataDir, clk))

	return &App{
		Config:     cfg,
		Logger:     logger,
		NavCLI:     navinadapter.NewCLIHandler(navUC),
		NavTUI:     navinadapter.NewTUIHandler(controller, coordinator, routeOutputs(routes)),
		controller: controller,
		journal:    journal,
	}, nil
}

// Close detaches the controller, flushes the logger and closes the journal.
func (a *App) Close() error {
	a.controller.Close()
	_ = a.Logger.Sync()
	return a.journal.Close()
}

// Load reads configuration for dataDir, builds the console logger and wires
// the application.
func Load(dataDir string) (*App, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewConsole(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// RunTUI wires the application with a file logger, since the alternate
// screen owns the terminal, and runs the dashboard until the user quits.
func RunTUI(dataDir string) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	logger, err := logging.NewFile(cfg.DataDir, cfg.Log.Level)
	if err != nil {
		return err
	}
	app, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	model := uiapp.NewModel(app.NavTUI)
	defer model.Close()
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

var errPageUnavailable = errors.New("page unavailable")

func unavailableLoader(routes []string) navoutadapter.PageLoader {
	if len(routes) == 0 {
		return nil
	}
	down := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		down[slug.Route(r)] = struct{}{}
	}
	return func(_ context.Context, route string) error {
		if _, ok := down[route]; ok {
			return fmt.Errorf("%w: %s: %w", apperrors.ErrNotFound, route, errPageUnavailable)
		}
		return nil
	}
}

func routeOutputs(routes []navdomain.Route) []navdto.RouteOutput {
	out := make([]navdto.RouteOutput, len(routes))
	for i, r := range routes {
		out[i] = navdto.RouteOutput{Key: r.Key, Title: r.Title, Description: r.Description}
	}
	return out
}
