package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/bootstrap"
	loadingdto "storefront/internal/modules/loading/dto"
	"storefront/internal/platform/config"
	"storefront/internal/platform/slug"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront dashboard with coordinated navigation loading",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", ".storefront", "directory holding config, journal and reports")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newNavCmd(&dataDir))
	root.AddCommand(newConfigCmd(&dataDir))
	return root
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the storefront terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			return bootstrap.RunTUI(*dataDir)
		},
	}
}

func newNavCmd(dataDir *string) *cobra.Command {
	nav := &cobra.Command{Use: "nav", Short: "Navigation sessions"}

	var overlay bool
	simulate := &cobra.Command{
		Use:   "simulate <route>...",
		Short: "Navigate through routes headlessly and print loading transitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.Load(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return simulateRoutes(cmd.Context(), cmd.OutOrStdout(), app, args, overlay)
		},
	}
	simulate.Flags().BoolVar(&overlay, "overlay", false, "use the overlay loading variant")

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent navigation sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.Load(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			sessions, err := app.NavCLI.History(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no navigation sessions")
				return nil
			}
			for _, s := range sessions {
				line := fmt.Sprintf("%s  %-10s -> %-10s %-11s %5dms",
					s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.From, s.Target, s.Outcome, s.DurationMs)
				if s.Error != "" {
					line += "  " + s.Error
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "number of sessions to list")

	var reportLimit int
	report := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown report of recent navigation sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.Load(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.NavCLI.Report(context.Background(), reportLimit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "report %s (%d sessions)\n", out.Path, out.Sessions)
			return nil
		},
	}
	report.Flags().IntVar(&reportLimit, "limit", 100, "number of sessions to include")

	nav.AddCommand(simulate, history, report)
	return nav
}

func newConfigCmd(dataDir *string) *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Configuration files"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default storefront.yaml into the data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault(*dataDir, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	cfg.AddCommand(initCmd)
	return cfg
}

// simulateRoutes navigates through routes one at a time, waiting for the
// loading state to return to idle before moving on.
func simulateRoutes(ctx context.Context, w io.Writer, app *bootstrap.App, routes []string, overlay bool) error {
	var mu sync.Mutex
	began := time.Now()
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "%6dms  "+format+"\n", append([]any{time.Since(began).Milliseconds()}, args...)...)
	}

	idle := make(chan struct{}, 1)
	stop := app.NavTUI.Watch(
		func(s loadingdto.State) {
			if s.Loading {
				printf("loading  cycle=%d variant=%s message=%q", s.Cycle, s.Variant, s.Message)
				return
			}
			printf("idle     cycle=%d", s.Cycle)
			select {
			case idle <- struct{}{}:
			default:
			}
		},
		func(location string) { printf("location %s", location) },
	)
	defer stop()

	wait := app.Config.Loading.Timeout() + time.Second
	for _, route := range routes {
		if slug.Route(route) == app.NavTUI.Location() {
			printf("skip     already at %s", route)
			continue
		}
		select {
		case <-idle:
		default:
		}

		var err error
		if overlay {
			err = app.NavTUI.NavigateOverlay(ctx, route, "Opening "+route+"…")
		} else {
			err = app.NavTUI.Navigate(ctx, route)
		}
		if err != nil {
			printf("error    %v", err)
			continue
		}
		if !app.NavTUI.Loading().Loading {
			continue
		}
		select {
		case <-idle:
		case <-time.After(wait):
			printf("gave up  waiting for %s", route)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	printf("done     at %s", app.NavTUI.Location())
	return nil
}
