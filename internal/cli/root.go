package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goConsole/internal/config"
	"github.com/MrEthical07/goConsole/internal/tui"
	"github.com/MrEthical07/goConsole/metrics/export/prometheus"
)

type app struct {
	version    string
	configPath string
	cfg        config.Config

	// open is swapped in tests.
	open func(ctx context.Context, cfg config.Config, version string) (*stack, error)
}

// NewRootCommand returns the goconsole command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, open: openStack}

	root := &cobra.Command{
		Use:   "goconsole",
		Short: "Terminal admin console",
		Long: `goconsole restores the persisted session, asks for credentials when there
is none, and shows the dashboard to the single allowed administrator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
		RunE: a.runConsole,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(
		newVersionCommand(a),
		newUserCommand(a),
		newSessionCommand(a),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := a.open(ctx, a.cfg, a.version)
	if err != nil {
		return err
	}
	defer rt.Close()

	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Addr != "" {
		stop, err := a.serveMetrics(rt)
		if err != nil {
			return err
		}
		defer stop()
	}

	return tui.Run(ctx, rt.console, tui.Options{Version: a.version})
}

// serveMetrics exposes /metrics until the returned stop is called.
func (a *app) serveMetrics(rt *stack) (stop func(), err error) {
	ln, err := net.Listen("tcp", a.cfg.Metrics.Addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.NewPrometheusExporter(rt.console).Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server stopped", "error", err)
		}
	}()
	rt.logger.Info("metrics server listening", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
