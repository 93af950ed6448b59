package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/identity/gotrue"
	"github.com/MrEthical07/goConsole/identity/local"
	"github.com/MrEthical07/goConsole/internal/config"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/internal/telemetry"
	otelexport "github.com/MrEthical07/goConsole/metrics/export/otel"
	"github.com/MrEthical07/goConsole/session"
)

const shutdownTimeout = 5 * time.Second

// stack owns everything a command needs: logger, tracing, the redis
// client, the identity provider and the console. Close releases them in
// reverse order.
type stack struct {
	logger   *slog.Logger
	provider identity.Provider
	console  *goConsole.Console

	closers []func() error
}

func openStack(ctx context.Context, cfg config.Config, version string) (rt *stack, err error) {
	rt = &stack{}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	logger, logFile, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return rt, fmt.Errorf("logging: %w", err)
	}
	rt.logger = logger
	rt.push(logFile.Close)

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		return rt, fmt.Errorf("telemetry: %w", err)
	}
	rt.push(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdown(ctx)
	})

	rdb := redis.NewClient(cfg.RedisOptions())
	rt.push(rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return rt, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}

	provider, err := rt.openProvider(ctx, cfg, rdb)
	if err != nil {
		return rt, err
	}
	rt.provider = provider

	sink, err := rt.openAuditSink(cfg)
	if err != nil {
		return rt, err
	}

	console, err := goConsole.New().
		WithConfig(cfg.Console()).
		WithProvider(provider).
		WithLogger(logger).
		WithAuditSink(sink).
		Build()
	if err != nil {
		return rt, fmt.Errorf("console: %w", err)
	}
	rt.console = console
	rt.push(func() error {
		console.Close()
		return nil
	})

	// Instruments land on whatever meter provider is installed globally; the
	// default one discards.
	if cfg.Metrics.Enabled {
		exporter, err := otelexport.NewOTelExporter(otel.GetMeterProvider().Meter("github.com/MrEthical07/goConsole"), console)
		if err != nil {
			return rt, fmt.Errorf("metrics: %w", err)
		}
		rt.push(exporter.Close)
	}

	logger.Info("runtime ready", "provider", cfg.Provider, "profile", cfg.Profile, "version", version)
	return rt, nil
}

func (rt *stack) openProvider(ctx context.Context, cfg config.Config, rdb *redis.Client) (identity.Provider, error) {
	logger := rt.logger.With("component", "identity", "provider", cfg.Provider)

	switch cfg.Provider {
	case config.ProviderLocal:
		p, err := local.New(rdb, cfg.LocalProvider(), logger)
		if err != nil {
			return nil, fmt.Errorf("local provider: %w", err)
		}
		if err := p.Start(ctx); err != nil {
			return nil, fmt.Errorf("local provider: %w", err)
		}
		rt.push(p.Close)
		return p, nil
	case config.ProviderGoTrue:
		p, err := gotrue.New(cfg.GoTrueProvider(), session.NewStore(rdb, cfg.Redis.Prefix), logger)
		if err != nil {
			return nil, fmt.Errorf("gotrue provider: %w", err)
		}
		rt.push(func() error {
			p.Close()
			return nil
		})
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalid, cfg.Provider)
	}
}

// openAuditSink writes JSON lines to audit.file, or logs when none is set.
func (rt *stack) openAuditSink(cfg config.Config) (goConsole.AuditSink, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	if cfg.Audit.File == "" {
		return goConsole.NewSlogSink(rt.logger.With("component", "audit")), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Audit.File), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Audit.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	rt.push(f.Close)
	return goConsole.NewJSONWriterSink(f), nil
}

func (rt *stack) push(fn func() error) {
	rt.closers = append(rt.closers, fn)
}

// Close releases resources in reverse acquisition order.
func (rt *stack) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
