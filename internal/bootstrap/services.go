package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/adapters/assessment"
	"github.com/quantumgrade/entropyval/internal/adapters/orchestrator"
	"github.com/quantumgrade/entropyval/internal/adapters/qualitymon"
	"github.com/quantumgrade/entropyval/internal/adapters/retention"
	"github.com/quantumgrade/entropyval/internal/adapters/watchdog"
	"github.com/quantumgrade/entropyval/internal/data"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// buildObservability configures the metrics sink from config.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// metricsSink returns the sink as the Sink interface, avoiding a typed nil.
func (c ObservabilityContainer) metricsSink() statsd.Sink {
	if c.MetricsSink == nil {
		return nil
	}
	return c.MetricsSink
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	observability   ObservabilityContainer
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newOrchestratorBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeOrchestrator,
		name: "orchestrator",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			client, err := assessment.NewClient(assessment.Options{
				Config: deps.cfg.Config.Assessment,
				Logger: deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build assessment client: %w", err)
			}
			runner, err := orchestrator.NewRunner(orchestrator.RunnerOptions{
				DB:         deps.cfg.DB,
				Config:     deps.cfg.Config.Orchestrator,
				Assessment: client,
				Logger:     deps.logger,
				Metrics:    deps.observability.metricsSink(),
			})
			if err != nil {
				return fmt.Errorf("build orchestrator runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newWatchdogBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeWatchdog,
		name: "watchdog",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			runner, err := watchdog.NewRunner(watchdog.RunnerOptions{
				DB:      deps.cfg.DB,
				Config:  deps.cfg.Config.Watchdog,
				Logger:  deps.logger,
				Metrics: deps.observability.metricsSink(),
			})
			if err != nil {
				return fmt.Errorf("build watchdog runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newRetentionBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeRetention,
		name: "retention",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			runner, err := retention.NewRunner(retention.RunnerOptions{
				DB:      deps.cfg.DB,
				Config:  deps.cfg.Config.Retention,
				Logger:  deps.logger,
				Metrics: deps.observability.metricsSink(),
			})
			if err != nil {
				return fmt.Errorf("build retention runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newQualityMonitorBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeQualityMonitor,
		name: "quality monitor",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			opts := qualitymon.RunnerOptions{
				DB:      deps.cfg.DB,
				Config:  deps.cfg.Config.Quality,
				Logger:  deps.logger,
				Metrics: deps.observability.metricsSink(),
			}
			if deps.cfg.RedisClient != nil {
				opts.Cache = data.NewRedisCacheRepo(deps.cfg.RedisClient)
			}
			runner, err := qualitymon.NewRunner(opts)
			if err != nil {
				return fmt.Errorf("build quality monitor runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newOrchestratorBackgroundService(deps),
		newWatchdogBackgroundService(deps),
		newRetentionBackgroundService(deps),
		newQualityMonitorBackgroundService(deps),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, cfg.Config.Observability)
	if observability.MetricsSink != nil {
		defer func() {
			if cerr := observability.MetricsSink.Close(); cerr != nil {
				logger.Warn("close statsd client failed", "error", cerr)
			}
		}()
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		observability:   observability,
		enabledServices: enabledServices,
		errCh:           errCh,
	}
	handles := startBackgroundServices(deps, buildBackgroundServices(deps))

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		logger:      logger,
		backgrounds: handles,
	})
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		gracefulStop(cfg)
		return nil
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		gracefulStop(cfg)
		return err
	}
}

// gracefulStop waits for background services to finish.
func gracefulStop(cfg shutdownConfig) {
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
