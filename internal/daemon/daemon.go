package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harun/quill/internal/config"
	"github.com/harun/quill/internal/logger"
	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/internal/tracing"
	"github.com/harun/quill/pkg/auth"
	"github.com/harun/quill/pkg/commandqueue"
	"github.com/harun/quill/pkg/emailtools"
	"github.com/harun/quill/pkg/gateway"
	"github.com/harun/quill/pkg/provider"
	"github.com/harun/quill/pkg/toolexecutor"
)

// queueWarnAfter logs provider calls left waiting for a slot this long
const queueWarnAfter = 5 * time.Second

// Daemon wires the configured components together and owns their lifetime
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	metrics   *metrics.Metrics
	queue     *commandqueue.CommandQueue
	provider  provider.Provider
	completer *provider.Completer
	registry  *toolexecutor.Registry
	executor  *toolexecutor.Executor

	gatewayServer *gateway.Server

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// Status describes a daemon at a point in time
type Status struct {
	Running   bool
	StartTime time.Time
	Uptime    time.Duration
	Provider  string
	Tools     int
}

var newProvider = provider.New

// New builds every component from cfg. Nothing listens until Start.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, version string) (*Daemon, error) {
	d := &Daemon{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	d.queue = commandqueue.New(cfg.Queue.Concurrency, commandqueue.WithObserver(d.metrics))

	p, err := newProvider(ctx, provider.Settings{
		Name:    cfg.Provider.Name,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
	})
	if err != nil {
		_ = d.queue.Close()
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	d.provider = p

	d.completer = provider.NewCompleter(p, d.queue, provider.CompleterConfig{
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
		Timeout:     cfg.Provider.Timeout,
		WarnAfter:   queueWarnAfter,
	}, d.metrics)

	d.registry = toolexecutor.NewRegistry()
	if err := emailtools.Register(d.registry, d.completer, cfg.Identity.Number); err != nil {
		_ = d.queue.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	validator, err := auth.NewValidator(cfg.Auth.Token)
	if err != nil {
		_ = d.queue.Close()
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}
	d.executor = toolexecutor.NewExecutor(d.registry, validator,
		toolexecutor.WithRedactor(log.Redactor()),
		toolexecutor.WithMetrics(d.metrics),
	)

	d.gatewayServer, err = gateway.NewServer(gateway.Config{
		Host:                cfg.Server.Host,
		Port:                cfg.Server.Port,
		ReadTimeout:         cfg.Server.ReadTimeout,
		WriteTimeout:        cfg.Server.WriteTimeout,
		Executor:            d.executor,
		Queue:               d.queue,
		Metrics:             d.metrics,
		Info:                gateway.ServerInfo{Name: "quill", Version: version},
		Logger:              log.GetZerolog(),
		WSRequestsPerMinute: cfg.Server.WSRequestsPerMinute,
		WSMaxConcurrent:     cfg.Server.WSMaxConcurrent,
	})
	if err != nil {
		_ = d.queue.Close()
		return nil, fmt.Errorf("failed to create gateway server: %w", err)
	}

	return d, nil
}

// Start begins serving
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	logger := d.logger.GetZerolog().With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().
		Str("provider", d.provider.Name()).
		Str("model", d.config.Provider.Model).
		Int("tools", d.registry.Len()).
		Msg("Starting quill")

	if err := d.gatewayServer.Start(); err != nil {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return fmt.Errorf("failed to start gateway server: %w", err)
	}

	logger.Info().Str("addr", d.gatewayServer.Addr()).Msg("Quill started")
	return nil
}

// Stop drains in-flight work within the configured shutdown timeout and
// releases every component.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	logger := d.logger.GetZerolog().With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().Msg("Stopping quill")

	timeout := d.config.Server.ShutdownTimeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stopErr error
	if err := d.gatewayServer.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to stop gateway server")
		stopErr = err
	}

	if !d.queue.Drain(time.Until(deadlineOr(ctx, timeout))) {
		logger.Warn().Msg("Provider calls cancelled at shutdown")
	}

	logger.Info().Msg("Quill stopped")
	return stopErr
}

func deadlineOr(ctx context.Context, fallback time.Duration) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(fallback)
}

// Wait blocks until SIGINT, SIGTERM or ctx ends, then stops the daemon
func (d *Daemon) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	d.logger.Info().Msg("Shutdown requested")
	return d.Stop()
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running:  d.running,
		Provider: d.provider.Name(),
		Tools:    d.registry.Len(),
	}
	if d.running {
		status.StartTime = d.startTime
		status.Uptime = time.Since(d.startTime)
	}
	return status
}

// Addr returns the address the gateway listens on
func (d *Daemon) Addr() string {
	return d.gatewayServer.Addr()
}

// Registry returns the tool registry
func (d *Daemon) Registry() *toolexecutor.Registry {
	return d.registry
}
