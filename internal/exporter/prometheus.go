package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/fdbd/pkg/component"
	"github.com/veesix-networks/fdbd/pkg/config/system"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/metrics"
)

const Namespace = "exporter.prometheus"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	registry *prometheus.Registry
	addr     string
	server   *http.Server

	mu            sync.RWMutex
	serverRunning bool
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Metrics.Enabled {
		return nil, nil
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("prometheus exporter requires a registry")
	}

	addr := system.DefaultMetricsAddress
	if deps.Config.Metrics.ListenAddress != "" {
		addr = deps.Config.Metrics.ListenAddress
	}

	if deps.Store != nil {
		if err := deps.Registry.Register(metrics.NewStoreCollector(deps.Store)); err != nil {
			return nil, fmt.Errorf("register store collector: %w", err)
		}
	}
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Component{
		Base:     component.NewBase(Namespace),
		logger:   logger.Component(logger.Exporter),
		registry: deps.Registry,
		addr:     addr,
	}, nil
}

func (c *Component) Addr() string {
	return c.addr
}

func (c *Component) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverRunning
}

func (c *Component) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(c.logger.Handler(), slog.LevelError),
	}))
	return mux
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting Prometheus exporter", "addr", c.addr)

	lis, err := net.Listen("tcp", c.addr)
	if err != nil {
		c.StopContext()
		return fmt.Errorf("listen on %s: %w", c.addr, err)
	}

	c.server = &http.Server{
		Handler:           c.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	c.mu.Lock()
	c.serverRunning = true
	c.mu.Unlock()

	c.Go(func() {
		c.logger.Info("Prometheus HTTP server listening", "addr", lis.Addr().String())
		if err := c.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Prometheus HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.serverRunning = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")

	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("Prometheus HTTP server shutdown", "error", err)
		}
	}

	c.StopContext()
	return nil
}
