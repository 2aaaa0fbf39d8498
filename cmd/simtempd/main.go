// Command simtempd runs a virtual temperature sensor instance, exposing
// its control attributes over HTTP and its record stream over a Unix
// domain socket, grounded on the flag parsing, structured logging and
// signal-driven graceful shutdown in
// References/orion-prototipe/cmd/oriond/main.go.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PyCharmGuy123/simtemp/internal/hostclock"
	"github.com/PyCharmGuy123/simtemp/internal/hostconfig"
	"github.com/PyCharmGuy123/simtemp/internal/metrics"
	"github.com/PyCharmGuy123/simtemp/internal/rtscheduler"
	"github.com/PyCharmGuy123/simtemp/internal/transport/httpattrs"
	"github.com/PyCharmGuy123/simtemp/internal/transport/udsstream"
	"github.com/PyCharmGuy123/simtemp/simtemp"
)

const (
	defaultConfigPath = "config/simtemp.yaml"
	defaultHTTPAddr   = ":8090"
	defaultUDSPath    = "/tmp/simtemp.sock"
	metricsPollPeriod = time.Second
	shutdownGrace     = 5 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to bring-up configuration file")
	debug := flag.Bool("debug", false, "enable debug logging and the gin request logger")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := hostconfig.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	udsPath := cfg.UDSPath
	if udsPath == "" {
		udsPath = defaultUDSPath
	}

	slog.Info("starting simtempd",
		"instance_id", instanceID,
		"config", *configPath,
		"http_addr", httpAddr,
		"uds_path", udsPath,
	)

	reg := prometheus.NewRegistry()
	devMetrics := metrics.New(reg)

	attrs := httpattrs.New()
	streams := udsstream.New(udsPath)

	dev, err := simtemp.Probe(simtemp.ProbeOptions{
		InstanceID:        instanceID,
		Logger:            logger,
		Scheduler:         rtscheduler.New(),
		Clock:             hostclock.New(),
		StreamRegistry:    streams,
		AttributeRegistry: attrs,
		BindingLookup:     cfg,
	})
	if err != nil {
		slog.Error("failed to probe device", "error", err)
		os.Exit(1)
	}

	engine := httpattrs.NewEngine(*debug)
	httpattrs.DualMount(attrs, engine, "/attr", "/simtemp/attr")
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpServer := &http.Server{Addr: httpAddr, Handler: engine}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := streams.Listen(ctx); err != nil {
		slog.Error("failed to listen on uds socket", "error", err, "path", udsPath)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	go pollMetrics(ctx, dev, devMetrics)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if err := streams.Close(); err != nil {
		slog.Warn("uds listener close failed", "error", err)
	}
	if err := dev.Remove(shutdownCtx); err != nil {
		slog.Error("device remove failed", "error", err)
		os.Exit(1)
	}

	slog.Info("simtempd stopped")
}

// pollMetrics periodically snapshots the device's counters and queue
// depth into the Prometheus registry, since the Configuration Store's
// atomic counters have no push notification of their own.
func pollMetrics(ctx context.Context, dev *simtemp.Device, m *metrics.DeviceMetrics) {
	ticker := time.NewTicker(metricsPollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := dev.CountersSnapshot()
			m.Observe(dev.InstanceID(), stats.Updates, stats.Alerts, stats.Drops, dev.QueueDepth())
		}
	}
}
