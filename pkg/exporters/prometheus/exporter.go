// Package prometheus exports Log Doctor monitoring metrics. The
// Exporter implements types.Collector, so it plugs directly into a
// monitor via monitor.WithCollector.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supporttools/log-doctor/pkg/logger"
	"github.com/supporttools/log-doctor/pkg/types"
)

// Exporter serves Log Doctor metrics over HTTP and records
// instrumentation callouts from the monitor pipeline.
type Exporter struct {
	config   *types.PrometheusExporterConfig
	path     string // watched file path, used as the metric label
	registry *prometheus.Registry
	metrics  *Metrics
	server   *http.Server

	mu      sync.Mutex
	started bool
}

var _ types.Collector = (*Exporter)(nil)

// NewExporter creates a Prometheus exporter for a monitor watching
// watchPath.
func NewExporter(config *types.PrometheusExporterConfig, watchPath string) (*Exporter, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if !config.Enabled {
		return nil, fmt.Errorf("prometheus exporter is disabled")
	}
	if watchPath == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}

	if config.Port == 0 {
		config.Port = types.DefaultPrometheusPort
	}
	if config.Path == "" {
		config.Path = types.DefaultPrometheusPath
	}
	if config.Namespace == "" {
		config.Namespace = "log_doctor"
	}

	constLabels := make(prometheus.Labels)
	for k, v := range config.Labels {
		constLabels[k] = v
	}

	registry := NewRegistry()
	metrics := NewMetrics(config.Namespace, constLabels)
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Exporter{
		config:   config,
		path:     watchPath,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// Start launches the metrics HTTP server.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("prometheus exporter already started")
	}

	e.metrics.StartTimeSeconds.Set(float64(time.Now().Unix()))

	addr := fmt.Sprintf("0.0.0.0:%d", e.config.Port)
	server, err := startHTTPServer(addr, e.config.Path, e.registry)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	e.server = server
	e.started = true

	logger.Infof("Prometheus exporter started on %s%s", addr, e.config.Path)

	return nil
}

// Stop gracefully stops the metrics HTTP server. Safe to call when the
// exporter was never started.
func (e *Exporter) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}

	err := shutdownServer(e.server, 10*time.Second)
	e.server = nil
	e.started = false
	return err
}

// Registry exposes the underlying registry, primarily for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// types.Collector implementation

func (e *Exporter) SignalReceived() {
	e.metrics.ChangeSignalsTotal.WithLabelValues(e.path).Inc()
}

func (e *Exporter) BytesRead(n int) {
	e.metrics.BytesReadTotal.WithLabelValues(e.path).Add(float64(n))
}

func (e *Exporter) RecordsExtracted(n int) {
	e.metrics.RecordsExtractedTotal.WithLabelValues(e.path).Add(float64(n))
}

func (e *Exporter) RecordDelivered() {
	e.metrics.RecordsDeliveredTotal.WithLabelValues(e.path).Inc()
}

func (e *Exporter) CallbackFault() {
	e.metrics.CallbackFaultsTotal.WithLabelValues(e.path).Inc()
}

func (e *Exporter) ReadError() {
	e.metrics.ReadErrorsTotal.WithLabelValues(e.path).Inc()
}

func (e *Exporter) TruncationReset() {
	e.metrics.TruncationResetsTotal.WithLabelValues(e.path).Inc()
}

func (e *Exporter) ObserveExtractSeconds(seconds float64) {
	e.metrics.ExtractDuration.WithLabelValues(e.path).Observe(seconds)
}

func (e *Exporter) SetMonitorUp(up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	e.metrics.MonitorUp.WithLabelValues(e.path).Set(v)
}
