package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all the Prometheus metrics exposed by Log Doctor.
// Every vector carries a "path" label identifying the watched file, so
// several monitors can share one exporter process.
type Metrics struct {
	// Counter metrics
	RecordsExtractedTotal *prometheus.CounterVec
	RecordsDeliveredTotal *prometheus.CounterVec
	BytesReadTotal        *prometheus.CounterVec
	ChangeSignalsTotal    *prometheus.CounterVec
	ReadErrorsTotal       *prometheus.CounterVec
	CallbackFaultsTotal   *prometheus.CounterVec
	TruncationResetsTotal *prometheus.CounterVec

	// Gauge metrics
	MonitorUp        *prometheus.GaugeVec
	StartTimeSeconds prometheus.Gauge

	// Histogram metrics
	ExtractDuration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all metric definitions.
func NewMetrics(namespace string, constLabels prometheus.Labels) *Metrics {
	if namespace == "" {
		namespace = "log_doctor"
	}

	return &Metrics{
		RecordsExtractedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "records_extracted_total",
				Help:        "Total number of error records extracted from the watched log",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		RecordsDeliveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "records_delivered_total",
				Help:        "Total number of error records delivered to the callback",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		BytesReadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "bytes_read_total",
				Help:        "Total bytes read from the watched log",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		ChangeSignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "change_signals_total",
				Help:        "Total change signals processed by the monitor loop",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		ReadErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "read_errors_total",
				Help:        "Total transient read failures",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		CallbackFaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "callback_faults_total",
				Help:        "Total callback panics and timeouts",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		TruncationResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "truncation_resets_total",
				Help:        "Total cursor resets after the watched file shrank",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		MonitorUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "monitor_up",
				Help:        "Whether the monitor loop is running (1) or not (0)",
				ConstLabels: constLabels,
			},
			[]string{"path"},
		),

		StartTimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "start_time_seconds",
				Help:        "Unix timestamp when the exporter started",
				ConstLabels: constLabels,
			},
		),

		ExtractDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "extract_duration_seconds",
				Help:        "Duration of extraction passes over newly read chunks",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"path"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{
		m.RecordsExtractedTotal,
		m.RecordsDeliveredTotal,
		m.BytesReadTotal,
		m.ChangeSignalsTotal,
		m.ReadErrorsTotal,
		m.CallbackFaultsTotal,
		m.TruncationResetsTotal,
		m.MonitorUp,
		m.StartTimeSeconds,
		m.ExtractDuration,
	} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
