package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the irrigation service.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec // labels: outcome={completed,fetch_failed,store_failed,rejected}
	CycleDuration prometheus.Histogram
	CycleState    prometheus.Gauge
	LastET0       prometheus.Gauge
	NextCycle     prometheus.Gauge

	// Per-plant metrics.
	PlantOutcomes   *prometheus.CounterVec // labels: outcome={scheduled,skipped,failed}
	IrrigationDepth *prometheus.GaugeVec   // labels: plant
	ScheduledWater  prometheus.Counter

	// Collaborator metrics.
	WeatherRequests    *prometheus.CounterVec   // labels: source={weatherbit,nrel}, outcome={success,error}
	WeatherAPIDuration *prometheus.HistogramVec // labels: source
	SolarCache         *prometheus.CounterVec   // labels: result={hit,miss}
	SinkErrors         *prometheus.CounterVec   // labels: sink
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.CycleState,
		m.LastET0,
		m.NextCycle,
		m.PlantOutcomes,
		m.IrrigationDepth,
		m.ScheduledWater,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.SolarCache,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "cycles_total",
			Help:      "Irrigation cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "irrigation",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-compute-persist cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CycleState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "irrigation",
			Name:      "cycle_state",
			Help:      "Current orchestrator state (0 idle, 1 fetching, 2 estimating, 3 processing plants, 4 persisting).",
		}),
		LastET0: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "irrigation",
			Name:      "last_et0_mm",
			Help:      "Reference evapotranspiration computed by the most recent cycle.",
		}),
		NextCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "irrigation",
			Name:      "next_cycle_timestamp_seconds",
			Help:      "Unix time the daily trigger fires next.",
		}),
		PlantOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "plant_outcomes_total",
			Help:      "Per-plant cycle outcomes.",
		}, []string{"outcome"}),
		IrrigationDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "irrigation",
			Name:      "irrigation_depth_mm",
			Help:      "Most recent irrigation depth decided per plant.",
		}, []string{"plant"}),
		ScheduledWater: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "scheduled_water_cubic_meters_total",
			Help:      "Total water volume placed on the schedule.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "weather_requests_total",
			Help:      "Weather and solar API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		WeatherAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "irrigation",
			Name:      "weather_api_duration_seconds",
			Help:      "Weather and solar API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		SolarCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "solar_cache_total",
			Help:      "Solar resource cache lookups by result.",
		}, []string{"result"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "sink_errors_total",
			Help:      "Persistence failures by sink.",
		}, []string{"sink"}),
	}
}
