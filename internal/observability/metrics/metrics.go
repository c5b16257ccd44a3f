package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "krpc_telemetry_"

var (
	registerOnce sync.Once

	snapshotsTotal      prometheus.Counter
	snapshotErrorsTotal prometheus.Counter
	snapshotLatency     prometheus.Histogram

	samplesAccepted  *prometheus.CounterVec
	samplesDiscarded *prometheus.CounterVec

	alarmEventsTotal *prometheus.CounterVec

	tableRows *prometheus.GaugeVec
)

// Init registers the poller and alarm metrics. Observe helpers are no-ops
// until it ran.
func Init() {
	registerOnce.Do(func() {
		snapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "snapshots_total",
			Help: "Total snapshots taken from the stream registry",
		})
		snapshotErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "snapshot_errors_total",
			Help: "Total snapshot reads that failed at the transport",
		})
		snapshotLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "snapshot_seconds",
			Help:    "Snapshot read latency",
			Buckets: prometheus.DefBuckets,
		})
		samplesAccepted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "samples_accepted_total",
				Help: "Samples accepted after decimation, by strategy",
			},
			[]string{"strategy"},
		)
		samplesDiscarded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "samples_discarded_total",
				Help: "Snapshots discarded by decimation, by strategy",
			},
			[]string{"strategy"},
		)
		alarmEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_events_total",
				Help: "Alarm events raised, by severity",
			},
			[]string{"severity"},
		)
		tableRows = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "table_rows",
				Help: "Rows accumulated per strategy table",
			},
			[]string{"strategy"},
		)

		prometheus.MustRegister(
			snapshotsTotal,
			snapshotErrorsTotal,
			snapshotLatency,
			samplesAccepted,
			samplesDiscarded,
			alarmEventsTotal,
			tableRows,
		)
	})
}

// ObserveSnapshot records one successful snapshot and its latency.
func ObserveSnapshot(latency time.Duration) {
	if snapshotsTotal == nil {
		return
	}
	snapshotsTotal.Inc()
	snapshotLatency.Observe(latency.Seconds())
}

// ObserveSnapshotError records a failed snapshot.
func ObserveSnapshotError() {
	if snapshotErrorsTotal == nil {
		return
	}
	snapshotErrorsTotal.Inc()
}

// ObserveSampleAccepted records an accepted sample for a strategy.
func ObserveSampleAccepted(strategy string) {
	if samplesAccepted == nil {
		return
	}
	samplesAccepted.WithLabelValues(strategy).Inc()
	tableRows.WithLabelValues(strategy).Inc()
}

// ObserveSampleDiscarded records a decimated snapshot for a strategy.
func ObserveSampleDiscarded(strategy string) {
	if samplesDiscarded == nil {
		return
	}
	samplesDiscarded.WithLabelValues(strategy).Inc()
}

// ObserveAlarm records one raised alarm event.
func ObserveAlarm(severity string) {
	if alarmEventsTotal == nil {
		return
	}
	alarmEventsTotal.WithLabelValues(severity).Inc()
}
