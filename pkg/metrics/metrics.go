package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fdbd"

// FdbMetrics holds the counters and gauges updated by the FDB manager. A nil
// *FdbMetrics is valid and records nothing.
type FdbMetrics struct {
	entriesManaged  prometheus.Gauge
	entriesBound    prometheus.Gauge
	linkDown        prometheus.Counter
	agingRaces      prometheus.Counter
	warmbootRelease prometheus.Counter
	warmbootPurge   prometheus.Counter
	hardwareErrors  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *FdbMetrics {
	m := &FdbMetrics{
		entriesManaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fdb",
			Name:      "entries_managed",
			Help:      "Forwarding entries known to the FDB manager.",
		}),
		entriesBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fdb",
			Name:      "entries_bound",
			Help:      "Forwarding entries programmed in the dataplane.",
		}),
		linkDown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fdb",
			Name:      "link_down_notifications_total",
			Help:      "Link-down notifications fanned out to forwarding entries.",
		}),
		agingRaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fdb",
			Name:      "aging_race_recoveries_total",
			Help:      "Dynamic entry updates recovered by remove and add after the dataplane aged the entry.",
		}),
		warmbootRelease: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warmboot",
			Name:      "released_total",
			Help:      "Unclaimed dynamic entries released without a dataplane delete.",
		}),
		warmbootPurge: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warmboot",
			Name:      "purged_total",
			Help:      "Unclaimed entries deleted from the dataplane after the warm boot hold time.",
		}),
		hardwareErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataplane",
			Name:      "errors_total",
			Help:      "Failed dataplane FDB calls by operation.",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.entriesManaged,
			m.entriesBound,
			m.linkDown,
			m.agingRaces,
			m.warmbootRelease,
			m.warmbootPurge,
			m.hardwareErrors,
		)
	}
	return m
}

func (m *FdbMetrics) SetEntries(managed, bound int) {
	if m == nil {
		return
	}
	m.entriesManaged.Set(float64(managed))
	m.entriesBound.Set(float64(bound))
}

func (m *FdbMetrics) LinkDown(notified int) {
	if m == nil {
		return
	}
	m.linkDown.Add(float64(notified))
}

func (m *FdbMetrics) AgingRaceRecovered() {
	if m == nil {
		return
	}
	m.agingRaces.Inc()
}

func (m *FdbMetrics) WarmbootReleased(n int) {
	if m == nil {
		return
	}
	m.warmbootRelease.Add(float64(n))
}

func (m *FdbMetrics) WarmbootPurged(n int) {
	if m == nil {
		return
	}
	m.warmbootPurge.Add(float64(n))
}

func (m *FdbMetrics) HardwareError(op string) {
	if m == nil {
		return
	}
	m.hardwareErrors.WithLabelValues(op).Inc()
}
