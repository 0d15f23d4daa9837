package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is a point-in-time view of the hardware object store.
type StoreStats struct {
	Objects  int
	Warmboot int
	Aged     int
}

type StoreStatsSource interface {
	StoreStats() StoreStats
}

// StoreCollector reads the hardware object store on every scrape.
type StoreCollector struct {
	source   StoreStatsSource
	objects  *prometheus.Desc
	warmboot *prometheus.Desc
	aged     *prometheus.Desc
}

func NewStoreCollector(source StoreStatsSource) *StoreCollector {
	return &StoreCollector{
		source: source,
		objects: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "hwstore", "objects"),
			"Hardware FDB objects owned by a forwarding entry.",
			nil, nil,
		),
		warmboot: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "hwstore", "warmboot_handles"),
			"Rediscovered FDB objects not yet claimed after a restart.",
			nil, nil,
		),
		aged: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "hwstore", "aged_objects"),
			"Owned FDB objects the dataplane reported as aged out.",
			nil, nil,
		),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objects
	ch <- c.warmboot
	ch <- c.aged
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.StoreStats()
	ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(s.Objects))
	ch <- prometheus.MustNewConstMetric(c.warmboot, prometheus.GaugeValue, float64(s.Warmboot))
	ch <- prometheus.MustNewConstMetric(c.aged, prometheus.GaugeValue, float64(s.Aged))
}
