package component

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/metrics"
	"github.com/veesix-networks/fdbd/pkg/opdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
	"github.com/veesix-networks/fdbd/pkg/topology"
)

type Dependencies struct {
	EventBus  events.Bus
	Config    *config.Config
	Dataplane southbound.Southbound
	Store     *hwstore.Store
	Journal   opdb.Store
	Topology  *topology.Manager
	Deps      *depbus.Registry
	Metrics   *metrics.FdbMetrics
	Registry  *prometheus.Registry
}
