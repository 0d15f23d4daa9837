package fdb

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/fdbd/pkg/bridge"
	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/metrics"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/opdb/memory"
	"github.com/veesix-networks/fdbd/pkg/southbound"
	"github.com/veesix-networks/fdbd/pkg/southbound/sim"
	"github.com/veesix-networks/fdbd/pkg/topology"
)

const (
	testSwitchID = 1

	intfA fdb.InterfaceID = 100
	intfB fdb.InterfaceID = 200

	vlanA fdb.VlanID = 100
	vlanB fdb.VlanID = 200
)

var (
	port1 = fdb.PhysicalPort(1)
	port2 = fdb.PhysicalPort(2)
	port4 = fdb.PhysicalPort(4)
	lag1  = fdb.AggregatePort(1)

	mac1 = fdb.MustParseMAC("02:00:00:00:00:01")
	mac2 = fdb.MustParseMAC("02:00:00:00:00:02")
	mac3 = fdb.MustParseMAC("02:00:00:00:00:03")
)

type fixture struct {
	dp      *sim.Dataplane
	journal *memory.Store
	store   *hwstore.Store
	topo    *topology.Manager
	deps    *depbus.Registry
	bridge  *bridge.Manager
	reg     *prometheus.Registry
	mgr     *Manager
}

// newFixture builds a switch with two router interfaces:
//
//	intf 100 (vlan 100): port 1, port 2, lag 1 (ports 3 and 5)
//	intf 200 (vlan 200): port 4
//
// No bridge ports exist yet.
func newFixture(t *testing.T) *fixture {
	return newFixtureWithMode(t, LearningModeHardware)
}

func newFixtureWithMode(t *testing.T, mode LearningMode) *fixture {
	t.Helper()

	topo := topology.New()
	topo.AddPort(&topology.Port{ID: 1, Name: "eth1", Handle: 11})
	topo.AddPort(&topology.Port{ID: 2, Name: "eth2", Handle: 12})
	topo.AddPort(&topology.Port{ID: 3, Name: "eth3", Handle: 13})
	topo.AddPort(&topology.Port{ID: 4, Name: "eth4", Handle: 14})
	topo.AddPort(&topology.Port{ID: 5, Name: "eth5", Handle: 15})
	topo.AddAggregatePort(&topology.AggregatePort{ID: 1, Name: "bond1", Handle: 21, Members: []fdb.PortID{3, 5}})
	topo.AddInterface(&topology.RouterInterface{ID: intfA, Handle: 1100, VLAN: vlanA, Ports: []fdb.PortDescriptor{port1, port2, lag1}})
	topo.AddInterface(&topology.RouterInterface{ID: intfB, Handle: 1200, VLAN: vlanB, Ports: []fdb.PortDescriptor{port4}})

	dp := sim.New()
	journal := memory.New()
	store := hwstore.New(hwstore.Config{SwitchID: testSwitchID, Dataplane: dp, Journal: journal})
	deps := depbus.NewRegistry()
	reg := prometheus.NewRegistry()

	return &fixture{
		dp:      dp,
		journal: journal,
		store:   store,
		topo:    topo,
		deps:    deps,
		bridge:  bridge.New(topo, deps),
		reg:     reg,
		mgr: NewManager(Config{
			SwitchID:     testSwitchID,
			LearningMode: mode,
			Store:        store,
			Topology:     topo,
			Deps:         deps,
			Metrics:      metrics.New(reg),
		}),
	}
}

func (f *fixture) addBridgePorts(t *testing.T, ports ...fdb.PortDescriptor) {
	t.Helper()
	for _, p := range ports {
		_, err := f.bridge.AddBridgePort(p)
		require.NoError(t, err)
	}
}

func (f *fixture) entry(t *testing.T, intf fdb.InterfaceID, mac fdb.MacAddress) *ManagedEntry {
	t.Helper()
	e, ok := f.mgr.Entry(fdb.Key{Interface: intf, MAC: mac})
	require.True(t, ok, "no entry for (%d, %s)", intf, mac)
	return e
}

func (f *fixture) hwEntry(t *testing.T, vlan fdb.VlanID, mac fdb.MacAddress) *southbound.FdbEntry {
	t.Helper()
	e, err := f.dp.GetFdbEntry(hwKey(vlan, mac))
	require.NoError(t, err)
	return e
}

// requireIndexMatchesEntries checks that every port indexes exactly the keys
// whose entry is on that port.
func (f *fixture) requireIndexMatchesEntries(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mgr.Verify())

	want := make(map[fdb.PortDescriptor][]fdb.Key)
	for _, e := range f.mgr.sortedEntries() {
		want[e.Port()] = append(want[e.Port()], e.Key())
	}
	for _, p := range []fdb.PortDescriptor{port1, port2, port4, lag1} {
		require.Equal(t, len(want[p]), len(f.mgr.PortKeys(p)), "port %s", p)
		if len(want[p]) > 0 {
			require.Equal(t, want[p], f.mgr.PortKeys(p), "port %s", p)
		}
	}
}

func hwKey(vlan fdb.VlanID, mac fdb.MacAddress) fdb.HardwareKey {
	return fdb.HardwareKey{SwitchID: testSwitchID, VLAN: vlan, MAC: mac}
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m, labels) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels []string) bool {
	for i := 0; i+1 < len(labels); i += 2 {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}
