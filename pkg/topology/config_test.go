package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

func TestApplyConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
dataplane: {backend: sim}
ports:
  - {id: 1, name: eth1, handle: 11}
  - {id: 2, name: eth2, handle: 12}
  - {id: 3, name: eth3, handle: 13}
aggregate_ports:
  - {id: 1, name: bond0, handle: 21, members: [eth2, eth3]}
interfaces:
  - {id: 100, router_interface: 1100, vlan: 100, ports: [eth1, bond0]}
  - {id: 200, router_interface: 1200, vlan: 200, ports: [eth1]}
`))
	require.NoError(t, err)

	m := New()
	require.NoError(t, m.Apply(cfg))

	h, ok := m.PortHandle(fdb.AggregatePort(1))
	require.True(t, ok)
	require.Equal(t, fdb.PortHandle(21), h)
	require.Equal(t, []fdb.PortID{2, 3}, m.AggregatePort(1).Members)

	rif, ok := m.RouterInterfaceHandle(100)
	require.True(t, ok)
	vlan, ok := m.RouterInterfaceVlan(rif)
	require.True(t, ok)
	require.Equal(t, fdb.VlanID(100), vlan)

	intf, ok := m.InterfaceOfPort(fdb.AggregatePort(1))
	require.True(t, ok)
	require.Equal(t, fdb.InterfaceID(100), intf)

	require.Equal(t, []fdb.PortDescriptor{fdb.PhysicalPort(1), fdb.AggregatePort(1)}, m.BridgedPorts())
	require.False(t, m.PortByName("eth1").LinkUp)
}
