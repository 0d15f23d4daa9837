package config

import (
	"github.com/veesix-networks/fdbd/pkg/config/interfaces"
	"github.com/veesix-networks/fdbd/pkg/config/system"
)

type Config struct {
	Logging        system.LoggingConfig             `json:"logging,omitempty" yaml:"logging,omitempty"`
	Switch         system.SwitchConfig              `json:"switch,omitempty" yaml:"switch,omitempty"`
	Dataplane      system.DataplaneConfig           `json:"dataplane,omitempty" yaml:"dataplane,omitempty"`
	OpDB           system.OpDBConfig                `json:"opdb,omitempty" yaml:"opdb,omitempty"`
	Gateway        system.GatewayConfig             `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	Metrics        system.MetricsConfig             `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	LinkMonitor    system.LinkMonitorConfig         `json:"link_monitor,omitempty" yaml:"link_monitor,omitempty"`
	Ports          []interfaces.PortConfig          `json:"ports,omitempty" yaml:"ports,omitempty"`
	AggregatePorts []interfaces.AggregatePortConfig `json:"aggregate_ports,omitempty" yaml:"aggregate_ports,omitempty"`
	Interfaces     []interfaces.InterfaceConfig     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	StaticMacs     []interfaces.StaticMacConfig     `json:"static_macs,omitempty" yaml:"static_macs,omitempty"`
}
