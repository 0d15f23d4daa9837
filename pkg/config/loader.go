package config

import (
	"fmt"
	"os"

	"github.com/veesix-networks/fdbd/pkg/config/system"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logger.LogLevelInfo
	}
	if c.Switch.L2LearningMode == "" {
		c.Switch.L2LearningMode = system.LearningModeHardware
	}
	if c.Switch.WarmbootHoldTime == 0 {
		c.Switch.WarmbootHoldTime = system.DefaultWarmbootHoldTime
	}
	if c.Dataplane.Backend == "" {
		c.Dataplane.Backend = system.BackendVPP
	}
	if c.Dataplane.Backend == system.BackendVPP && c.Dataplane.VPPAPISocket == "" {
		c.Dataplane.VPPAPISocket = system.DefaultVPPAPISocket
	}
	if c.Gateway.ListenAddress == "" {
		c.Gateway.ListenAddress = system.DefaultGatewayAddress
	}
	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = system.DefaultMetricsAddress
	}
}

func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format)
	}

	switch c.Switch.L2LearningMode {
	case system.LearningModeHardware, system.LearningModeSoftware:
	default:
		return fmt.Errorf("switch.l2_learning_mode: unsupported mode %q", c.Switch.L2LearningMode)
	}
	if c.Switch.WarmbootHoldTime < 0 {
		return fmt.Errorf("switch.warmboot_hold_time must not be negative")
	}

	switch c.Dataplane.Backend {
	case system.BackendVPP, system.BackendSim:
	default:
		return fmt.Errorf("dataplane.backend: unsupported backend %q", c.Dataplane.Backend)
	}

	names := make(map[string]bool)
	portIDs := make(map[uint32]bool)
	for i, p := range c.Ports {
		if p.Name == "" {
			return fmt.Errorf("ports[%d]: name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("ports[%d]: duplicate name %q", i, p.Name)
		}
		if portIDs[p.ID] {
			return fmt.Errorf("ports[%d]: duplicate id %d", i, p.ID)
		}
		names[p.Name] = true
		portIDs[p.ID] = true
	}

	lagIDs := make(map[uint32]bool)
	for i, a := range c.AggregatePorts {
		if a.Name == "" {
			return fmt.Errorf("aggregate_ports[%d]: name is required", i)
		}
		if names[a.Name] {
			return fmt.Errorf("aggregate_ports[%d]: duplicate name %q", i, a.Name)
		}
		if lagIDs[a.ID] {
			return fmt.Errorf("aggregate_ports[%d]: duplicate id %d", i, a.ID)
		}
		for _, m := range a.Members {
			if c.findPort(m) < 0 {
				return fmt.Errorf("aggregate_ports[%d].members references unknown port '%s'", i, m)
			}
		}
		names[a.Name] = true
		lagIDs[a.ID] = true
	}

	ifIDs := make(map[uint32]bool)
	for i, intf := range c.Interfaces {
		if ifIDs[intf.ID] {
			return fmt.Errorf("interfaces[%d]: duplicate id %d", i, intf.ID)
		}
		if intf.VLAN == 0 || intf.VLAN > 4094 {
			return fmt.Errorf("interfaces[%d].vlan: %d out of range", i, intf.VLAN)
		}
		for _, p := range intf.Ports {
			if _, err := c.ResolvePort(p); err != nil {
				return fmt.Errorf("interfaces[%d].ports: %w", i, err)
			}
		}
		ifIDs[intf.ID] = true
	}

	for i, s := range c.StaticMacs {
		if _, err := fdb.ParseMAC(s.MAC); err != nil {
			return fmt.Errorf("static_macs[%d].mac: %w", i, err)
		}
		if _, err := c.ResolvePort(s.Port); err != nil {
			return fmt.Errorf("static_macs[%d].port: %w", i, err)
		}
	}

	return nil
}

// ResolvePort maps a configured port or aggregate port name to its descriptor.
func (c *Config) ResolvePort(name string) (fdb.PortDescriptor, error) {
	if i := c.findPort(name); i >= 0 {
		return fdb.PhysicalPort(fdb.PortID(c.Ports[i].ID)), nil
	}
	for _, a := range c.AggregatePorts {
		if a.Name == name {
			return fdb.AggregatePort(fdb.AggregatePortID(a.ID)), nil
		}
	}
	return fdb.PortDescriptor{}, fmt.Errorf("unknown port '%s'", name)
}

func (c *Config) findPort(name string) int {
	for i, p := range c.Ports {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (c *Config) LogComponents() map[string]logger.LogLevel {
	return c.Logging.Components
}
