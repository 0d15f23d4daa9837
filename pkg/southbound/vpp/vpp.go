package vpp

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/southbound"
	"go.fd.io/govpp/api"
	"go.fd.io/govpp/core"
)

var _ southbound.Southbound = (*VPP)(nil)

// VPP programs the L2 FIB of a VPP instance. Each VLAN maps to the bridge
// domain with the same ID; the switch ID is ignored because a VPP process is
// a single switch.
type VPP struct {
	conn    *core.Connection
	logger  *slog.Logger
	fibChan api.Channel
	fibMux  sync.Mutex
}

type VPPConfig struct {
	Connection *core.Connection
}

func NewVPP(cfg VPPConfig) (*VPP, error) {
	if cfg.Connection == nil {
		return nil, fmt.Errorf("VPP connection is required")
	}

	fibChan, err := cfg.Connection.NewAPIChannel()
	if err != nil {
		return nil, fmt.Errorf("create FIB API channel: %w", err)
	}

	v := &VPP{
		conn:    cfg.Connection,
		logger:  logger.Get(logger.Southbound).WithGroup("vpp"),
		fibChan: fibChan,
	}

	v.logger.Debug("Connected to VPP")

	return v, nil
}

func (v *VPP) Close() error {
	if v.fibChan != nil {
		v.fibChan.Close()
	}
	v.conn.Disconnect()
	return nil
}
