package linkmon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/component"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

func init() {
	component.Register("linkmon", New)
}

// PortLookup resolves a kernel link name to a physical or aggregate port.
type PortLookup interface {
	ResolveName(name string) (fdb.PortDescriptor, bool)
}

// Monitor turns kernel link notifications for the dataplane ports into
// link state events. Only transitions are published.
type Monitor struct {
	*component.Base

	logger   *slog.Logger
	eventBus events.Bus
	ports    PortLookup
	netns    string

	nsHandle netns.NsHandle
	handle   *netlink.Handle

	mu    sync.Mutex
	state map[string]bool
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.LinkMonitor.Enabled {
		return nil, nil
	}
	if deps.Topology == nil {
		return nil, fmt.Errorf("link monitor requires topology")
	}
	return newMonitor(deps.EventBus, deps.Topology, deps.Config.LinkMonitor.Netns), nil
}

func newMonitor(bus events.Bus, ports PortLookup, ns string) *Monitor {
	return &Monitor{
		Base:     component.NewBase("linkmon"),
		logger:   logger.Component(logger.LinkMon),
		eventBus: bus,
		ports:    ports,
		netns:    ns,
		nsHandle: netns.None(),
		state:    make(map[string]bool),
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	m.StartContext(ctx)
	m.logger.Info("Starting link monitor", "netns", m.netns)

	if m.netns != "" {
		ns, err := netns.GetFromName(m.netns)
		if err != nil {
			m.StopContext()
			return fmt.Errorf("get netns %q: %w", m.netns, err)
		}
		h, err := netlink.NewHandleAt(ns)
		if err != nil {
			ns.Close()
			m.StopContext()
			return fmt.Errorf("create netlink handle for netns %q: %w", m.netns, err)
		}
		m.nsHandle = ns
		m.handle = h
	}

	updates := make(chan netlink.LinkUpdate, 64)
	opts := netlink.LinkSubscribeOptions{
		ErrorCallback: func(err error) {
			m.logger.Warn("Link subscription error", "error", err)
		},
	}
	if m.nsHandle.IsOpen() {
		ns := m.nsHandle
		opts.Namespace = &ns
	}
	if err := netlink.LinkSubscribeWithOptions(updates, m.Ctx.Done(), opts); err != nil {
		m.StopContext()
		m.closeHandles()
		return fmt.Errorf("subscribe to link updates: %w", err)
	}

	if err := m.syncLinks(); err != nil {
		m.logger.Warn("Initial link sync failed", "error", err)
	}

	m.Go(func() { m.watch(updates) })
	return nil
}

func (m *Monitor) Stop(ctx context.Context) error {
	m.logger.Info("Stopping link monitor")
	m.StopContext()
	m.closeHandles()
	return nil
}

func (m *Monitor) closeHandles() {
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	if m.nsHandle.IsOpen() {
		m.nsHandle.Close()
		m.nsHandle = netns.None()
	}
}

func (m *Monitor) syncLinks() error {
	var (
		links []netlink.Link
		err   error
	)
	if m.handle != nil {
		links, err = m.handle.LinkList()
	} else {
		links, err = netlink.LinkList()
	}
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	for _, link := range links {
		attrs := link.Attrs()
		m.observe(attrs.Name, linkUp(attrs))
	}
	return nil
}

func (m *Monitor) watch(updates <-chan netlink.LinkUpdate) {
	for {
		select {
		case <-m.Ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				m.logger.Warn("Link subscription closed")
				return
			}
			attrs := u.Attrs()
			if attrs == nil {
				continue
			}
			up := linkUp(attrs)
			if u.Header.Type == unix.RTM_DELLINK {
				up = false
			}
			m.observe(attrs.Name, up)
		}
	}
}

// observe publishes a link state event when a known port or aggregate port
// changes state. It reports whether an event was published.
func (m *Monitor) observe(name string, up bool) bool {
	port, ok := m.ports.ResolveName(name)
	if !ok {
		return false
	}

	m.mu.Lock()
	prev, seen := m.state[name]
	m.state[name] = up
	m.mu.Unlock()

	if seen && prev == up {
		return false
	}

	m.logger.Info("Link state changed", "port", name, "up", up)
	if m.eventBus != nil {
		m.eventBus.Publish(events.TopicLinkState, events.NewEvent("linkmon", events.LinkStateEvent{
			Port:   port,
			Name:   name,
			LinkUp: up,
		}))
	}
	return true
}

func linkUp(attrs *netlink.LinkAttrs) bool {
	if attrs.OperState == netlink.OperUp {
		return true
	}
	return attrs.OperState == netlink.OperUnknown && attrs.RawFlags&unix.IFF_RUNNING != 0
}

// Ports returns the last known state of every port seen so far.
func (m *Monitor) Ports() map[fdb.PortDescriptor]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[fdb.PortDescriptor]bool, len(m.state))
	for name, up := range m.state {
		if p, ok := m.ports.ResolveName(name); ok {
			out[p] = up
		}
	}
	return out
}
