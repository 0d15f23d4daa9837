package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/veesix-networks/fdbd/internal/fdb"
	"github.com/veesix-networks/fdbd/internal/gateway"
	"github.com/veesix-networks/fdbd/pkg/component"
	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/config/system"
	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/events/local"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/metrics"
	"github.com/veesix-networks/fdbd/pkg/opdb"
	"github.com/veesix-networks/fdbd/pkg/opdb/memory"
	"github.com/veesix-networks/fdbd/pkg/opdb/sqlite"
	"github.com/veesix-networks/fdbd/pkg/southbound"
	"github.com/veesix-networks/fdbd/pkg/southbound/sim"
	"github.com/veesix-networks/fdbd/pkg/southbound/vpp"
	"github.com/veesix-networks/fdbd/pkg/topology"
	"go.fd.io/govpp"

	_ "github.com/veesix-networks/fdbd/internal/exporter"
	_ "github.com/veesix-networks/fdbd/internal/linkmon"
)

func main() {
	configPath := flag.String("config", "configs/fdbd.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.LogComponents())

	mainLog := logger.Component(logger.Main)
	mainLog.Info("Starting fdbd", "switch_id", cfg.Switch.ID, "backend", cfg.Dataplane.Backend)

	dp, err := openDataplane(cfg)
	if err != nil {
		log.Fatalf("Failed to open dataplane: %v", err)
	}

	journal, err := openJournal(cfg)
	if err != nil {
		log.Fatalf("Failed to open opdb: %v", err)
	}

	topo := topology.New()
	if err := topo.Apply(cfg); err != nil {
		log.Fatalf("Failed to apply topology: %v", err)
	}

	registry := prometheus.NewRegistry()
	eventBus := local.NewBus()

	deps := component.Dependencies{
		EventBus:  eventBus,
		Config:    cfg,
		Dataplane: dp,
		Store:     hwstore.New(hwstore.Config{SwitchID: cfg.Switch.ID, Dataplane: dp, Journal: journal}),
		Journal:   journal,
		Topology:  topo,
		Deps:      depbus.NewRegistry(),
		Metrics:   metrics.New(registry),
		Registry:  registry,
	}

	fdbComp, err := fdb.New(deps)
	if err != nil {
		log.Fatalf("Failed to create fdb component: %v", err)
	}

	gatewayComp, err := gateway.New(deps, fdbComp.(*fdb.Component), cfg.Gateway.ListenAddress)
	if err != nil {
		log.Fatalf("Failed to create gateway component: %v", err)
	}

	orch := component.NewOrchestrator()
	orch.Register(fdbComp)
	orch.Register(gatewayComp)

	pluginComponents, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load plugin components: %v", err)
	}
	for _, comp := range pluginComponents {
		mainLog.Info("Loaded plugin component", "name", comp.Name())
		orch.Register(comp)
	}

	ctx := context.Background()
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("fdbd started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	mainLog.Info("Shutting down fdbd...")

	if err := orch.Stop(ctx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	if err := journal.Close(); err != nil {
		mainLog.Error("Error closing opdb", "error", err)
	}

	if err := dp.Close(); err != nil {
		mainLog.Error("Error closing dataplane", "error", err)
	}

	if err := eventBus.Close(); err != nil {
		mainLog.Error("Error closing event bus", "error", err)
	}

	mainLog.Info("fdbd stopped")
}

func openDataplane(cfg *config.Config) (southbound.Southbound, error) {
	if cfg.Dataplane.Backend == system.BackendSim {
		return sim.New(), nil
	}

	conn, err := govpp.Connect(cfg.Dataplane.VPPAPISocket)
	if err != nil {
		return nil, err
	}
	v, err := vpp.NewVPP(vpp.VPPConfig{Connection: conn})
	if err != nil {
		conn.Disconnect()
		return nil, err
	}
	return v, nil
}

func openJournal(cfg *config.Config) (opdb.Store, error) {
	if cfg.OpDB.Path == "" {
		return memory.New(), nil
	}
	s, err := sqlite.Open(cfg.OpDB.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
