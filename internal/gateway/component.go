package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/veesix-networks/fdbd/internal/fdb"
	"github.com/veesix-networks/fdbd/pkg/component"
	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/fdbapi"
	"github.com/veesix-networks/fdbd/pkg/logger"
	models "github.com/veesix-networks/fdbd/pkg/models/fdb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FdbQuerier is the read side of the forwarding table component.
type FdbQuerier interface {
	ListEntries(ctx context.Context) ([]models.L2Entry, error)
	ListManagedObjects(ctx context.Context) ([]string, error)
}

type Component struct {
	*component.Base

	logger   *slog.Logger
	server   *grpc.Server
	eventBus events.Bus
	cfg      *config.Config
	fdb      FdbQuerier
	bindAddr string
	listen   func() (net.Listener, error)
}

func New(deps component.Dependencies, fdbComp FdbQuerier, bindAddr string) (component.Component, error) {
	if fdbComp == nil {
		return nil, fmt.Errorf("gateway requires the fdb component")
	}
	c := &Component{
		Base:     component.NewBase("gateway"),
		logger:   logger.Component(logger.Gateway),
		eventBus: deps.EventBus,
		cfg:      deps.Config,
		fdb:      fdbComp,
		bindAddr: bindAddr,
	}
	c.listen = func() (net.Listener, error) {
		return net.Listen("tcp", c.bindAddr)
	}
	return c, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting gateway component", "addr", c.bindAddr)

	lis, err := c.listen()
	if err != nil {
		c.StopContext()
		return fmt.Errorf("failed to listen: %w", err)
	}

	c.server = grpc.NewServer()
	fdbapi.RegisterFdbServiceServer(c.server, c)

	c.logger.Info("Gateway started", "addr", lis.Addr().String())

	go func() {
		if err := c.server.Serve(lis); err != nil {
			c.logger.Error("Gateway server error", "error", err)
		}
	}()

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping gateway component")

	if c.server != nil {
		c.server.GracefulStop()
	}

	c.StopContext()
	return nil
}

func (c *Component) ListEntries(ctx context.Context, vlan *wrapperspb.UInt32Value) (*structpb.ListValue, error) {
	entries, err := c.fdb.ListEntries(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	if filter := models.VlanID(vlan.GetValue()); filter != 0 {
		kept := entries[:0]
		for _, e := range entries {
			if e.VlanID == filter {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	return fdbapi.EntriesList(entries), nil
}

func (c *Component) ListManagedObjects(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	lines, err := c.fdb.ListManagedObjects(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return fdbapi.StringList(lines), nil
}

// ApplyMacIntent publishes the intent on the event bus. The forwarding table
// applies it asynchronously, in order with the other intents.
func (c *Component) ApplyMacIntent(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	intent, err := fdbapi.MacIntentFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ev, err := c.macIntentEvent(intent)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	c.logger.Debug("Applying MAC intent", "op", ev.Op)
	c.eventBus.Publish(events.TopicMacIntent, events.NewEvent("gateway", ev))
	return &emptypb.Empty{}, nil
}

func (c *Component) macIntentEvent(intent fdbapi.MacIntent) (events.MacIntentEvent, error) {
	ev := events.MacIntentEvent{Op: events.MacIntentOp(intent.Op)}

	switch ev.Op {
	case events.MacIntentAdd:
		if intent.New == nil {
			return ev, fmt.Errorf("add requires new")
		}
	case events.MacIntentRemove:
		if intent.Old == nil {
			return ev, fmt.Errorf("remove requires old")
		}
	case events.MacIntentChange:
		if intent.Old == nil || intent.New == nil {
			return ev, fmt.Errorf("change requires old and new")
		}
	default:
		return ev, fmt.Errorf("unknown op %q", intent.Op)
	}

	var err error
	if ev.Old, err = c.macEntry(intent.Old); err != nil {
		return ev, fmt.Errorf("old: %w", err)
	}
	if ev.New, err = c.macEntry(intent.New); err != nil {
		return ev, fmt.Errorf("new: %w", err)
	}
	return ev, nil
}

func (c *Component) macEntry(spec *fdbapi.MacSpec) (*models.MacEntry, error) {
	if spec == nil {
		return nil, nil
	}

	mac, err := models.ParseMAC(spec.MAC)
	if err != nil {
		return nil, err
	}
	port, err := c.cfg.ResolvePort(spec.Port)
	if err != nil {
		return nil, err
	}
	typ := models.EntryTypeDynamic
	if spec.Type != "" {
		if typ, err = models.ParseEntryType(spec.Type); err != nil {
			return nil, err
		}
	}

	return &models.MacEntry{MAC: mac, Port: port, Type: typ, ClassID: spec.ClassID}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, fdb.ErrNotRunning):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, fdb.ErrIndexCorruption):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
