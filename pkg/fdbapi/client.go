package fdbapi

import (
	"context"
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn
}

// Dial connects to a gateway over plaintext gRPC.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, own: conn}, nil
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}

func (c *Client) ListEntries(ctx context.Context, vlan fdb.VlanID) ([]fdb.L2Entry, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, ListEntriesMethod, wrapperspb.UInt32(uint32(vlan)), out); err != nil {
		return nil, err
	}

	entries := make([]fdb.L2Entry, 0, len(out.GetValues()))
	for i, v := range out.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("entry %d: not a struct", i)
		}
		entries = append(entries, EntryFromStruct(s))
	}
	return entries, nil
}

func (c *Client) ListManagedObjects(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, ListManagedObjectsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		lines = append(lines, v.GetStringValue())
	}
	return lines, nil
}

func (c *Client) ApplyMacIntent(ctx context.Context, intent MacIntent) error {
	s, err := intent.Struct()
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, ApplyMacIntentMethod, s, &emptypb.Empty{})
}
