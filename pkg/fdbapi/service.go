package fdbapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "fdbd.FdbService"

const (
	ListEntriesMethod        = "/" + ServiceName + "/ListEntries"
	ListManagedObjectsMethod = "/" + ServiceName + "/ListManagedObjects"
	ApplyMacIntentMethod     = "/" + ServiceName + "/ApplyMacIntent"
)

// FdbServiceServer is implemented by the gateway. ListEntries takes a VLAN
// filter where zero selects every VLAN.
type FdbServiceServer interface {
	ListEntries(ctx context.Context, vlan *wrapperspb.UInt32Value) (*structpb.ListValue, error)
	ListManagedObjects(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	ApplyMacIntent(ctx context.Context, intent *structpb.Struct) (*emptypb.Empty, error)
}

func RegisterFdbServiceServer(s grpc.ServiceRegistrar, srv FdbServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FdbServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListEntries", Handler: listEntriesHandler},
		{MethodName: "ListManagedObjects", Handler: listManagedObjectsHandler},
		{MethodName: "ApplyMacIntent", Handler: applyMacIntentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fdbd/fdb.proto",
}

func listEntriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FdbServiceServer).ListEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListEntriesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FdbServiceServer).ListEntries(ctx, req.(*wrapperspb.UInt32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func listManagedObjectsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FdbServiceServer).ListManagedObjects(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListManagedObjectsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FdbServiceServer).ListManagedObjects(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func applyMacIntentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FdbServiceServer).ApplyMacIntent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ApplyMacIntentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FdbServiceServer).ApplyMacIntent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
