package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the full name of the admin service.
const ServiceName = "storefront.admin.UserAdmin"

// UserAdminServer manages user records. Users travel as structs with the
// same keys as the REST API; passwords are never returned.
type UserAdminServer interface {
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetUser(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetUserByEmail(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unaryHandler adapts a typed server method to grpc.MethodDesc.
func unaryHandler[Req, Resp any](name string, call func(UserAdminServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(UserAdminServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(UserAdminServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// UserAdminServiceDesc describes storefront.admin.UserAdmin over protobuf
// well-known types.
var UserAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListUsers", UserAdminServer.ListUsers),
		unaryHandler("GetUser", UserAdminServer.GetUser),
		unaryHandler("GetUserByEmail", UserAdminServer.GetUserByEmail),
		unaryHandler("CreateUser", UserAdminServer.CreateUser),
		unaryHandler("UpdateUser", UserAdminServer.UpdateUser),
		unaryHandler("DeleteUser", UserAdminServer.DeleteUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/admin.proto",
}

// UserAdminClient calls storefront.admin.UserAdmin.
type UserAdminClient struct {
	cc grpc.ClientConnInterface
}

func NewUserAdminClient(cc grpc.ClientConnInterface) *UserAdminClient {
	return &UserAdminClient{cc: cc}
}

func (c *UserAdminClient) ListUsers(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, fullMethod("ListUsers"), &emptypb.Empty{}, out, opts...)
	return out, err
}

func (c *UserAdminClient) GetUser(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, fullMethod("GetUser"), wrapperspb.String(id), out, opts...)
	return out, err
}

func (c *UserAdminClient) GetUserByEmail(ctx context.Context, email string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, fullMethod("GetUserByEmail"), wrapperspb.String(email), out, opts...)
	return out, err
}

func (c *UserAdminClient) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, fullMethod("CreateUser"), in, out, opts...)
	return out, err
}

// UpdateUser sends {"id": id, "patch": patch}.
func (c *UserAdminClient) UpdateUser(ctx context.Context, id string, patch map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id, "patch": patch})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = c.cc.Invoke(ctx, fullMethod("UpdateUser"), in, out, opts...)
	return out, err
}

func (c *UserAdminClient) DeleteUser(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("DeleteUser"), wrapperspb.String(id), &emptypb.Empty{}, opts...)
}
