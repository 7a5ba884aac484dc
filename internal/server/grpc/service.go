package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "todolist.v1.TodoService"

// Full method names.
const (
	MethodRegister      = "/" + serviceName + "/Register"
	MethodLogin         = "/" + serviceName + "/Login"
	MethodLogout        = "/" + serviceName + "/Logout"
	MethodListTasks     = "/" + serviceName + "/ListTasks"
	MethodAddTask       = "/" + serviceName + "/AddTask"
	MethodToggleTask    = "/" + serviceName + "/ToggleTask"
	MethodDeleteTask    = "/" + serviceName + "/DeleteTask"
	MethodDeleteAccount = "/" + serviceName + "/DeleteAccount"
)

// TodoServiceServer is the server API. Requests and responses are
// google.protobuf.Struct messages so no generated code is needed.
type TodoServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(TodoServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TodoServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TodoServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var todoServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TodoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, TodoServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, TodoServiceServer.Login)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, TodoServiceServer.Logout)},
		{MethodName: "ListTasks", Handler: unaryHandler(MethodListTasks, TodoServiceServer.ListTasks)},
		{MethodName: "AddTask", Handler: unaryHandler(MethodAddTask, TodoServiceServer.AddTask)},
		{MethodName: "ToggleTask", Handler: unaryHandler(MethodToggleTask, TodoServiceServer.ToggleTask)},
		{MethodName: "DeleteTask", Handler: unaryHandler(MethodDeleteTask, TodoServiceServer.DeleteTask)},
		{MethodName: "DeleteAccount", Handler: unaryHandler(MethodDeleteAccount, TodoServiceServer.DeleteAccount)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "todolist/v1/todo.proto",
}

// Client calls TodoService methods on a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes fullMethod with the given fields and returns the response fields.
func (c *Client) Call(ctx context.Context, fullMethod string, fields map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
