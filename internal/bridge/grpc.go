package bridge

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName  = "taurisky.bridge.Bridge"
	invokeMethod = "/" + ServiceName + "/Invoke"
)

type bridgeServer interface {
	Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*bridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bridge",
}

func invokeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(bridgeServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: invokeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(bridgeServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterServer exposes router on a gRPC server.
func RegisterServer(s grpc.ServiceRegistrar, router *Router) {
	s.RegisterService(&serviceDesc, &grpcHandler{router: router})
}

// CommandOf extracts the command name from an Invoke request, for interceptors.
func CommandOf(req any) string {
	st, ok := req.(*structpb.Struct)
	if !ok {
		return ""
	}
	return st.GetFields()["command"].GetStringValue()
}

type grpcHandler struct {
	router *Router
}

func (h *grpcHandler) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	command := CommandOf(req)
	if command == "" {
		return nil, status.Error(codes.InvalidArgument, "missing command")
	}

	var args json.RawMessage
	if v, ok := req.GetFields()["args"]; ok {
		raw, err := protojson.Marshal(v)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		args = raw
	}

	result, err := h.router.Dispatch(ctx, command, args)
	if err != nil {
		code := codes.Unknown
		if errors.Is(err, ErrUnknownCommand) {
			code = codes.Unimplemented
		}
		return nil, status.Error(code, err.Error())
	}

	out := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if len(result) > 0 {
		v := &structpb.Value{}
		if err := protojson.Unmarshal(result, v); err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out.Fields["result"] = v
	}
	return out, nil
}

// GRPCInvoker is an Invoker talking to a remote backend daemon.
type GRPCInvoker struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// Dial connects to the backend at addr. The bridge is a loopback channel,
// so transport security is off unless opts say otherwise.
func Dial(addr string, opts ...grpc.DialOption) (*GRPCInvoker, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCInvoker{conn: conn, closer: conn.Close}, nil
}

// NewGRPCInvoker wraps an existing connection.
func NewGRPCInvoker(conn grpc.ClientConnInterface) *GRPCInvoker {
	return &GRPCInvoker{conn: conn}
}

func (c *GRPCInvoker) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *GRPCInvoker) Invoke(ctx context.Context, command string, args any, out any) error {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"command": structpb.NewStringValue(command),
	}}

	raw, err := encodeArgs(args)
	if err != nil {
		return &CommandError{Command: command, Message: err.Error(), Err: err}
	}
	if raw != nil {
		v := &structpb.Value{}
		if err := protojson.Unmarshal(raw, v); err != nil {
			return &CommandError{Command: command, Message: err.Error(), Err: err}
		}
		req.Fields["args"] = v
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, invokeMethod, req, resp); err != nil {
		return mapError(command, err)
	}

	v, ok := resp.GetFields()["result"]
	if !ok || out == nil {
		return nil
	}
	result, err := protojson.Marshal(v)
	if err != nil {
		return &CommandError{Command: command, Message: err.Error(), Err: err}
	}
	return decodeResult(command, result, out)
}

func mapError(command string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &CommandError{Command: command, Message: err.Error(), Err: err}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return &CommandError{Command: command, Message: ErrUnavailable.Error(), Err: ErrUnavailable}
	case codes.Unimplemented:
		return &CommandError{Command: command, Message: st.Message(), Err: ErrUnknownCommand}
	default:
		return &CommandError{Command: command, Message: st.Message(), Err: err}
	}
}
