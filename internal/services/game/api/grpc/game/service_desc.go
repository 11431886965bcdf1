package game

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "deception.game.v1.GameService"

// Method names.
const (
	MethodCreateGame      = "CreateGame"
	MethodGetGame         = "GetGame"
	MethodListGames       = "ListGames"
	MethodSubmitAction    = "SubmitAction"
	MethodReadMailbox     = "ReadMailbox"
	MethodGetBoardContext = "GetBoardContext"
	MethodRunAgentsOnce   = "RunAgentsOnce"
)

// GameServiceServer is the server API for GameService.
type GameServiceServer interface {
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReadMailbox(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBoardContext(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunAgentsOnce(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GameServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GameServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes GameService for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCreateGame, GameServiceServer.CreateGame),
		unary(MethodGetGame, GameServiceServer.GetGame),
		unary(MethodListGames, GameServiceServer.ListGames),
		unary(MethodSubmitAction, GameServiceServer.SubmitAction),
		unary(MethodReadMailbox, GameServiceServer.ReadMailbox),
		unary(MethodGetBoardContext, GameServiceServer.GetBoardContext),
		unary(MethodRunAgentsOnce, GameServiceServer.RunAgentsOnce),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deception/game/v1/game.proto",
}

// RegisterGameServiceServer registers srv on s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls GameService methods over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a GameService client.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with in and returns the response document.
func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
