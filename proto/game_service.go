package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type StartRoomReq struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type StartRoomResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type StopRoomReq struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type StopRoomResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ListRoomsReq struct{}

type RoomInfo struct {
	RoomID    string `json:"room_id"`
	Status    string `json:"status"`
	Members   int    `json:"members"`
	HostID    string `json:"host_id"`
	UpdatedAt int64  `json:"updated_at"`
}

type ListRoomsResp struct {
	Rooms []RoomInfo `json:"rooms"`
}

const (
	GameService_StartRoom_FullMethodName = "/interestelar.GameService/StartRoom"
	GameService_StopRoom_FullMethodName  = "/interestelar.GameService/StopRoom"
	GameService_ListRooms_FullMethodName = "/interestelar.GameService/ListRooms"
)

type GameServiceClient interface {
	StartRoom(ctx context.Context, in *StartRoomReq, opts ...grpc.CallOption) (*StartRoomResp, error)
	StopRoom(ctx context.Context, in *StopRoomReq, opts ...grpc.CallOption) (*StopRoomResp, error)
	ListRooms(ctx context.Context, in *ListRoomsReq, opts ...grpc.CallOption) (*ListRoomsResp, error)
}

type gameServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGameServiceClient(cc grpc.ClientConnInterface) GameServiceClient {
	return &gameServiceClient{cc}
}

func (c *gameServiceClient) StartRoom(ctx context.Context, in *StartRoomReq, opts ...grpc.CallOption) (*StartRoomResp, error) {
	return invoke[StartRoomResp](ctx, c.cc, GameService_StartRoom_FullMethodName, in, opts...)
}

func (c *gameServiceClient) StopRoom(ctx context.Context, in *StopRoomReq, opts ...grpc.CallOption) (*StopRoomResp, error) {
	return invoke[StopRoomResp](ctx, c.cc, GameService_StopRoom_FullMethodName, in, opts...)
}

func (c *gameServiceClient) ListRooms(ctx context.Context, in *ListRoomsReq, opts ...grpc.CallOption) (*ListRoomsResp, error) {
	return invoke[ListRoomsResp](ctx, c.cc, GameService_ListRooms_FullMethodName, in, opts...)
}

type GameServiceServer interface {
	StartRoom(context.Context, *StartRoomReq) (*StartRoomResp, error)
	StopRoom(context.Context, *StopRoomReq) (*StopRoomResp, error)
	ListRooms(context.Context, *ListRoomsReq) (*ListRoomsResp, error)
}

// UnimplementedGameServiceServer can be embedded to keep servers forward
// compatible.
type UnimplementedGameServiceServer struct{}

func (UnimplementedGameServiceServer) StartRoom(context.Context, *StartRoomReq) (*StartRoomResp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartRoom not implemented")
}

func (UnimplementedGameServiceServer) StopRoom(context.Context, *StopRoomReq) (*StopRoomResp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StopRoom not implemented")
}

func (UnimplementedGameServiceServer) ListRooms(context.Context, *ListRoomsReq) (*ListRoomsResp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListRooms not implemented")
}

func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameService_ServiceDesc, srv)
}

var GameService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "interestelar.GameService",
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartRoom",
			Handler: unary(GameService_StartRoom_FullMethodName, func(srv any, ctx context.Context, req *StartRoomReq) (*StartRoomResp, error) {
				return srv.(GameServiceServer).StartRoom(ctx, req)
			}),
		},
		{
			MethodName: "StopRoom",
			Handler: unary(GameService_StopRoom_FullMethodName, func(srv any, ctx context.Context, req *StopRoomReq) (*StopRoomResp, error) {
				return srv.(GameServiceServer).StopRoom(ctx, req)
			}),
		},
		{
			MethodName: "ListRooms",
			Handler: unary(GameService_ListRooms_FullMethodName, func(srv any, ctx context.Context, req *ListRoomsReq) (*ListRoomsResp, error) {
				return srv.(GameServiceServer).ListRooms(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interestelar/game.proto",
}
