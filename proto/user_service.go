package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type IssueIdentityReq struct {
	Name string `json:"name"`
}

type IssueIdentityResp struct {
	Token    string `json:"token"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type GetHistoryReq struct {
	PlayerID string `json:"player_id"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}

type MatchRecord struct {
	MatchID   string `json:"match_id"`
	RoomID    string `json:"room_id"`
	Reason    string `json:"reason"`
	Ticks     int64  `json:"ticks"`
	HitsDealt int    `json:"hits_dealt"`
	HitsTaken int    `json:"hits_taken"`
	Respawns  int    `json:"respawns"`
	EndedAt   int64  `json:"ended_at"`
}

type GetHistoryResp struct {
	History []MatchRecord `json:"history"`
}

const (
	UserService_IssueIdentity_FullMethodName = "/interestelar.UserService/IssueIdentity"
	UserService_GetHistory_FullMethodName    = "/interestelar.UserService/GetHistory"
)

type UserServiceClient interface {
	IssueIdentity(ctx context.Context, in *IssueIdentityReq, opts ...grpc.CallOption) (*IssueIdentityResp, error)
	GetHistory(ctx context.Context, in *GetHistoryReq, opts ...grpc.CallOption) (*GetHistoryResp, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc}
}

func (c *userServiceClient) IssueIdentity(ctx context.Context, in *IssueIdentityReq, opts ...grpc.CallOption) (*IssueIdentityResp, error) {
	return invoke[IssueIdentityResp](ctx, c.cc, UserService_IssueIdentity_FullMethodName, in, opts...)
}

func (c *userServiceClient) GetHistory(ctx context.Context, in *GetHistoryReq, opts ...grpc.CallOption) (*GetHistoryResp, error) {
	return invoke[GetHistoryResp](ctx, c.cc, UserService_GetHistory_FullMethodName, in, opts...)
}

type UserServiceServer interface {
	IssueIdentity(context.Context, *IssueIdentityReq) (*IssueIdentityResp, error)
	GetHistory(context.Context, *GetHistoryReq) (*GetHistoryResp, error)
}

type UnimplementedUserServiceServer struct{}

func (UnimplementedUserServiceServer) IssueIdentity(context.Context, *IssueIdentityReq) (*IssueIdentityResp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method IssueIdentity not implemented")
}

func (UnimplementedUserServiceServer) GetHistory(context.Context, *GetHistoryReq) (*GetHistoryResp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHistory not implemented")
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "interestelar.UserService",
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "IssueIdentity",
			Handler: unary(UserService_IssueIdentity_FullMethodName, func(srv any, ctx context.Context, req *IssueIdentityReq) (*IssueIdentityResp, error) {
				return srv.(UserServiceServer).IssueIdentity(ctx, req)
			}),
		},
		{
			MethodName: "GetHistory",
			Handler: unary(UserService_GetHistory_FullMethodName, func(srv any, ctx context.Context, req *GetHistoryReq) (*GetHistoryResp, error) {
				return srv.(UserServiceServer).GetHistory(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interestelar/user.proto",
}

// RoomResult is published on the results queue when a room ends.
type RoomResult struct {
	RoomID    string         `json:"room_id"`
	MatchID   string         `json:"match_id"`
	Reason    string         `json:"reason"`
	Ticks     int64          `json:"ticks"`
	StartedAt int64          `json:"started_at"`
	EndedAt   int64          `json:"ended_at"`
	Players   []PlayerResult `json:"players"`
}

type PlayerResult struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	HitsDealt int    `json:"hits_dealt"`
	HitsTaken int    `json:"hits_taken"`
	Respawns  int    `json:"respawns"`
}
