package handler

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/internal/core"
)

type GameServiceServer struct {
	pb.UnimplementedGameServiceServer

	Manager   *core.Manager
	Directory core.Directory
	Log       *logrus.Entry
}

func (s *GameServiceServer) StartRoom(ctx context.Context, req *pb.StartRoomReq) (*pb.StartRoomResp, error) {
	s.Log.WithFields(logrus.Fields{"room": req.RoomID, "player": req.PlayerID}).Info("start room requested")

	if err := s.Manager.StartRoom(req.RoomID, req.PlayerID); err != nil {
		return &pb.StartRoomResp{OK: false, Error: err.Error()}, nil
	}
	return &pb.StartRoomResp{OK: true}, nil
}

func (s *GameServiceServer) StopRoom(ctx context.Context, req *pb.StopRoomReq) (*pb.StopRoomResp, error) {
	reason := req.Reason
	if reason == "" {
		reason = "stopped_by_server"
	}
	s.Log.WithFields(logrus.Fields{"room": req.RoomID, "reason": reason}).Info("stop room requested")

	if err := s.Manager.StopRoom(req.RoomID, reason); err != nil {
		return &pb.StopRoomResp{OK: false, Error: err.Error()}, nil
	}
	return &pb.StopRoomResp{OK: true}, nil
}

// ListRooms answers from the shared directory when there is one, so every
// node's rooms are listed; otherwise from this node's registry.
func (s *GameServiceServer) ListRooms(ctx context.Context, req *pb.ListRoomsReq) (*pb.ListRoomsResp, error) {
	if s.Directory == nil {
		return &pb.ListRoomsResp{Rooms: s.Manager.ListRooms()}, nil
	}
	rooms, err := s.Directory.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return &pb.ListRoomsResp{Rooms: rooms}, nil
}

func NewGRPCServer(srv *GameServiceServer) *grpc.Server {
	s := grpc.NewServer()
	pb.RegisterGameServiceServer(s, srv)
	return s
}

func ServeGRPC(s *grpc.Server, port int, log *logrus.Entry) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	log.Infof("Game Service gRPC listening on :%d", port)
	return s.Serve(lis)
}
