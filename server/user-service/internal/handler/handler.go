package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/internal/service"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/model"
)

// Store is the persistence the user service needs; dao.Store satisfies it.
type Store interface {
	CreateIdentity(id *model.Identity) error
	GetHistory(playerID string, page, limit int) ([]model.MatchHistory, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type UserService struct {
	pb.UnimplementedUserServiceServer

	Store    Store
	Secret   []byte
	TokenTTL time.Duration
	Log      *logrus.Entry
}

func (s *UserService) IssueIdentity(ctx context.Context, req *pb.IssueIdentityReq) (*pb.IssueIdentityResp, error) {
	// 1. 规范化名字
	name := service.NormalizeName(req.Name)

	// 2. 存入 DB
	ident := &model.Identity{PlayerID: uuid.NewString(), Name: name}
	if err := s.Store.CreateIdentity(ident); err != nil {
		s.Log.WithError(err).Error("store identity failed")
		return nil, status.Error(codes.Internal, "store identity failed")
	}

	// 3. 生成 Token
	token, err := service.GenerateToken(s.Secret, s.TokenTTL, ident.PlayerID, name)
	if err != nil {
		return nil, status.Error(codes.Internal, "sign token failed")
	}

	s.Log.WithFields(logrus.Fields{"player": ident.PlayerID, "name": name}).Info("identity issued")
	return &pb.IssueIdentityResp{Token: token, PlayerID: ident.PlayerID, Name: name}, nil
}

func (s *UserService) GetHistory(ctx context.Context, req *pb.GetHistoryReq) (*pb.GetHistoryResp, error) {
	if req.PlayerID == "" {
		return nil, status.Error(codes.InvalidArgument, "player_id required")
	}
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	records, err := s.Store.GetHistory(req.PlayerID, page, limit)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	// 转换 Model -> Proto
	history := make([]pb.MatchRecord, 0, len(records))
	for _, r := range records {
		history = append(history, pb.MatchRecord{
			MatchID:   r.MatchID,
			RoomID:    r.RoomCode,
			Reason:    r.Reason,
			Ticks:     r.Ticks,
			HitsDealt: r.HitsDealt,
			HitsTaken: r.HitsTaken,
			Respawns:  r.Respawns,
			EndedAt:   r.EndedAt,
		})
	}

	return &pb.GetHistoryResp{History: history}, nil
}
