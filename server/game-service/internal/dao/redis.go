package dao

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/pkg/config"
)

// 键名定义
const (
	KeyRoomList   = "rooms:available" // Set: 存储 room_id
	KeyRoomPrefix = "room:"           // Hash: room:{id} -> { details }

	roomTTL = 24 * time.Hour
)

// RoomStore is the Redis-backed room directory.
type RoomStore struct {
	RDB *redis.Client
}

func NewRoomStore(ctx context.Context, cfg config.RedisConfig) (*RoomStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RoomStore{RDB: rdb}, nil
}

// SaveRoom 写入房间详情并加入列表
func (s *RoomStore) SaveRoom(ctx context.Context, info pb.RoomInfo) error {
	key := KeyRoomPrefix + info.RoomID
	pipe := s.RDB.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"status":     info.Status,
		"members":    info.Members,
		"host_id":    info.HostID,
		"updated_at": info.UpdatedAt,
	})
	pipe.Expire(ctx, key, roomTTL) // 设置过期时间防止死数据
	pipe.SAdd(ctx, KeyRoomList, info.RoomID)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveRoom 销毁房间
func (s *RoomStore) RemoveRoom(ctx context.Context, roomID string) error {
	pipe := s.RDB.Pipeline()
	pipe.Del(ctx, KeyRoomPrefix+roomID)
	pipe.SRem(ctx, KeyRoomList, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

// ListRooms reads every listed room. Ids whose hash already expired are
// pruned from the set.
func (s *RoomStore) ListRooms(ctx context.Context) ([]pb.RoomInfo, error) {
	ids, err := s.RDB.SMembers(ctx, KeyRoomList).Result()
	if err != nil {
		return nil, err
	}

	pipe := s.RDB.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, KeyRoomPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	rooms := make([]pb.RoomInfo, 0, len(ids))
	var stale []interface{}
	for i, id := range ids {
		data, err := cmds[i].Result()
		if err != nil || len(data) == 0 {
			stale = append(stale, id)
			continue
		}
		members, _ := strconv.Atoi(data["members"])
		updated, _ := strconv.ParseInt(data["updated_at"], 10, 64)
		rooms = append(rooms, pb.RoomInfo{
			RoomID:    id,
			Status:    data["status"],
			Members:   members,
			HostID:    data["host_id"],
			UpdatedAt: updated,
		})
	}
	if len(stale) > 0 {
		s.RDB.SRem(ctx, KeyRoomList, stale...)
	}
	return rooms, nil
}

func (s *RoomStore) Close() error {
	return s.RDB.Close()
}
