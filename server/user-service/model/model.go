package model

import (
	"gorm.io/gorm"
)

// Identity is one issued player identity. Names are display only and need
// not be unique.
type Identity struct {
	gorm.Model
	PlayerID string `gorm:"type:varchar(36);uniqueIndex;not null"`
	Name     string `gorm:"type:varchar(128);not null"`
}

// MatchHistory is one player's line of a finished room. A room result is
// stored at most once per player, so a redelivered message is harmless.
type MatchHistory struct {
	gorm.Model
	PlayerID  string `gorm:"type:varchar(36);uniqueIndex:idx_player_match;not null"`
	MatchID   string `gorm:"type:varchar(36);uniqueIndex:idx_player_match"`
	RoomCode  string `gorm:"type:varchar(16)"` // 房间码, 房间结束后可被复用
	Name      string `gorm:"type:varchar(128)"`
	Reason    string `gorm:"type:varchar(32)"`
	Ticks     int64
	HitsDealt int
	HitsTaken int
	Respawns  int
	StartedAt int64
	EndedAt   int64 `gorm:"index"`
}
