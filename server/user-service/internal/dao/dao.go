package dao

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/model"
)

type Store struct {
	DB *gorm.DB
}

func OpenMySQL(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	// 自动迁移表结构
	if err := db.AutoMigrate(&model.Identity{}, &model.MatchHistory{}); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// CreateIdentity 记录新签发的身份
func (s *Store) CreateIdentity(id *model.Identity) error {
	return s.DB.Create(id).Error
}

// GetHistory 分页查询战绩, 最近结束的在前
func (s *Store) GetHistory(playerID string, page, limit int) ([]model.MatchHistory, error) {
	var history []model.MatchHistory
	offset := (page - 1) * limit
	err := s.DB.Where("player_id = ?", playerID).
		Order("ended_at desc").
		Offset(offset).
		Limit(limit).
		Find(&history).Error
	return history, err
}

// AddHistory (用于 MQ 消费后写入). Rows already stored for the same player and
// match are skipped.
func (s *Store) AddHistory(rows []model.MatchHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
