package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseService struct {
	dbPath  string
	once    sync.Once
	db      *gorm.DB
	openErr error
}

// NewDatabaseService creates a new database service instance and opens it right away
func NewDatabaseService(dbPath string) (*DatabaseService, error) {
	service := NewLazyDatabaseService(dbPath)
	if _, err := service.conn(); err != nil {
		return nil, err
	}
	return service, nil
}

// NewLazyDatabaseService defers opening the database file until the first query
func NewLazyDatabaseService(dbPath string) *DatabaseService {
	return &DatabaseService{dbPath: dbPath}
}

func (s *DatabaseService) conn() (*gorm.DB, error) {
	s.once.Do(func() {
		db, err := gorm.Open(sqlite.Open(s.dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			s.openErr = fmt.Errorf("failed to connect to database: %w", err)
			return
		}

		if err := db.AutoMigrate(&ChatModel{}, &LoginAttemptModel{}); err != nil {
			s.openErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.openErr
}

// Chat methods

// SaveChat registers a chat or refreshes its username
func (s *DatabaseService) SaveChat(chatID int64, username string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	now := time.Now()
	var existing ChatModel
	err = db.Where("chat_id = ?", chatID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&ChatModel{
			ChatID:       chatID,
			Username:     username,
			SubscribedAt: now,
			UpdatedAt:    now,
		}).Error
	}
	if err != nil {
		return err
	}

	existing.Username = username
	existing.UpdatedAt = now
	return db.Save(&existing).Error
}

func (s *DatabaseService) DeleteChat(chatID int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.Where("chat_id = ?", chatID).Delete(&ChatModel{}).Error
}

func (s *DatabaseService) ChatExists(chatID int64) bool {
	db, err := s.conn()
	if err != nil {
		return false
	}
	var count int64
	db.Model(&ChatModel{}).Where("chat_id = ?", chatID).Count(&count)
	return count > 0
}

func (s *DatabaseService) GetChats() ([]ChatModel, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var chats []ChatModel
	err = db.Order("subscribed_at ASC").Find(&chats).Error
	return chats, err
}

// Login attempt methods

func (s *DatabaseService) RecordLoginAttempt(email string, result LoginResult) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.Create(&LoginAttemptModel{
		AttemptUUID: uuid.NewString(),
		Email:       email,
		Success:     result.OK,
		Reason:      result.Reason,
		AttemptedAt: time.Now(),
	}).Error
}

// GetLastLoginAttempt returns nil without error when no attempt was recorded yet
func (s *DatabaseService) GetLastLoginAttempt() (*LoginAttemptModel, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var attempt LoginAttemptModel
	err = db.Order("attempted_at DESC").Order("id DESC").First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// CleanupOldLoginAttempts deletes attempts older than days and reports how many were removed
func (s *DatabaseService) CleanupOldLoginAttempts(days int) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := db.Where("attempted_at < ?", cutoff).Delete(&LoginAttemptModel{})
	return result.RowsAffected, result.Error
}

// Close is a no-op when the database was never opened
func (s *DatabaseService) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
