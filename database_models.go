package main

import (
	"time"
)

// ChatModel is a Telegram chat that ran /start
type ChatModel struct {
	ChatID       int64     `gorm:"primaryKey;column:chat_id" json:"chat_id"`
	Username     string    `gorm:"column:username" json:"username"`
	SubscribedAt time.Time `gorm:"column:subscribed_at;index" json:"subscribed_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ChatModel) TableName() string {
	return "chats"
}

// LoginAttemptModel records each Studocu credential probe
type LoginAttemptModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AttemptUUID string    `gorm:"column:attempt_uuid;uniqueIndex" json:"attempt_uuid"`
	Email       string    `gorm:"column:email;index" json:"email"`
	Success     bool      `gorm:"column:success" json:"success"`
	Reason      string    `gorm:"column:reason" json:"reason"`
	AttemptedAt time.Time `gorm:"column:attempted_at;index" json:"attempted_at"`
}

func (LoginAttemptModel) TableName() string {
	return "login_attempts"
}
