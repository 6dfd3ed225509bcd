package model

import "time"

type ChatSession struct {
	Id        string    `gorm:"type:varchar(255);primaryKey"`
	ChatbotId string    `gorm:"type:varchar(255);not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	ThreadId  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Messages []ChatMessage `gorm:"foreignKey:SessionId"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
