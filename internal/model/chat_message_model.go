package model

import "time"

// ChatMessage rows are append-only. Timestamp is the client-visible send
// time and drives ordering; CreatedAt is when the row landed.
type ChatMessage struct {
	Id        string    `gorm:"type:varchar(255);primaryKey"`
	SessionId string    `gorm:"type:varchar(255);not null;index:idx_chat_messages_session_ts,priority:1"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_messages_session_ts,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
