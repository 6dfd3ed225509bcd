package specification

import (
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID string
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByChatbotID struct {
	ChatbotID string
}

func (s ByChatbotID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chatbot_id = ?", s.ChatbotID)
}

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// MessagesInOrder sorts messages by send time, falling back to insertion time.
type MessagesInOrder struct{}

func (s MessagesInOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp ASC").Order("created_at ASC")
}

// WithMessages preloads each session's messages in send order.
type WithMessages struct{}

func (s WithMessages) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Messages", func(tx *gorm.DB) *gorm.DB {
		return MessagesInOrder{}.Apply(tx)
	})
}

// WithSessionTree preloads sessions and their messages for chatbot queries.
type WithSessionTree struct{}

func (s WithSessionTree) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sessions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Sessions.Messages", func(tx *gorm.DB) *gorm.DB {
			return MessagesInOrder{}.Apply(tx)
		})
}
