package entity

import "time"

type ChatSession struct {
	Id        string
	ChatbotId string
	Name      string
	ThreadId  string
	Messages  []*ChatMessage
	CreatedAt time.Time
	UpdatedAt *time.Time
}
