package mapper

import (
	"encoding/json"
	"time"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chatbot Mappers

// ChatbotToEntity maps a chatbot row. Preloaded sessions and messages are
// carried over when present.
func (m *ChatMapper) ChatbotToEntity(c *model.Chatbot) *entity.Chatbot {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	sessions := make([]*entity.ChatSession, 0, len(c.Sessions))
	for i := range c.Sessions {
		sessions = append(sessions, m.ChatSessionToEntity(&c.Sessions[i]))
	}

	return &entity.Chatbot{
		Id:        c.Id,
		UserId:    c.UserId,
		Name:      c.Name,
		Settings:  m.SettingsToEntity(c.Settings),
		Sessions:  sessions,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// ChatbotToModel maps the chatbot row only; sessions are written separately.
func (m *ChatMapper) ChatbotToModel(c *entity.Chatbot) *model.Chatbot {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Chatbot{
		Id:        c.Id,
		UserId:    c.UserId,
		Name:      c.Name,
		Settings:  m.SettingsToModel(c.Settings),
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// SettingsToEntity returns nil for a missing or unreadable settings column.
func (m *ChatMapper) SettingsToEntity(raw datatypes.JSON) *entity.ChatbotSettings {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s entity.ChatbotSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func (m *ChatMapper) SettingsToModel(s *entity.ChatbotSettings) datatypes.JSON {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	messages := make([]*entity.ChatMessage, 0, len(s.Messages))
	for i := range s.Messages {
		messages = append(messages, m.ChatMessageToEntity(&s.Messages[i]))
	}

	return &entity.ChatSession{
		Id:        s.Id,
		ChatbotId: s.ChatbotId,
		Name:      s.Name,
		ThreadId:  s.ThreadId,
		Messages:  messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		ChatbotId: s.ChatbotId,
		Name:      s.Name,
		ThreadId:  s.ThreadId,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.UTC().Format(entity.TimestampLayout),
		CreatedAt: msg.CreatedAt,
	}
}

// ChatMessageToModel parses the ISO-8601 timestamp. An unparsable value is
// replaced by the current time so the row still sorts after its peers.
func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	return &model.ChatMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: ts.UTC(),
		CreatedAt: msg.CreatedAt,
	}
}
