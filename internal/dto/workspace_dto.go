package dto

import "chatrelay-be/internal/entity"

type ChatMessageResponse struct {
	Id        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type ChatSessionResponse struct {
	Id       string                 `json:"id"`
	Name     string                 `json:"name"`
	ThreadId string                 `json:"thread_id"`
	Messages []*ChatMessageResponse `json:"messages"`
}

type ChatbotResponse struct {
	Id       string                  `json:"id"`
	Name     string                  `json:"name"`
	Settings *entity.ChatbotSettings `json:"settings,omitempty"`
	Sessions []*ChatSessionResponse  `json:"sessions"`
}

type WorkspaceResponse struct {
	Chatbots        []*ChatbotResponse `json:"chatbots"`
	ActiveChatbotId string             `json:"active_chatbot_id"`
	ActiveSessionId string             `json:"active_session_id"`
	Initialized     bool               `json:"initialized"`
}

type SelectRequest struct {
	ChatbotId string `json:"chatbot_id" validate:"required"`
	SessionId string `json:"session_id"`
}
