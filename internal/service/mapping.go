package service

import (
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/state"
)

func toWorkspaceResponse(t *state.Tree) *dto.WorkspaceResponse {
	res := &dto.WorkspaceResponse{
		Chatbots:        make([]*dto.ChatbotResponse, 0, len(t.Chatbots)),
		ActiveChatbotId: t.ActiveChatbotId,
		ActiveSessionId: t.ActiveSessionId,
		Initialized:     t.Initialized,
	}
	if active := t.ActiveChatbot(); active != nil {
		res.ActiveChatbotId = active.Id
	}
	for _, b := range t.Chatbots {
		res.Chatbots = append(res.Chatbots, toChatbotResponse(b))
	}
	return res
}

func toChatbotResponse(b *entity.Chatbot) *dto.ChatbotResponse {
	res := &dto.ChatbotResponse{
		Id:       b.Id,
		Name:     b.Name,
		Settings: b.Settings,
		Sessions: make([]*dto.ChatSessionResponse, 0, len(b.Sessions)),
	}
	for _, s := range b.Sessions {
		res.Sessions = append(res.Sessions, toSessionResponse(s))
	}
	return res
}

func toSessionResponse(s *entity.ChatSession) *dto.ChatSessionResponse {
	if s == nil {
		return nil
	}
	res := &dto.ChatSessionResponse{
		Id:       s.Id,
		Name:     s.Name,
		ThreadId: s.ThreadId,
		Messages: make([]*dto.ChatMessageResponse, 0, len(s.Messages)),
	}
	for _, m := range s.Messages {
		res.Messages = append(res.Messages, toMessageResponse(m))
	}
	return res
}

func toMessageResponse(m *entity.ChatMessage) *dto.ChatMessageResponse {
	if m == nil {
		return nil
	}
	return &dto.ChatMessageResponse{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func toSessionResponseFromAuth(s *entity.AuthSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		AccessToken: s.AccessToken,
		UserId:      s.UserId,
		Username:    s.Username,
		Email:       s.Email,
		ExpiresAt:   s.ExpiresAt,
	}
}
