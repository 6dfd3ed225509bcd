// Package gateway wraps every remote read and write of the workspace tree.
// Operations return either a value or a *Failure; none of them panics into
// the caller.
package gateway

import (
	"context"

	"chatrelay-be/internal/entity"
)

var Tables = []string{"user_profiles", "chatbots", "chat_sessions", "chat_messages"}

type Gateway interface {
	CreateUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error)
	GetUserProfile(ctx context.Context, userId string) (*entity.UserProfile, error)
	// EnsureUserProfile returns the stored profile, creating it on demand.
	EnsureUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error)
	UpdateUserProfile(ctx context.Context, profile *entity.UserProfile) error

	// ListChatbots returns the user's chatbots with sessions and messages.
	ListChatbots(ctx context.Context, userId string) ([]*entity.Chatbot, error)
	// CreateChatbot upserts and returns the stored id.
	CreateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) (string, error)
	UpdateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) error
	// DeleteChatbot removes the chatbot with its sessions and messages.
	DeleteChatbot(ctx context.Context, chatbotId string) error

	ListSessions(ctx context.Context, chatbotId string) ([]*entity.ChatSession, error)
	// CreateSession upserts the session and any messages it carries.
	CreateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) (string, error)
	UpdateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) error
	DeleteSession(ctx context.Context, sessionId string) error

	ListMessages(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error)
	CreateMessage(ctx context.Context, sessionId string, message *entity.ChatMessage) (string, error)

	CheckHealth(ctx context.Context) HealthReport
}

func validateChatbot(op, userId string, chatbot *entity.Chatbot) error {
	if userId == "" {
		return newFailure(KindNotAuthenticated, op, "User not authenticated")
	}
	if chatbot == nil || chatbot.Id == "" {
		return newFailure(KindValidation, op, "Missing chatbot ID")
	}
	if chatbot.Name == "" {
		return newFailure(KindValidation, op, "Missing chatbot name")
	}
	return nil
}

func validateSession(op, chatbotId string, session *entity.ChatSession) error {
	if chatbotId == "" {
		return newFailure(KindValidation, op, "Missing chatbot ID")
	}
	if session == nil || session.Id == "" {
		return newFailure(KindValidation, op, "Missing session ID")
	}
	return nil
}

func validateMessage(op, sessionId string, message *entity.ChatMessage) error {
	if sessionId == "" {
		return newFailure(KindValidation, op, "Missing session ID")
	}
	if message == nil || message.Id == "" {
		return newFailure(KindValidation, op, "Missing message ID")
	}
	if message.Role == "" {
		return newFailure(KindValidation, op, "Missing message role")
	}
	if !entity.ValidRole(message.Role) {
		return newFailure(KindValidation, op, "Invalid message role")
	}
	if message.Content == "" {
		return newFailure(KindValidation, op, "Missing message content")
	}
	return nil
}
