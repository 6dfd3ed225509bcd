package gateway

import (
	"context"
	"fmt"
	"time"

	"chatrelay-be/internal/entity"
)

// OfflineGateway stands in when no database is configured. Reads come back
// empty, writes succeed without storing anything, and ids are echoed.
type OfflineGateway struct{}

func NewOffline() *OfflineGateway {
	return &OfflineGateway{}
}

func (g *OfflineGateway) CreateUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error) {
	if userId == "" {
		return nil, newFailure(KindNotAuthenticated, "CreateUserProfile", "User not authenticated")
	}
	if username == "" {
		username = fmt.Sprintf("user_%d", time.Now().UnixMilli())
	}
	now := time.Now()
	return &entity.UserProfile{Id: userId, Username: username, CreatedAt: now, UpdatedAt: &now}, nil
}

// GetUserProfile always misses, so callers fall through to creation.
func (g *OfflineGateway) GetUserProfile(ctx context.Context, userId string) (*entity.UserProfile, error) {
	return nil, newFailure(KindNotFound, "GetUserProfile", "user profile not found")
}

func (g *OfflineGateway) EnsureUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error) {
	return g.CreateUserProfile(ctx, userId, username)
}

func (g *OfflineGateway) UpdateUserProfile(ctx context.Context, profile *entity.UserProfile) error {
	return nil
}

func (g *OfflineGateway) ListChatbots(ctx context.Context, userId string) ([]*entity.Chatbot, error) {
	if userId == "" {
		return nil, newFailure(KindNotAuthenticated, "ListChatbots", "User not authenticated")
	}
	return []*entity.Chatbot{}, nil
}

func (g *OfflineGateway) CreateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) (string, error) {
	if err := validateChatbot("CreateChatbot", userId, chatbot); err != nil {
		return "", err
	}
	return chatbot.Id, nil
}

func (g *OfflineGateway) UpdateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) error {
	return validateChatbot("UpdateChatbot", userId, chatbot)
}

func (g *OfflineGateway) DeleteChatbot(ctx context.Context, chatbotId string) error {
	return nil
}

func (g *OfflineGateway) ListSessions(ctx context.Context, chatbotId string) ([]*entity.ChatSession, error) {
	return []*entity.ChatSession{}, nil
}

func (g *OfflineGateway) CreateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) (string, error) {
	if err := validateSession("CreateSession", chatbotId, session); err != nil {
		return "", err
	}
	return session.Id, nil
}

func (g *OfflineGateway) UpdateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) error {
	return validateSession("UpdateSession", chatbotId, session)
}

func (g *OfflineGateway) DeleteSession(ctx context.Context, sessionId string) error {
	return nil
}

func (g *OfflineGateway) ListMessages(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	return []*entity.ChatMessage{}, nil
}

func (g *OfflineGateway) CreateMessage(ctx context.Context, sessionId string, message *entity.ChatMessage) (string, error) {
	if err := validateMessage("CreateMessage", sessionId, message); err != nil {
		return "", err
	}
	return message.Id, nil
}

func (g *OfflineGateway) CheckHealth(ctx context.Context) HealthReport {
	tables := make(map[string]TableHealth, len(Tables))
	for _, t := range Tables {
		tables[t] = TableHealth{Error: "database not configured"}
	}
	report := summarize(tables)
	report.Error = "database not configured"
	return report
}
