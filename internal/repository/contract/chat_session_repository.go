package contract

import (
	"context"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/repository/specification"
)

type ChatSessionRepository interface {
	// Upsert never overwrites a stored thread id.
	Upsert(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id string) error
	DeleteByChatbotId(ctx context.Context, chatbotId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
