package contract

import (
	"context"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/repository/specification"
)

type ChatMessageRepository interface {
	Upsert(ctx context.Context, message *entity.ChatMessage) error
	DeleteBySessionIds(ctx context.Context, sessionIds []string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
