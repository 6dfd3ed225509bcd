package contract

import (
	"context"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/repository/specification"
)

type ChatbotRepository interface {
	// Upsert inserts the chatbot row or updates name and settings in place.
	// Nested sessions are ignored.
	Upsert(ctx context.Context, chatbot *entity.Chatbot) error
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chatbot, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chatbot, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
