package unitofwork

import (
	"context"

	"chatrelay-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserProfileRepository() contract.UserProfileRepository
	IdentityRepository() contract.IdentityRepository
	ChatbotRepository() contract.ChatbotRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
