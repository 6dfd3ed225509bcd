package auth

import (
	"context"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/repository/specification"
	"chatrelay-be/internal/repository/unitofwork"
)

type IdentityStore interface {
	Create(ctx context.Context, identity *entity.Identity) error
	// FindByUsername returns nil, nil when no identity matches.
	FindByUsername(ctx context.Context, username string) (*entity.Identity, error)
	MarkConfirmed(ctx context.Context, id string) error
}

type SessionStore interface {
	Save(session *entity.AuthSession)
	Get(sessionId string) (*entity.AuthSession, bool)
	Delete(sessionId string)
	DeleteByUser(userId string) int
}

type gormIdentityStore struct {
	uowFactory unitofwork.RepositoryFactory
}

// NewGormIdentityStore keeps identities in the auth_identities table.
func NewGormIdentityStore(uowFactory unitofwork.RepositoryFactory) IdentityStore {
	return &gormIdentityStore{uowFactory: uowFactory}
}

func (s *gormIdentityStore) Create(ctx context.Context, identity *entity.Identity) error {
	return s.uowFactory.NewUnitOfWork(ctx).IdentityRepository().Create(ctx, identity)
}

func (s *gormIdentityStore) FindByUsername(ctx context.Context, username string) (*entity.Identity, error) {
	return s.uowFactory.NewUnitOfWork(ctx).IdentityRepository().FindOne(ctx, specification.ByUsername{Username: username})
}

func (s *gormIdentityStore) MarkConfirmed(ctx context.Context, id string) error {
	return s.uowFactory.NewUnitOfWork(ctx).IdentityRepository().MarkConfirmed(ctx, id)
}
