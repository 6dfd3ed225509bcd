package contract

import (
	"context"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/repository/specification"
)

type UserProfileRepository interface {
	Upsert(ctx context.Context, profile *entity.UserProfile) error
	Update(ctx context.Context, profile *entity.UserProfile) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserProfile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity) error
	MarkConfirmed(ctx context.Context, id string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Identity, error)
}
