package mapper

import (
	"time"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ProfileToEntity(p *model.UserProfile) *entity.UserProfile {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.UserProfile{
		Id:        p.Id,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *UserMapper) ProfileToModel(p *entity.UserProfile) *model.UserProfile {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.UserProfile{
		Id:        p.Id,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *UserMapper) IdentityToEntity(i *model.AuthIdentity) *entity.Identity {
	if i == nil {
		return nil
	}
	return &entity.Identity{
		Id:           i.Id,
		Username:     i.Username,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		Confirmed:    i.Confirmed,
		CreatedAt:    i.CreatedAt,
	}
}

func (m *UserMapper) IdentityToModel(i *entity.Identity) *model.AuthIdentity {
	if i == nil {
		return nil
	}
	return &model.AuthIdentity{
		Id:           i.Id,
		Username:     i.Username,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		Confirmed:    i.Confirmed,
		CreatedAt:    i.CreatedAt,
	}
}
