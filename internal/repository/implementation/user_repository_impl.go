package implementation

import (
	"context"
	"errors"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/mapper"
	"chatrelay-be/internal/model"
	"chatrelay-be/internal/repository/contract"
	"chatrelay-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserProfileRepository(db *gorm.DB) contract.UserProfileRepository {
	return &UserProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserProfileRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserProfileRepositoryImpl) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	m := r.mapper.ProfileToModel(profile)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*profile = *r.mapper.ProfileToEntity(m)
	return nil
}

func (r *UserProfileRepositoryImpl) Update(ctx context.Context, profile *entity.UserProfile) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserProfile{}).
		Where("id = ?", profile.Id).
		Update("username", profile.Username)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserProfileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserProfile, error) {
	var m model.UserProfile
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProfileToEntity(&m), nil
}

func (r *UserProfileRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.UserProfile{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type IdentityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewIdentityRepository(db *gorm.DB) contract.IdentityRepository {
	return &IdentityRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *IdentityRepositoryImpl) Create(ctx context.Context, identity *entity.Identity) error {
	m := r.mapper.IdentityToModel(identity)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*identity = *r.mapper.IdentityToEntity(m)
	return nil
}

func (r *IdentityRepositoryImpl) MarkConfirmed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.AuthIdentity{}).
		Where("id = ?", id).
		Update("confirmed", true).Error
}

func (r *IdentityRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Identity, error) {
	var m model.AuthIdentity
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.IdentityToEntity(&m), nil
}
