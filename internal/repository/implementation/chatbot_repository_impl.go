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

type ChatbotRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatbotRepository(db *gorm.DB) contract.ChatbotRepository {
	return &ChatbotRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatbotRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatbotRepositoryImpl) Upsert(ctx context.Context, chatbot *entity.Chatbot) error {
	m := r.mapper.ChatbotToModel(chatbot)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "settings", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	chatbot.Id = m.Id
	chatbot.CreatedAt = m.CreatedAt
	return nil
}

func (r *ChatbotRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Chatbot{}, "id = ?", id).Error
}

func (r *ChatbotRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chatbot, error) {
	var m model.Chatbot
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatbotToEntity(&m), nil
}

func (r *ChatbotRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chatbot, error) {
	var models []*model.Chatbot
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Chatbot, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatbotToEntity(m)
	}
	return entities, nil
}

func (r *ChatbotRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chatbot{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
