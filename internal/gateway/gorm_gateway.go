package gateway

import (
	"context"
	"fmt"
	"time"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/model"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/repository/specification"
	"chatrelay-be/internal/repository/unitofwork"

	"gorm.io/gorm"
)

const module = "PersistenceGateway"

type GormGateway struct {
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewGormGateway(db *gorm.DB, logger logger.ILogger) *GormGateway {
	return &GormGateway{
		db:         db,
		uowFactory: unitofwork.NewRepositoryFactory(db),
		logger:     logger,
	}
}

// Models lists every table the gateway reads or writes, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.UserProfile{},
		&model.AuthIdentity{},
		&model.Chatbot{},
		&model.ChatSession{},
		&model.ChatMessage{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// guard runs fn, converting its error and any panic into a *Failure.
func (g *GormGateway) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error(module, "Recovered panic in gateway call", map[string]interface{}{"op": op, "panic": fmt.Sprint(r)})
			err = &Failure{Kind: KindTransport, Op: op, Reason: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()

	if e := fn(); e != nil {
		f := classify(op, e)
		if f.Kind != KindNotFound && f.Kind != KindValidation {
			g.logger.Warn(module, "Gateway call failed", map[string]interface{}{"op": op, "kind": f.Kind, "error": f.Reason})
		}
		return f
	}
	return nil
}

// Profiles

func (g *GormGateway) CreateUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error) {
	var profile *entity.UserProfile
	err := g.guard("CreateUserProfile", func() error {
		if userId == "" {
			return newFailure(KindNotAuthenticated, "CreateUserProfile", "User not authenticated")
		}
		if username == "" {
			username = fmt.Sprintf("user_%d", time.Now().UnixMilli())
		}
		p := &entity.UserProfile{Id: userId, Username: username}
		if err := g.uowFactory.NewUnitOfWork(ctx).UserProfileRepository().Upsert(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	return profile, err
}

func (g *GormGateway) GetUserProfile(ctx context.Context, userId string) (*entity.UserProfile, error) {
	var profile *entity.UserProfile
	err := g.guard("GetUserProfile", func() error {
		if userId == "" {
			return newFailure(KindNotAuthenticated, "GetUserProfile", "User not authenticated")
		}
		p, err := g.uowFactory.NewUnitOfWork(ctx).UserProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			return err
		}
		if p == nil {
			return newFailure(KindNotFound, "GetUserProfile", "user profile not found")
		}
		profile = p
		return nil
	})
	return profile, err
}

func (g *GormGateway) EnsureUserProfile(ctx context.Context, userId, username string) (*entity.UserProfile, error) {
	profile, err := g.GetUserProfile(ctx, userId)
	if err == nil {
		return profile, nil
	}
	if !IsKind(err, KindNotFound) {
		return nil, err
	}
	return g.CreateUserProfile(ctx, userId, username)
}

func (g *GormGateway) UpdateUserProfile(ctx context.Context, profile *entity.UserProfile) error {
	return g.guard("UpdateUserProfile", func() error {
		if profile == nil || profile.Id == "" {
			return newFailure(KindNotAuthenticated, "UpdateUserProfile", "User not authenticated")
		}
		if profile.Username == "" {
			return newFailure(KindValidation, "UpdateUserProfile", "Missing username")
		}
		return g.uowFactory.NewUnitOfWork(ctx).UserProfileRepository().Update(ctx, profile)
	})
}

// Chatbots

func (g *GormGateway) ListChatbots(ctx context.Context, userId string) ([]*entity.Chatbot, error) {
	var chatbots []*entity.Chatbot
	err := g.guard("ListChatbots", func() error {
		if userId == "" {
			return newFailure(KindNotAuthenticated, "ListChatbots", "User not authenticated")
		}
		found, err := g.uowFactory.NewUnitOfWork(ctx).ChatbotRepository().FindAll(ctx,
			specification.ByUserID{UserID: userId},
			specification.WithSessionTree{},
			specification.OrderBy{Field: "created_at"},
			specification.OrderBy{Field: "id"},
		)
		if err != nil {
			return err
		}
		chatbots = found
		return nil
	})
	return chatbots, err
}

func (g *GormGateway) CreateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) (string, error) {
	var id string
	err := g.guard("CreateChatbot", func() error {
		if err := validateChatbot("CreateChatbot", userId, chatbot); err != nil {
			return err
		}
		row := *chatbot
		row.UserId = userId
		if err := g.uowFactory.NewUnitOfWork(ctx).ChatbotRepository().Upsert(ctx, &row); err != nil {
			return err
		}
		id = row.Id
		return nil
	})
	return id, err
}

func (g *GormGateway) UpdateChatbot(ctx context.Context, userId string, chatbot *entity.Chatbot) error {
	return g.guard("UpdateChatbot", func() error {
		if err := validateChatbot("UpdateChatbot", userId, chatbot); err != nil {
			return err
		}
		row := *chatbot
		row.UserId = userId
		return g.uowFactory.NewUnitOfWork(ctx).ChatbotRepository().Upsert(ctx, &row)
	})
}

func (g *GormGateway) DeleteChatbot(ctx context.Context, chatbotId string) error {
	return g.guard("DeleteChatbot", func() error {
		if chatbotId == "" {
			return newFailure(KindValidation, "DeleteChatbot", "Missing chatbot ID")
		}

		uow := g.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.ByChatbotID{ChatbotID: chatbotId})
		if err != nil {
			return err
		}
		sessionIds := make([]string, 0, len(sessions))
		for _, s := range sessions {
			sessionIds = append(sessionIds, s.Id)
		}

		if err := uow.ChatMessageRepository().DeleteBySessionIds(ctx, sessionIds); err != nil {
			return err
		}
		if err := uow.ChatSessionRepository().DeleteByChatbotId(ctx, chatbotId); err != nil {
			return err
		}
		if err := uow.ChatbotRepository().Delete(ctx, chatbotId); err != nil {
			return err
		}

		return uow.Commit()
	})
}

// Sessions

func (g *GormGateway) ListSessions(ctx context.Context, chatbotId string) ([]*entity.ChatSession, error) {
	var sessions []*entity.ChatSession
	err := g.guard("ListSessions", func() error {
		if chatbotId == "" {
			return newFailure(KindValidation, "ListSessions", "Missing chatbot ID")
		}
		found, err := g.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindAll(ctx,
			specification.ByChatbotID{ChatbotID: chatbotId},
			specification.WithMessages{},
			specification.OrderBy{Field: "created_at"},
			specification.OrderBy{Field: "id"},
		)
		if err != nil {
			return err
		}
		sessions = found
		return nil
	})
	return sessions, err
}

func (g *GormGateway) CreateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) (string, error) {
	var id string
	err := g.guard("CreateSession", func() error {
		if err := validateSession("CreateSession", chatbotId, session); err != nil {
			return err
		}

		uow := g.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		row := sessionRow(chatbotId, session)
		if err := uow.ChatSessionRepository().Upsert(ctx, row); err != nil {
			return err
		}
		for _, msg := range session.Messages {
			if err := validateMessage("CreateSession", row.Id, msg); err != nil {
				return err
			}
			m := *msg
			m.SessionId = row.Id
			if err := uow.ChatMessageRepository().Upsert(ctx, &m); err != nil {
				return err
			}
		}

		if err := uow.Commit(); err != nil {
			return err
		}
		id = row.Id
		return nil
	})
	return id, err
}

func (g *GormGateway) UpdateSession(ctx context.Context, chatbotId string, session *entity.ChatSession) error {
	return g.guard("UpdateSession", func() error {
		if err := validateSession("UpdateSession", chatbotId, session); err != nil {
			return err
		}
		return g.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().Upsert(ctx, sessionRow(chatbotId, session))
	})
}

func sessionRow(chatbotId string, session *entity.ChatSession) *entity.ChatSession {
	row := &entity.ChatSession{
		Id:        session.Id,
		ChatbotId: chatbotId,
		Name:      session.Name,
		ThreadId:  session.ThreadId,
	}
	now := time.Now().UnixMilli()
	if row.Name == "" {
		row.Name = fmt.Sprintf("Chat %d", now)
	}
	if row.ThreadId == "" {
		row.ThreadId = fmt.Sprintf("thread_%d", now)
	}
	return row
}

func (g *GormGateway) DeleteSession(ctx context.Context, sessionId string) error {
	return g.guard("DeleteSession", func() error {
		if sessionId == "" {
			return newFailure(KindValidation, "DeleteSession", "Missing session ID")
		}

		uow := g.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		if err := uow.ChatMessageRepository().DeleteBySessionIds(ctx, []string{sessionId}); err != nil {
			return err
		}
		if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
			return err
		}
		return uow.Commit()
	})
}

// Messages

func (g *GormGateway) ListMessages(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	var messages []*entity.ChatMessage
	err := g.guard("ListMessages", func() error {
		if sessionId == "" {
			return newFailure(KindValidation, "ListMessages", "Missing session ID")
		}
		found, err := g.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: sessionId},
			specification.MessagesInOrder{},
		)
		if err != nil {
			return err
		}
		messages = found
		return nil
	})
	return messages, err
}

func (g *GormGateway) CreateMessage(ctx context.Context, sessionId string, message *entity.ChatMessage) (string, error) {
	var id string
	err := g.guard("CreateMessage", func() error {
		if err := validateMessage("CreateMessage", sessionId, message); err != nil {
			return err
		}
		row := *message
		row.SessionId = sessionId
		if row.Timestamp == "" {
			row.Timestamp = entity.NowTimestamp()
		}
		if err := g.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().Upsert(ctx, &row); err != nil {
			return err
		}
		id = row.Id
		return nil
	})
	return id, err
}

// Diagnostics

func (g *GormGateway) CheckHealth(ctx context.Context) (report HealthReport) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error(module, "Recovered panic in health check", map[string]interface{}{"panic": fmt.Sprint(r)})
			report = HealthReport{Success: false, Tables: map[string]TableHealth{}, Error: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()

	tables := make(map[string]TableHealth, len(Tables))
	for _, t := range Tables {
		tables[t] = probeTable(ctx, g.db, t)
	}
	return summarize(tables)
}
