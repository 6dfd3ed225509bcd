package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/entity"
)

var ErrSettingsLocked = errors.New("Incorrect settings password")

type IChatbotService interface {
	Create(ctx context.Context, session *entity.AuthSession, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error)
	Rename(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.RenameChatbotRequest) (*dto.ChatbotResponse, error)
	Delete(ctx context.Context, session *entity.AuthSession, chatbotId string) (*dto.WorkspaceResponse, error)
	UpdateSettings(ctx context.Context, session *entity.AuthSession, chatbotId, password string, req *dto.UpdateSettingsRequest) (*dto.ChatbotResponse, error)
	CreateSession(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.CreateSessionRequest) (*dto.ChatSessionResponse, error)
	RenameSession(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string, req *dto.RenameSessionRequest) (*dto.ChatSessionResponse, error)
	DeleteSession(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string) (*dto.WorkspaceResponse, error)
	SendMessage(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
}

type ChatbotOptions struct {
	// SettingsPassword gates settings changes when non-empty.
	SettingsPassword string
	// SendWait bounds how long a send waits for the webhook before
	// answering with a pending result. Zero waits for the reply.
	SendWait time.Duration
}

type chatbotService struct {
	workspaces IWorkspaceService
	opts       ChatbotOptions
}

func NewChatbotService(workspaces IWorkspaceService, opts ChatbotOptions) IChatbotService {
	return &chatbotService{workspaces: workspaces, opts: opts}
}

func (s *chatbotService) Create(ctx context.Context, session *entity.AuthSession, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	bot, err := c.AddChatbot(req.Name)
	if err != nil {
		return nil, err
	}
	return toChatbotResponse(bot), nil
}

func (s *chatbotService) Rename(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.RenameChatbotRequest) (*dto.ChatbotResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	bot, err := c.RenameChatbot(chatbotId, req.Name)
	if err != nil {
		return nil, err
	}
	return toChatbotResponse(bot), nil
}

func (s *chatbotService) Delete(ctx context.Context, session *entity.AuthSession, chatbotId string) (*dto.WorkspaceResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	tree, err := c.RemoveChatbot(chatbotId)
	if err != nil {
		return nil, err
	}
	return toWorkspaceResponse(tree), nil
}

func (s *chatbotService) UpdateSettings(ctx context.Context, session *entity.AuthSession, chatbotId, password string, req *dto.UpdateSettingsRequest) (*dto.ChatbotResponse, error) {
	if s.opts.SettingsPassword != "" && subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.SettingsPassword)) != 1 {
		return nil, ErrSettingsLocked
	}

	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	bot, err := c.UpdateChatbotSettings(chatbotId, entity.ChatbotSettings{
		WebhookUrl:  req.WebhookUrl,
		BotIdKey:    req.BotIdKey,
		BotIdValue:  req.BotIdValue,
		ThreadIdKey: req.ThreadIdKey,
		MessageKey:  req.MessageKey,
		ResponseKey: req.ResponseKey,
	})
	if err != nil {
		return nil, err
	}
	return toChatbotResponse(bot), nil
}

func (s *chatbotService) CreateSession(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.CreateSessionRequest) (*dto.ChatSessionResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	created, err := c.CreateSession(chatbotId, req.Name)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(created), nil
}

func (s *chatbotService) RenameSession(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string, req *dto.RenameSessionRequest) (*dto.ChatSessionResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	renamed, err := c.RenameSession(chatbotId, sessionId, req.Name)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(renamed), nil
}

func (s *chatbotService) DeleteSession(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string) (*dto.WorkspaceResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	tree, err := c.DeleteSession(chatbotId, sessionId)
	if err != nil {
		return nil, err
	}
	return toWorkspaceResponse(tree), nil
}

func (s *chatbotService) SendMessage(ctx context.Context, session *entity.AuthSession, chatbotId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	c, err := s.workspaces.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	if s.opts.SendWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SendWait)
		defer cancel()
	}
	res, err := c.SendMessage(ctx, chatbotId, req.SessionId, req.Message)
	if err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{
		ChatbotId: res.ChatbotId,
		SessionId: res.SessionId,
		Session:   toSessionResponse(res.Session),
		Sent:      toMessageResponse(res.User),
		Reply:     toMessageResponse(res.Assistant),
		Outcome:   string(res.Outcome),
		Pending:   res.Pending,
	}, nil
}
