package service

import (
	"context"
	"fmt"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/events"
	pktNats "chatrelay-be/pkg/nats"
)

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

type IAuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.SessionResponse, error)
	SignOut(ctx context.Context, accessToken string) error
	Session(ctx context.Context, accessToken string) (*dto.SessionResponse, error)
	Confirm(ctx context.Context, req *dto.ConfirmRequest) error
	// Start applies sign-outs published by other instances.
	Start() error
}

type authService struct {
	provider   *auth.Provider
	subscriber EventSubscriber
	instanceId string
	logger     logger.ILogger
}

// NewAuthService wires the provider to the event bus. subscriber may be nil
// on single-instance deployments.
func NewAuthService(provider *auth.Provider, subscriber EventSubscriber, instanceId string, log logger.ILogger) IAuthService {
	return &authService{
		provider:   provider,
		subscriber: subscriber,
		instanceId: instanceId,
		logger:     log,
	}
}

func (s *authService) Start() error {
	if s.subscriber == nil {
		return nil
	}
	durable := fmt.Sprintf("auth-signout-%s", s.instanceId)
	if err := s.subscriber.Subscribe(pktNats.Subject(events.AuthSignedOut), durable, s.provider.HandleRemoteSignOut); err != nil {
		s.logger.Error("AuthService", "Failed to subscribe to sign-out events", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	result, err := s.provider.SignUp(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	res := &dto.SignUpResponse{ConfirmationToken: result.ConfirmationToken}
	if result.Session != nil {
		res.Session = toSessionResponseFromAuth(result.Session)
	}
	return res, nil
}

func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.SessionResponse, error) {
	session, err := s.provider.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return toSessionResponseFromAuth(session), nil
}

func (s *authService) SignOut(ctx context.Context, accessToken string) error {
	return s.provider.SignOut(ctx, accessToken)
}

func (s *authService) Session(ctx context.Context, accessToken string) (*dto.SessionResponse, error) {
	session, err := s.provider.CurrentSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return toSessionResponseFromAuth(session), nil
}

func (s *authService) Confirm(ctx context.Context, req *dto.ConfirmRequest) error {
	return s.provider.Confirm(ctx, req.Token)
}
