package service

import (
	"context"
	"sync"
	"time"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	freshSignUpTTL = 10 * time.Minute
	closeTimeout   = 10 * time.Second
)

type IWorkspaceService interface {
	// Workspace returns the user's loaded coordinator.
	Workspace(ctx context.Context, session *entity.AuthSession) (*coordinator.Coordinator, error)
	Get(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string) (*dto.WorkspaceResponse, error)
	Reload(ctx context.Context, session *entity.AuthSession) (*dto.WorkspaceResponse, error)
	Select(ctx context.Context, session *entity.AuthSession, req *dto.SelectRequest) (*dto.WorkspaceResponse, error)
	Health(ctx context.Context) gateway.HealthReport
	Close(ctx context.Context) error
}

type WorkspaceOptions struct {
	Coordinator coordinator.Options
	IdleTTL     time.Duration
}

type workspaceService struct {
	gateway  gateway.Gateway
	relay    coordinator.Relayer
	notifier coordinator.Notifier
	auth     coordinator.AuthSource
	logger   logger.ILogger
	opts     WorkspaceOptions

	mu       sync.Mutex
	registry *cache.Cache
	fresh    *cache.Cache

	healthOnce sync.Once
	healthy    bool

	unsubscribe func()
}

func NewWorkspaceService(gw gateway.Gateway, rl coordinator.Relayer, notifier coordinator.Notifier, source coordinator.AuthSource, log logger.ILogger, opts WorkspaceOptions) IWorkspaceService {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = time.Hour
	}
	s := &workspaceService{
		gateway:  gw,
		relay:    rl,
		notifier: notifier,
		auth:     source,
		logger:   log,
		opts:     opts,
		registry: cache.New(opts.IdleTTL, time.Minute),
		fresh:    cache.New(freshSignUpTTL, time.Minute),
	}
	s.registry.OnEvicted(func(userId string, v interface{}) {
		go s.closeCoordinator(userId, v.(*coordinator.Coordinator))
	})
	s.unsubscribe = source.Subscribe(s.onAuth)
	return s
}

func (s *workspaceService) onAuth(ev auth.Event) {
	switch ev.Type {
	case auth.SignedIn:
		if ev.Fresh {
			s.fresh.SetDefault(ev.UserId, true)
		}
	case auth.SignedOut:
		s.registry.Delete(ev.UserId)
	}
}

func (s *workspaceService) closeCoordinator(userId string, c *coordinator.Coordinator) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		s.logger.Warn("WorkspaceService", "Workspace closed with pending writes", map[string]interface{}{"user_id": userId, "error": err.Error()})
	}
}

// coordinatorFor returns the user's coordinator, creating it on first use.
// Every access extends its idle deadline.
func (s *workspaceService) coordinatorFor(ctx context.Context, session *entity.AuthSession) *coordinator.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.registry.Get(session.UserId); ok {
		s.registry.SetDefault(session.UserId, v)
		return v.(*coordinator.Coordinator)
	}
	// An expired entry stays until the janitor runs; Delete closes it via
	// OnEvicted before it is replaced.
	s.registry.Delete(session.UserId)

	_, fresh := s.fresh.Get(session.UserId)
	s.fresh.Delete(session.UserId)

	c := coordinator.New(coordinator.User{
		Id:       session.UserId,
		Username: session.Username,
		Fresh:    fresh,
	}, s.gateway, s.relay, s.notifier, s.auth, s.logger, s.opts.Coordinator)
	s.registry.SetDefault(session.UserId, c)

	if !s.checkHealth(ctx) && s.notifier != nil {
		s.notifier.Notify(ctx, coordinator.Notification{
			UserId:      session.UserId,
			Level:       coordinator.LevelError,
			Title:       "Database Setup Issue",
			Description: "Some database tables may be missing or inaccessible. Please check your setup.",
			Operation:   "health",
			CreatedAt:   time.Now(),
		})
	}
	return c
}

// checkHealth runs the table diagnostics once per process.
func (s *workspaceService) checkHealth(ctx context.Context) bool {
	s.healthOnce.Do(func() {
		report := s.gateway.CheckHealth(context.WithoutCancel(ctx))
		s.healthy = report.Success
		if !report.Success {
			s.logger.Warn("WorkspaceService", "Database health check failed", map[string]interface{}{"error": report.Error, "summary": report.Summary})
		}
	})
	return s.healthy
}

func (s *workspaceService) Workspace(ctx context.Context, session *entity.AuthSession) (*coordinator.Coordinator, error) {
	c := s.coordinatorFor(ctx, session)
	if _, err := c.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *workspaceService) Get(ctx context.Context, session *entity.AuthSession, chatbotId, sessionId string) (*dto.WorkspaceResponse, error) {
	c, err := s.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	if chatbotId == "" {
		return toWorkspaceResponse(c.Snapshot()), nil
	}
	return toWorkspaceResponse(c.Select(chatbotId, sessionId)), nil
}

func (s *workspaceService) Reload(ctx context.Context, session *entity.AuthSession) (*dto.WorkspaceResponse, error) {
	tree, err := s.coordinatorFor(ctx, session).Load(ctx)
	if err != nil {
		return nil, err
	}
	return toWorkspaceResponse(tree), nil
}

func (s *workspaceService) Select(ctx context.Context, session *entity.AuthSession, req *dto.SelectRequest) (*dto.WorkspaceResponse, error) {
	c, err := s.Workspace(ctx, session)
	if err != nil {
		return nil, err
	}
	if c.Snapshot().FindChatbot(req.ChatbotId) == nil {
		return nil, coordinator.ErrChatbotNotFound
	}
	return toWorkspaceResponse(c.Select(req.ChatbotId, req.SessionId)), nil
}

func (s *workspaceService) Health(ctx context.Context) gateway.HealthReport {
	return s.gateway.CheckHealth(ctx)
}

// Close shuts every workspace down, waiting for their pending writes.
func (s *workspaceService) Close(ctx context.Context) error {
	s.unsubscribe()

	s.mu.Lock()
	items := s.registry.Items()
	s.registry.OnEvicted(nil)
	s.registry.Flush()
	s.mu.Unlock()

	var firstErr error
	for userId, item := range items {
		if err := item.Object.(*coordinator.Coordinator).Close(ctx); err != nil && firstErr == nil {
			firstErr = err
			s.logger.Warn("WorkspaceService", "Workspace closed with pending writes", map[string]interface{}{"user_id": userId, "error": err.Error()})
		}
	}
	return firstErr
}
