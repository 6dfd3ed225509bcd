package bootstrap

import (
	"context"
	"log"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/config"
	"chatrelay-be/internal/controller"
	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/handler"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/relay"
	"chatrelay-be/internal/repository/memory"
	"chatrelay-be/internal/repository/unitofwork"
	"chatrelay-be/internal/service"
	"chatrelay-be/internal/websocket"
	"chatrelay-be/pkg/events"
	pktNats "chatrelay-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	WorkspaceController controller.IWorkspaceController
	ChatbotController   controller.IChatbotController
	HealthController    controller.IHealthController

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	workspaces service.IWorkspaceService
	closers    []func()
}

// NewContainer wires the application. db may be nil, in which case the
// offline gateway and in-memory identities are used. Background workers
// stop when ctx is done.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 1. Persistence
	var gw gateway.Gateway
	var identities auth.IdentityStore
	if db != nil {
		gw = gateway.NewGormGateway(db, sysLogger)
		identities = auth.NewGormIdentityStore(unitofwork.NewRepositoryFactory(db))
	} else {
		log.Printf("[WARN] DB_CONNECTION_STRING not set, running with the offline gateway")
		gw = gateway.NewOffline()
		identities = memory.NewIdentityRepository()
	}

	// 2. Event bus. Interfaces stay nil unless the connection succeeded.
	var publisher events.Publisher
	var subscriber service.EventSubscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			subscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// 4. WebSocket hub and notifications
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)
	wsHub := websocket.NewHub(rdb, cfg.App.InstanceID, wsLogger)
	go wsHub.Run(ctx)

	notifService := service.NewNotificationService(pubSub, wsHub, wsLogger)
	if err := notifService.Start(ctx); err != nil {
		log.Printf("[WARN] Failed to start notification service: %v", err)
	}

	// 5. Auth
	watcher := auth.NewWatcher()
	provider := auth.NewProvider(auth.Config{
		Secret:              cfg.Auth.JWTSecret,
		TokenTTL:            cfg.Auth.TokenTTL,
		EmailDomain:         cfg.Auth.EmailDomain,
		RequireConfirmation: cfg.Auth.RequireConfirmation,
		Origin:              cfg.App.InstanceID,
	}, identities, memory.NewSessionRepository(), watcher, publisher, sysLogger)

	authService := service.NewAuthService(provider, subscriber, cfg.App.InstanceID, sysLogger)
	if err := authService.Start(); err != nil {
		log.Printf("[WARN] Sign-out events from other instances will not be applied: %v", err)
	}

	// 6. Workspaces
	webhookRelay := relay.NewRelay(nil, sysLogger, publisher)
	workspaceService := service.NewWorkspaceService(gw, webhookRelay, notifService, provider, sysLogger, service.WorkspaceOptions{
		Coordinator: coordinator.Options{
			DefaultChatbots:      cfg.Workspace.DefaultChatbots,
			ProfileLookupDelay:   cfg.Workspace.ProfileLookupDelay,
			ProfileLookupRetries: cfg.Workspace.ProfileLookupRetries,
		},
		IdleTTL: cfg.Workspace.IdleTTL,
	})
	chatbotService := service.NewChatbotService(workspaceService, service.ChatbotOptions{
		SettingsPassword: cfg.Workspace.SettingsPassword,
		SendWait:         cfg.Workspace.SendWait,
	})
	c.workspaces = workspaceService

	// 7. Controllers
	jwt := serverutils.NewJwtMiddleware(provider)
	c.AuthController = controller.NewAuthController(authService, jwt)
	c.WorkspaceController = controller.NewWorkspaceController(workspaceService, jwt)
	c.ChatbotController = controller.NewChatbotController(chatbotService, jwt)
	c.HealthController = controller.NewHealthController(workspaceService)
	c.NotificationHandler = handler.NewNotificationHandler(notifService, wsHub, jwt, wsLogger)
	c.WebSocketHub = wsHub

	return c
}

// Shutdown flushes pending workspace writes and closes connections.
func (c *Container) Shutdown(ctx context.Context) {
	if err := c.workspaces.Close(ctx); err != nil {
		c.Logger.Warn("Container", "Shutdown left writes pending", map[string]interface{}{"error": err.Error()})
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
