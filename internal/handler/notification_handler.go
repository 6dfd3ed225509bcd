package handler

import (
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/service"
	internalWS "chatrelay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type NotificationHandler struct {
	service service.INotificationService
	hub     *internalWS.Hub
	jwt     fiber.Handler
	logger  logger.ILogger
}

func NewNotificationHandler(service service.INotificationService, hub *internalWS.Hub, jwt fiber.Handler, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		jwt:     jwt,
		logger:  log,
	}
}

// ServeWs upgrades to a WebSocket that streams the user's notifications.
// Browsers pass the token as the "token" query parameter.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, _ := c.Locals(serverutils.LocalUserId).(string)

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

// GetNotifications drains the user's inbox.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, _ := c.Locals(serverutils.LocalUserId).(string)
	return c.JSON(serverutils.SuccessResponse("Success get notifications", h.service.Drain(userID)))
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notification/v1")
	notif.Use(h.jwt)
	notif.Get("", h.GetNotifications)
	notif.Get("/ws", h.ServeWs)
}
