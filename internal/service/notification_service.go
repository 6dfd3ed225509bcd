package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
)

const (
	inboxLimit = 50
	inboxTTL   = time.Hour
)

// NotificationDelivery pushes real-time updates. Implemented by the
// WebSocket hub.
type NotificationDelivery interface {
	Send(userID string, notification coordinator.Notification)
}

type INotificationService interface {
	coordinator.Notifier
	Start(ctx context.Context) error
	// Drain returns and clears the user's undelivered notifications.
	Drain(userId string) []*dto.NotificationResponse
}

type notificationService struct {
	pubSub   *gochannel.GoChannel
	topic    string
	inbox    *cache.Cache
	inboxMu  sync.Mutex
	delivery NotificationDelivery
	logger   logger.ILogger
}

func NewNotificationService(pubSub *gochannel.GoChannel, delivery NotificationDelivery, log logger.ILogger) INotificationService {
	return &notificationService{
		pubSub:   pubSub,
		topic:    events.NotificationCreated,
		inbox:    cache.New(inboxTTL, 10*time.Minute),
		delivery: delivery,
		logger:   log,
	}
}

// Notify hands the notification to the bus; it never blocks on delivery.
func (s *notificationService) Notify(ctx context.Context, n coordinator.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to encode notification", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topic, msg); err != nil {
		s.logger.Warn("NotificationService", "Failed to publish notification", map[string]interface{}{"user_id": n.UserId, "error": err.Error()})
	}
}

func (s *notificationService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()

	s.logger.Info("NotificationService", "Notification service started", map[string]interface{}{"topic": s.topic})
	return nil
}

func (s *notificationService) processMessage(msg *message.Message) {
	var n coordinator.Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		s.logger.Error("NotificationService", "Failed to unmarshal notification", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	s.store(n)
	if s.delivery != nil {
		s.delivery.Send(n.UserId, n)
	}
	msg.Ack()
}

func (s *notificationService) store(n coordinator.Notification) {
	s.inboxMu.Lock()
	defer s.inboxMu.Unlock()

	var list []coordinator.Notification
	if v, ok := s.inbox.Get(n.UserId); ok {
		list = v.([]coordinator.Notification)
	}
	list = append(list, n)
	if len(list) > inboxLimit {
		list = list[len(list)-inboxLimit:]
	}
	s.inbox.SetDefault(n.UserId, list)
}

func (s *notificationService) Drain(userId string) []*dto.NotificationResponse {
	s.inboxMu.Lock()
	v, ok := s.inbox.Get(userId)
	s.inbox.Delete(userId)
	s.inboxMu.Unlock()

	res := []*dto.NotificationResponse{}
	if !ok {
		return res
	}
	for _, n := range v.([]coordinator.Notification) {
		res = append(res, &dto.NotificationResponse{
			Level:       string(n.Level),
			Title:       n.Title,
			Description: n.Description,
			Operation:   n.Operation,
			CreatedAt:   n.CreatedAt,
		})
	}
	return res
}
