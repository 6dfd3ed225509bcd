package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	mu   sync.Mutex
	sent map[string][]coordinator.Notification
}

func (d *recordingDelivery) Send(userID string, n coordinator.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent == nil {
		d.sent = map[string][]coordinator.Notification{}
	}
	d.sent[userID] = append(d.sent[userID], n)
}

func (d *recordingDelivery) count(userID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent[userID])
}

func newTestNotificationService(t *testing.T) (INotificationService, *recordingDelivery) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	delivery := &recordingDelivery{}
	svc := NewNotificationService(pubSub, delivery, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, svc.Start(ctx))
	return svc, delivery
}

func TestNotificationsReachInboxAndSocket(t *testing.T) {
	svc, delivery := newTestNotificationService(t)

	svc.Notify(context.Background(), coordinator.Notification{
		UserId:      "u1",
		Level:       coordinator.LevelError,
		Title:       "Error",
		Description: "Failed to save session: boom",
		Operation:   "create_session",
	})

	require.Eventually(t, func() bool { return delivery.count("u1") == 1 }, time.Second, 5*time.Millisecond)

	inbox := svc.Drain("u1")
	require.Len(t, inbox, 1)
	assert.Equal(t, "error", inbox[0].Level)
	assert.Equal(t, "Failed to save session: boom", inbox[0].Description)

	assert.Empty(t, svc.Drain("u1"))
	assert.Empty(t, svc.Drain("someone-else"))
}

func TestInboxKeepsNewest(t *testing.T) {
	svc, delivery := newTestNotificationService(t)

	for i := 0; i < inboxLimit+5; i++ {
		svc.Notify(context.Background(), coordinator.Notification{UserId: "u1", Title: "n", Operation: "op"})
	}
	require.Eventually(t, func() bool { return delivery.count("u1") == inboxLimit+5 }, time.Second, 5*time.Millisecond)

	assert.Len(t, svc.Drain("u1"), inboxLimit)
}
