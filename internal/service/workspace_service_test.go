package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []coordinator.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note coordinator.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, note := range n.got {
		out = append(out, note.Title)
	}
	return out
}

func newTestWorkspaces(t *testing.T) (IWorkspaceService, *auth.Watcher, *recordingNotifier) {
	t.Helper()
	return newTestWorkspacesWith(t, WorkspaceOptions{})
}

func newTestWorkspacesWith(t *testing.T, opts WorkspaceOptions) (IWorkspaceService, *auth.Watcher, *recordingNotifier) {
	t.Helper()
	opts.Coordinator.DefaultChatbots = []string{"Assistant", "Coder"}
	watcher := auth.NewWatcher()
	notifier := &recordingNotifier{}
	svc := NewWorkspaceService(
		gateway.NewOffline(),
		relay.NewRelay(nil, logger.NewNopLogger(), nil),
		notifier,
		watcher,
		logger.NewNopLogger(),
		opts,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Close(ctx)
	})
	return svc, watcher, notifier
}

var alice = &entity.AuthSession{Id: "sid-1", UserId: "u1", Username: "alice"}

func TestWorkspaceLoadsOnceAndNavigates(t *testing.T) {
	svc, _, notifier := newTestWorkspaces(t)
	ctx := context.Background()

	res, err := svc.Get(ctx, alice, "", "")
	require.NoError(t, err)
	require.True(t, res.Initialized)
	require.Len(t, res.Chatbots, 2)
	assert.Equal(t, "u1_assistant", res.ActiveChatbotId)

	res, err = svc.Get(ctx, alice, "u1_coder", "")
	require.NoError(t, err)
	assert.Equal(t, "u1_coder", res.ActiveChatbotId)

	c1, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)
	c2, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	// The offline gateway has no tables.
	assert.Equal(t, []string{"Database Setup Issue"}, notifier.titles())
}

func TestSelectUnknownChatbot(t *testing.T) {
	svc, _, _ := newTestWorkspaces(t)

	_, err := svc.Select(context.Background(), alice, &dto.SelectRequest{ChatbotId: "missing"})
	assert.ErrorIs(t, err, coordinator.ErrChatbotNotFound)
}

func TestSignOutDropsWorkspace(t *testing.T) {
	svc, watcher, _ := newTestWorkspaces(t)
	ctx := context.Background()

	before, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)

	watcher.Emit(auth.Event{Type: auth.SignedOut, UserId: "u1"})
	assert.False(t, before.Snapshot().Initialized)

	after, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.True(t, after.Snapshot().Initialized)
}

func TestSettingsPasswordGate(t *testing.T) {
	workspaces, _, _ := newTestWorkspaces(t)
	svc := NewChatbotService(workspaces, ChatbotOptions{SettingsPassword: "s3cret"})
	ctx := context.Background()
	req := &dto.UpdateSettingsRequest{WebhookUrl: "https://hooks.example.com/x"}

	_, err := svc.UpdateSettings(ctx, alice, "u1_assistant", "wrong", req)
	assert.ErrorIs(t, err, ErrSettingsLocked)

	bot, err := svc.UpdateSettings(ctx, alice, "u1_assistant", "s3cret", req)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/x", bot.Settings.WebhookUrl)
}

func TestSendMessageCreatesSession(t *testing.T) {
	workspaces, _, _ := newTestWorkspaces(t)
	svc := NewChatbotService(workspaces, ChatbotOptions{})

	res, err := svc.SendMessage(context.Background(), alice, "u1_coder", &dto.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "Chat 1", res.Session.Name)
	assert.Equal(t, "hello", res.Sent.Content)
	assert.Equal(t, relay.UnconfiguredReply, res.Reply.Content)
	assert.False(t, res.Pending)
}

func TestIdleWorkspaceIsClosedWhenReplaced(t *testing.T) {
	svc, watcher, _ := newTestWorkspacesWith(t, WorkspaceOptions{IdleTTL: 50 * time.Millisecond})
	ctx := context.Background()

	first, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, watcher.Subscribers())

	time.Sleep(120 * time.Millisecond)

	second, err := svc.Workspace(ctx, alice)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	assert.Eventually(t, func() bool {
		return watcher.Subscribers() == 2
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, err := first.AddChatbot("x")
		return errors.Is(err, coordinator.ErrClosed)
	}, time.Second, 10*time.Millisecond)

	_, err = second.AddChatbot("y")
	assert.NoError(t, err)
}

func TestSendAnswersPendingAfterSendWait(t *testing.T) {
	release := make(chan struct{})
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"server_response_message":"late"}`))
	}))
	t.Cleanup(hook.Close)
	// Unblock the handler before the workspace drains on cleanup.
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	workspaces, _, _ := newTestWorkspaces(t)
	svc := NewChatbotService(workspaces, ChatbotOptions{SendWait: 50 * time.Millisecond})
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, alice, "u1_coder", "", &dto.UpdateSettingsRequest{WebhookUrl: hook.URL})
	require.NoError(t, err)

	res, err := svc.SendMessage(ctx, alice, "u1_coder", &dto.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Nil(t, res.Reply)
	assert.Equal(t, "hello", res.Sent.Content)

	close(release)

	c, err := workspaces.Workspace(ctx, alice)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, session := c.Snapshot().FindSession(res.SessionId)
		if session == nil || len(session.Messages) != 2 {
			return false
		}
		return session.Messages[1].Content == "late"
	}, 2*time.Second, 10*time.Millisecond)
}
