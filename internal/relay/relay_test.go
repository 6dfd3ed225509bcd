package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type webhook struct {
	server *httptest.Server
	calls  atomic.Int32
	body   atomic.Value
}

func newWebhook(t *testing.T, status int, response string) *webhook {
	t.Helper()
	w := &webhook{}
	w.server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		w.body.Store(string(b))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		rw.WriteHeader(status)
		io.WriteString(rw, response)
	}))
	t.Cleanup(w.server.Close)
	return w
}

func (w *webhook) lastBody() string {
	if v, ok := w.body.Load().(string); ok {
		return v
	}
	return ""
}

func newTestRelay(publisher events.Publisher) *Relay {
	return NewRelay(nil, logger.NewNopLogger(), publisher)
}

func session() *entity.ChatSession {
	return &entity.ChatSession{Id: "s1", ThreadId: "t1"}
}

func TestSendWithoutWebhookMakesNoCall(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"server_response_message":"unused"}`)
	r := newTestRelay(nil)

	for _, settings := range []*entity.ChatbotSettings{nil, {MessageKey: "m"}} {
		reply := r.Send(context.Background(), &entity.Chatbot{Id: "bot-1", Settings: settings}, session(), "alice", "hi")
		assert.Equal(t, UnconfiguredReply, reply.Content)
		assert.Equal(t, OutcomeUnconfigured, reply.Outcome)
	}
	assert.Equal(t, int32(0), hook.calls.Load())
}

func TestSendUsesConfiguredKeys(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"r":"hello"}`)
	r := newTestRelay(nil)

	bot := &entity.Chatbot{Id: "bot-1", Settings: &entity.ChatbotSettings{
		WebhookUrl:  hook.server.URL,
		BotIdKey:    "b",
		MessageKey:  "m",
		ResponseKey: "r",
	}}

	reply := r.Send(context.Background(), bot, session(), "alice", "hi")
	assert.Equal(t, "hello", reply.Content)
	assert.Equal(t, OutcomeDelivered, reply.Outcome)
	assert.NoError(t, reply.Err)
	assert.Equal(t, `{"b":"bot-1","threadId":"t1","m":"hi"}`, hook.lastBody())
	assert.Equal(t, int32(1), hook.calls.Load())
}

func TestSendDefaults(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"server_response_message":"ok"}`)
	r := newTestRelay(nil)

	bot := &entity.Chatbot{Id: "bot-1", Settings: &entity.ChatbotSettings{WebhookUrl: hook.server.URL, BotIdValue: "external-7"}}
	reply := r.Send(context.Background(), bot, &entity.ChatSession{Id: "s9"}, "alice", "hey")

	assert.Equal(t, "ok", reply.Content)
	assert.Equal(t, `{"botId":"external-7","threadId":"alice_s9","message":"hey"}`, hook.lastBody())
}

func TestSendDuplicateKeyKeepsFirstPositionLastValue(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"server_response_message":"ok"}`)
	r := newTestRelay(nil)

	bot := &entity.Chatbot{Id: "bot-1", Settings: &entity.ChatbotSettings{WebhookUrl: hook.server.URL, MessageKey: "botId"}}
	r.Send(context.Background(), bot, session(), "alice", "hi")

	assert.Equal(t, `{"botId":"hi","threadId":"t1"}`, hook.lastBody())
}

func TestSendReplyShapes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		content  string
		outcome  Outcome
	}{
		{"server error", http.StatusInternalServerError, `{"server_response_message":"ignored"}`, FailureReply, OutcomeFailed},
		{"not found", http.StatusNotFound, ``, FailureReply, OutcomeFailed},
		{"missing key", http.StatusOK, `{}`, NoResponseReply, OutcomeEmptyResponse},
		{"null value", http.StatusOK, `{"server_response_message":null}`, NoResponseReply, OutcomeEmptyResponse},
		{"empty string", http.StatusOK, `{"server_response_message":""}`, NoResponseReply, OutcomeEmptyResponse},
		{"malformed json", http.StatusOK, `not json`, FailureReply, OutcomeFailed},
		{"array body", http.StatusOK, `[]`, NoResponseReply, OutcomeEmptyResponse},
		{"string body", http.StatusOK, `"hi"`, NoResponseReply, OutcomeEmptyResponse},
		{"number body", http.StatusOK, `42`, NoResponseReply, OutcomeEmptyResponse},
		{"truncated json", http.StatusOK, `{"server_response_message":`, FailureReply, OutcomeFailed},
		{"object value", http.StatusOK, `{"server_response_message": {"text": "hi"}}`, `{"text":"hi"}`, OutcomeDelivered},
		{"number value", http.StatusOK, `{"server_response_message": 42}`, `42`, OutcomeDelivered},
		{"created status", http.StatusCreated, `{"server_response_message":"made"}`, "made", OutcomeDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := newWebhook(t, tt.status, tt.response)
			r := newTestRelay(nil)
			bot := &entity.Chatbot{Id: "bot-1", Settings: &entity.ChatbotSettings{WebhookUrl: hook.server.URL}}

			reply := r.Send(context.Background(), bot, session(), "alice", "hi")
			assert.Equal(t, tt.content, reply.Content)
			assert.Equal(t, tt.outcome, reply.Outcome)
		})
	}
}

func TestSendTransportFailure(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{}`)
	url := hook.server.URL
	hook.server.Close()

	r := newTestRelay(nil)
	bot := &entity.Chatbot{Id: "bot-1", Settings: &entity.ChatbotSettings{WebhookUrl: url}}

	reply := r.Send(context.Background(), bot, session(), "alice", "hi")
	assert.Equal(t, FailureReply, reply.Content)
	assert.Equal(t, OutcomeFailed, reply.Outcome)
	assert.Error(t, reply.Err)
}

func TestSendPublishesOutcome(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"server_response_message":"ok"}`)
	pub := &recordingPublisher{}
	r := newTestRelay(pub)

	bot := &entity.Chatbot{Id: "bot-1", UserId: "u1", Settings: &entity.ChatbotSettings{WebhookUrl: hook.server.URL}}
	r.Send(context.Background(), bot, session(), "alice", "hi")
	r.Send(context.Background(), &entity.Chatbot{Id: "bot-2"}, session(), "alice", "hi")

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.RelayCompleted, pub.events[0].EventType())
	assert.Equal(t, "delivered", events.String(pub.events[0], "outcome"))
	assert.Equal(t, "u1", events.String(pub.events[0], "user_id"))
}
