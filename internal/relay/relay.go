// Package relay exchanges one user message for one assistant reply with a
// chatbot's configured webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	UnconfiguredReply = "Please configure a webhook URL in settings to receive responses."
	FailureReply      = "Error: Failed to get a response. Please check your webhook configuration."
	NoResponseReply   = "No response received"
)

const publishTimeout = 2 * time.Second

type Outcome string

const (
	OutcomeUnconfigured  Outcome = "unconfigured"
	OutcomeDelivered     Outcome = "delivered"
	OutcomeEmptyResponse Outcome = "empty_response"
	OutcomeFailed        Outcome = "failed"
)

// Reply is always usable as assistant message content. Err carries the
// cause of an OutcomeFailed reply for logging only.
type Reply struct {
	Content string
	Outcome Outcome
	Err     error
}

type Relay struct {
	client    *http.Client
	logger    logger.ILogger
	publisher events.Publisher
	tracer    trace.Tracer
}

// NewRelay builds a relay. A nil client means http.DefaultClient, whose only
// limits are the transport defaults. publisher may be nil.
func NewRelay(client *http.Client, logger logger.ILogger, publisher events.Publisher) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{
		client:    client,
		logger:    logger,
		publisher: publisher,
		tracer:    otel.Tracer("chatrelay/relay"),
	}
}

// ThreadId is the stored thread id, or owner_sessionId when none was set.
func ThreadId(session *entity.ChatSession, threadOwner string) string {
	if session.ThreadId != "" {
		return session.ThreadId
	}
	return fmt.Sprintf("%s_%s", threadOwner, session.Id)
}

// BuildBody maps the message onto the chatbot's configured keys in the order
// bot id, thread id, message.
func BuildBody(settings entity.ChatbotSettings, threadId, text string) Body {
	var body Body
	body = body.Set(settings.BotIdKey, settings.BotIdValue)
	body = body.Set(settings.ThreadIdKey, threadId)
	body = body.Set(settings.MessageKey, text)
	return body
}

// Send performs at most one POST. It never returns an error: every failure
// becomes a Reply carrying one of the fixed placeholder strings.
func (r *Relay) Send(ctx context.Context, chatbot *entity.Chatbot, session *entity.ChatSession, threadOwner, text string) (reply Reply) {
	ctx, span := r.tracer.Start(ctx, "relay.Send", trace.WithAttributes(
		attribute.String("chatbot.id", chatbot.Id),
		attribute.String("session.id", session.Id),
	))
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			reply = Reply{Content: FailureReply, Outcome: OutcomeFailed, Err: fmt.Errorf("relay panic: %v", rec)}
		}
		span.SetAttributes(attribute.String("relay.outcome", string(reply.Outcome)))
		if reply.Err != nil {
			span.RecordError(reply.Err)
			span.SetStatus(codes.Error, reply.Err.Error())
		}
		span.End()
		r.report(ctx, chatbot, session, reply, time.Since(start))
	}()

	if chatbot.Settings == nil || chatbot.Settings.WebhookUrl == "" {
		return Reply{Content: UnconfiguredReply, Outcome: OutcomeUnconfigured}
	}

	settings := chatbot.Settings.Resolved(chatbot.Id)
	body := BuildBody(settings, ThreadId(session, threadOwner), text)

	payload, err := json.Marshal(body)
	if err != nil {
		return failed(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.WebhookUrl, bytes.NewReader(payload))
	if err != nil {
		return failed(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("webhook request failed: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(fmt.Errorf("webhook error: status %d", resp.StatusCode))
	}

	return extractReply(bodyBytes, settings.ResponseKey)
}

func failed(err error) Reply {
	return Reply{Content: FailureReply, Outcome: OutcomeFailed, Err: err}
}

// extractReply reads responseKey from a JSON object. Strings are used as is;
// other JSON values are rendered as their JSON text. A valid body that is not
// an object has no reply field.
func extractReply(body []byte, responseKey string) Reply {
	if !json.Valid(body) {
		return failed(errors.New("invalid JSON response"))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Reply{Content: NoResponseReply, Outcome: OutcomeEmptyResponse}
	}

	raw, ok := fields[responseKey]
	if !ok || string(raw) == "null" {
		return Reply{Content: NoResponseReply, Outcome: OutcomeEmptyResponse}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return Reply{Content: NoResponseReply, Outcome: OutcomeEmptyResponse}
		}
		return Reply{Content: text, Outcome: OutcomeDelivered}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return Reply{Content: string(raw), Outcome: OutcomeDelivered}
	}
	return Reply{Content: compact.String(), Outcome: OutcomeDelivered}
}

func (r *Relay) report(ctx context.Context, chatbot *entity.Chatbot, session *entity.ChatSession, reply Reply, elapsed time.Duration) {
	details := map[string]interface{}{
		"chatbot_id":  chatbot.Id,
		"session_id":  session.Id,
		"outcome":     reply.Outcome,
		"duration_ms": elapsed.Milliseconds(),
	}
	if reply.Err != nil {
		details["error"] = reply.Err.Error()
		r.logger.Warn("WebhookRelay", "Webhook call failed", details)
	} else {
		r.logger.Info("WebhookRelay", "Webhook call finished", details)
	}

	if r.publisher == nil || reply.Outcome == OutcomeUnconfigured {
		return
	}
	event := events.New(events.RelayCompleted, map[string]interface{}{
		"user_id":     chatbot.UserId,
		"chatbot_id":  chatbot.Id,
		"session_id":  session.Id,
		"outcome":     string(reply.Outcome),
		"duration_ms": elapsed.Milliseconds(),
	})
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, event); err != nil {
		r.logger.Warn("WebhookRelay", "Failed to publish relay event", map[string]interface{}{"error": err.Error()})
	}
}
