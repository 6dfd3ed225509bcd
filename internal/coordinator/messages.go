package coordinator

import (
	"context"
	"strings"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/relay"
	"chatrelay-be/internal/state"

	"github.com/google/uuid"
)

// SendResult describes one exchange. Assistant is nil when the caller's
// context ended before the reply arrived; the reply is still appended to
// the tree when it does.
type SendResult struct {
	ChatbotId string
	// Session is set when the exchange had to create one.
	Session   *entity.ChatSession
	SessionId string
	User      *entity.ChatMessage
	Assistant *entity.ChatMessage
	Outcome   relay.Outcome
	Pending   bool
}

// AddMessage appends a message to a session and queues its write.
func (c *Coordinator) AddMessage(sessionId, role, content string) (*entity.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrMissingContent
	}
	if !entity.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	msg, ok := c.appendLocked(sessionId, role, content)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return msg, nil
}

// appendLocked adds a message wherever the session currently lives. Caller
// holds c.mu.
func (c *Coordinator) appendLocked(sessionId, role, content string) (*entity.ChatMessage, bool) {
	msg := &entity.ChatMessage{
		Id:        "msg_" + uuid.NewString(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		Timestamp: entity.NowTimestamp(),
	}

	found := false
	c.store.Update(func(t *state.Tree) *state.Tree {
		next, ok := t.AppendMessage(sessionId, msg)
		found = ok
		return next
	})
	if !found {
		return nil, false
	}

	c.enqueue("create_message",
		func(ctx context.Context) error {
			row := *msg
			row.SessionId = c.resolve(sessionId)
			_, err := c.gateway.CreateMessage(ctx, row.SessionId, &row)
			return err
		},
		nil,
		func(reason string) { c.notifyError("create_message", "Failed to save message: "+reason) },
	)
	return msg, true
}

// SendMessage appends the user's text, relays it to the chatbot's webhook
// and appends the reply. An empty chatbotId means the active chatbot; an
// empty sessionId creates a new session. The relay call is not bound to
// ctx: if ctx ends first, SendMessage returns with Pending set and the
// reply lands in the session later.
func (c *Coordinator) SendMessage(ctx context.Context, chatbotId, sessionId, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingContent
	}

	c.mu.Lock()
	if err := c.ready(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	tree := c.store.Snapshot()
	if chatbotId == "" {
		if active := tree.ActiveChatbot(); active != nil {
			chatbotId = active.Id
		}
	}
	bot := tree.FindChatbot(chatbotId)
	if bot == nil {
		c.mu.Unlock()
		return nil, ErrChatbotNotFound
	}

	result := &SendResult{ChatbotId: chatbotId}
	if sessionId == "" {
		session, err := c.createSessionLocked(chatbotId, "")
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		result.Session = session
		sessionId = session.Id
	} else if bot.FindSession(sessionId) == nil {
		c.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	result.SessionId = sessionId

	userMsg, _ := c.appendLocked(sessionId, entity.RoleUser, text)
	result.User = userMsg

	// Settings are read at send time; later edits do not affect this call.
	snapshot := c.store.Snapshot()
	bot = snapshot.FindChatbot(chatbotId)
	session := bot.FindSession(sessionId)
	owner := c.threadOwner()
	c.relays.Add(1)
	c.mu.Unlock()

	done := make(chan *SendResult, 1)
	go func() {
		defer c.relays.Done()
		reply := c.relay.Send(context.WithoutCancel(ctx), bot, session, owner, text)

		c.mu.Lock()
		msg, ok := c.appendLocked(sessionId, entity.RoleAssistant, reply.Content)
		c.mu.Unlock()
		if !ok {
			c.logger.Info(moduleName, "Reply dropped, session no longer exists", map[string]interface{}{
				"user_id":    c.user.Id,
				"session_id": sessionId,
			})
		}

		r := *result
		r.Assistant = msg
		r.Outcome = reply.Outcome
		done <- &r
	}()

	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		result.Pending = true
		return result, nil
	}
}
