package coordinator

import (
	"context"
	"fmt"
	"strings"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/state"

	"github.com/google/uuid"
)

// CreateSession adds a session to a chatbot and selects it. An empty name
// becomes "Chat <n>".
func (c *Coordinator) CreateSession(chatbotId, name string) (*entity.ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.createSessionLocked(chatbotId, name)
}

func (c *Coordinator) createSessionLocked(chatbotId, name string) (*entity.ChatSession, error) {
	bot := c.store.Snapshot().FindChatbot(chatbotId)
	if bot == nil {
		return nil, ErrChatbotNotFound
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Chat %d", len(bot.Sessions)+1)
	}
	id := "session_" + uuid.NewString()
	session := &entity.ChatSession{
		Id:        id,
		ChatbotId: chatbotId,
		Name:      name,
		ThreadId:  fmt.Sprintf("%s_%s", c.threadOwner(), id),
		Messages:  []*entity.ChatMessage{},
	}

	c.store.Update(func(t *state.Tree) *state.Tree {
		return t.AppendSession(chatbotId, session).WithActive(chatbotId, id)
	})

	c.enqueue("create_session",
		func(ctx context.Context) error {
			row := *session
			row.Messages = nil
			storedId, err := c.gateway.CreateSession(ctx, c.resolve(chatbotId), &row)
			if err != nil {
				return err
			}
			c.adoptSessionId(chatbotId, id, storedId)
			return nil
		},
		nil,
		func(reason string) { c.notifyError("create_session", "Failed to save session: "+reason) },
	)
	return session, nil
}

func (c *Coordinator) adoptSessionId(chatbotId, placeholder, stored string) {
	if stored == "" || stored == placeholder {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[placeholder] = stored
	c.store.Update(func(t *state.Tree) *state.Tree {
		bot, _ := t.FindSession(placeholder)
		if bot == nil {
			return t
		}
		return t.ReplaceSessionId(bot.Id, placeholder, stored)
	})
}

// threadOwner is the display name thread ids are prefixed with.
func (c *Coordinator) threadOwner() string {
	if c.user.Username != "" {
		return c.user.Username
	}
	return "user"
}

func (c *Coordinator) RenameSession(chatbotId, sessionId, name string) (*entity.ChatSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	bot := c.store.Snapshot().FindChatbot(chatbotId)
	if bot == nil {
		return nil, ErrChatbotNotFound
	}
	if bot.FindSession(sessionId) == nil {
		return nil, ErrSessionNotFound
	}

	session := c.store.Update(func(t *state.Tree) *state.Tree {
		return t.RenameSession(chatbotId, sessionId, name)
	}).FindChatbot(chatbotId).FindSession(sessionId)

	c.enqueue("rename_session",
		func(ctx context.Context) error {
			row := *session
			row.Id = c.resolve(sessionId)
			row.Messages = nil
			return c.gateway.UpdateSession(ctx, c.resolve(chatbotId), &row)
		},
		nil,
		func(reason string) { c.notifyError("rename_session", "Failed to save session: "+reason) },
	)
	return session, nil
}

func (c *Coordinator) DeleteSession(chatbotId, sessionId string) (*state.Tree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	bot := c.store.Snapshot().FindChatbot(chatbotId)
	if bot == nil {
		return nil, ErrChatbotNotFound
	}
	if bot.FindSession(sessionId) == nil {
		return nil, ErrSessionNotFound
	}

	next := c.store.Update(func(t *state.Tree) *state.Tree { return t.RemoveSession(chatbotId, sessionId) })

	c.enqueue("delete_session",
		func(ctx context.Context) error { return c.gateway.DeleteSession(ctx, c.resolve(sessionId)) },
		nil,
		func(reason string) { c.notifyError("delete_session", "Failed to delete session: "+reason) },
	)
	return next, nil
}
