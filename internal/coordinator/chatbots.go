package coordinator

import (
	"context"
	"net/url"
	"strings"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/state"

	"github.com/google/uuid"
)

// ready reports whether mutations are accepted. Caller holds c.mu.
func (c *Coordinator) ready() error {
	if c.closed {
		return ErrClosed
	}
	if !c.store.Snapshot().Initialized {
		return ErrNotLoaded
	}
	return nil
}

// Select changes the active chatbot and session. Unknown ids leave the
// selection as it was; a session is only selected within its chatbot.
func (c *Coordinator) Select(chatbotId, sessionId string) *state.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Update(func(t *state.Tree) *state.Tree {
		bot := t.FindChatbot(chatbotId)
		if bot == nil {
			return t
		}
		if sessionId != "" && bot.FindSession(sessionId) == nil {
			sessionId = ""
		}
		if t.ActiveChatbotId == chatbotId && t.ActiveSessionId == sessionId {
			return t
		}
		return t.WithActive(chatbotId, sessionId)
	})
}

func (c *Coordinator) AddChatbot(name string) (*entity.Chatbot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}

	bot := &entity.Chatbot{
		Id:       "bot_" + uuid.NewString(),
		UserId:   c.user.Id,
		Name:     name,
		Sessions: []*entity.ChatSession{},
	}
	c.store.Update(func(t *state.Tree) *state.Tree {
		return t.AppendChatbot(bot).WithActive(bot.Id, "")
	})

	c.enqueue("create_chatbot",
		func(ctx context.Context) error {
			storedId, err := c.gateway.CreateChatbot(ctx, c.user.Id, bot)
			if err != nil {
				return err
			}
			c.adoptChatbotId(bot.Id, storedId)
			return nil
		},
		func() { c.notifySuccess("create_chatbot", "Chatbot created successfully!") },
		func(reason string) { c.notifyError("create_chatbot", "Failed to save chatbot: "+reason) },
	)
	return bot, nil
}

// adoptChatbotId swaps a placeholder id for the one the store assigned.
func (c *Coordinator) adoptChatbotId(placeholder, stored string) {
	if stored == "" || stored == placeholder {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[placeholder] = stored
	c.store.Update(func(t *state.Tree) *state.Tree { return t.ReplaceChatbotId(placeholder, stored) })
}

func (c *Coordinator) RenameChatbot(chatbotId, name string) (*entity.Chatbot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	if c.store.Snapshot().FindChatbot(chatbotId) == nil {
		return nil, ErrChatbotNotFound
	}

	bot := c.store.Update(func(t *state.Tree) *state.Tree { return t.RenameChatbot(chatbotId, name) }).FindChatbot(chatbotId)
	c.persistChatbot("rename_chatbot", bot, "", "Failed to rename chatbot: ")
	return bot, nil
}

// RemoveChatbot deletes a chatbot with its sessions and messages. The last
// chatbot cannot be removed.
func (c *Coordinator) RemoveChatbot(chatbotId string) (*state.Tree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}

	cur := c.store.Snapshot()
	if cur.FindChatbot(chatbotId) == nil {
		return nil, ErrChatbotNotFound
	}
	if len(cur.Chatbots) <= 1 {
		return nil, ErrLastChatbot
	}

	next := c.store.Update(func(t *state.Tree) *state.Tree { return t.RemoveChatbot(chatbotId) })

	c.enqueue("delete_chatbot",
		func(ctx context.Context) error { return c.gateway.DeleteChatbot(ctx, c.resolve(chatbotId)) },
		func() { c.notifySuccess("delete_chatbot", "Chatbot deleted successfully!") },
		func(reason string) { c.notifyError("delete_chatbot", "Failed to delete chatbot: "+reason) },
	)
	return next, nil
}

// UpdateChatbotSettings replaces a chatbot's settings. A non-empty webhook
// URL must be an absolute http(s) URL.
func (c *Coordinator) UpdateChatbotSettings(chatbotId string, settings entity.ChatbotSettings) (*entity.Chatbot, error) {
	settings.WebhookUrl = strings.TrimSpace(settings.WebhookUrl)
	if err := validateWebhookURL(settings.WebhookUrl); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	if c.store.Snapshot().FindChatbot(chatbotId) == nil {
		return nil, ErrChatbotNotFound
	}

	bot := c.store.Update(func(t *state.Tree) *state.Tree { return t.SetChatbotSettings(chatbotId, &settings) }).FindChatbot(chatbotId)
	c.persistChatbot("update_settings", bot, "Settings saved successfully!", "Failed to save settings: ")
	return bot, nil
}

// persistChatbot queues an upsert of bot's name and settings. Caller holds
// c.mu.
func (c *Coordinator) persistChatbot(op string, bot *entity.Chatbot, success, failurePrefix string) {
	var onSuccess func()
	if success != "" {
		onSuccess = func() { c.notifySuccess(op, success) }
	}
	c.enqueue(op,
		func(ctx context.Context) error {
			row := *bot
			row.Id = c.resolve(bot.Id)
			row.Sessions = nil
			return c.gateway.UpdateChatbot(ctx, c.user.Id, &row)
		},
		onSuccess,
		func(reason string) { c.notifyError(op, failurePrefix+reason) },
	)
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidWebhookURL
	}
	return nil
}
