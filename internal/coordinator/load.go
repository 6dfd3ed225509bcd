package coordinator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/state"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if s == "" {
		return "bot"
	}
	return s
}

// EnsureLoaded loads the tree unless it is already initialized.
func (c *Coordinator) EnsureLoaded(ctx context.Context) (*state.Tree, error) {
	if t := c.store.Snapshot(); t.Initialized {
		return t, nil
	}
	return c.Load(ctx)
}

// Load reads the user's chatbots and replaces the tree with them. A user
// with none gets the default chatbots. On failure the user is notified and
// the tree is left as it was.
func (c *Coordinator) Load(ctx context.Context) (*state.Tree, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	closed := c.closed
	user := c.user
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	// Writes queued before the load must land before we read.
	if err := c.queue.drain(ctx); err != nil {
		return nil, err
	}

	c.ensureProfile(ctx, user)

	chatbots, err := c.gateway.ListChatbots(ctx, user.Id)
	if err != nil {
		c.logger.Error(moduleName, "Failed to load chatbots", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
		c.notify(LevelError, "load", "Error Loading Data", "Failed to load your chatbots. Please try again later.")
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(chatbots) == 0 {
		chatbots = c.seed()
	}

	prev := c.store.Snapshot()
	next := c.store.Update(func(t *state.Tree) *state.Tree {
		n := t.WithChatbots(chatbots)
		active, session := prev.ActiveChatbotId, prev.ActiveSessionId
		bot := n.FindChatbot(active)
		if bot == nil {
			active, session = chatbots[0].Id, ""
		} else if bot.FindSession(session) == nil {
			session = ""
		}
		return n.WithActive(active, session)
	})
	c.user.Fresh = false
	c.aliases = make(map[string]string)

	c.logger.Info(moduleName, "Workspace loaded", map[string]interface{}{"user_id": user.Id, "chatbots": len(chatbots)})
	return next, nil
}

// seed builds the default chatbots and queues their creation. Caller holds
// c.mu.
func (c *Coordinator) seed() []*entity.Chatbot {
	bots := make([]*entity.Chatbot, 0, len(c.opts.DefaultChatbots))
	seen := make(map[string]int)
	for _, name := range c.opts.DefaultChatbots {
		id := fmt.Sprintf("%s_%s", c.user.Id, slug(name))
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s_%d", id, n+1)
		} else {
			seen[id] = 1
		}
		bot := &entity.Chatbot{Id: id, UserId: c.user.Id, Name: name, Sessions: []*entity.ChatSession{}}
		bots = append(bots, bot)

		c.enqueue("create_chatbot",
			func(ctx context.Context) error {
				_, err := c.gateway.CreateChatbot(ctx, c.user.Id, bot)
				return err
			},
			nil,
			func(reason string) { c.notifyError("create_chatbot", "Failed to save chatbot: "+reason) },
		)
	}
	return bots
}

// ensureProfile makes sure a profile row exists. Right after sign-up the row
// may be created by the store asynchronously, so lookups are retried before
// falling back to creating it. Failures are logged only.
func (c *Coordinator) ensureProfile(ctx context.Context, user User) {
	username := user.Username
	if !user.Fresh {
		if _, err := c.gateway.EnsureUserProfile(ctx, user.Id, username); err != nil {
			c.logger.Warn(moduleName, "Failed to ensure profile", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
		}
		return
	}

	if err := sleep(ctx, c.opts.ProfileLookupDelay); err != nil {
		return
	}
	for attempt := 0; ; attempt++ {
		_, err := c.gateway.GetUserProfile(ctx, user.Id)
		if err == nil {
			return
		}
		if !gateway.IsKind(err, gateway.KindNotFound) {
			c.logger.Warn(moduleName, "Profile lookup failed", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
			return
		}
		if attempt >= c.opts.ProfileLookupRetries {
			break
		}
		if err := sleep(ctx, c.opts.ProfileLookupDelay); err != nil {
			return
		}
	}

	if _, err := c.gateway.CreateUserProfile(ctx, user.Id, username); err != nil {
		c.logger.Warn(moduleName, "Failed to create profile", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
	}
}
