// Package coordinator keeps one user's chatbot tree in step with the remote
// store. Every mutation is applied locally first and then persisted in the
// background; a failed write is reported but never rolled back.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/internal/relay"
	"chatrelay-be/internal/state"
)

const moduleName = "SyncCoordinator"

// Relayer is the subset of *relay.Relay the coordinator needs.
type Relayer interface {
	Send(ctx context.Context, chatbot *entity.Chatbot, session *entity.ChatSession, threadOwner, text string) relay.Reply
}

// AuthSource delivers sign-in and sign-out transitions.
type AuthSource interface {
	Subscribe(fn func(auth.Event)) func()
}

type Options struct {
	DefaultChatbots      []string
	ProfileLookupDelay   time.Duration
	ProfileLookupRetries int
	// WriteTimeout bounds each background write.
	WriteTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if len(o.DefaultChatbots) == 0 {
		o.DefaultChatbots = []string{"Assistant", "Coder", "Creative"}
	}
	if o.ProfileLookupRetries < 0 {
		o.ProfileLookupRetries = 0
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 30 * time.Second
	}
	return o
}

// User identifies the workspace owner. Fresh is set right after sign-up,
// when the profile row may not exist yet.
type User struct {
	Id       string
	Username string
	Fresh    bool
}

type Coordinator struct {
	user     User
	opts     Options
	store    *state.Store
	gateway  gateway.Gateway
	relay    Relayer
	notifier Notifier
	logger   logger.ILogger

	loadMu sync.Mutex

	// mu orders local mutations with their enqueued writes.
	mu      sync.Mutex
	queue   *queue
	aliases map[string]string
	closed  bool

	relays      sync.WaitGroup
	unsubscribe func()
}

func New(user User, gw gateway.Gateway, rl Relayer, notifier Notifier, source AuthSource, logger logger.ILogger, opts Options) *Coordinator {
	c := &Coordinator{
		user:     user,
		opts:     opts.withDefaults(),
		store:    state.NewStore(),
		gateway:  gw,
		relay:    rl,
		notifier: notifier,
		logger:   logger,
		queue:    newQueue(),
		aliases:  make(map[string]string),
	}
	if source != nil {
		c.unsubscribe = source.Subscribe(c.onAuth)
	}
	return c
}

func (c *Coordinator) UserId() string {
	return c.user.Id
}

// Snapshot is the current tree. Callers must not modify it.
func (c *Coordinator) Snapshot() *state.Tree {
	return c.store.Snapshot()
}

func (c *Coordinator) onAuth(ev auth.Event) {
	if ev.UserId != c.user.Id {
		return
	}
	switch ev.Type {
	case auth.SignedOut:
		c.Reset()
	case auth.SignedIn:
		c.mu.Lock()
		c.user.Fresh = c.user.Fresh || ev.Fresh
		c.mu.Unlock()
	}
}

// Reset drops the tree back to the signed-out state. Writes already queued
// still run.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Update(func(t *state.Tree) *state.Tree { return t.Reset() })
	c.aliases = make(map[string]string)
	c.logger.Info(moduleName, "Workspace reset", map[string]interface{}{"user_id": c.user.Id})
}

// Drain waits for in-flight relay calls and every queued write.
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.relays.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.queue.drain(ctx)
}

// Close stops accepting mutations and waits for outstanding work until ctx
// expires.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	err := c.Drain(ctx)
	c.queue.close()
	return err
}

// resolve maps a placeholder id to the id the store assigned, if any.
func (c *Coordinator) resolve(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stored, ok := c.aliases[id]; ok {
		return stored
	}
	return id
}

// enqueue schedules a write. Must be called with c.mu held so writes are
// queued in mutation order.
func (c *Coordinator) enqueue(op string, write func(ctx context.Context) error, onSuccess func(), onFailure func(reason string)) {
	ok := c.queue.push(task{op: op, run: func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			reason := failureReason(err)
			c.logger.Warn(moduleName, "Background write failed", map[string]interface{}{
				"user_id":   c.user.Id,
				"operation": op,
				"error":     reason,
			})
			if onFailure != nil {
				onFailure(reason)
			}
			return
		}
		if onSuccess != nil {
			onSuccess()
		}
	}})
	if !ok {
		c.logger.Warn(moduleName, "Write dropped after close", map[string]interface{}{"user_id": c.user.Id, "operation": op})
	}
}

func failureReason(err error) string {
	var f *gateway.Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return err.Error()
}

func (c *Coordinator) notify(level Level, op, title, description string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(context.Background(), Notification{
		UserId:      c.user.Id,
		Level:       level,
		Title:       title,
		Description: description,
		Operation:   op,
		CreatedAt:   time.Now(),
	})
}

func (c *Coordinator) notifyError(op, description string) {
	c.notify(LevelError, op, "Error", description)
}

func (c *Coordinator) notifySuccess(op, description string) {
	c.notify(LevelSuccess, op, "Success", description)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
