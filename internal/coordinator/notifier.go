package coordinator

import (
	"context"
	"time"
)

type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

type Notification struct {
	UserId      string    `json:"user_id"`
	Level       Level     `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Operation   string    `json:"operation"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier surfaces outcomes to the user. Implementations must not block
// for long; they are called from the persistence worker.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
