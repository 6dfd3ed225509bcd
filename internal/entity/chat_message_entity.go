package entity

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TimestampLayout matches the ISO-8601 form browsers produce (millisecond
// precision, UTC, "Z" suffix).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type ChatMessage struct {
	Id        string
	SessionId string
	Role      string
	Content   string
	Timestamp string
	CreatedAt time.Time
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

func NowTimestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}
