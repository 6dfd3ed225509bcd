package entity

import "time"

const (
	DefaultBotIdKey    = "botId"
	DefaultThreadIdKey = "threadId"
	DefaultMessageKey  = "message"
	DefaultResponseKey = "server_response_message"
)

type Chatbot struct {
	Id        string
	UserId    string
	Name      string
	Settings  *ChatbotSettings
	Sessions  []*ChatSession
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ChatbotSettings is the webhook field mapping persisted in chatbots.settings.
// Empty fields fall back to the defaults above.
type ChatbotSettings struct {
	WebhookUrl  string `json:"webhookUrl,omitempty"`
	BotIdKey    string `json:"botIdKey,omitempty"`
	BotIdValue  string `json:"botIdValue,omitempty"`
	ThreadIdKey string `json:"threadIdKey,omitempty"`
	MessageKey  string `json:"messageKey,omitempty"`
	ResponseKey string `json:"responseKey,omitempty"`
}

// Resolved returns a copy with every empty key replaced by its default.
// botId is the chatbot's own id.
func (s *ChatbotSettings) Resolved(botId string) ChatbotSettings {
	var out ChatbotSettings
	if s != nil {
		out = *s
	}
	if out.BotIdKey == "" {
		out.BotIdKey = DefaultBotIdKey
	}
	if out.BotIdValue == "" {
		out.BotIdValue = botId
	}
	if out.ThreadIdKey == "" {
		out.ThreadIdKey = DefaultThreadIdKey
	}
	if out.MessageKey == "" {
		out.MessageKey = DefaultMessageKey
	}
	if out.ResponseKey == "" {
		out.ResponseKey = DefaultResponseKey
	}
	return out
}

func (c *Chatbot) FindSession(sessionId string) *ChatSession {
	for _, s := range c.Sessions {
		if s.Id == sessionId {
			return s
		}
	}
	return nil
}
