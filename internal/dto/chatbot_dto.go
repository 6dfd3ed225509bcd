package dto

type CreateChatbotRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type RenameChatbotRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type UpdateSettingsRequest struct {
	WebhookUrl  string `json:"webhookUrl" validate:"omitempty,url"`
	BotIdKey    string `json:"botIdKey"`
	BotIdValue  string `json:"botIdValue"`
	ThreadIdKey string `json:"threadIdKey"`
	MessageKey  string `json:"messageKey"`
	ResponseKey string `json:"responseKey"`
}

type CreateSessionRequest struct {
	Name string `json:"name" validate:"max=255"`
}

type RenameSessionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type SendMessageRequest struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	ChatbotId string               `json:"chatbot_id"`
	SessionId string               `json:"session_id"`
	Session   *ChatSessionResponse `json:"session,omitempty"`
	Sent      *ChatMessageResponse `json:"sent"`
	Reply     *ChatMessageResponse `json:"reply,omitempty"`
	Outcome   string               `json:"outcome,omitempty"`
	// Pending means the reply is still on its way and will appear in the
	// session.
	Pending bool `json:"pending"`
}
