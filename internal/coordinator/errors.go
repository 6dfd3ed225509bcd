package coordinator

import "errors"

// Local validation errors. They are returned before the tree or the store is
// touched.
var (
	ErrMissingName       = errors.New("Name is required")
	ErrMissingContent    = errors.New("Message cannot be empty")
	ErrInvalidRole       = errors.New("Invalid message role")
	ErrInvalidWebhookURL = errors.New("Webhook URL must be an absolute http or https URL")
	ErrChatbotNotFound   = errors.New("Chatbot not found")
	ErrSessionNotFound   = errors.New("Session not found")
	ErrLastChatbot       = errors.New("You must keep at least one chatbot")
	ErrClosed            = errors.New("Workspace is closed")
	ErrNotLoaded         = errors.New("Workspace is not loaded")
)
