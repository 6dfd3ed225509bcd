package dto

import "time"

type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type SignUpResponse struct {
	Session *SessionResponse `json:"session,omitempty"`
	// ConfirmationToken is set when the account must be confirmed before
	// signing in.
	ConfirmationToken string `json:"confirmation_token,omitempty"`
}

type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ConfirmRequest struct {
	Token string `json:"token" validate:"required"`
}

type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	UserId      string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}
