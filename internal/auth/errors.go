package auth

import "errors"

// User-facing messages; the HTTP layer shows them verbatim.
var (
	ErrMissingFields       = errors.New("Please fill in all fields")
	ErrInvalidCredentials  = errors.New("Invalid username or password")
	ErrUnconfirmed         = errors.New("Please confirm your account before signing in")
	ErrAlreadyRegistered   = errors.New("An account with this username already exists")
	ErrNotAuthenticated    = errors.New("Not authenticated")
	ErrInvalidConfirmation = errors.New("Invalid or expired confirmation token")
)
