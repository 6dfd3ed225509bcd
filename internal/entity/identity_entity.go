package entity

import "time"

// Identity is a credential record of the local identity provider. It is
// never part of a workspace tree.
type Identity struct {
	Id           string
	Username     string
	Email        string
	PasswordHash string
	Confirmed    bool
	CreatedAt    time.Time
}
