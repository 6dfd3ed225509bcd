package entity

import "time"

type UserProfile struct {
	Id        string
	Username  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
