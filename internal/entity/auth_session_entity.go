package entity

import "time"

// AuthSession is a live sign-in. Id is the "sid" claim of the access token.
type AuthSession struct {
	Id          string
	AccessToken string
	UserId      string
	Username    string
	Email       string
	ExpiresAt   time.Time
}
