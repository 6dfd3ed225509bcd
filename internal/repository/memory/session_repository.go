package memory

import (
	"time"

	"chatrelay-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live auth sessions. Entries expire with their
// access token.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.AuthSession) {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(session.Id, session, ttl)
}

func (r *SessionRepository) Get(sessionID string) (*entity.AuthSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.AuthSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// DeleteByUser drops every session of a user and reports how many were live.
func (r *SessionRepository) DeleteByUser(userID string) int {
	removed := 0
	for key, item := range r.cache.Items() {
		if s, ok := item.Object.(*entity.AuthSession); ok && s.UserId == userID {
			r.cache.Delete(key)
			removed++
		}
	}
	return removed
}
