package memory

import (
	"context"
	"errors"
	"sync"

	"chatrelay-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

var ErrIdentityExists = errors.New("identity already exists")

// IdentityRepository is the credential store used when no database is
// configured. Identities never expire and vanish on restart.
type IdentityRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *identity
	if err := r.cache.Add(identity.Username, &c, cache.NoExpiration); err != nil {
		return ErrIdentityExists
	}
	return nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*entity.Identity, error) {
	if x, found := r.cache.Get(username); found {
		c := *x.(*entity.Identity)
		return &c, nil
	}
	return nil, nil
}

func (r *IdentityRepository) MarkConfirmed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.cache.Items() {
		identity := item.Object.(*entity.Identity)
		if identity.Id == id {
			c := *identity
			c.Confirmed = true
			r.cache.Set(key, &c, cache.NoExpiration)
			return nil
		}
	}
	return nil
}
