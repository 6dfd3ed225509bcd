// Package auth is the local identity provider and the sign-in/sign-out event
// source workspaces subscribe to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	purposeAccess  = "access"
	purposeConfirm = "confirm"

	confirmationTTL = 24 * time.Hour
	publishTimeout  = 2 * time.Second
)

type Config struct {
	Secret              string
	TokenTTL            time.Duration
	EmailDomain         string
	RequireConfirmation bool
	// Origin identifies this instance on the event bus.
	Origin string
}

// SignUpResult carries a session when the account is usable right away, or
// a confirmation token when it must be confirmed first.
type SignUpResult struct {
	Session           *entity.AuthSession
	ConfirmationToken string
}

type Provider struct {
	cfg        Config
	identities IdentityStore
	sessions   SessionStore
	watcher    *Watcher
	publisher  events.Publisher
	logger     logger.ILogger
}

// NewProvider wires the provider. publisher may be nil on single-instance
// deployments.
func NewProvider(cfg Config, identities IdentityStore, sessions SessionStore, watcher *Watcher, publisher events.Publisher, logger logger.ILogger) *Provider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Provider{
		cfg:        cfg,
		identities: identities,
		sessions:   sessions,
		watcher:    watcher,
		publisher:  publisher,
		logger:     logger,
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Email maps a username onto the synthetic address identities are keyed by.
func (p *Provider) Email(username string) string {
	return fmt.Sprintf("%s@%s", normalizeUsername(username), p.cfg.EmailDomain)
}

func (p *Provider) Subscribe(fn func(Event)) func() {
	return p.watcher.Subscribe(fn)
}

func (p *Provider) SignUp(ctx context.Context, username, password string) (*SignUpResult, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	existing, err := p.identities.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	identity := &entity.Identity{
		Id:           uuid.NewString(),
		Username:     username,
		Email:        p.Email(username),
		PasswordHash: string(hash),
		Confirmed:    !p.cfg.RequireConfirmation,
		CreatedAt:    time.Now(),
	}
	if err := p.identities.Create(ctx, identity); err != nil {
		// Lost a race with a concurrent sign-up for the same name.
		if again, findErr := p.identities.FindByUsername(ctx, username); findErr == nil && again != nil {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	p.logger.Info("AuthProvider", "Identity registered", map[string]interface{}{"user_id": identity.Id, "username": username})

	if !identity.Confirmed {
		token, err := p.sign(jwt.MapClaims{
			"user_id": identity.Id,
			"purpose": purposeConfirm,
			"exp":     time.Now().Add(confirmationTTL).Unix(),
		})
		if err != nil {
			return nil, err
		}
		return &SignUpResult{ConfirmationToken: token}, nil
	}

	session, err := p.issue(identity)
	if err != nil {
		return nil, err
	}
	p.watcher.Emit(Event{Type: SignedIn, UserId: identity.Id, Username: identity.Username, Fresh: true})
	return &SignUpResult{Session: session}, nil
}

// Confirm marks the identity named by a confirmation token as confirmed.
func (p *Provider) Confirm(ctx context.Context, confirmationToken string) error {
	claims, err := p.parse(confirmationToken)
	if err != nil || claims["purpose"] != purposeConfirm {
		return ErrInvalidConfirmation
	}
	userId, _ := claims["user_id"].(string)
	if userId == "" {
		return ErrInvalidConfirmation
	}
	return p.identities.MarkConfirmed(ctx, userId)
}

func (p *Provider) SignIn(ctx context.Context, username, password string) (*entity.AuthSession, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	identity, err := p.identities.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !identity.Confirmed {
		return nil, ErrUnconfirmed
	}

	session, err := p.issue(identity)
	if err != nil {
		return nil, err
	}
	p.watcher.Emit(Event{Type: SignedIn, UserId: identity.Id, Username: identity.Username})
	return session, nil
}

// SignOut revokes the session behind accessToken and tells every instance.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	session, err := p.CurrentSession(ctx, accessToken)
	if err != nil {
		return err
	}
	p.sessions.Delete(session.Id)
	p.watcher.Emit(Event{Type: SignedOut, UserId: session.UserId, Username: session.Username})

	if p.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		event := events.New(events.AuthSignedOut, map[string]interface{}{
			"user_id":  session.UserId,
			"username": session.Username,
			"origin":   p.cfg.Origin,
		})
		if err := p.publisher.Publish(pubCtx, event); err != nil {
			p.logger.Warn("AuthProvider", "Failed to publish sign-out", map[string]interface{}{"user_id": session.UserId, "error": err.Error()})
		}
	}
	return nil
}

// CurrentSession resolves a bearer token to its live session.
func (p *Provider) CurrentSession(ctx context.Context, accessToken string) (*entity.AuthSession, error) {
	claims, err := p.parse(accessToken)
	if err != nil || claims["purpose"] != purposeAccess {
		return nil, ErrNotAuthenticated
	}
	sid, _ := claims["sid"].(string)
	session, ok := p.sessions.Get(sid)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

// HandleRemoteSignOut applies a sign-out published by another instance.
func (p *Provider) HandleRemoteSignOut(ctx context.Context, event events.Event) error {
	if events.String(event, "origin") == p.cfg.Origin {
		return nil
	}
	userId := events.String(event, "user_id")
	if userId == "" {
		return errors.New("sign-out event without user_id")
	}
	removed := p.sessions.DeleteByUser(userId)
	p.logger.Info("AuthProvider", "Applied remote sign-out", map[string]interface{}{"user_id": userId, "sessions": removed})
	p.watcher.Emit(Event{Type: SignedOut, UserId: userId, Username: events.String(event, "username")})
	return nil
}

func (p *Provider) issue(identity *entity.Identity) (*entity.AuthSession, error) {
	sid := uuid.NewString()
	expiresAt := time.Now().Add(p.cfg.TokenTTL)

	token, err := p.sign(jwt.MapClaims{
		"user_id":  identity.Id,
		"username": identity.Username,
		"sid":      sid,
		"purpose":  purposeAccess,
		"exp":      expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	session := &entity.AuthSession{
		Id:          sid,
		AccessToken: token,
		UserId:      identity.Id,
		Username:    identity.Username,
		Email:       identity.Email,
		ExpiresAt:   expiresAt,
	}
	p.sessions.Save(session)
	return session, nil
}

func (p *Provider) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.cfg.Secret))
}

func (p *Provider) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrNotAuthenticated
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}
