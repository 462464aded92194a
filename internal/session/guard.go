package session

import (
	"context"
	"errors"
	"sync"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/events"
	"havenhub/internal/models"

	"github.com/rs/zerolog"
)

// Landing paths per role; anonymous and plain customers land on the
// room listing.
const (
	PathLogin        = "/login"
	PathAdmin        = "/admin"
	PathManager      = "/manager"
	PathReceptionist = "/reception"
	PathCleaner      = "/cleaner"
	PathRooms        = "/rooms"
)

// AuthBackend is the slice of the backend the guard needs.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Profile(ctx context.Context) (*models.User, error)
}

// Session is the authenticated identity held by the client. It exists
// iff a token is present.
type Session struct {
	Token string
	User  models.User
}

// Guard owns the session singleton and gates access to views. All
// mutation goes through Login/Logout/Restore; everything else is a
// read.
type Guard struct {
	mu      sync.RWMutex
	session *Session

	backend AuthBackend
	store   domain.CredentialStore
	bus     domain.EventPublisher
	logger  *zerolog.Logger
}

func NewGuard(backend AuthBackend, store domain.CredentialStore, bus domain.EventPublisher, logger *zerolog.Logger) *Guard {
	return &Guard{
		backend: backend,
		store:   store,
		bus:     bus,
		logger:  logger,
	}
}

// Token returns the current bearer token, empty when anonymous.
// Wired into the HTTP client as its token source.
func (g *Guard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return ""
	}
	return g.session.Token
}

// Current returns a copy of the active session, nil when anonymous.
func (g *Guard) Current() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil
	}
	copied := *g.session
	return &copied
}

func (g *Guard) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session != nil
}

func (g *Guard) CurrentUser() *models.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil
	}
	user := g.session.User
	return &user
}

// HasRole is false for any role when the session is absent.
func (g *Guard) HasRole(role models.Role) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session != nil && g.session.User.HasRole(role)
}

func (g *Guard) IsAdmin() bool {
	return g.HasRole(models.RoleAdmin)
}

// Login exchanges credentials for a session. On failure the prior
// session, if any, stays untouched.
func (g *Guard) Login(ctx context.Context, email, password string) error {
	result, err := g.backend.Login(ctx, email, password)
	if err != nil {
		g.logger.Warn().Err(err).Str("email", email).Msg("login failed")
		return err
	}

	user := result.User()
	g.mu.Lock()
	g.session = &Session{Token: result.AccessToken, User: user}
	g.mu.Unlock()

	if err := g.store.Save(ctx, result.AccessToken, user); err != nil {
		// Session stays valid in memory; only persistence is degraded.
		g.logger.Error().Err(err).Msg("failed to persist credentials")
	}

	g.logger.Info().Int64("user_id", user.ID).Msg("session started")
	g.publishSession(events.EventSessionStarted, user)
	return nil
}

// Logout clears the persisted credentials and the in-memory session.
// Subsequent requests carry no bearer token.
func (g *Guard) Logout(ctx context.Context) {
	g.mu.Lock()
	had := g.session
	g.session = nil
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear credentials")
	}

	if had != nil {
		g.logger.Info().Int64("user_id", had.User.ID).Msg("session ended")
		g.publishSession(events.EventSessionEnded, had.User)
	}
}

// HandleAuthFailure is the 401 interceptor side effect: the session
// is treated as expired and cleared. Never propagates an error.
func (g *Guard) HandleAuthFailure() {
	g.mu.Lock()
	had := g.session
	g.session = nil
	g.mu.Unlock()

	if had == nil {
		return
	}

	if err := g.store.Clear(context.Background()); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear credentials")
	}

	g.logger.Warn().Int64("user_id", had.User.ID).Msg("session expired")
	g.publishSession(events.EventSessionExpired, had.User)
}

// Restore optimistically rebuilds the session from persisted
// credentials. Corrupt data resets to anonymous; this never fails.
// Callers follow up with Revalidate, typically in a goroutine.
func (g *Guard) Restore(ctx context.Context) bool {
	token, user, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("discarding unreadable persisted session")
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			g.logger.Error().Err(clearErr).Msg("failed to clear credentials")
		}
		return false
	}
	if token == "" || user == nil {
		return false
	}

	g.mu.Lock()
	g.session = &Session{Token: token, User: *user}
	g.mu.Unlock()

	g.logger.Info().Int64("user_id", user.ID).Msg("session restored")
	return true
}

// Revalidate checks a restored session against the backend profile.
// An authentication failure clears the session; network and server
// errors are absorbed so a flaky backend does not log the user out.
func (g *Guard) Revalidate(ctx context.Context) {
	if !g.Authenticated() {
		return
	}

	profile, err := g.backend.Profile(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			// The 401 interceptor has already cleared the session;
			// make sure a direct-wired backend behaves the same.
			g.HandleAuthFailure()
			return
		}
		g.logger.Warn().Err(err).Msg("profile revalidation skipped")
		return
	}

	// Roles come from the token at login time; the profile endpoint
	// refreshes the identity fields only.
	g.mu.Lock()
	if g.session != nil {
		roles := g.session.User.Roles
		g.session.User = *profile
		g.session.User.Roles = roles
	}
	session := g.session
	g.mu.Unlock()

	if session != nil {
		if err := g.store.Save(ctx, session.Token, session.User); err != nil {
			g.logger.Error().Err(err).Msg("failed to persist refreshed identity")
		}
	}
}

// UpdateIdentity propagates a profile edit into the session and the
// persisted copy.
func (g *Guard) UpdateIdentity(ctx context.Context, user models.User) {
	g.mu.Lock()
	if g.session == nil {
		g.mu.Unlock()
		return
	}
	roles := g.session.User.Roles
	g.session.User = user
	if len(user.Roles) == 0 {
		g.session.User.Roles = roles
	}
	session := *g.session
	g.mu.Unlock()

	if err := g.store.Save(ctx, session.Token, session.User); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist identity update")
	}
}
