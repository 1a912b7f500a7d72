package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
)

// IdentityService is the remote collaborator that verifies credentials and
// issues tokens. The one real implementation lives in internal/identity;
// tests substitute a double satisfying the same interface.
type IdentityService interface {
	// Login exchanges credentials for a session.
	// Rejected credentials are reported as ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Register creates a new identity and behaves like Login on success.
	// The requested role is always tenant; the service enforces this too.
	Register(ctx context.Context, profile Profile, password string) (*Session, error)

	// Logout notifies the service that the token should be revoked.
	Logout(ctx context.Context, token string) error

	// Me fetches the current profile for a token.
	// An expired or revoked token is reported as ErrSessionExpired.
	Me(ctx context.Context, token string) (*Identity, error)
}

// Manager owns the single Identity+token pair for the process.
//
// State machine:
//
//	Unauthenticated -> (login/register success) -> Authenticated
//	Authenticated   -> (logout | forced teardown on 401) -> Unauthenticated
//
// Failed logins cause no transition: an existing valid session survives a
// failed re-login attempt.
type Manager struct {
	store  SessionStore
	idp    IdentityService
	logger *logging.Logger

	mu       sync.Mutex
	session  *Session
	ready    bool
	inFlight bool
}

// NewManager creates a session manager. It starts unauthenticated; call
// Initialize once at startup to rehydrate a persisted session.
func NewManager(store SessionStore, idp IdentityService, logger *logging.Logger) *Manager {
	return &Manager{
		store:  store,
		idp:    idp,
		logger: logger.With("component", "session"),
	}
}

// Initialize rehydrates the persisted session, if any. It requires no
// network round trip: the stored identity is trusted as-is until a
// downstream call says otherwise.
//
// The manager is marked ready when Initialize returns, whichever branch
// was taken. A corrupt persisted session is treated as "no session".
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.ready = true }()

	sess, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrCorruptSession) {
			m.logger.Warn("discarding corrupt persisted session", "error", err)
			return nil
		}
		return fmt.Errorf("loading persisted session: %w", err)
	}

	if sess == nil {
		m.logger.Debug("no persisted session")
		return nil
	}

	m.session = sess
	m.logger.Info("session rehydrated",
		"user_id", sess.Identity.ID,
		"role", sess.Identity.Role,
	)
	return nil
}

// Ready reports whether Initialize has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Login authenticates against the identity service and commits the
// resulting session. Validation failures and rejections leave any
// existing session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if !IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}

	release, err := m.beginAttempt()
	if err != nil {
		return err
	}
	defer release()

	sess, err := m.idp.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("login rejected", "email", email, "error", err)
		return fmt.Errorf("login: %w", err)
	}

	return m.commit(ctx, sess)
}

// Register creates a new identity and commits the resulting session.
// New identities are always tenants; role assignment during
// self-registration is not permitted.
func (m *Manager) Register(ctx context.Context, profile Profile, password string) error {
	profile.Email = strings.TrimSpace(profile.Email)
	if !IsValidEmail(profile.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}

	release, err := m.beginAttempt()
	if err != nil {
		return err
	}
	defer release()

	sess, err := m.idp.Register(ctx, profile, password)
	if err != nil {
		m.logger.Info("registration rejected", "email", profile.Email, "error", err)
		return fmt.Errorf("register: %w", err)
	}

	return m.commit(ctx, sess)
}

// Logout tears down the session locally and then notifies the identity
// service best-effort. A failed server notification never blocks or
// undoes the local teardown.
func (m *Manager) Logout(ctx context.Context) error {
	token, err := m.teardown(ctx)
	if err != nil {
		return err
	}

	if token != "" {
		if notifyErr := m.idp.Logout(ctx, token); notifyErr != nil {
			m.logger.Warn("logout notification failed", "error", notifyErr)
		}
	}

	return nil
}

// Invalidate tears down the session without notifying the identity
// service. It is the forced-teardown path for 401-equivalent responses
// observed on any downstream call: the token is already dead, so there
// is nothing to revoke.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.logger.Info("session invalidated by downstream rejection")
	_, err := m.teardown(ctx)
	return err
}

// Refresh re-fetches the profile for the current token and re-persists
// the session. An expired token triggers forced teardown.
func (m *Manager) Refresh(ctx context.Context) error {
	token := m.AuthToken()
	if token == "" {
		return ErrNotAuthenticated
	}

	identity, err := m.idp.Me(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			if tdErr := m.Invalidate(ctx); tdErr != nil {
				m.logger.Warn("teardown after expired refresh failed", "error", tdErr)
			}
			return ErrSessionExpired
		}
		return fmt.Errorf("refreshing profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.Token != token {
		// Session changed while the refresh was in flight; drop the result.
		return nil
	}
	refreshed := &Session{Identity: *identity, Token: token}
	if err := m.store.Save(ctx, refreshed); err != nil {
		return fmt.Errorf("persisting refreshed session: %w", err)
	}
	m.session = refreshed
	return nil
}

// IsAuthenticated reports whether an identity and a non-empty token are
// both currently held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated()
}

// AuthToken returns the current bearer token, or "" when unauthenticated.
func (m *Manager) AuthToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// CurrentIdentity returns a copy of the authenticated identity, or nil.
func (m *Manager) CurrentIdentity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	identity := m.session.Identity
	return &identity
}

// beginAttempt claims the single login/register slot. A second call while
// one attempt is pending fails fast instead of racing: the most recent
// committed result is always the one attempt that ran.
func (m *Manager) beginAttempt() (release func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return nil, ErrAttemptInFlight
	}
	m.inFlight = true

	return func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}, nil
}

// commit validates and persists a session, then publishes it in memory.
// Persistence happens first so a storage failure never leaves memory and
// disk disagreeing about who is signed in.
func (m *Manager) commit(ctx context.Context, sess *Session) error {
	if !sess.Authenticated() {
		return fmt.Errorf("identity service returned a session without a token")
	}
	if !sess.Identity.IsActive {
		return ErrIdentityInactive
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	m.session = sess

	m.logger.Info("session established",
		"user_id", sess.Identity.ID,
		"role", sess.Identity.Role,
	)
	return nil
}

// teardown unconditionally clears the in-memory session and the persisted
// slots, returning the token that was held (for best-effort revocation).
func (m *Manager) teardown(ctx context.Context) (token string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		token = m.session.Token
	}
	m.session = nil

	if err := m.store.Clear(ctx); err != nil {
		return token, fmt.Errorf("clearing persisted session: %w", err)
	}
	return token, nil
}

// SessionAge returns how long ago the identity last logged in, if known.
// Used for display only; it carries no authorisation meaning.
func (m *Manager) SessionAge() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.Identity.LastLogin == nil {
		return 0, false
	}
	return time.Since(*m.session.Identity.LastLogin), true
}
