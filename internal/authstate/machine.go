// Package authstate owns the client-side authentication state: the current
// session, its profile, a loading flag, and the last auth error. All session
// transitions flow through the backend's auth-state-change subscription so
// there is a single writer for "is authenticated".
package authstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"dialogues/internal/backend"
	"dialogues/internal/profiles"
)

// authChangeTimeout bounds the profile fetch triggered by an asynchronous
// auth-state-change notification, which arrives without a caller context.
const authChangeTimeout = 10 * time.Second

// Snapshot is an immutable view of the machine's state handed to consumers.
type Snapshot struct {
	Session *backend.Session
	User    *backend.User
	Profile *profiles.Profile
	Loading bool
	Err     *Error
}

// Machine orchestrates sign-in, sign-up, sign-out, and profile sync against
// the backend client. Construct with New, start with Init, release with Close.
type Machine struct {
	client backend.Client
	store  backend.ProfileStore
	nav    Navigator
	logger *slog.Logger

	maxUsernameAttempts int

	mu          sync.Mutex
	session     *backend.Session
	profile     *profiles.Profile
	loading     bool
	lastErr     *Error
	listeners   map[int]func(Snapshot)
	nextID      int
	unsubscribe func()
}

// Option configures the Machine during construction.
type Option func(*Machine)

// WithMaxUsernameAttempts overrides the username allocator's probe bound.
func WithMaxUsernameAttempts(n int) Option {
	return func(m *Machine) {
		m.maxUsernameAttempts = n
	}
}

// New constructs a Machine. The initial state is loading until Init's startup
// probe resolves.
func New(client backend.Client, store backend.ProfileStore, nav Navigator, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		client:              client,
		store:               store,
		nav:                 nav,
		logger:              logger,
		maxUsernameAttempts: DefaultMaxUsernameAttempts,
		loading:             true,
		listeners:           make(map[int]func(Snapshot)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init probes the backend for an existing session, fetches its profile, and
// subscribes to auth-state-change notifications. Call exactly once.
func (m *Machine) Init(ctx context.Context) {
	user, err := m.client.GetUser(ctx)
	if err != nil {
		m.logger.Error("startup session probe failed", "error", err)
	}

	if user != nil {
		m.mu.Lock()
		m.session = m.client.GetSession()
		m.mu.Unlock()
		m.fetchProfile(ctx, user.ID)
	}

	m.mu.Lock()
	m.loading = false
	m.unsubscribe = m.client.OnAuthStateChange(m.handleAuthChange)
	m.mu.Unlock()

	m.notify()
}

// Close tears down the auth-state-change subscription.
func (m *Machine) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a listener invoked after every state change. The
// returned function cancels the subscription.
func (m *Machine) Subscribe(listener func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners[id] = listener

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SignIn delegates credential verification to the backend. It never assigns
// the session itself: on success the session arrives through the
// auth-state-change subscription, which also clears the loading flag.
func (m *Machine) SignIn(ctx context.Context, email, password string) error {
	m.setLoading(true)

	if err := m.client.SignInWithPassword(ctx, email, password); err != nil {
		authErr := newError(KindSignIn, "sign in failed", err)
		m.recordError(authErr)
		m.logger.Warn("sign in failed", "email", email, "error", err)
		return authErr
	}

	return nil
}

// SignUp creates an account, allocates a unique username from the email's
// local part, and provisions the profile row. If a profile already exists for
// the new user id the call is idempotent and returns it unchanged — a
// previous sign-up may have been interrupted between account creation and
// profile insertion, and that is recoverable state, not corruption.
func (m *Machine) SignUp(ctx context.Context, email, password string) (*profiles.Profile, error) {
	m.setLoading(true)

	user, err := m.client.SignUp(ctx, email, password)
	if err != nil {
		authErr := newError(KindSignUp, "sign up failed", err)
		m.recordError(authErr)
		return nil, authErr
	}

	base, _, _ := strings.Cut(email, "@")

	username, err := AllocateUsername(ctx, m.store, base, m.maxUsernameAttempts)
	if err != nil {
		kind := KindSignUp
		if errors.Is(err, ErrUsernameExhausted) {
			kind = KindUsernameExhausted
		}
		authErr := newError(kind, "could not allocate a username", err)
		m.recordError(authErr)
		return nil, authErr
	}

	existing, err := m.store.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		authErr := newError(KindSignUp, "could not check for an existing profile", err)
		m.recordError(authErr)
		return nil, authErr
	}
	if existing != nil {
		m.setProfile(existing)
		return existing, nil
	}

	created, err := m.store.InsertProfile(ctx, profiles.Profile{
		UserID:    user.ID,
		Username:  username,
		CreatedAt: time.Now(),
	})
	if err != nil {
		// A uniqueness violation here means the allocator's probe raced
		// another sign-up; the insert-time check wins.
		authErr := newError(KindSignUp, "could not create profile", err)
		m.recordError(authErr)
		return nil, authErr
	}

	m.setProfile(&created)
	// The redirect off the auth page is left to the auth-state-change
	// handler, which also carries the sign-up session.
	return &created, nil
}

// SignOut revokes the session with the backend, then clears local state and
// returns the user to the authentication surface. If the backend cannot
// confirm the revocation, local state is kept so the operation can be retried.
func (m *Machine) SignOut(ctx context.Context) error {
	m.setLoading(true)

	if err := m.client.SignOut(ctx); err != nil {
		authErr := newError(KindSignOut, "sign out failed", err)
		m.recordError(authErr)
		return authErr
	}

	m.mu.Lock()
	m.session = nil
	m.profile = nil
	m.loading = false
	m.lastErr = nil
	m.mu.Unlock()

	m.nav.Navigate(AuthPath)
	m.notify()
	return nil
}

// UpdateProfile applies a partial update to the signed-in user's profile and
// re-reads the stored row rather than merging locally, so state never drifts
// from the backend. Without a session it fails fast and no backend call is made.
func (m *Machine) UpdateProfile(ctx context.Context, update profiles.Update) error {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	if session == nil {
		authErr := newError(KindNoAuthenticatedUser, "no authenticated user", nil)
		m.recordError(authErr)
		return authErr
	}

	if err := m.store.UpdateProfile(ctx, session.User.ID, update); err != nil {
		authErr := newError(KindProfileUpdate, "profile update failed", err)
		m.recordError(authErr)
		return authErr
	}

	if err := m.fetchProfile(ctx, session.User.ID); err != nil {
		return err
	}

	m.notify()
	return nil
}

// ResetError clears the stored error, e.g. when the user dismisses a banner.
func (m *Machine) ResetError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()
}

// fetchProfile loads at most one profile row for the user. Absence is a valid
// "no profile yet" state; any other failure clears the local profile and
// records a profile-fetch error.
func (m *Machine) fetchProfile(ctx context.Context, userID uuid.UUID) error {
	profile, err := m.store.FindProfileByUserID(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.profile = nil
		authErr := newError(KindProfileFetch, "could not load profile", err)
		m.lastErr = authErr
		m.logger.Error("profile fetch failed", "user_id", userID, "error", err)
		return authErr
	}

	m.profile = profile
	return nil
}

// handleAuthChange is the single writer for session transitions. The backend
// invokes it asynchronously; its delivery may land after the triggering
// operation has already returned.
func (m *Machine) handleAuthChange(event backend.AuthEvent, session *backend.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), authChangeTimeout)
	defer cancel()

	m.logger.Debug("auth state changed", "event", string(event), "has_session", session != nil)

	m.mu.Lock()
	m.session = session
	m.loading = false
	if session == nil {
		m.profile = nil
	}
	m.mu.Unlock()

	if session != nil {
		_ = m.fetchProfile(ctx, session.User.ID)
		if m.nav.CurrentPath() == AuthPath {
			m.nav.Navigate(HomePath)
		}
	} else if m.nav.CurrentPath() != RootPath {
		m.nav.Navigate(AuthPath)
	}

	m.notify()
}

func (m *Machine) setLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) setProfile(profile *profiles.Profile) {
	m.mu.Lock()
	m.profile = profile
	m.loading = false
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) recordError(authErr *Error) {
	m.mu.Lock()
	m.lastErr = authErr
	m.loading = false
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Loading: m.loading,
		Err:     m.lastErr,
	}
	if m.session != nil {
		session := *m.session
		snapshot.Session = &session
		user := session.User
		snapshot.User = &user
	}
	if m.profile != nil {
		profile := *m.profile
		snapshot.Profile = &profile
	}
	return snapshot
}

// notify calls listeners outside the lock; a listener may call back into the
// machine.
func (m *Machine) notify() {
	m.mu.Lock()
	snapshot := m.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
