package authstate

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"dialogues/internal/backend"
	"dialogues/internal/profiles"
)

type clientStub struct {
	signInFn  func(ctx context.Context, email, password string) error
	signUpFn  func(ctx context.Context, email, password string) (*backend.User, error)
	signOutFn func(ctx context.Context) error
	getUserFn func(ctx context.Context) (*backend.User, error)

	session *backend.Session
	handler backend.AuthChangeHandler
}

func (c *clientStub) SignInWithPassword(ctx context.Context, email, password string) error {
	if c.signInFn == nil {
		return nil
	}
	return c.signInFn(ctx, email, password)
}

func (c *clientStub) SignUp(ctx context.Context, email, password string) (*backend.User, error) {
	if c.signUpFn == nil {
		return &backend.User{ID: uuid.New(), Email: email}, nil
	}
	return c.signUpFn(ctx, email, password)
}

func (c *clientStub) SignOut(ctx context.Context) error {
	if c.signOutFn == nil {
		return nil
	}
	return c.signOutFn(ctx)
}

func (c *clientStub) GetUser(ctx context.Context) (*backend.User, error) {
	if c.getUserFn == nil {
		return nil, nil
	}
	return c.getUserFn(ctx)
}

func (c *clientStub) GetSession() *backend.Session {
	return c.session
}

func (c *clientStub) OnAuthStateChange(handler backend.AuthChangeHandler) func() {
	c.handler = handler
	return func() { c.handler = nil }
}

// emit delivers an auth-state-change synchronously so tests stay deterministic.
func (c *clientStub) emit(event backend.AuthEvent, session *backend.Session) {
	c.session = session
	if c.handler != nil {
		c.handler(event, session)
	}
}

type navigatorStub struct {
	path      string
	navigated []string
}

func (n *navigatorStub) CurrentPath() string { return n.path }

func (n *navigatorStub) Navigate(path string) {
	n.path = path
	n.navigated = append(n.navigated, path)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMachine(client backend.Client, store backend.ProfileStore, nav *navigatorStub) *Machine {
	if nav.path == "" {
		nav.path = AuthPath
	}
	return New(client, store, nav, testLogger())
}

func TestInitWithoutSession(t *testing.T) {
	client := &clientStub{}
	machine := newTestMachine(client, &profileStoreStub{}, &navigatorStub{})
	defer machine.Close()

	machine.Init(context.Background())

	snapshot := machine.Snapshot()
	if snapshot.Loading {
		t.Error("loading should be false after init")
	}
	if snapshot.User != nil {
		t.Errorf("user = %v, want nil", snapshot.User)
	}
	if client.handler == nil {
		t.Error("init should subscribe to auth-state changes")
	}
}

func TestInitRestoresSessionAndProfile(t *testing.T) {
	userID := uuid.New()
	client := &clientStub{
		getUserFn: func(context.Context) (*backend.User, error) {
			return &backend.User{ID: userID, Email: "river@example.com"}, nil
		},
		session: &backend.Session{User: backend.User{ID: userID, Email: "river@example.com"}},
	}
	store := &profileStoreStub{
		findByUserIDFn: func(_ context.Context, id uuid.UUID) (*profiles.Profile, error) {
			if id != userID {
				t.Errorf("fetched profile for %v, want %v", id, userID)
			}
			return &profiles.Profile{ID: 1, UserID: id, Username: "river"}, nil
		},
	}
	machine := newTestMachine(client, store, &navigatorStub{})
	defer machine.Close()

	machine.Init(context.Background())

	snapshot := machine.Snapshot()
	if snapshot.User == nil || snapshot.User.ID != userID {
		t.Fatalf("user = %v, want id %v", snapshot.User, userID)
	}
	if snapshot.Profile == nil || snapshot.Profile.Username != "river" {
		t.Errorf("profile = %v, want username river", snapshot.Profile)
	}
}

func TestSignInDoesNotAssignSession(t *testing.T) {
	client := &clientStub{}
	machine := newTestMachine(client, &profileStoreStub{}, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	if err := machine.SignIn(context.Background(), "river@example.com", "sekrit123"); err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	snapshot := machine.Snapshot()
	if snapshot.Session != nil {
		t.Error("sign in must not assign the session directly")
	}
	if !snapshot.Loading {
		t.Error("loading should stay true until the auth-state change lands")
	}

	// The subscription delivers the session.
	userID := uuid.New()
	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID, Email: "river@example.com"}})

	snapshot = machine.Snapshot()
	if snapshot.Session == nil || snapshot.User.ID != userID {
		t.Fatalf("session not applied from auth-state change: %+v", snapshot)
	}
	if snapshot.Loading {
		t.Error("loading should clear once the session lands")
	}
}

func TestSignInFailure(t *testing.T) {
	client := &clientStub{
		signInFn: func(context.Context, string, string) error {
			return errors.New("invalid credentials")
		},
	}
	machine := newTestMachine(client, &profileStoreStub{}, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	err := machine.SignIn(context.Background(), "river@example.com", "wrong")
	if !IsKind(err, KindSignIn) {
		t.Fatalf("error = %v, want kind %s", err, KindSignIn)
	}

	snapshot := machine.Snapshot()
	if snapshot.Loading {
		t.Error("loading should clear on failure")
	}
	if snapshot.Err == nil || snapshot.Err.Kind != KindSignIn {
		t.Errorf("stored error = %v, want kind %s", snapshot.Err, KindSignIn)
	}
}

func TestSignUpUsesEmailLocalPart(t *testing.T) {
	var inserted *profiles.Profile
	store := &profileStoreStub{
		insertFn: func(_ context.Context, profile profiles.Profile) (profiles.Profile, error) {
			profile.ID = 1
			inserted = &profile
			return profile, nil
		},
	}
	nav := &navigatorStub{}
	client := &clientStub{}
	machine := newTestMachine(client, store, nav)
	defer machine.Close()
	machine.Init(context.Background())

	profile, err := machine.SignUp(context.Background(), "river@example.com", "sekrit123")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if profile.Username != "river" {
		t.Errorf("username = %q, want %q", profile.Username, "river")
	}
	if inserted == nil || inserted.Username != "river" {
		t.Errorf("inserted profile = %v, want username river", inserted)
	}

	// SignUp itself does not navigate; the redirect lands with the session
	// event, keeping the subscription the only redirect writer.
	if len(nav.navigated) != 0 {
		t.Errorf("navigations = %v, want none before the session event", nav.navigated)
	}
	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: profile.UserID}})
	if nav.path != HomePath {
		t.Errorf("path = %q, want %q", nav.path, HomePath)
	}
}

func TestSignUpSuffixesOnCollision(t *testing.T) {
	store := &profileStoreStub{
		findByUsernameFn: func(_ context.Context, username string) (*profiles.Profile, error) {
			if username == "river" {
				return &profiles.Profile{Username: "river"}, nil
			}
			return nil, nil
		},
	}
	machine := newTestMachine(&clientStub{}, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	profile, err := machine.SignUp(context.Background(), "river@example.com", "sekrit123")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if profile.Username != "river1" {
		t.Errorf("username = %q, want %q", profile.Username, "river1")
	}
}

func TestSignUpIdempotentWhenProfileExists(t *testing.T) {
	userID := uuid.New()
	existing := &profiles.Profile{ID: 7, UserID: userID, Username: "river"}
	inserts := 0
	store := &profileStoreStub{
		findByUserIDFn: func(context.Context, uuid.UUID) (*profiles.Profile, error) {
			return existing, nil
		},
		insertFn: func(_ context.Context, profile profiles.Profile) (profiles.Profile, error) {
			inserts++
			return profile, nil
		},
	}
	client := &clientStub{
		signUpFn: func(_ context.Context, email, _ string) (*backend.User, error) {
			return &backend.User{ID: userID, Email: email}, nil
		},
	}
	machine := newTestMachine(client, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	profile, err := machine.SignUp(context.Background(), "river@example.com", "sekrit123")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if profile.ID != existing.ID {
		t.Errorf("profile = %v, want the existing row", profile)
	}
	if inserts != 0 {
		t.Errorf("inserts = %d, want 0 for an existing profile", inserts)
	}
}

func TestSignUpUsernameExhausted(t *testing.T) {
	store := &profileStoreStub{
		findByUsernameFn: func(_ context.Context, username string) (*profiles.Profile, error) {
			return &profiles.Profile{Username: username}, nil
		},
	}
	machine := newTestMachine(&clientStub{}, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	_, err := machine.SignUp(context.Background(), "river@example.com", "sekrit123")
	if !IsKind(err, KindUsernameExhausted) {
		t.Fatalf("error = %v, want kind %s", err, KindUsernameExhausted)
	}
}

func TestSignUpAccountCreationFailure(t *testing.T) {
	client := &clientStub{
		signUpFn: func(context.Context, string, string) (*backend.User, error) {
			return nil, errors.New("email already registered")
		},
	}
	machine := newTestMachine(client, &profileStoreStub{}, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	_, err := machine.SignUp(context.Background(), "river@example.com", "sekrit123")
	if !IsKind(err, KindSignUp) {
		t.Fatalf("error = %v, want kind %s", err, KindSignUp)
	}
}

func TestSignOutClearsState(t *testing.T) {
	userID := uuid.New()
	client := &clientStub{}
	nav := &navigatorStub{path: HomePath}
	machine := newTestMachine(client, &profileStoreStub{}, nav)
	defer machine.Close()
	machine.Init(context.Background())

	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}})

	if err := machine.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}

	snapshot := machine.Snapshot()
	if snapshot.Session != nil || snapshot.Profile != nil {
		t.Errorf("state not cleared: %+v", snapshot)
	}
	if nav.path != AuthPath {
		t.Errorf("path = %q, want %q", nav.path, AuthPath)
	}
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	userID := uuid.New()
	client := &clientStub{
		signOutFn: func(context.Context) error {
			return errors.New("backend unreachable")
		},
	}
	nav := &navigatorStub{path: HomePath}
	machine := newTestMachine(client, &profileStoreStub{}, nav)
	defer machine.Close()
	machine.Init(context.Background())

	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}})

	err := machine.SignOut(context.Background())
	if !IsKind(err, KindSignOut) {
		t.Fatalf("error = %v, want kind %s", err, KindSignOut)
	}

	snapshot := machine.Snapshot()
	if snapshot.Session == nil {
		t.Error("session must survive a failed sign out so it can be retried")
	}
	if nav.path != HomePath {
		t.Errorf("path = %q, want unchanged %q", nav.path, HomePath)
	}
}

func TestUpdateProfileWithoutSession(t *testing.T) {
	calls := 0
	store := &profileStoreStub{
		updateFn: func(context.Context, uuid.UUID, profiles.Update) error {
			calls++
			return nil
		},
	}
	machine := newTestMachine(&clientStub{}, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	bio := "hello"
	err := machine.UpdateProfile(context.Background(), profiles.Update{Bio: &bio})
	if !IsKind(err, KindNoAuthenticatedUser) {
		t.Fatalf("error = %v, want kind %s", err, KindNoAuthenticatedUser)
	}
	if calls != 0 {
		t.Errorf("store calls = %d, want 0 without a session", calls)
	}
}

func TestUpdateProfileRefetchesRow(t *testing.T) {
	userID := uuid.New()
	bio := "updated bio"
	store := &profileStoreStub{
		findByUserIDFn: func(context.Context, uuid.UUID) (*profiles.Profile, error) {
			return &profiles.Profile{ID: 1, UserID: userID, Username: "river", Bio: bio}, nil
		},
	}
	client := &clientStub{}
	machine := newTestMachine(client, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}})

	if err := machine.UpdateProfile(context.Background(), profiles.Update{Bio: &bio}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	snapshot := machine.Snapshot()
	if snapshot.Profile == nil || snapshot.Profile.Bio != bio {
		t.Errorf("profile = %v, want refreshed bio", snapshot.Profile)
	}
}

func TestUpdateProfileUsernameConflict(t *testing.T) {
	userID := uuid.New()
	store := &profileStoreStub{
		updateFn: func(context.Context, uuid.UUID, profiles.Update) error {
			return profiles.ErrUsernameTaken
		},
	}
	client := &clientStub{}
	machine := newTestMachine(client, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}})

	name := "taken"
	err := machine.UpdateProfile(context.Background(), profiles.Update{Username: &name})
	if !IsKind(err, KindProfileUpdate) {
		t.Fatalf("error = %v, want kind %s", err, KindProfileUpdate)
	}
	if !errors.Is(err, profiles.ErrUsernameTaken) {
		t.Errorf("error should wrap the conflict cause, got %v", err)
	}
}

func TestAuthChangeRedirects(t *testing.T) {
	t.Run("signed in on auth page goes home", func(t *testing.T) {
		client := &clientStub{}
		nav := &navigatorStub{path: AuthPath}
		machine := newTestMachine(client, &profileStoreStub{}, nav)
		defer machine.Close()
		machine.Init(context.Background())

		client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: uuid.New()}})

		if nav.path != HomePath {
			t.Errorf("path = %q, want %q", nav.path, HomePath)
		}
	})

	t.Run("signed out elsewhere returns to auth page", func(t *testing.T) {
		client := &clientStub{}
		nav := &navigatorStub{path: HomePath}
		machine := newTestMachine(client, &profileStoreStub{}, nav)
		defer machine.Close()
		machine.Init(context.Background())

		client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: uuid.New()}})
		client.emit(backend.EventSignedOut, nil)

		if nav.path != AuthPath {
			t.Errorf("path = %q, want %q", nav.path, AuthPath)
		}
	})

	t.Run("signed out on landing page stays put", func(t *testing.T) {
		client := &clientStub{}
		nav := &navigatorStub{path: RootPath}
		machine := newTestMachine(client, &profileStoreStub{}, nav)
		defer machine.Close()
		machine.Init(context.Background())

		client.emit(backend.EventSignedOut, nil)

		if len(nav.navigated) != 0 {
			t.Errorf("navigations = %v, want none", nav.navigated)
		}
	})
}

func TestProfileFetchFailureClearsProfile(t *testing.T) {
	userID := uuid.New()
	fail := false
	store := &profileStoreStub{
		findByUserIDFn: func(context.Context, uuid.UUID) (*profiles.Profile, error) {
			if fail {
				return nil, errors.New("store down")
			}
			return &profiles.Profile{ID: 1, UserID: userID, Username: "river"}, nil
		},
	}
	client := &clientStub{}
	machine := newTestMachine(client, store, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}})
	if machine.Snapshot().Profile == nil {
		t.Fatal("profile should load on sign in")
	}

	fail = true
	client.emit(backend.EventSignedIn, &backend.Session{User: backend.User{ID: userID}, ExpiresAt: time.Now().Add(time.Hour)})

	snapshot := machine.Snapshot()
	if snapshot.Profile != nil {
		t.Error("profile should clear when the fetch fails")
	}
	if snapshot.Err == nil || snapshot.Err.Kind != KindProfileFetch {
		t.Errorf("stored error = %v, want kind %s", snapshot.Err, KindProfileFetch)
	}
}

func TestSubscribeAndResetError(t *testing.T) {
	client := &clientStub{
		signInFn: func(context.Context, string, string) error {
			return errors.New("nope")
		},
	}
	machine := newTestMachine(client, &profileStoreStub{}, &navigatorStub{})
	defer machine.Close()
	machine.Init(context.Background())

	var last Snapshot
	notifications := 0
	cancel := machine.Subscribe(func(s Snapshot) {
		last = s
		notifications++
	})

	_ = machine.SignIn(context.Background(), "river@example.com", "wrong")
	if last.Err == nil {
		t.Fatal("listener should observe the sign-in error")
	}

	machine.ResetError()
	if last.Err != nil {
		t.Error("listener should observe the cleared error")
	}

	seen := notifications
	cancel()
	machine.ResetError()
	if notifications != seen {
		t.Error("cancelled listener must not be notified")
	}
}
