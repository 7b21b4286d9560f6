package routeguard

import (
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"dialogues/internal/authstate"
	"dialogues/internal/backend"
)

type stateSourceStub struct {
	mu        sync.Mutex
	snapshot  authstate.Snapshot
	listeners []func(authstate.Snapshot)
}

func (s *stateSourceStub) Snapshot() authstate.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *stateSourceStub) Subscribe(listener func(authstate.Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
	return func() {}
}

func (s *stateSourceStub) set(snapshot authstate.Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	listeners := append([]func(authstate.Snapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

type navStub struct {
	mu        sync.Mutex
	path      string
	navigated []string
}

func (n *navStub) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *navStub) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.navigated = append(n.navigated, path)
}

func (n *navStub) history() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.navigated...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		loading     bool
		signedIn    bool
		requireAuth bool
		path        string
		wantAction  Action
		wantTarget  string
	}{
		{"loading waits on protected path", true, false, false, "/dialogues", ActionWait, ""},
		{"loading waits on auth path", true, true, false, "/authentication", ActionWait, ""},
		{"visitor on landing page passes", false, false, false, "/", ActionNone, ""},
		{"visitor on auth page passes", false, false, false, "/authentication", ActionNone, ""},
		{"visitor on protected page warns", false, false, false, "/dialogues", ActionWarn, "/authentication"},
		{"visitor on protected subpage warns", false, false, false, "/dialogues/settings", ActionWarn, "/authentication"},
		{"prefix match requires a path boundary", false, false, false, "/dialoguesarchive", ActionNone, ""},
		{"member on protected page passes", false, true, false, "/dialogues", ActionNone, ""},
		{"member on auth page goes home", false, true, false, "/authentication", ActionRedirect, "/dialogues"},
		{"require-auth protects the landing page", false, false, true, "/", ActionWarn, "/authentication"},
		{"require-auth protects unlisted paths", false, false, true, "/about", ActionWarn, "/authentication"},
		{"require-auth leaves the auth page reachable", false, false, true, "/authentication", ActionNone, ""},
		{"require-auth passes members everywhere", false, true, true, "/about", ActionNone, ""},
		{"require-auth still waits while loading", true, false, true, "/", ActionWait, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.loading, tt.signedIn, tt.path, Options{RequireAuth: tt.requireAuth})
			if got.Action != tt.wantAction {
				t.Errorf("action = %v, want %v", got.Action, tt.wantAction)
			}
			if got.Target != tt.wantTarget {
				t.Errorf("target = %q, want %q", got.Target, tt.wantTarget)
			}
		})
	}
}

func TestGuardDelayedRedirect(t *testing.T) {
	source := &stateSourceStub{snapshot: authstate.Snapshot{Loading: false}}
	nav := &navStub{path: "/dialogues/settings"}
	guard := New(source, nav, testLogger(), Options{WarnDelay: 20 * time.Millisecond})
	defer guard.Close()

	guard.Start()

	if !guard.Warning() {
		t.Fatal("warning should show before the redirect fires")
	}
	if len(nav.history()) != 0 {
		t.Fatalf("navigated %v before the delay elapsed", nav.history())
	}

	deadline := time.After(time.Second)
	for nav.CurrentPath() != "/authentication" {
		select {
		case <-deadline:
			t.Fatal("redirect never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if guard.Warning() {
		t.Error("warning should clear once the redirect fires")
	}
}

func TestGuardCancelsRedirectOnSignIn(t *testing.T) {
	source := &stateSourceStub{snapshot: authstate.Snapshot{Loading: false}}
	nav := &navStub{path: "/dialogues"}
	guard := New(source, nav, testLogger(), Options{WarnDelay: 30 * time.Millisecond})
	defer guard.Close()

	guard.Start()
	if !guard.Warning() {
		t.Fatal("warning should show for the unauthenticated visit")
	}

	// A session arrives before the delay elapses.
	source.set(authstate.Snapshot{User: &backend.User{Email: "river@example.com"}})

	if guard.Warning() {
		t.Error("warning should clear when a session arrives")
	}

	time.Sleep(60 * time.Millisecond)
	if got := nav.history(); len(got) != 0 {
		t.Errorf("navigated %v, want no redirect after cancellation", got)
	}
}

func TestGuardWaitsWhileLoading(t *testing.T) {
	source := &stateSourceStub{snapshot: authstate.Snapshot{Loading: true}}
	nav := &navStub{path: "/dialogues"}
	guard := New(source, nav, testLogger(), Options{WarnDelay: 10 * time.Millisecond})
	defer guard.Close()

	guard.Start()

	if guard.Warning() {
		t.Error("no warning while auth state is loading")
	}
	time.Sleep(30 * time.Millisecond)
	if got := nav.history(); len(got) != 0 {
		t.Errorf("navigated %v, want none while loading", got)
	}
}

func TestGuardRedirectsMemberOffAuthPage(t *testing.T) {
	source := &stateSourceStub{snapshot: authstate.Snapshot{User: &backend.User{Email: "river@example.com"}}}
	nav := &navStub{path: "/authentication"}
	guard := New(source, nav, testLogger(), Options{})
	defer guard.Close()

	guard.Start()

	if nav.CurrentPath() != "/dialogues" {
		t.Errorf("path = %q, want %q", nav.CurrentPath(), "/dialogues")
	}
}

func TestGuardCloseCancelsPendingRedirect(t *testing.T) {
	source := &stateSourceStub{snapshot: authstate.Snapshot{}}
	nav := &navStub{path: "/dialogues"}
	guard := New(source, nav, testLogger(), Options{WarnDelay: 20 * time.Millisecond})

	guard.Start()
	guard.Close()

	time.Sleep(50 * time.Millisecond)
	if got := nav.history(); len(got) != 0 {
		t.Errorf("navigated %v, want none after close", got)
	}
}
