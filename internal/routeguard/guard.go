// Package routeguard decides whether the current page may be shown for the
// current auth state, and schedules the redirect away from protected pages.
package routeguard

import (
	"strings"
	"sync"
	"time"

	"log/slog"

	"dialogues/internal/authstate"
)

// Action is the guard's verdict for a path and auth state.
type Action int

const (
	// ActionNone means the page may be shown as-is.
	ActionNone Action = iota
	// ActionWait means auth state is still resolving; show nothing yet and
	// do not redirect.
	ActionWait
	// ActionWarn means the visitor is not signed in on a protected page: show
	// a warning now and redirect after the configured delay, unless a session
	// arrives first.
	ActionWarn
	// ActionRedirect means the visitor should move to Target immediately.
	ActionRedirect
)

// Decision pairs an Action with its redirect target, when one applies.
type Decision struct {
	Action Action
	Target string
}

// Options configures the guard. Zero values take the application defaults.
type Options struct {
	// RequireAuth treats every page except the auth page as protected,
	// instead of only the ProtectedPrefix subtree.
	RequireAuth bool
	// AuthPath is where unauthenticated visitors are sent.
	AuthPath string
	// HomePath is where signed-in visitors on the auth page are sent.
	HomePath string
	// ProtectedPrefix marks the path subtree that requires a session.
	ProtectedPrefix string
	// WarnDelay is how long the warning shows before the redirect fires.
	WarnDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.AuthPath == "" {
		o.AuthPath = authstate.AuthPath
	}
	if o.HomePath == "" {
		o.HomePath = authstate.HomePath
	}
	if o.ProtectedPrefix == "" {
		o.ProtectedPrefix = authstate.HomePath
	}
	if o.WarnDelay <= 0 {
		o.WarnDelay = 2 * time.Second
	}
	return o
}

// Evaluate is the pure decision rule. While auth state is loading nothing is
// decided; redirects only ever fire from settled state.
func Evaluate(loading bool, signedIn bool, path string, opts Options) Decision {
	opts = opts.withDefaults()

	if loading {
		return Decision{Action: ActionWait}
	}

	if signedIn {
		if path == opts.AuthPath {
			return Decision{Action: ActionRedirect, Target: opts.HomePath}
		}
		return Decision{Action: ActionNone}
	}

	if opts.RequireAuth {
		if path != opts.AuthPath {
			return Decision{Action: ActionWarn, Target: opts.AuthPath}
		}
		return Decision{Action: ActionNone}
	}

	if isProtected(path, opts.ProtectedPrefix) {
		return Decision{Action: ActionWarn, Target: opts.AuthPath}
	}
	return Decision{Action: ActionNone}
}

func isProtected(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// StateSource is the slice of the auth machine the guard observes.
type StateSource interface {
	Snapshot() authstate.Snapshot
	Subscribe(func(authstate.Snapshot)) func()
}

// Guard watches auth state and the navigator, shows a warning for
// unauthenticated visits to protected pages, and performs the delayed
// redirect. The pending redirect is cancelled the moment a session arrives.
type Guard struct {
	source StateSource
	nav    authstate.Navigator
	logger *slog.Logger
	opts   Options

	mu          sync.Mutex
	timer       *time.Timer
	warning     bool
	unsubscribe func()
	closed      bool
}

// New constructs a Guard. Call Start to begin observing.
func New(source StateSource, nav authstate.Navigator, logger *slog.Logger, opts Options) *Guard {
	return &Guard{
		source: source,
		nav:    nav,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Start evaluates the current state and subscribes to further changes.
func (g *Guard) Start() {
	g.mu.Lock()
	g.unsubscribe = g.source.Subscribe(func(snapshot authstate.Snapshot) {
		g.apply(snapshot)
	})
	g.mu.Unlock()

	g.apply(g.source.Snapshot())
}

// Close cancels any pending redirect and stops observing.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	g.cancelTimerLocked()
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

// Recheck re-evaluates the guard for the navigator's current path, e.g. after
// a navigation the guard did not cause.
func (g *Guard) Recheck() {
	g.apply(g.source.Snapshot())
}

// Warning reports whether the access warning is currently showing.
func (g *Guard) Warning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.warning
}

func (g *Guard) apply(snapshot authstate.Snapshot) {
	path := g.nav.CurrentPath()
	decision := Evaluate(snapshot.Loading, snapshot.User != nil, path, g.opts)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}

	switch decision.Action {
	case ActionWarn:
		if g.timer != nil {
			g.mu.Unlock()
			return
		}
		g.warning = true
		target := decision.Target
		g.timer = time.AfterFunc(g.opts.WarnDelay, func() {
			g.redirectExpired(target)
		})
		g.mu.Unlock()
		g.logger.Info("unauthenticated access to protected page", "path", path, "redirect_in", g.opts.WarnDelay)

	case ActionRedirect:
		g.cancelTimerLocked()
		g.warning = false
		g.mu.Unlock()
		g.nav.Navigate(decision.Target)

	default:
		g.cancelTimerLocked()
		g.warning = false
		g.mu.Unlock()
	}
}

// redirectExpired fires when the warning delay elapses without the auth state
// rescuing the visit.
func (g *Guard) redirectExpired(target string) {
	g.mu.Lock()
	if g.closed || g.timer == nil {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.warning = false
	g.mu.Unlock()

	g.nav.Navigate(target)
}

func (g *Guard) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
