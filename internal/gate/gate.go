// Package gate guards protected pages: no page content is reachable until a session
// check has resolved, and a failed check redirects to the login page exactly once.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"internify/internal/authprovider"
	"internify/internal/nav"
	"internify/internal/shared/telemetry"
)

// State is the gate's view of the page.
type State int

const (
	Checking State = iota
	Authorized
	Redirecting
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Redirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// Mode selects how the session is checked.
type Mode int

const (
	// Fast trusts the locally persisted session.
	Fast Mode = iota
	// Validated confirms the token with the auth provider.
	Validated
)

// Checker is the subset of the session store the gate needs.
type Checker interface {
	GetSession(ctx context.Context) (*authprovider.Session, error)
	GetUser(ctx context.Context) (*authprovider.User, error)
}

// Options configures a Gate.
type Options struct {
	Mode Mode
	// Timeout bounds the check; zero means no bound. A timeout fails closed.
	Timeout time.Duration
}

// Gate is a per-mount auth guard.
type Gate struct {
	checker   Checker
	navigator nav.Navigator
	opts      Options

	once  Once
	mu    sync.Mutex
	state State
	user  *authprovider.User
}

// New constructs a Gate in the Checking state.
func New(checker Checker, navigator nav.Navigator, opts Options) *Gate {
	return &Gate{checker: checker, navigator: navigator, opts: opts}
}

// Run performs the check once. onAuthorized runs after the gate opens; it may be nil.
// Later calls return the settled state without side effects.
func (g *Gate) Run(ctx context.Context, onAuthorized func(ctx context.Context, user authprovider.User)) State {
	g.once.Do(func() {
		user, err := g.check(ctx)
		if err != nil || user == nil {
			if err != nil {
				telemetry.Info("gate.check_failed", map[string]any{"err": err})
			}
			g.settle(Redirecting, nil)
			g.navigator.Replace(nav.Login)
			return
		}
		g.settle(Authorized, user)
		if onAuthorized != nil {
			onAuthorized(ctx, *user)
		}
	})
	return g.State()
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// User returns the identity the gate admitted, if any.
func (g *Gate) User() (authprovider.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return authprovider.User{}, false
	}
	return *g.user, true
}

func (g *Gate) settle(s State, user *authprovider.User) {
	g.mu.Lock()
	g.state = s
	g.user = user
	g.mu.Unlock()
}

func (g *Gate) check(ctx context.Context) (*authprovider.User, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	type result struct {
		user *authprovider.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u, err := g.lookup(ctx)
		done <- result{u, err}
	}()

	select {
	case r := <-done:
		return r.user, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gate) lookup(ctx context.Context) (*authprovider.User, error) {
	if g.opts.Mode == Validated {
		u, err := g.checker.GetUser(ctx)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	sess, err := g.checker.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errNoSession
	}
	u := sess.User
	return &u, nil
}

var errNoSession = errors.New("no session")
