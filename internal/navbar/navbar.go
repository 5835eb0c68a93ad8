// Package navbar tracks the signed-in identity shown in the navigation bar.
package navbar

import (
	"context"
	"sync"

	"internify/internal/authprovider"
	"internify/internal/nav"
	"internify/internal/session"
	"internify/internal/shared/telemetry"
)

// Sessions is the session store surface the navbar uses.
type Sessions interface {
	GetSession(ctx context.Context) (*authprovider.Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(session.Event), kinds ...session.EventKind) func()
}

// Link is one navigation entry.
type Link struct {
	Route  nav.Route
	Label  string
	Active bool
}

// Bar is the navigation bar model.
type Bar struct {
	sessions  Sessions
	navigator nav.Navigator

	mu   sync.Mutex
	user *authprovider.User
}

func New(sessions Sessions, navigator nav.Navigator) *Bar {
	return &Bar{sessions: sessions, navigator: navigator}
}

// Mount reads the current session and follows sign-in and sign-out events.
// Token refreshes are ignored. The returned func unsubscribes.
func (b *Bar) Mount(ctx context.Context) func() {
	unsubscribe := b.sessions.Subscribe(b.onEvent, session.SignedIn, session.SignedOut)

	sess, err := b.sessions.GetSession(ctx)
	if err != nil {
		telemetry.Warn("navbar.session_read_failed", map[string]any{"err": err})
	}
	if sess != nil {
		b.setUser(&sess.User)
	}
	return unsubscribe
}

func (b *Bar) onEvent(ev session.Event) {
	if ev.Kind == session.SignedOut || ev.Session == nil {
		b.setUser(nil)
		return
	}
	b.setUser(&ev.Session.User)
}

func (b *Bar) setUser(u *authprovider.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u == nil {
		b.user = nil
		return
	}
	cp := *u
	b.user = &cp
}

// User returns the signed-in user, if any.
func (b *Bar) User() (authprovider.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.user == nil {
		return authprovider.User{}, false
	}
	return *b.user, true
}

// Links returns the entries for a signed-in user, none otherwise.
func (b *Bar) Links() []Link {
	if _, ok := b.User(); !ok {
		return nil
	}
	current := b.navigator.Current()
	return []Link{
		{Route: nav.Dashboard, Label: "Dashboard", Active: current == nav.Dashboard},
		{Route: nav.History, Label: "History", Active: current == nav.History},
	}
}

// SignOut ends the session and performs a full navigation to the login page, even
// when part of the sign-out failed.
func (b *Bar) SignOut(ctx context.Context) error {
	err := b.sessions.SignOut(ctx)
	b.navigator.Replace(nav.Login)
	return err
}
