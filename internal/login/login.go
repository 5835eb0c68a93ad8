// Package login drives the combined sign-in and sign-up page.
package login

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"internify/internal/authprovider"
	"internify/internal/gate"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/session"
	"internify/internal/shared/telemetry"
)

// Mode is the form variant.
type Mode int

const (
	SignIn Mode = iota
	SignUp
)

func (m Mode) String() string {
	if m == SignUp {
		return "sign_up"
	}
	return "sign_in"
}

// State is the page state.
type State int

const (
	Checking State = iota
	Form
	Submitting
	Redirecting
	VerifyEmail
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Form:
		return "form"
	case Submitting:
		return "submitting"
	case Redirecting:
		return "redirecting"
	case VerifyEmail:
		return "verify_email"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a submission is already in flight or a redirect is pending.
var ErrBusy = errors.New("login busy")

// Auth is the session store surface the page uses.
type Auth interface {
	GetSession(ctx context.Context) (*authprovider.Session, error)
	SignIn(ctx context.Context, email, password string) (session.Result, error)
	SignUp(ctx context.Context, email, password string) (session.Result, error)
}

// Deps are the collaborators of a Controller. Zero durations take the defaults.
type Deps struct {
	Auth      Auth
	Navigator nav.Navigator
	Notifier  notify.Notifier

	CheckTimeout   time.Duration
	VerifyAttempts int
	VerifyInterval time.Duration
}

// Controller holds the login page. Safe for concurrent use.
type Controller struct {
	deps  Deps
	mount gate.Once

	mu       sync.Mutex
	state    State
	mode     Mode
	email    string
	password string
}

// New constructs a Controller in Checking.
func New(deps Deps) *Controller {
	if deps.CheckTimeout <= 0 {
		deps.CheckTimeout = 3 * time.Second
	}
	if deps.VerifyAttempts <= 0 {
		deps.VerifyAttempts = 10
	}
	if deps.VerifyInterval <= 0 {
		deps.VerifyInterval = 100 * time.Millisecond
	}
	return &Controller{deps: deps}
}

// Mount checks once for an existing session and leaves for the dashboard if there is one.
// A slow or failing check shows the form.
func (c *Controller) Mount(ctx context.Context) State {
	c.mount.Do(func() {
		if c.hasSession(ctx) {
			c.redirect()
			return
		}
		c.setState(Form)
	})
	return c.State()
}

func (c *Controller) hasSession(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.deps.CheckTimeout)
	defer cancel()

	found := make(chan bool, 1)
	go func() {
		sess, err := c.deps.Auth.GetSession(ctx)
		if err != nil {
			telemetry.Warn("login.session_check_failed", map[string]any{"err": err})
		}
		found <- err == nil && sess != nil
	}()
	select {
	case ok := <-found:
		return ok
	case <-ctx.Done():
		telemetry.Warn("login.session_check_timeout", map[string]any{"timeout": c.deps.CheckTimeout.String()})
		return false
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SetEmail(v string) {
	c.mu.Lock()
	c.email = v
	c.mu.Unlock()
}

func (c *Controller) SetPassword(v string) {
	c.mu.Lock()
	c.password = v
	c.mu.Unlock()
}

// Toggle switches between sign-in and sign-up and clears the fields, unless busy.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting || c.state == Redirecting {
		return
	}
	if c.mode == SignIn {
		c.mode = SignUp
	} else {
		c.mode = SignIn
	}
	c.email, c.password = "", ""
	if c.state == VerifyEmail {
		c.state = Form
	}
}

// Submit signs in or signs up with the entered credentials.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Form && c.state != VerifyEmail {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Submitting
	mode, email, password := c.mode, c.email, c.password
	c.mu.Unlock()

	if mode == SignUp {
		return c.signUp(ctx, email, password)
	}
	return c.signIn(ctx, email, password)
}

func (c *Controller) signIn(ctx context.Context, email, password string) error {
	res, err := c.deps.Auth.SignIn(ctx, email, password)
	if err != nil {
		return c.fail(err)
	}
	if res.Session == nil {
		c.setState(Form)
		return nil
	}

	c.setState(Redirecting)
	c.deps.Notifier.Success("Logged in successfully!")
	c.awaitPersisted(ctx)
	c.deps.Navigator.Replace(nav.Dashboard)
	return nil
}

// awaitPersisted polls until the new session is readable, so the next page does not
// race the write. It gives up silently after the configured attempts.
func (c *Controller) awaitPersisted(ctx context.Context) {
	for i := 0; i < c.deps.VerifyAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.deps.VerifyInterval):
		}
		if sess, err := c.deps.Auth.GetSession(ctx); err == nil && sess != nil {
			return
		}
	}
	telemetry.Warn("login.session_persist_unverified", map[string]any{"attempts": c.deps.VerifyAttempts})
}

func (c *Controller) signUp(ctx context.Context, email, password string) error {
	res, err := c.deps.Auth.SignUp(ctx, email, password)
	if err != nil {
		return c.fail(err)
	}
	if res.Session != nil {
		c.deps.Notifier.Success("Account created! Redirecting...")
		c.redirect()
		return nil
	}
	c.setState(VerifyEmail)
	c.deps.Notifier.Info("Account created! Please check your email for verification.")
	return nil
}

func (c *Controller) fail(err error) error {
	c.setState(Form)
	c.deps.Notifier.Error(message(err))
	return err
}

func (c *Controller) redirect() {
	c.setState(Redirecting)
	c.deps.Navigator.Replace(nav.Dashboard)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func message(err error) string {
	var pe *authprovider.Error
	switch {
	case errors.As(err, &pe) && pe.Message != "":
		return pe.Message
	case errors.Is(err, session.ErrInvalidCredentials):
		msg := session.ErrInvalidCredentials.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	default:
		return "An error occurred"
	}
}
