package login

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"internify/internal/authprovider"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/session"
)

type fakeAuth struct {
	mu          sync.Mutex
	session     *authprovider.Session
	visibleFrom int
	reads       int
	block       chan struct{}
	signInErr   error
	signUpRes   session.Result
	submits     int
}

func (f *fakeAuth) GetSession(ctx context.Context) (*authprovider.Session, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.session == nil || f.reads < f.visibleFrom {
		return nil, nil
	}
	return f.session, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (session.Result, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	if f.signInErr != nil {
		return session.Result{}, f.signInErr
	}
	s := &authprovider.Session{AccessToken: "t"}
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
	return session.Result{Session: s}, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (session.Result, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	return f.signUpRes, nil
}

func newController(auth *fakeAuth, router *nav.Router, notes *notify.Recorder) *Controller {
	return New(Deps{
		Auth:           auth,
		Navigator:      router,
		Notifier:       notes,
		CheckTimeout:   50 * time.Millisecond,
		VerifyInterval: time.Millisecond,
	})
}

func TestMountRedirectsExistingSession(t *testing.T) {
	router := nav.NewRouter(nav.Login)
	c := newController(&fakeAuth{session: &authprovider.Session{AccessToken: "t"}}, router, &notify.Recorder{})

	if st := c.Mount(context.Background()); st != Redirecting {
		t.Fatalf("expected Redirecting, got %s", st)
	}
	c.Mount(context.Background())
	if router.Count(nav.Dashboard) != 1 {
		t.Fatalf("expected single redirect, got %v", router.Visits())
	}
	if v := router.Visits()[0]; !v.Full {
		t.Fatal("expected full navigation")
	}
}

func TestMountTimeoutShowsForm(t *testing.T) {
	auth := &fakeAuth{block: make(chan struct{})}
	defer close(auth.block)
	c := newController(auth, nav.NewRouter(nav.Login), &notify.Recorder{})

	if st := c.Mount(context.Background()); st != Form {
		t.Fatalf("expected Form after timeout, got %s", st)
	}
}

func TestSignInVerifiesPersistenceThenRedirects(t *testing.T) {
	auth := &fakeAuth{visibleFrom: 3}
	router := nav.NewRouter(nav.Login)
	notes := &notify.Recorder{}
	c := newController(auth, router, notes)
	c.Mount(context.Background())

	c.SetEmail("a@b.co")
	c.SetPassword("pw")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.State() != Redirecting {
		t.Fatalf("expected Redirecting, got %s", c.State())
	}
	if auth.reads < 3 {
		t.Fatalf("expected polling until session visible, reads=%d", auth.reads)
	}
	if last, _ := notes.Last(); last.Message != "Logged in successfully!" {
		t.Fatalf("unexpected notification %+v", last)
	}
	if router.Count(nav.Dashboard) != 1 {
		t.Fatalf("expected redirect to dashboard, got %v", router.Visits())
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while redirect pending, got %v", err)
	}
}

func TestSignInRedirectsEvenIfPersistenceUnverified(t *testing.T) {
	auth := &fakeAuth{visibleFrom: 1000}
	router := nav.NewRouter(nav.Login)
	c := newController(auth, router, &notify.Recorder{})
	c.Mount(context.Background())

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// One read during mount plus ten verification attempts.
	if auth.reads != 11 {
		t.Fatalf("expected 11 session reads, got %d", auth.reads)
	}
	if router.Count(nav.Dashboard) != 1 {
		t.Fatalf("expected redirect anyway, got %v", router.Visits())
	}
}

func TestSignInErrorShowsProviderMessage(t *testing.T) {
	auth := &fakeAuth{signInErr: &authprovider.Error{Status: 400, Message: "Invalid login credentials"}}
	notes := &notify.Recorder{}
	c := newController(auth, nav.NewRouter(nav.Login), notes)
	c.Mount(context.Background())

	if err := c.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if last, _ := notes.Last(); last.Level != notify.LevelError || last.Message != "Invalid login credentials" {
		t.Fatalf("unexpected notification %+v", last)
	}
	if c.State() != Form {
		t.Fatalf("expected Form, got %s", c.State())
	}
}

func TestSignUpWithoutSessionAwaitsVerification(t *testing.T) {
	auth := &fakeAuth{signUpRes: session.Result{User: authprovider.User{ID: "u2"}}}
	router := nav.NewRouter(nav.Login)
	notes := &notify.Recorder{}
	c := newController(auth, router, notes)
	c.Mount(context.Background())
	c.Toggle()

	if c.Mode() != SignUp {
		t.Fatalf("expected SignUp mode, got %s", c.Mode())
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.State() != VerifyEmail {
		t.Fatalf("expected VerifyEmail, got %s", c.State())
	}
	if last, _ := notes.Last(); last.Level != notify.LevelInfo || last.Message != "Account created! Please check your email for verification." {
		t.Fatalf("unexpected notification %+v", last)
	}
	if len(router.Visits()) != 0 {
		t.Fatalf("expected no navigation, got %v", router.Visits())
	}
}

func TestSignUpWithSessionRedirects(t *testing.T) {
	auth := &fakeAuth{signUpRes: session.Result{Session: &authprovider.Session{AccessToken: "t"}}}
	router := nav.NewRouter(nav.Login)
	c := newController(auth, router, &notify.Recorder{})
	c.Mount(context.Background())
	c.Toggle()

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if router.Count(nav.Dashboard) != 1 {
		t.Fatalf("expected redirect, got %v", router.Visits())
	}
}

func TestToggleClearsFields(t *testing.T) {
	c := newController(&fakeAuth{}, nav.NewRouter(nav.Login), &notify.Recorder{})
	c.Mount(context.Background())
	c.SetEmail("a@b.co")
	c.SetPassword("pw")
	c.Toggle()
	c.Toggle()

	if c.Mode() != SignIn || c.email != "" || c.password != "" {
		t.Fatalf("expected cleared sign-in form, mode=%s email=%q", c.Mode(), c.email)
	}
}

func TestMessage(t *testing.T) {
	if got := message(session.ErrInvalidCredentials); got != "Email and password are required" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := message(errors.New("dial tcp")); got != "An error occurred" {
		t.Fatalf("unexpected message %q", got)
	}
}
