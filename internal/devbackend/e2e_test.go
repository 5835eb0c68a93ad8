package devbackend_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"internify/internal/api"
	"internify/internal/authprovider"
	"internify/internal/compose"
	"internify/internal/dashboard"
	"internify/internal/devbackend"
	"internify/internal/extract"
	"internify/internal/history"
	"internify/internal/localstore"
	"internify/internal/login"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/session"
	"internify/internal/transient"
)

type harness struct {
	sessions *session.Store
	handoff  *transient.Store
	client   *api.Client
	router   *nav.Router
	notes    *notify.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := devbackend.New(devbackend.Options{
		AnonKey:     "anon",
		AutoConfirm: true,
		BcryptCost:  bcrypt.MinCost,
		Extractor: extract.ExtractorFunc(func(ctx context.Context, data []byte) (string, error) {
			return "Computer science student. Go, PostgreSQL, Docker.", nil
		}),
	})
	if err != nil {
		t.Fatalf("devbackend.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	state := localstore.NewMemoryStore()
	handoff := transient.New(state)
	sessions := session.New(authprovider.NewClient(ts.URL, "anon", 5*time.Second), state, handoff)
	router := nav.NewRouter(nav.Login)
	client, err := api.New(ts.URL, api.WithSessions(sessions), api.WithNavigator(router), api.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return &harness{sessions: sessions, handoff: handoff, client: client, router: router, notes: &notify.Recorder{}}
}

func TestOutreachFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	page := login.New(login.Deps{Auth: h.sessions, Navigator: h.router, Notifier: h.notes, VerifyInterval: time.Millisecond})
	if got := page.Mount(ctx); got != login.Form {
		t.Fatalf("expected login form without a session, got %v", got)
	}
	page.Toggle()
	page.SetEmail("student@example.com")
	page.SetPassword("secret123")
	if err := page.Submit(ctx); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if h.router.Current() != nav.Dashboard {
		t.Fatalf("expected dashboard after sign-up, got %v", h.router.Current())
	}

	dash := dashboard.New(dashboard.Deps{
		Sessions:  h.sessions,
		Resumes:   h.client.Resumes,
		Postings:  h.client.Postings,
		Handoff:   h.handoff,
		Navigator: h.router,
		Notifier:  h.notes,
	})
	if got := dash.Mount(ctx); got != dashboard.Idle {
		t.Fatalf("expected idle dashboard, got %v", got)
	}
	if dash.View().Resume != nil {
		t.Fatal("expected no resume before upload")
	}

	if err := dash.Upload(ctx, dashboard.File{Name: "resume.pdf", Body: strings.NewReader("%PDF-1.4\n%resume body")}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	resume := dash.View().Resume
	if resume == nil || !strings.HasPrefix(resume.FileName(), "resume_") {
		t.Fatalf("expected uploaded resume in view, got %+v", resume)
	}

	results, err := dash.Search(ctx, "software engineer")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two postings, got %d", len(results))
	}
	if err := dash.Select(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := dash.Continue(ctx); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if h.router.Current() != nav.EmailPreview {
		t.Fatalf("expected email preview, got %v", h.router.Current())
	}

	preview := compose.New(compose.Deps{
		Sessions:  h.sessions,
		LLM:       h.client.LLM,
		Emails:    h.client.Emails,
		Handoff:   h.handoff,
		Navigator: h.router,
		Notifier:  h.notes,
	})
	if got := preview.Mount(ctx); got != compose.Editing {
		t.Fatalf("expected editing state, got %v", got)
	}
	draft := preview.Draft()
	if draft.Subject != "Application for Software Engineer Intern Position at Acme Cloud" {
		t.Fatalf("unexpected subject %q", draft.Subject)
	}
	if draft.Recipient != "careers@acmecloud.example.com" {
		t.Fatalf("expected posting contact as recipient, got %q", draft.Recipient)
	}
	if err := preview.Send(ctx); err != nil {
		t.Fatalf("send: %v", err)
	}
	if h.router.Current() != nav.History {
		t.Fatalf("expected history after send, got %v", h.router.Current())
	}

	hist := history.New(history.Deps{Sessions: h.sessions, Emails: h.client.Emails, Navigator: h.router, Notifier: h.notes})
	hist.Mount(ctx)
	emails := hist.Emails()
	if len(emails) != 1 || emails[0].Posting == nil || emails[0].Posting.Company != "Acme Cloud" {
		t.Fatalf("expected one sent email with posting summary, got %+v", emails)
	}

	if n := h.notes.Count(notify.LevelError); n != 0 {
		t.Fatalf("expected no error notifications, got %+v", h.notes.All())
	}
}

func TestSignOutClearsHandoffAndForcesLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if _, err := h.sessions.SignUp(ctx, "leaver@example.com", "secret123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	h.router.Replace(nav.Dashboard)

	res, err := h.client.Postings.Search(ctx, api.SearchParams{Role: "devops"})
	if err != nil || len(res.Postings) != 1 {
		t.Fatalf("expected one devops posting, got %+v err=%v", res, err)
	}
	if err := h.handoff.PutSelection(ctx, res.Postings[0], ""); err != nil {
		t.Fatalf("put selection: %v", err)
	}

	if err := h.sessions.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := h.handoff.Selection(ctx); !errors.Is(err, transient.ErrNoSelection) {
		t.Fatalf("expected selection cleared on sign-out, got %v", err)
	}

	_, err = h.client.Emails.History(ctx, 0)
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected 401 without a session, got %v", err)
	}
	if h.router.Current() != nav.Login {
		t.Fatalf("expected forced navigation to login, got %v", h.router.Current())
	}
}

func TestLatestResumeUnauthorizedDoesNotSignOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.router.Replace(nav.Dashboard)

	_, err := h.client.Resumes.Latest(ctx)
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected 401 for latest resume without session, got %v", err)
	}
	if h.router.Count(nav.Login) != 0 {
		t.Fatalf("expected no redirect to login, got visits %+v", h.router.Visits())
	}
}
