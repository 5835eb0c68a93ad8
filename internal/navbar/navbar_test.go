package navbar

import (
	"context"
	"errors"
	"testing"
	"time"

	"internify/internal/authprovider"
	"internify/internal/localstore"
	"internify/internal/nav"
	"internify/internal/session"
)

type stubProvider struct{}

func (stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*authprovider.Session, error) {
	return &authprovider.Session{
		AccessToken:  "t",
		RefreshToken: "r",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         authprovider.User{ID: "u1", Email: email},
	}, nil
}

func (stubProvider) SignUp(ctx context.Context, email, password string) (*authprovider.SignUpResult, error) {
	return &authprovider.SignUpResult{}, nil
}

func (stubProvider) Refresh(ctx context.Context, refreshToken string) (*authprovider.Session, error) {
	return nil, &authprovider.Error{Status: 401}
}

func (stubProvider) User(ctx context.Context, accessToken string) (*authprovider.User, error) {
	return &authprovider.User{ID: "u1"}, nil
}

func (stubProvider) Logout(ctx context.Context, accessToken string) error { return nil }

func TestBarFollowsSignInAndOut(t *testing.T) {
	ctx := context.Background()
	store := session.New(stubProvider{}, localstore.NewMemoryStore(), nil)
	router := nav.NewRouter(nav.Dashboard)
	bar := New(store, router)

	unmount := bar.Mount(ctx)
	defer unmount()
	if len(bar.Links()) != 0 {
		t.Fatal("expected no links while signed out")
	}

	if _, err := store.SignIn(ctx, "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	u, ok := bar.User()
	if !ok || u.Email != "a@b.co" {
		t.Fatalf("expected signed-in user, got %+v", u)
	}
	links := bar.Links()
	if len(links) != 2 || !links[0].Active || links[1].Active {
		t.Fatalf("unexpected links %+v", links)
	}

	if err := bar.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, ok := bar.User(); ok {
		t.Fatal("expected user cleared after sign-out")
	}
	if v, _ := router.Take(); v.To != nav.Login || !v.Full {
		t.Fatalf("expected full navigation to login, got %+v", v)
	}
}

func TestUnmountStopsUpdates(t *testing.T) {
	ctx := context.Background()
	store := session.New(stubProvider{}, localstore.NewMemoryStore(), nil)
	bar := New(store, nav.NewRouter(nav.Dashboard))

	unmount := bar.Mount(ctx)
	unmount()
	if _, err := store.SignIn(ctx, "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, ok := bar.User(); ok {
		t.Fatal("expected no update after unmount")
	}
}

func TestMountReadsExistingSession(t *testing.T) {
	ctx := context.Background()
	store := session.New(stubProvider{}, localstore.NewMemoryStore(), nil)
	if _, err := store.SignIn(ctx, "c@d.co", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	bar := New(store, nav.NewRouter(nav.History))
	defer bar.Mount(ctx)()

	if u, ok := bar.User(); !ok || u.Email != "c@d.co" {
		t.Fatalf("expected existing user, got %+v", u)
	}
}

type brokenClearer struct{}

func (brokenClearer) Clear(ctx context.Context) error { return errors.New("locked") }

func TestSignOutNavigatesEvenWhenClearFails(t *testing.T) {
	ctx := context.Background()
	store := session.New(stubProvider{}, localstore.NewMemoryStore(), brokenClearer{})
	if _, err := store.SignIn(ctx, "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	router := nav.NewRouter(nav.Dashboard)
	bar := New(store, router)

	if err := bar.SignOut(ctx); err == nil {
		t.Fatal("expected the clear failure to be reported")
	}
	if router.Current() != nav.Login || router.Count(nav.Login) != 1 {
		t.Fatalf("expected navigation to login, got %v", router.Visits())
	}
	if got, _ := store.GetSession(ctx); got != nil {
		t.Fatal("expected session forgotten")
	}
}
