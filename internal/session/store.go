// Package session wraps the external auth provider with a locally persisted session.
//
// GetSession is the fast local read; GetUser validates the token with the provider and
// should be preferred right after a cross-page redirect where stale local state is likely.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"internify/internal/authprovider"
	"internify/internal/localstore"
	"internify/internal/shared/telemetry"
)

// StorageKey is the localstore key holding the serialized session.
const StorageKey = "auth.session"

var (
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("email and password are required")
)

type (
	Session = authprovider.Session
	User    = authprovider.User
)

// Clearer wipes cross-user transient state before a session ends.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Result is the outcome of sign-in or sign-up. Session is nil when verification is pending.
type Result struct {
	User    User
	Session *Session
}

// Store is the session store over an auth provider and durable local state.
type Store struct {
	provider authprovider.Provider
	state    localstore.Store
	clearer  Clearer

	refreshMu sync.Mutex
	events    broadcaster
}

// New constructs a Store. clearer may be nil.
func New(provider authprovider.Provider, state localstore.Store, clearer Clearer) *Store {
	return &Store{provider: provider, state: state, clearer: clearer}
}

// GetSession returns the current session or nil when absent.
// An expired session with a refresh token is renewed through the provider.
func (s *Store) GetSession(ctx context.Context) (*Session, error) {
	current, err := s.load(ctx)
	if err != nil || current == nil {
		return nil, err
	}
	if current.Valid() {
		return current, nil
	}
	if current.RefreshToken == "" {
		return nil, nil
	}
	return s.refresh(ctx, current.RefreshToken)
}

// GetUser validates the current session remotely.
func (s *Store) GetUser(ctx context.Context) (*User, error) {
	current, err := s.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoSession
	}
	u, err := s.provider.User(ctx, current.AccessToken)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn authenticates with email and password.
func (s *Store) SignIn(ctx context.Context, email, password string) (Result, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return Result{}, err
	}
	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Result{}, err
	}
	if err := s.establish(ctx, sess); err != nil {
		return Result{}, err
	}
	return Result{User: sess.User, Session: sess}, nil
}

// SignUp registers a new account, establishing a session when the provider returns one.
func (s *Store) SignUp(ctx context.Context, email, password string) (Result, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return Result{}, err
	}
	res, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return Result{}, err
	}
	if res.Session != nil {
		if err := s.establish(ctx, res.Session); err != nil {
			return Result{}, err
		}
	}
	return Result{User: res.User, Session: res.Session}, nil
}

// SignOut clears transient cross-user data, revokes the session and forgets it locally.
// A failed clear is reported but never keeps the session alive.
func (s *Store) SignOut(ctx context.Context) error {
	var clearErr error
	if s.clearer != nil {
		if err := s.clearer.Clear(ctx); err != nil {
			telemetry.Error("session.sign_out.clear_failed", map[string]any{"err": err})
			clearErr = fmt.Errorf("clear transient state: %w", err)
		}
	}

	current, err := s.load(ctx)
	if err != nil {
		telemetry.Warn("session.sign_out.load_failed", map[string]any{"err": err})
	}
	if current != nil && current.AccessToken != "" {
		if err := s.provider.Logout(ctx, current.AccessToken); err != nil {
			telemetry.Warn("session.sign_out.revoke_failed", map[string]any{"err": err})
		}
	}

	if err := s.state.Delete(ctx, StorageKey); err != nil {
		return errors.Join(clearErr, fmt.Errorf("forget session: %w", err))
	}
	s.events.publish(Event{Kind: SignedOut})
	return clearErr
}

// Subscribe registers fn for the given event kinds (all kinds when none are given)
// and returns an idempotent unsubscribe func.
func (s *Store) Subscribe(fn func(Event), kinds ...EventKind) func() {
	return s.events.subscribe(fn, kinds)
}

func (s *Store) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if current, err := s.load(ctx); err == nil && current.Valid() {
		return current, nil
	}

	renewed, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, authprovider.ErrUnauthorized) {
			telemetry.Info("session.refresh.rejected", map[string]any{"err": err})
			if delErr := s.state.Delete(ctx, StorageKey); delErr != nil {
				return nil, fmt.Errorf("forget session: %w", delErr)
			}
			s.events.publish(Event{Kind: SignedOut})
			return nil, nil
		}
		return nil, err
	}
	if err := s.save(ctx, renewed); err != nil {
		return nil, err
	}
	s.events.publish(Event{Kind: TokenRefreshed, Session: renewed})
	return renewed, nil
}

func (s *Store) establish(ctx context.Context, sess *Session) error {
	if err := s.save(ctx, sess); err != nil {
		return err
	}
	s.events.publish(Event{Kind: SignedIn, Session: sess})
	return nil
}

func (s *Store) load(ctx context.Context) (*Session, error) {
	raw, err := s.state.Get(ctx, StorageKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		telemetry.Warn("session.load.corrupt", map[string]any{"err": err})
		return nil, nil
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.state.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func checkCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	return email, nil
}
