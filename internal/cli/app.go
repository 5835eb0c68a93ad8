// Package cli is the internify command line: a terminal shell over the page
// controllers, with session and handoff state kept in a local SQLite file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"internify/internal/api"
	"internify/internal/authprovider"
	"internify/internal/localstore"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/session"
	"internify/internal/shared/config"
	"internify/internal/transient"
)

// ErrNotSignedIn is returned by commands that need a session when there is none.
var ErrNotSignedIn = errors.New("not signed in; run `internify login` first")

// StateOpener opens the durable device-local store.
type StateOpener func(ctx context.Context, path string) (localstore.Store, io.Closer, error)

// OpenSQLiteState is the default StateOpener.
func OpenSQLiteState(ctx context.Context, path string) (localstore.Store, io.Closer, error) {
	store, conn, err := localstore.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return store, conn, nil
}

// App wires one command invocation.
type App struct {
	Config   config.Config
	Handoff  *transient.Store
	Sessions *session.Store
	API      *api.Client
	Router   *nav.Router
	Notifier notify.Notifier

	closer io.Closer
}

// NewApp builds the client stack over state.
func NewApp(cfg config.Config, state localstore.Store, closer io.Closer, out io.Writer) (*App, error) {
	handoff := transient.New(state)
	provider := authprovider.NewClient(cfg.AuthURL, cfg.AuthAnonKey, cfg.HTTPTimeout)
	sessions := session.New(provider, state, handoff)
	router := nav.NewRouter(nav.Home)

	client, err := api.New(cfg.BackendURL,
		api.WithSessions(sessions),
		api.WithNavigator(router),
		api.WithTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	return &App{
		Config:   cfg,
		Handoff:  handoff,
		Sessions: sessions,
		API:      client,
		Router:   router,
		Notifier: &notify.Writer{W: out},
		closer:   closer,
	}, nil
}

// Close releases the state store. Later calls are no-ops.
func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	c := a.closer
	a.closer = nil
	return c.Close()
}

// requireSignedIn maps a redirect to the login page into ErrNotSignedIn.
func (a *App) requireSignedIn() error {
	if a.Router.Current() == nav.Login {
		return ErrNotSignedIn
	}
	return nil
}
