// Package history drives the list of sent emails and single-email view and removal.
package history

import (
	"context"
	"errors"
	"strings"
	"sync"

	"internify/internal/api"
	"internify/internal/authprovider"
	"internify/internal/gate"
	"internify/internal/models"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/shared/telemetry"
)

// ErrNoID reports a blank email id.
var ErrNoID = errors.New("email id is required")

// Emails is the sent-email API surface the page uses.
type Emails interface {
	History(ctx context.Context, limit int) ([]models.SentEmail, error)
	Get(ctx context.Context, id string) (models.SentEmail, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Sessions  gate.Checker
	Emails    Emails
	Navigator nav.Navigator
	Notifier  notify.Notifier
}

// Controller holds the history page.
type Controller struct {
	deps Deps
	gate *gate.Gate

	mu      sync.Mutex
	loading bool
	emails  []models.SentEmail
	err     error
}

func New(deps Deps) *Controller {
	return &Controller{deps: deps, gate: gate.New(deps.Sessions, deps.Navigator, gate.Options{Mode: gate.Fast})}
}

// Mount checks the session and loads the most recent emails.
func (c *Controller) Mount(ctx context.Context) gate.State {
	return c.gate.Run(ctx, func(ctx context.Context, _ authprovider.User) {
		_ = c.Refresh(ctx)
	})
}

// Refresh reloads the list.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	emails, err := c.deps.Emails.History(ctx, api.DefaultHistoryLimit)

	c.mu.Lock()
	c.loading = false
	c.err = err
	if err == nil {
		c.emails = emails
	}
	c.mu.Unlock()

	if err != nil {
		telemetry.Warn("history.fetch_failed", map[string]any{"err": err})
		c.deps.Notifier.Error("Failed to fetch email history")
		return err
	}
	return nil
}

// Emails returns the loaded entries, most recent first.
func (c *Controller) Emails() []models.SentEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.SentEmail(nil), c.emails...)
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Show fetches one sent email.
func (c *Controller) Show(ctx context.Context, id string) (models.SentEmail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.SentEmail{}, ErrNoID
	}
	email, err := c.deps.Emails.Get(ctx, id)
	if err != nil {
		c.deps.Notifier.Error(api.Message(err, "Failed to fetch email"))
		return models.SentEmail{}, err
	}
	return email, nil
}

// Delete removes one email from history and from the loaded list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNoID
	}
	if err := c.deps.Emails.Delete(ctx, id); err != nil {
		c.deps.Notifier.Error(api.Message(err, "Failed to delete email"))
		return err
	}

	c.mu.Lock()
	kept := c.emails[:0:0]
	for _, e := range c.emails {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.emails = kept
	c.mu.Unlock()

	c.deps.Notifier.Success("Email deleted successfully")
	return nil
}
