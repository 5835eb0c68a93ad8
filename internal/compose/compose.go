// Package compose drives the email preview step: it drafts an email for the handed-off
// posting, lets the user edit it, and sends it.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"internify/internal/api"
	"internify/internal/authprovider"
	"internify/internal/gate"
	"internify/internal/models"
	"internify/internal/nav"
	"internify/internal/notify"
	"internify/internal/shared/telemetry"
)

// State is the page state.
type State int

const (
	CheckingAuth State = iota
	Generating
	Editing
	Sending
	Left
)

func (s State) String() string {
	switch s {
	case CheckingAuth:
		return "checking_auth"
	case Generating:
		return "generating"
	case Editing:
		return "editing"
	case Sending:
		return "sending"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

var (
	ErrMissingField = errors.New("missing required field")
	ErrNotReady     = errors.New("no draft to work on")
	ErrBusy         = errors.New("operation already in progress")
)

// Generator drafts emails.
type Generator interface {
	GenerateEmail(ctx context.Context, req models.GenerateEmailRequest) (models.GeneratedEmail, error)
	RegenerateEmail(ctx context.Context, req models.GenerateEmailRequest) (models.GeneratedEmail, error)
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, req models.SendEmailRequest) (api.SendResult, error)
}

// Handoff yields what the dashboard selected.
type Handoff interface {
	Selection(ctx context.Context) (models.Posting, error)
	ResumeText(ctx context.Context) (string, error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Sessions  gate.Checker
	LLM       Generator
	Emails    Sender
	Handoff   Handoff
	Navigator nav.Navigator
	Notifier  notify.Notifier
}

// Draft is the unsent email. It lives only in controller memory.
type Draft struct {
	PostingID string
	Recipient string
	Subject   string
	Body      string
}

// Controller holds email preview state. Safe for concurrent use.
type Controller struct {
	deps Deps
	gate *gate.Gate

	mu         sync.Mutex
	state      State
	posting    *models.Posting
	resumeText string
	draft      Draft
}

// New constructs a Controller in CheckingAuth.
func New(deps Deps) *Controller {
	return &Controller{deps: deps, gate: gate.New(deps.Sessions, deps.Navigator, gate.Options{Mode: gate.Fast})}
}

// Mount checks the session, loads the handed-off posting and generates a first draft.
func (c *Controller) Mount(ctx context.Context) State {
	c.gate.Run(ctx, func(ctx context.Context, _ authprovider.User) {
		posting, err := c.deps.Handoff.Selection(ctx)
		if err != nil {
			telemetry.Info("compose.no_selection", map[string]any{"err": err})
			c.leave("No posting selected")
			return
		}
		text, err := c.deps.Handoff.ResumeText(ctx)
		if err != nil {
			telemetry.Warn("compose.resume_text_unreadable", map[string]any{"err": err})
		}

		c.mu.Lock()
		c.posting = &posting
		c.resumeText = text
		c.draft = Draft{PostingID: posting.ID, Recipient: Recipient(posting)}
		c.mu.Unlock()

		_ = c.generate(ctx, c.deps.LLM.GenerateEmail)
	})
	return c.State()
}

// State returns the page state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Posting returns the posting being pitched, if loaded.
func (c *Controller) Posting() (models.Posting, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.posting == nil {
		return models.Posting{}, false
	}
	return *c.posting, true
}

func (c *Controller) SetRecipient(v string) { c.edit(func(d *Draft) { d.Recipient = v }) }
func (c *Controller) SetSubject(v string)   { c.edit(func(d *Draft) { d.Subject = v }) }
func (c *Controller) SetBody(v string)      { c.edit(func(d *Draft) { d.Body = v }) }

func (c *Controller) edit(fn func(*Draft)) {
	c.mu.Lock()
	fn(&c.draft)
	c.mu.Unlock()
}

// Regenerate drafts another variation from the same posting and resume text.
func (c *Controller) Regenerate(ctx context.Context) error {
	c.mu.Lock()
	ready := c.posting != nil && c.state == Editing
	c.mu.Unlock()
	if !ready {
		return ErrNotReady
	}
	return c.generate(ctx, c.deps.LLM.RegenerateEmail)
}

// Send validates the draft locally and delivers it.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Editing {
		c.mu.Unlock()
		if c.posting == nil {
			return ErrNotReady
		}
		return ErrBusy
	}
	d := c.draft
	if missing := d.missing(); len(missing) > 0 {
		c.mu.Unlock()
		c.deps.Notifier.Error("Please fill in all fields")
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	c.state = Sending
	c.mu.Unlock()

	_, err := c.deps.Emails.Send(ctx, models.SendEmailRequest{
		PostingID:      d.PostingID,
		RecipientEmail: strings.TrimSpace(d.Recipient),
		Subject:        d.Subject,
		Body:           d.Body,
	})

	c.mu.Lock()
	c.state = Editing
	c.mu.Unlock()

	if err != nil {
		c.deps.Notifier.Error(api.Message(err, "Failed to send email"))
		return err
	}
	c.deps.Notifier.Success("Email sent successfully!")
	c.deps.Navigator.Push(nav.History)
	return nil
}

type generateFunc func(ctx context.Context, req models.GenerateEmailRequest) (models.GeneratedEmail, error)

func (c *Controller) generate(ctx context.Context, fn generateFunc) error {
	c.mu.Lock()
	if c.state == Generating || c.state == Sending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Generating
	p := *c.posting
	req := models.GenerateEmailRequest{
		PostingDescription: firstNonEmpty(p.Description, p.Title),
		ResumeText:         c.resumeText,
		PostingTitle:       p.Title,
		CompanyName:        p.Company,
	}
	c.mu.Unlock()

	out, err := fn(ctx, req)
	if err != nil {
		c.leave(api.Message(err, "Failed to generate email"))
		return err
	}

	c.mu.Lock()
	c.draft.Subject = out.Subject
	c.draft.Body = out.Body
	c.state = Editing
	c.mu.Unlock()
	return nil
}

func (c *Controller) leave(msg string) {
	c.mu.Lock()
	c.state = Left
	c.mu.Unlock()
	c.deps.Notifier.Error(msg)
	c.deps.Navigator.Push(nav.Dashboard)
}

func (d Draft) missing() []string {
	var out []string
	if strings.TrimSpace(d.Recipient) == "" {
		out = append(out, "recipient")
	}
	if strings.TrimSpace(d.Subject) == "" {
		out = append(out, "subject")
	}
	if strings.TrimSpace(d.Body) == "" {
		out = append(out, "body")
	}
	if d.PostingID == "" {
		out = append(out, "posting")
	}
	return out
}

// Recipient picks the address to send to: the posting's contact email when supplied,
// else a placeholder derived from the company name.
func Recipient(p models.Posting) string {
	if email := strings.TrimSpace(p.ContactEmail); email != "" {
		return email
	}
	company := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, p.Company)
	if company == "" {
		return "contact@company.com"
	}
	return "hr@" + company + ".com"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
