// Package dashboard drives the main page: resume upload and deletion, posting search,
// and handing the chosen posting to the email step.
package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
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

// State is the page state.
type State int

const (
	CheckingAuth State = iota
	Idle
	Uploading
	Searching
)

func (s State) String() string {
	switch s {
	case CheckingAuth:
		return "checking_auth"
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Searching:
		return "searching"
	default:
		return "unknown"
	}
}

var (
	ErrNotPDF        = errors.New("resume must be a PDF file")
	ErrOneFile       = errors.New("exactly one file must be uploaded")
	ErrNotAuthorized = errors.New("page is not authorized yet")
	ErrBusy          = errors.New("an upload is already in progress")
	ErrStale         = errors.New("search result superseded")
	ErrNoSelection   = errors.New("no posting selected")
)

// Resumes is the resume API surface the page uses.
type Resumes interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (models.Resume, error)
	Latest(ctx context.Context) (models.Resume, error)
	Delete(ctx context.Context, id string) error
}

// Postings is the search API surface the page uses.
type Postings interface {
	Search(ctx context.Context, p api.SearchParams) (api.SearchResult, error)
}

// Handoff receives the selection for the email step.
type Handoff interface {
	PutSelection(ctx context.Context, p models.Posting, resumeText string) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Sessions  gate.Checker
	Resumes   Resumes
	Postings  Postings
	Handoff   Handoff
	Navigator nav.Navigator
	Notifier  notify.Notifier
	// SearchLimit is passed to the search endpoint; zero uses the server default.
	SearchLimit int
}

// File is one uploaded file.
type File struct {
	Name string
	Body io.Reader
}

// View is a snapshot of the page.
type View struct {
	State    State
	User     authprovider.User
	Resume   *models.Resume
	Query    string
	Results  []models.Posting
	Selected int
}

// Controller holds dashboard state. Safe for concurrent use.
type Controller struct {
	deps Deps
	gate *gate.Gate

	mu         sync.Mutex
	authorized bool
	user       authprovider.User
	resume     *models.Resume
	resumeGen  uint64
	searchSeq  uint64
	searching  int
	uploading  bool
	query      string
	results    []models.Posting
	selected   int
}

// New constructs a Controller in CheckingAuth.
func New(deps Deps) *Controller {
	return &Controller{
		deps:     deps,
		gate:     gate.New(deps.Sessions, deps.Navigator, gate.Options{Mode: gate.Validated}),
		selected: -1,
	}
}

// Mount validates the session remotely, then loads the latest resume.
func (c *Controller) Mount(ctx context.Context) State {
	c.gate.Run(ctx, func(ctx context.Context, u authprovider.User) {
		c.mu.Lock()
		c.authorized = true
		c.user = u
		c.mu.Unlock()
		c.loadResume(ctx)
	})
	return c.View().State
}

// View returns a snapshot of the page.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		State:    c.stateLocked(),
		User:     c.user,
		Query:    c.query,
		Results:  append([]models.Posting(nil), c.results...),
		Selected: c.selected,
	}
	if c.resume != nil {
		r := *c.resume
		v.Resume = &r
	}
	return v
}

func (c *Controller) stateLocked() State {
	switch {
	case !c.authorized:
		return CheckingAuth
	case c.uploading:
		return Uploading
	case c.searching > 0:
		return Searching
	default:
		return Idle
	}
}

func (c *Controller) loadResume(ctx context.Context) {
	c.mu.Lock()
	gen := c.resumeGen
	c.mu.Unlock()

	res, err := c.deps.Resumes.Latest(ctx)
	if err != nil {
		// A missing resume is the normal state for new users.
		telemetry.Info("dashboard.resume.none", map[string]any{"err": err})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.resumeGen {
		c.resume = &res
	}
}

// Upload replaces the resume with a single PDF file.
func (c *Controller) Upload(ctx context.Context, files ...File) error {
	if !c.isAuthorized() {
		return ErrNotAuthorized
	}
	if len(files) != 1 {
		c.deps.Notifier.Error("Please upload a single PDF file")
		return ErrOneFile
	}
	body, err := requirePDF(files[0])
	if err != nil {
		c.deps.Notifier.Error("Please upload a PDF file")
		return err
	}

	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.uploading = true
	c.mu.Unlock()

	res, err := c.deps.Resumes.Upload(ctx, filepath.Base(files[0].Name), body)

	c.mu.Lock()
	c.uploading = false
	if err == nil {
		c.resume = &res
		c.resumeGen++
	}
	c.mu.Unlock()

	if err != nil {
		if api.IsUnauthorized(err) {
			telemetry.Warn("dashboard.upload.unauthorized", map[string]any{"err": err})
		}
		c.deps.Notifier.Error(api.Message(err, "Failed to upload resume"))
		return err
	}
	c.deps.Notifier.Success("Resume uploaded successfully!")
	return nil
}

// DeleteResume deletes the current resume and clears results and selection.
func (c *Controller) DeleteResume(ctx context.Context) error {
	c.mu.Lock()
	var id string
	if c.resume != nil {
		id = c.resume.ID
	}
	gen := c.resumeGen
	c.mu.Unlock()

	if id == "" {
		c.deps.Notifier.Error("No resume to delete")
		return api.ErrNoResume
	}
	if err := c.deps.Resumes.Delete(ctx, id); err != nil {
		c.deps.Notifier.Error(api.Message(err, "Failed to delete resume"))
		return err
	}

	c.mu.Lock()
	// An upload that landed during the delete owns the page state now.
	if gen == c.resumeGen {
		c.resume = nil
		c.resumeGen++
		c.results = nil
		c.selected = -1
	}
	c.mu.Unlock()
	c.deps.Notifier.Success("Resume deleted successfully!")
	return nil
}

// Search looks up postings for query. A blank query is a no-op. Results that arrive
// after a newer search started, or after the resume changed, are discarded with ErrStale.
func (c *Controller) Search(ctx context.Context, query string) ([]models.Posting, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if !c.isAuthorized() {
		return nil, ErrNotAuthorized
	}

	c.mu.Lock()
	c.searchSeq++
	token := c.searchSeq
	gen := c.resumeGen
	c.searching++
	c.query = query
	c.mu.Unlock()

	res, err := c.deps.Postings.Search(ctx, api.SearchParams{Role: query, Limit: c.deps.SearchLimit})

	c.mu.Lock()
	c.searching--
	if token != c.searchSeq || gen != c.resumeGen {
		c.mu.Unlock()
		telemetry.Debug("dashboard.search.stale", map[string]any{"query": query})
		return nil, ErrStale
	}
	if err == nil {
		c.results = res.Postings
		c.selected = -1
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notifier.Error(api.Message(err, "Failed to search postings"))
		return nil, err
	}
	if len(res.Postings) == 0 {
		c.deps.Notifier.Info("No postings found. Try different keywords.")
	} else {
		c.deps.Notifier.Success(fmt.Sprintf("Found %d postings!", len(res.Postings)))
	}
	return res.Postings, nil
}

// Select highlights the result at index i.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.results) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSelection, i, len(c.results))
	}
	c.selected = i
	return nil
}

// Continue hands the selected posting and resume text to the email step.
func (c *Controller) Continue(ctx context.Context) error {
	c.mu.Lock()
	if c.selected < 0 || c.selected >= len(c.results) {
		c.mu.Unlock()
		return ErrNoSelection
	}
	posting := c.results[c.selected]
	var text string
	if c.resume != nil {
		text = c.resume.ExtractedText
	}
	c.mu.Unlock()

	if err := c.deps.Handoff.PutSelection(ctx, posting, text); err != nil {
		return fmt.Errorf("hand off selection: %w", err)
	}
	c.deps.Navigator.Push(nav.EmailPreview)
	return nil
}

func (c *Controller) isAuthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized
}

func requirePDF(f File) (io.Reader, error) {
	if f.Body == nil || !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
		return nil, ErrNotPDF
	}
	br := bufio.NewReaderSize(f.Body, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if http.DetectContentType(head) != "application/pdf" {
		return nil, ErrNotPDF
	}
	return br, nil
}
