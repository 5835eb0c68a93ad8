// Package api is the typed client for the Internify backend.
//
// Every request passes through two interceptors: the bearer transport attaches the
// current session's access token, and the unauthorized transport turns a 401 into a
// forced sign-out followed by a full navigation to the login page.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"internify/internal/authprovider"
	"internify/internal/nav"
)

// SessionSource yields the current session, nil when signed out.
type SessionSource interface {
	GetSession(ctx context.Context) (*authprovider.Session, error)
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Sessions is what the interceptors need from the session store.
type Sessions interface {
	SessionSource
	SignOuter
}

// Rule matches a request by method and path relative to the client base URL.
type Rule struct {
	Method string
	Path   string
}

// LatestResume is the lookup whose 401 means "nothing to show yet" rather than a dead session.
var LatestResume = Rule{Method: http.MethodGet, Path: "/resume/latest"}

type options struct {
	timeout   time.Duration
	sessions  Sessions
	navigator nav.Navigator
	base      http.RoundTripper
	optional  []Rule
}

// Option configures a Client.
type Option func(*options)

// WithSessions wires the session store into both interceptors.
func WithSessions(s Sessions) Option { return func(o *options) { o.sessions = s } }

// WithNavigator sets the navigator used for the forced redirect to the login page.
func WithNavigator(n nav.Navigator) Option { return func(o *options) { o.navigator = n } }

// WithTimeout bounds every request. Zero keeps the 30s default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTransport replaces the base transport under the interceptors.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.base = rt } }

// WithOptionalResources replaces the set of requests exempt from forced sign-out.
func WithOptionalResources(rules ...Rule) Option {
	return func(o *options) { o.optional = append([]Rule(nil), rules...) }
}

// Client is the backend API client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	Resumes  *ResumeService
	Postings *PostingService
	LLM      *LLMService
	Emails   *EmailService
	Auth     *AuthService
}

// New constructs a Client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	o := options{timeout: 30 * time.Second, base: http.DefaultTransport, optional: []Rule{LatestResume}}
	for _, opt := range opts {
		opt(&o)
	}

	var rt http.RoundTripper = o.base
	if o.sessions != nil {
		rt = &unauthorizedTransport{
			next:      rt,
			signOuter: o.sessions,
			navigator: o.navigator,
			basePath:  u.Path,
			optional:  o.optional,
		}
		rt = &bearerTransport{next: rt, sessions: o.sessions}
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: o.timeout, Transport: rt},
	}
	c.Resumes = &ResumeService{c: c}
	c.Postings = &PostingService{c: c}
	c.LLM = &LLMService{c: c}
	c.Emails = &EmailService{c: c}
	c.Auth = &AuthService{c: c}
	return c, nil
}

// endpoint joins the base URL with path, whose segments arrive already escaped.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	if decoded, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = decoded
	} else {
		u.Path = u.RawPath
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, method, path, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
