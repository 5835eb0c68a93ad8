package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const basePath = "/auth/v1"

// Provider is the contract of the external authentication provider.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	User(ctx context.Context, accessToken string) (*User, error)
	Logout(ctx context.Context, accessToken string) error
}

// Client talks to a GoTrue-compatible auth REST API.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient constructs a Client for the provider rooted at baseURL.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	s.fillExpiry(c.now())
	return &s, nil
}

// SignUp registers a user. Session is nil when the provider requires email verification.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	var raw struct {
		Session
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{Email: email, Password: password}, &raw); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	res := &SignUpResult{User: raw.User}
	if res.User.ID == "" {
		res.User = User{ID: raw.ID, Email: raw.Email}
	}
	if raw.AccessToken != "" {
		s := raw.Session
		s.User = res.User
		s.fillExpiry(c.now())
		res.Session = &s
	}
	return res, nil
}

// Refresh renews a session from its refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &s); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	s.fillExpiry(c.now())
	return &s, nil
}

// User validates accessToken remotely and returns its identity.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Logout revokes the session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return &Error{Status: resp.StatusCode, Code: eb.code(), Message: eb.message()}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
