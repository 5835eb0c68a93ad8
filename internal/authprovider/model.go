package authprovider

import (
	"time"

	"golang.org/x/oauth2"
)

// User is the identity attached to a session.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Session is the credential bundle issued by the provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns the absolute expiry time, zero when unknown.
func (s Session) Expiry() time.Time {
	if s.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0).UTC()
}

// Token converts the session into an oauth2 token for validity checks and header setting.
func (s Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

// Valid reports whether the access token is present and not expired.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	return s.Token().Valid()
}

// SignUpResult carries the created user and, when no verification is required, a session.
type SignUpResult struct {
	User    User
	Session *Session
}

func (s *Session) fillExpiry(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
}
