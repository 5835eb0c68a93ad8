package api

import (
	"context"
	"net/http"

	"internify/internal/models"
)

// AuthService covers /auth on the backend, which only checks the bearer token.
type AuthService struct{ c *Client }

type identityResponse struct {
	Success bool            `json:"success"`
	User    models.Identity `json:"user"`
}

// Verify asks the backend to validate the attached token.
func (s *AuthService) Verify(ctx context.Context) (models.Identity, error) {
	var out identityResponse
	if err := s.c.doJSON(ctx, http.MethodPost, "/auth/verify", nil, nil, &out); err != nil {
		return models.Identity{}, err
	}
	return out.User, nil
}

// Me returns the backend's record of the signed-in user.
func (s *AuthService) Me(ctx context.Context) (models.Identity, error) {
	var out identityResponse
	if err := s.c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return models.Identity{}, err
	}
	return out.User, nil
}
