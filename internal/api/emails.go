package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"internify/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// EmailService covers /email.
type EmailService struct{ c *Client }

// SendResult is the backend acknowledgement of a delivered email.
type SendResult struct {
	Message string
	Email   *models.SentEmail
}

// Send delivers an email and records it in history.
func (s *EmailService) Send(ctx context.Context, req models.SendEmailRequest) (SendResult, error) {
	var out struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Email   *models.SentEmail `json:"email"`
	}
	if err := s.c.doJSON(ctx, http.MethodPost, "/email/send", nil, req, &out); err != nil {
		return SendResult{}, err
	}
	return SendResult{Message: out.Message, Email: out.Email}, nil
}

// History lists sent emails, most recent first. Limit is clamped to 1..100.
func (s *EmailService) History(ctx context.Context, limit int) ([]models.SentEmail, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	q := url.Values{"limit": {strconv.Itoa(clamp(limit, 1, MaxHistoryLimit))}}
	var out struct {
		Emails []models.SentEmail `json:"emails"`
		Count  int                `json:"count"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/email/history", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Emails, nil
}

// Get fetches one sent email.
func (s *EmailService) Get(ctx context.Context, id string) (models.SentEmail, error) {
	var out struct {
		Email models.SentEmail `json:"email"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/email/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return models.SentEmail{}, err
	}
	return out.Email, nil
}

// Delete removes a sent email from history.
func (s *EmailService) Delete(ctx context.Context, id string) error {
	return s.c.doJSON(ctx, http.MethodDelete, "/email/"+url.PathEscape(id), nil, nil, nil)
}
