package api

import (
	"context"
	"net/http"

	"internify/internal/models"
)

// LLMService covers /llm.
type LLMService struct{ c *Client }

type generateResponse struct {
	Success bool   `json:"success"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateEmail drafts a subject and body for a posting.
func (s *LLMService) GenerateEmail(ctx context.Context, req models.GenerateEmailRequest) (models.GeneratedEmail, error) {
	return s.generate(ctx, "/llm/generate-email", req)
}

// RegenerateEmail drafts another variation from the same inputs.
func (s *LLMService) RegenerateEmail(ctx context.Context, req models.GenerateEmailRequest) (models.GeneratedEmail, error) {
	return s.generate(ctx, "/llm/regenerate-email", req)
}

func (s *LLMService) generate(ctx context.Context, path string, req models.GenerateEmailRequest) (models.GeneratedEmail, error) {
	var out generateResponse
	if err := s.c.doJSON(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return models.GeneratedEmail{}, err
	}
	return models.GeneratedEmail{Subject: out.Subject, Body: out.Body}, nil
}
