package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"internify/internal/models"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// PostingService covers /internships.
type PostingService struct{ c *Client }

// SearchParams filters a posting search. Zero Limit means the server default.
type SearchParams struct {
	Role     string
	Location string
	Limit    int
}

// SearchResult is one page of matching postings.
type SearchResult struct {
	Postings []models.Posting
	Count    int
	Message  string
}

// Search runs a keyword search. Limit is clamped to 1..50.
func (s *PostingService) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	q := url.Values{}
	q.Set("role", strings.TrimSpace(p.Role))
	if loc := strings.TrimSpace(p.Location); loc != "" {
		q.Set("location", loc)
	}
	if p.Limit != 0 {
		q.Set("limit", strconv.Itoa(clamp(p.Limit, 1, MaxSearchLimit)))
	}

	var out struct {
		Success     bool             `json:"success"`
		Internships []models.Posting `json:"internships"`
		Count       int              `json:"count"`
		Message     string           `json:"message"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/internships/search", q, nil, &out); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Postings: out.Internships, Count: len(out.Internships), Message: out.Message}, nil
}

// Get fetches one posting.
func (s *PostingService) Get(ctx context.Context, id string) (models.Posting, error) {
	var out struct {
		Internship models.Posting `json:"internship"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/internships/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return models.Posting{}, err
	}
	return out.Internship, nil
}

// ByCompany lists postings for a company, optionally narrowed by role.
func (s *PostingService) ByCompany(ctx context.Context, company, role string) ([]models.Posting, error) {
	var q url.Values
	if role = strings.TrimSpace(role); role != "" {
		q = url.Values{"role": {role}}
	}
	var out struct {
		Internships []models.Posting `json:"internships"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/internships/company/"+url.PathEscape(company), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Internships, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
