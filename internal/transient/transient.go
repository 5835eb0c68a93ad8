// Package transient hands the selected posting and resume text from the dashboard
// to the email step. Values are written once and read on the next step only.
package transient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"internify/internal/localstore"
	"internify/internal/models"
)

const (
	KeySelectedPosting = "selectedPosting"
	KeyResumeText      = "resumeText"
)

// ErrNoSelection is returned when no posting has been handed off.
var ErrNoSelection = errors.New("no posting selected")

// Store is the typed handoff over device-local storage.
type Store struct {
	kv localstore.Store
}

// New constructs a Store.
func New(kv localstore.Store) *Store {
	return &Store{kv: kv}
}

// PutSelection records the chosen posting together with the resume text it will be pitched with.
func (s *Store) PutSelection(ctx context.Context, p models.Posting, resumeText string) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode posting: %w", err)
	}
	if err := s.kv.Set(ctx, KeySelectedPosting, string(raw)); err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyResumeText, resumeText)
}

// Selection returns the handed-off posting or ErrNoSelection.
func (s *Store) Selection(ctx context.Context) (models.Posting, error) {
	raw, err := s.kv.Get(ctx, KeySelectedPosting)
	if errors.Is(err, localstore.ErrNotFound) {
		return models.Posting{}, ErrNoSelection
	}
	if err != nil {
		return models.Posting{}, err
	}
	var p models.Posting
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.Posting{}, fmt.Errorf("%w: stored posting unreadable: %v", ErrNoSelection, err)
	}
	return p, nil
}

// ResumeText returns the handed-off resume text, empty when absent.
func (s *Store) ResumeText(ctx context.Context) (string, error) {
	text, err := s.kv.Get(ctx, KeyResumeText)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	return text, err
}

// Clear removes both handoff keys.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, KeySelectedPosting, KeyResumeText)
}
