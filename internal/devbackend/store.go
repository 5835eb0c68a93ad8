package devbackend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"internify/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrRevoked  = errors.New("revoked")
)

type account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	ConfirmedAt  *time.Time
}

type authSession struct {
	ID      string
	UserID  string
	Revoked bool
}

type refreshGrant struct {
	SessionID string
	Used      bool
}

// memoryStore keeps every record of the dev backend in process memory.
type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	sessions map[string]*authSession
	refresh  map[string]*refreshGrant
	resumes  map[string][]models.Resume    // userID -> uploads, oldest first
	emails   map[string][]models.SentEmail // userID -> sent emails
	variants map[string]int                // userID -> regenerate count
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		sessions: make(map[string]*authSession),
		refresh:  make(map[string]*refreshGrant),
		resumes:  make(map[string][]models.Resume),
		emails:   make(map[string][]models.SentEmail),
		variants: make(map[string]int),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *memoryStore) createAccount(ctx context.Context, a account) (account, error) {
	if err := ctx.Err(); err != nil {
		return account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(a.Email)
	if _, ok := s.byEmail[key]; ok {
		return account{}, ErrExists
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	stored := a
	s.accounts[a.ID] = &stored
	s.byEmail[key] = a.ID
	return a, nil
}

func (s *memoryStore) accountByEmail(ctx context.Context, email string) (account, error) {
	if err := ctx.Err(); err != nil {
		return account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return account{}, ErrNotFound
	}
	return *s.accounts[id], nil
}

func (s *memoryStore) accountByID(ctx context.Context, id string) (account, error) {
	if err := ctx.Err(); err != nil {
		return account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return account{}, ErrNotFound
	}
	return *a, nil
}

// openSession starts an auth session and returns its id with a first refresh token.
func (s *memoryStore) openSession(userID string) (sessionID, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID = uuid.NewString()
	s.sessions[sessionID] = &authSession{ID: sessionID, UserID: userID}
	refreshToken = uuid.NewString()
	s.refresh[refreshToken] = &refreshGrant{SessionID: sessionID}
	return sessionID, refreshToken
}

// rotateRefresh redeems token once and issues its successor for the same session.
func (s *memoryStore) rotateRefresh(token string) (authSession, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant, ok := s.refresh[token]
	if !ok {
		return authSession{}, "", ErrNotFound
	}
	sess := s.sessions[grant.SessionID]
	if grant.Used || sess == nil || sess.Revoked {
		return authSession{}, "", ErrRevoked
	}
	grant.Used = true
	next := uuid.NewString()
	s.refresh[next] = &refreshGrant{SessionID: sess.ID}
	return *sess, next, nil
}

func (s *memoryStore) revokeSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Revoked = true
	}
}

func (s *memoryStore) sessionActive(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return ok && !sess.Revoked
}

func (s *memoryStore) addResume(ctx context.Context, r models.Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[r.UserID] = append(s.resumes[r.UserID], r)
	return nil
}

func (s *memoryStore) latestResume(ctx context.Context, userID string) (models.Resume, error) {
	if err := ctx.Err(); err != nil {
		return models.Resume{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.resumes[userID]
	if len(list) == 0 {
		return models.Resume{}, ErrNotFound
	}
	return list[len(list)-1], nil
}

func (s *memoryStore) deleteResume(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.resumes[userID]
	for i := range list {
		if list[i].ID == id {
			s.resumes[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryStore) addEmail(ctx context.Context, e models.SentEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[e.UserID] = append(s.emails[e.UserID], e)
	return nil
}

// listEmails returns up to limit emails for userID, most recent first.
func (s *memoryStore) listEmails(ctx context.Context, userID string, limit int) ([]models.SentEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := append([]models.SentEmail(nil), s.emails[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.After(out[j].SentAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) getEmail(ctx context.Context, userID, id string) (models.SentEmail, error) {
	if err := ctx.Err(); err != nil {
		return models.SentEmail{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.emails[userID] {
		if e.ID == id {
			return e, nil
		}
	}
	return models.SentEmail{}, ErrNotFound
}

func (s *memoryStore) deleteEmail(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.emails[userID]
	for i := range list {
		if list[i].ID == id {
			s.emails[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// nextVariant advances the subject variant used by regenerate for userID.
func (s *memoryStore) nextVariant(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[userID]++
	return s.variants[userID]
}
