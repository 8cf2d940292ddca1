package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/client/storage"
	"github.com/dmitrijs2005/bookstore/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// AuthAPI is the part of the HTTP adapter the session needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
	Register(ctx context.Context, reg models.Registration) error
	CheckAuth(ctx context.Context) (models.User, error)
	SearchSuggestions(ctx context.Context) ([]models.Suggestion, error)
	SetCredential(token string)
	ClearCredential()
}

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var errEmptyToken = fmt.Errorf("%w: login succeeded without a token", api.ErrRejected)

// Session owns the signed-in user, the bearer credential and the cached
// search suggestions.
type Session struct {
	api     AuthAPI
	storage storage.Storage
	notify  notify.Notifier
	log     logging.Logger

	mu          sync.RWMutex
	state       State
	user        *models.User
	credential  string
	suggestions []models.Suggestion

	refresh   singleflight.Group
	observers observers
}

func NewSession(a AuthAPI, st storage.Storage, n notify.Notifier, log logging.Logger) *Session {
	return &Session{
		api:         a,
		storage:     st,
		notify:      n,
		log:         log.With("component", "session"),
		suggestions: []models.Suggestion{},
	}
}

// Subscribe registers fn to run after every session change.
func (s *Session) Subscribe(fn func()) (cancel func()) {
	return s.observers.subscribe(fn)
}

// Login authenticates and, on success, persists and attaches the token.
// On any failure the session is left exactly as it was.
func (s *Session) Login(ctx context.Context, email, password string) error {
	token, user, err := s.api.Login(ctx, email, password)
	token = strings.TrimSpace(token)
	if err == nil && token == "" {
		err = errEmptyToken
	}
	if err != nil {
		s.log.Warn(ctx, "login failed", "email", email, "error", err)
		s.notify.Error(api.Message(err, "Login failed."))
		return fmt.Errorf("login: %w", err)
	}

	if err := s.storage.Set(ctx, storage.CredentialKey, token); err != nil {
		s.log.Error(ctx, "persist credential failed", "error", err)
		s.notify.Error("Could not save your session.")
		return fmt.Errorf("persist credential: %w", err)
	}
	s.api.SetCredential(token)

	s.mu.Lock()
	s.user = &user
	s.credential = token
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "user_id", user.ID)
	s.notify.Success("Login successful!")
	s.observers.notify()
	return nil
}

// Register creates an account and then logs in with the same credentials.
func (s *Session) Register(ctx context.Context, reg models.Registration) error {
	if err := s.api.Register(ctx, reg); err != nil {
		s.log.Warn(ctx, "registration failed", "email", reg.Email, "error", err)
		s.notify.Error(api.Message(err, "Registration failed."))
		return fmt.Errorf("register: %w", err)
	}

	s.notify.Success("Registration successful! Logging you in...")
	return s.Login(ctx, reg.Email, reg.Password)
}

// Logout clears the session locally. It never fails.
func (s *Session) Logout(ctx context.Context) {
	s.teardown(ctx)
	s.notify.Success("Logged out successfully.")
	s.observers.notify()
}

func (s *Session) teardown(ctx context.Context) {
	s.api.ClearCredential()
	if err := s.storage.Remove(ctx, storage.CredentialKey); err != nil {
		s.log.Error(ctx, "remove credential failed", "error", err)
	}

	s.mu.Lock()
	s.user = nil
	s.credential = ""
	s.state = StateAnonymous
	s.mu.Unlock()
}

// Bootstrap restores the session at process start.
func (s *Session) Bootstrap(ctx context.Context) error {
	token, ok, err := s.storage.Get(ctx, storage.CredentialKey)
	if err != nil {
		s.log.Warn(ctx, "read credential failed", "error", err)
	}
	token = strings.TrimSpace(token)

	if err != nil || !ok || token == "" {
		s.api.ClearCredential()
		s.mu.Lock()
		s.state = StateAnonymous
		s.mu.Unlock()
		s.observers.notify()
		return nil
	}

	s.api.SetCredential(token)
	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()

	return s.CheckSession(ctx)
}

// CheckSession validates the current credential with the server. A failed
// check tears the session down. A cancelled check detaches the unconfirmed
// credential but keeps it stored, so the next Bootstrap checks it again.
// A result for a credential that was replaced meanwhile returns ErrStale
// and changes nothing.
func (s *Session) CheckSession(ctx context.Context) error {
	s.mu.RLock()
	checked := s.credential
	s.mu.RUnlock()

	user, err := s.api.CheckAuth(ctx)

	if s.Credential() != checked {
		return ErrStale
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.detach(checked)
			s.observers.notify()
			return fmt.Errorf("check session: %w", err)
		}
		s.log.Warn(ctx, "session check failed", "error", err)
		s.teardown(ctx)
		s.observers.notify()
		return fmt.Errorf("check session: %w", err)
	}

	s.mu.Lock()
	if checked == "" || s.credential != checked {
		s.mu.Unlock()
		return ErrStale
	}
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.observers.notify()
	return nil
}

// detach drops token from memory and the adapter, leaving storage alone.
func (s *Session) detach(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential != token {
		return
	}
	s.api.ClearCredential()
	s.user = nil
	s.credential = ""
	s.state = StateAnonymous
}

// RefreshSuggestions reloads the suggestion cache. Failures leave an empty
// cache. Concurrent calls share one request.
func (s *Session) RefreshSuggestions(ctx context.Context) []models.Suggestion {
	v, _, _ := s.refresh.Do("suggestions", func() (any, error) {
		list, err := s.api.SearchSuggestions(ctx)
		if err != nil {
			s.log.Warn(ctx, "refresh suggestions failed", "error", err)
			list = nil
		}
		if list == nil {
			list = []models.Suggestion{}
		}

		s.mu.Lock()
		s.suggestions = list
		s.mu.Unlock()
		s.observers.notify()
		return list, nil
	})
	return slices.Clone(v.([]models.Suggestion))
}

// FilterSuggestions returns cached suggestions containing input,
// case-insensitively. Blank input matches nothing.
func (s *Session) FilterSuggestions(input string) []models.Suggestion {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return []models.Suggestion{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Suggestion{}
	for _, sg := range s.suggestions {
		if strings.Contains(strings.ToLower(sg.Text), needle) {
			out = append(out, sg)
		}
	}
	return out
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the signed-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	u := *s.user
	u.Extra = maps.Clone(u.Extra)
	return u, true
}

func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

func (s *Session) Suggestions() []models.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.suggestions)
}

// CredentialExpiry reads the exp claim of the credential without verifying
// its signature. It is informational only.
func (s *Session) CredentialExpiry() (time.Time, bool) {
	token := s.Credential()
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
