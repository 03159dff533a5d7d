package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/avilkin/classdesk/internal/api"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/validate"
)

// SessionStore holds the current authentication identity and credential.
// Concurrent login attempts are not cancelled; the last one to settle wins.
type SessionStore struct {
	mu   sync.Mutex
	api  *api.Client
	keys *keyring

	sess  model.Session
	state FetchState
	err   string
}

func newSessionStore(client *api.Client, keys *keyring) *SessionStore {
	return &SessionStore{api: client, keys: keys}
}

// Session returns a snapshot of the current session.
func (s *SessionStore) Session() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sess
	if s.sess.User != nil {
		u := *s.sess.User
		sess.User = &u
	}
	return sess
}

// State returns the fetch state of the last auth operation.
func (s *SessionStore) State() FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last remote auth error, or empty string.
func (s *SessionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError clears the last error without touching the session.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// Login authenticates with the portal. On success the session is set and
// persisted; on failure the session is left unset and the server's message
// is recorded.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.begin()
	res, err := s.api.Login(ctx, email, password)
	return s.settle(res, err)
}

// RegisterInput is the pre-dispatch shape of a registration request.
type RegisterInput struct {
	Name     string     `json:"name" validate:"required,notblank"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"required,oneof=teacher student"`
}

// Register creates an account and signs it in. The role is validated before
// any request is issued; field errors never touch the store's error state.
func (s *SessionStore) Register(ctx context.Context, in RegisterInput) error {
	if err := validate.Check(in); err != nil {
		return err
	}
	s.begin()
	res, err := s.api.Register(ctx, in.Name, in.Email, in.Password, in.Role)
	return s.settle(res, err)
}

func (s *SessionStore) begin() {
	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.mu.Unlock()
}

func (s *SessionStore) settle(res *api.AuthResult, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return err
	}

	user := &model.User{
		ID:    res.UserID,
		Name:  res.Name,
		Email: res.Email,
		Role:  res.Role,
	}
	s.sess = model.Session{Token: res.Token, User: user, IsLoggedIn: true}
	s.state = StateSucceeded
	s.err = ""
	s.api.SetToken(res.Token)
	s.persist(res.Token, user)
	return nil
}

// persist writes the token and JSON-encoded user to the keyring. Failures
// only cost session restore on the next start, so they are logged and
// swallowed.
func (s *SessionStore) persist(token string, user *model.User) {
	if err := s.keys.set(keyToken, token); err != nil {
		slog.Warn("failed to persist token", "error", err)
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		slog.Warn("failed to encode user for persistence", "error", err)
		return
	}
	if err := s.keys.set(keyUser, string(data)); err != nil {
		slog.Warn("failed to persist user", "error", err)
	}
}

// Logout clears the in-memory and persisted session unconditionally. It
// never fails.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = model.Session{}
	s.state = StateIdle
	s.err = ""
	s.api.ClearToken()
	if err := s.keys.delete(keyToken); err != nil {
		slog.Warn("failed to remove persisted token", "error", err)
	}
	if err := s.keys.delete(keyUser); err != nil {
		slog.Warn("failed to remove persisted user", "error", err)
	}
}

// Restore reconstructs the session from durable storage. It is meant to run
// once at process start. Malformed stored data is logged and treated as a
// logged-out state, never propagated as an error.
func (s *SessionStore) Restore() {
	token, err := s.keys.get(keyToken)
	if err != nil {
		slog.Warn("failed to read persisted token", "error", err)
		return
	}
	rawUser, err := s.keys.get(keyUser)
	if err != nil {
		slog.Warn("failed to read persisted user", "error", err)
		return
	}
	if token == "" || rawUser == "" {
		return
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		slog.Warn("discarding malformed persisted session", "error", err)
		return
	}
	if !user.Role.Valid() {
		slog.Warn("discarding persisted session with unknown role", "role", user.Role)
		return
	}

	s.mu.Lock()
	s.sess = model.Session{Token: token, User: &user, IsLoggedIn: true}
	s.mu.Unlock()
	s.api.SetToken(token)
}
