// Package session keeps the client-side authentication state: the bearer
// token, the cached user and the transitions between them.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// Persisted keys.
const (
	KeyToken     = "auth_token"
	KeyUser      = "user_info"
	KeyResetOnce = "auth_reset_once_v1"
)

// Store is the persisted key/value state the session lives in.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

// State is the lifecycle position of a Session.
type State int

const (
	StateInit State = iota
	StateValid
	StateInvalid
	StateCleared
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StateCleared:
		return "cleared"
	}
	return "unknown"
}

// UserID accepts both numeric and string ids from the API.
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// User is the cached profile of the signed-in account.
type User struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" || u.Role == "superadmin" }

// AuthStatus is the answer of CheckAuthStatus.
type AuthStatus struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

var ErrNoToken = errors.New("no auth token")

type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is the explicit replacement for ambient token/user singletons.
type Session struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
	state State
}

func New(store Store, opts ...Option) *Session {
	s := &Session{store: store, now: time.Now, state: StateInit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the stored bearer token, empty when absent.
func (s *Session) Token() string {
	tok, _ := s.store.Get(KeyToken)
	return tok
}

// ExpiresAt decodes the token's exp claim without verifying the signature.
func (s *Session) ExpiresAt() (time.Time, error) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, ErrNoToken
	}
	return TokenExpiry(tok)
}

// TokenExpiry reads the exp claim of a JWT. Signatures are the server's
// concern; the client only needs the lifetime.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	var exp float64
	switch v := claims["exp"].(type) {
	case float64:
		exp = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("decode exp: %w", err)
		}
		exp = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("decode exp: %w", err)
		}
		exp = f
	default:
		return time.Time{}, errors.New("token has no exp claim")
	}
	return time.UnixMilli(int64(exp * 1000)), nil
}

// IsTokenValid reports whether a token is stored and not yet expired. Any
// decode failure counts as invalid.
func (s *Session) IsTokenValid() bool {
	exp, err := s.ExpiresAt()
	valid := err == nil && exp.After(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if valid {
		s.state = StateValid
	} else if s.state != StateCleared {
		s.state = StateInvalid
	}
	return valid
}

// Remaining is the token's lifetime left, zero when invalid.
func (s *Session) Remaining() time.Duration {
	exp, err := s.ExpiresAt()
	if err != nil {
		return 0
	}
	if d := exp.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// User returns the cached profile.
func (s *Session) User() (*User, bool) {
	raw, ok := s.store.Get(KeyUser)
	if !ok || raw == "" {
		return nil, false
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn().Err(err).Msg("Cached user is unreadable")
		return nil, false
	}
	return &u, true
}

// SetUser replaces the cached profile.
func (s *Session) SetUser(u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.store.Set(KeyUser, string(data))
}

// Login stores a fresh token and profile.
func (s *Session) Login(token string, u User) error {
	if token == "" {
		return ErrNoToken
	}
	if err := s.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.SetUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = StateInit
	s.mu.Unlock()
	if !s.IsTokenValid() {
		log.Warn().Msg("Stored a token that is already expired")
	}
	return nil
}

// Logout clears token and profile.
func (s *Session) Logout() error {
	if err := s.store.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	s.state = StateCleared
	s.mu.Unlock()
	log.Debug().Msg("Session cleared")
	return nil
}

// CheckAuthStatus answers from local state only. An invalid token clears
// both token and user. A valid token without a cached user is reported as
// unauthenticated until the profile is fetched again.
func (s *Session) CheckAuthStatus() AuthStatus {
	if !s.IsTokenValid() {
		if err := s.Logout(); err != nil {
			log.Error().Err(err).Msg("Failed to clear invalid session")
		}
		return AuthStatus{}
	}
	u, ok := s.User()
	if !ok {
		return AuthStatus{}
	}
	return AuthStatus{IsAuthenticated: true, User: u}
}

// ResetOnce purges auth state a single time per store, marking the store so
// later calls are no-ops. It reports whether a purge happened.
func (s *Session) ResetOnce() (bool, error) {
	if done, _ := s.store.Get(KeyResetOnce); done != "" {
		return false, nil
	}
	if err := s.Logout(); err != nil {
		return false, err
	}
	if err := s.store.Set(KeyResetOnce, "1"); err != nil {
		return false, fmt.Errorf("mark reset: %w", err)
	}
	return true, nil
}
