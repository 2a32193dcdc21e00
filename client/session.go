package client

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

// Identity is the authenticated user as persisted between runs.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// Session holds the current identity and persists it as a JSON file,
// surviving restarts the way a browser session would.
type Session struct {
	mu       sync.RWMutex
	path     string
	identity *Identity
}

// NewSession loads the session persisted at path, if any.
func NewSession(path string) (*Session, error) {
	s := &Session{path: path}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, errors.Wrap(err, "decoding session file")
	}
	s.identity = &id
	return s, nil
}

// Current returns the stored identity; ok is false when logged out.
func (s *Session) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Session) HasRole(role string) bool {
	id, ok := s.Current()
	return ok && id.Role == role
}

func (s *Session) IsStudent() bool    { return s.HasRole(user.RoleStudent) }
func (s *Session) IsInstructor() bool { return s.HasRole(user.RoleInstructor) }

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	id, _ := s.Current()
	return id.Token
}

// Save stores the identity and persists it.
func (s *Session) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(id)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := ioutil.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, "writing session file")
	}
	s.identity = &id
	return nil
}

// Clear drops the identity and removes the persisted file.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
