package credentials

import "sync"

// TokenProvider is read by the API client when attaching the Authorization header.
type TokenProvider interface {
	Token() string
}

// Slot is the single mutable "current auth token" shared between the session
// manager (writer) and the API client (reader).
type Slot struct {
	mu    sync.RWMutex
	token string
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the current token.
func (s *Slot) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.Set("")
}

// Static is a fixed token, handy for one-off calls such as revoking a token
// that is no longer current.
type Static string

func (s Static) Token() string { return string(s) }

var (
	_ TokenProvider = (*Slot)(nil)
	_ TokenProvider = Static("")
)
