package store

import (
	"sync"
	"time"

	"kiosk-assistant/internal/booking"
)

const DefaultMaxMessages = 20

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Record is one conversation entry. Records are never modified once stored.
type Record struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session owns the bounded history and booking state of one conversation.
type Session struct {
	ID string

	// turn is held for the whole of a chat turn so that at most one
	// mutator works on a session at a time.
	turn sync.Mutex

	mu          sync.Mutex
	records     []Record
	booking     *booking.State
	maxMessages int
	now         func() time.Time
}

func (s *Session) Append(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, Record{Role: role, Content: content, Timestamp: s.now()})
	s.trimLocked()
}

// Records returns a copy of the retained history, oldest first.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Booking runs fn with exclusive access to the session's booking state.
func (s *Session) Booking(fn func(st *booking.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.booking)
}

func (s *Session) trimLocked() {
	if s.maxMessages <= 0 {
		return
	}
	if len(s.records) > s.maxMessages {
		s.records = append([]Record(nil), s.records[len(s.records)-s.maxMessages:]...)
	}
}

// MemoryStore maps session ids to sessions. It lives for the process
// lifetime and has no bound on the number of sessions.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxMessages int
	now         func() time.Time
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		maxMessages: maxMessages,
		now:         time.Now,
	}
}

func (m *MemoryStore) MaxMessages() int { return m.maxMessages }

// Lookup returns an existing session without creating one.
func (m *MemoryStore) Lookup(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *MemoryStore) session(sessionID string) *Session {
	if s, ok := m.Lookup(sessionID); ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		return s
	}
	s := &Session{
		ID:          sessionID,
		booking:     booking.New(),
		maxMessages: m.maxMessages,
		now:         m.now,
	}
	m.sessions[sessionID] = s
	return s
}

// Acquire returns the session for sessionID, creating it if needed, with
// its turn lock held. The caller must call release when the turn is over.
func (m *MemoryStore) Acquire(sessionID string) (*Session, func()) {
	s := m.session(sessionID)
	s.turn.Lock()
	return s, s.turn.Unlock
}

// AddMessage appends a record, evicting the oldest ones past the cap.
func (m *MemoryStore) AddMessage(sessionID string, role Role, content string) {
	m.session(sessionID).Append(role, content)
}

// History returns the retained records for sessionID, oldest first. Unknown
// sessions yield an empty slice.
func (m *MemoryStore) History(sessionID string) []Record {
	s, ok := m.Lookup(sessionID)
	if !ok {
		return []Record{}
	}
	return s.Records()
}

// Clear drops the session's history and booking state. It is a no-op for
// unknown sessions.
func (m *MemoryStore) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
