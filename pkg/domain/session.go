package domain

import (
	"strings"
	"time"
)

// DefaultHistoryWindow is the number of turns a session keeps by default.
const DefaultHistoryWindow = 20

// Role identifies the author of a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one message in a session. Turns are never modified once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the full multi-turn state of one conversation.
type Session struct {
	ID     string `json:"session_id"`
	UserID string `json:"user_id,omitempty"`
	State  State  `json:"state"`
	Slots  Slots  `json:"slots"`

	// History holds the most recent Window turns in chronological order.
	History []Turn `json:"history"`
	// Window bounds History; values <= 0 mean DefaultHistoryWindow.
	Window int `json:"window,omitempty"`
	// TurnCount counts every turn ever appended, including discarded ones.
	TurnCount int `json:"turn_count"`

	FallbackCount int `json:"fallback_count"`

	// PendingIntent is the high-risk intent awaiting confirmation (verification state only).
	PendingIntent string `json:"pending_intent,omitempty"`
	LastIntent    string `json:"last_intent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the ciphertext of an encrypted envelope. Stores that
	// encrypt at rest save only ID, State, timestamps and Sealed.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates a session in the greeting state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateGreeting,
		Slots:     make(Slots),
		History:   []Turn{},
		Window:    DefaultHistoryWindow,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) window() int {
	if s.Window <= 0 {
		return DefaultHistoryWindow
	}
	return s.Window
}

// AddTurn appends a turn and discards the oldest turns beyond the window.
func (s *Session) AddTurn(role Role, message string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Message: message, Timestamp: at})
	s.TurnCount++
	if over := len(s.History) - s.window(); over > 0 {
		s.History = append([]Turn(nil), s.History[over:]...)
	}
	s.UpdatedAt = at
}

// Recent returns the last k turns formatted as "role: message" lines.
func (s *Session) Recent(k int) string {
	if k <= 0 || len(s.History) == 0 {
		return ""
	}
	start := len(s.History) - k
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, len(s.History)-start)
	for _, t := range s.History[start:] {
		lines = append(lines, string(t.Role)+": "+t.Message)
	}
	return strings.Join(lines, "\n")
}

// UpdateSlots shallow-merges partial into the session slots; later keys win.
func (s *Session) UpdateSlots(partial Slots) {
	if s.Slots == nil {
		s.Slots = make(Slots, len(partial))
	}
	for k, v := range partial {
		s.Slots[k] = v
	}
}

// Snapshot returns a deep copy that can be mutated without affecting s.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Slots = s.Slots.Clone()
	out.History = make([]Turn, len(s.History))
	copy(out.History, s.History)
	return &out
}

// Summary is a compact view of a session for listings and inspection.
type Summary struct {
	SessionID  string            `json:"session_id"`
	Turns      int               `json:"turns"`
	State      State             `json:"state"`
	Slots      map[string]string `json:"slots"`
	LastIntent string            `json:"intent,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Summary returns the compact view of the session.
func (s *Session) Summary() Summary {
	return Summary{
		SessionID:  s.ID,
		Turns:      s.TurnCount,
		State:      s.State,
		Slots:      s.Slots.Strings(),
		LastIntent: s.LastIntent,
		UpdatedAt:  s.UpdatedAt,
	}
}
