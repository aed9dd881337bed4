package domain

import "fmt"

// State is the dialogue phase a session is currently in.
type State string

const (
	StateGreeting     State = "greeting"      // Initial state of every new session
	StateFallback     State = "fallback"      // Last turn could not be understood with confidence
	StateSlotFilling  State = "slot_filling"  // Eliciting a required slot
	StateVerification State = "verification"  // Waiting for explicit confirmation of a high-risk intent
	StateQueryBackend State = "query_backend" // Backend query was selected for this turn
	StateCompletion   State = "completion"    // Backend query succeeded
)

var knownStates = [...]State{
	StateGreeting,
	StateFallback,
	StateSlotFilling,
	StateVerification,
	StateQueryBackend,
	StateCompletion,
}

// States returns every defined state in declaration order.
func States() []State {
	out := make([]State, len(knownStates))
	copy(out, knownStates[:])
	return out
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	for _, k := range knownStates {
		if s == k {
			return true
		}
	}
	return false
}

// ParseState converts a raw string into a State, rejecting unknown values.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
	return s, nil
}

// UnmarshalText rejects states outside the defined set, so a corrupted store
// entry can never put a session into an undefined state.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s), nil
}
