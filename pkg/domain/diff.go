package domain

// SessionDiff represents the changes one turn made to a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	State *State `json:"state,omitempty"`

	// Slots contains only changed, added or deleted slots.
	// For deletions, the key is present with an empty string.
	Slots map[string]string `json:"slots,omitempty"`

	// Appended contains the turns added since the old snapshot.
	Appended []Turn `json:"appended,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{
		SessionID: newSession.ID,
	}

	if oldSession == nil || oldSession.State != newSession.State {
		st := newSession.State
		diff.State = &st
	}
	diff.Slots = diffSlots(oldSession, newSession)
	diff.Appended = diffHistory(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffSlots(old, new *Session) map[string]string {
	delta := make(map[string]string)

	if old == nil {
		for k, v := range new.Slots {
			delta[k] = v.String()
		}
	} else {
		for k, newVal := range new.Slots {
			if oldVal, exists := old.Slots[k]; !exists || !oldVal.Equal(newVal) {
				delta[k] = newVal.String()
			}
		}
		for k := range old.Slots {
			if _, exists := new.Slots[k]; !exists {
				delta[k] = ""
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory relies on TurnCount, since the windowed History may drop turns.
func diffHistory(old, new *Session) []Turn {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}

	added := new.TurnCount - old.TurnCount
	if added <= 0 {
		return nil
	}
	if added > len(new.History) {
		added = len(new.History)
	}
	return new.History[len(new.History)-added:]
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.State == nil &&
		len(d.Slots) == 0 &&
		len(d.Appended) == 0
}
