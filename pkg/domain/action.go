package domain

// ActionKind enumerates the decisions the dialogue policy can take.
type ActionKind string

const (
	ActionClarify           ActionKind = "clarify"
	ActionFillSlot          ActionKind = "fill_slot"
	ActionVerify            ActionKind = "verify"
	ActionQueryBackend      ActionKind = "query_backend"
	ActionEscalate          ActionKind = "escalate"
	ActionRefuseAndEscalate ActionKind = "refuse_and_escalate"
)

// Decision is the tagged result of action selection.
// Only the fields relevant to Kind are populated; Decision is comparable with ==.
type Decision struct {
	Kind      ActionKind `json:"action"`
	NextState State      `json:"next_state"`

	// Intent is the candidate intent (clarify) or the intent being served.
	Intent string `json:"intent,omitempty"`

	// Confidence echoes the classifier score for clarify decisions.
	Confidence float64 `json:"confidence,omitempty"`

	// Slot names the required slot to elicit (fill_slot only).
	Slot string `json:"slot,omitempty"`

	// Reason is a short machine-readable cause (escalate, refuse_and_escalate).
	Reason string `json:"reason,omitempty"`
}

// Escalation reasons.
const (
	ReasonLowConfidence    = "very_low_confidence"
	ReasonRepeatedFallback = "repeated_fallback"
	ReasonSensitiveRequest = "jailbreak_attempt"
	ReasonConfirmedByUser  = "confirmed"
	ReasonMissingSlot      = "incomplete_information"
	ReasonHighRisk         = "high_risk"
	ReasonReady            = "ready"
	ReasonUncertainIntent  = "low_confidence"
)

// Clarify asks the user to confirm a candidate intent.
func Clarify(intent string, confidence float64) Decision {
	return Decision{Kind: ActionClarify, NextState: StateFallback, Intent: intent, Confidence: confidence, Reason: ReasonUncertainIntent}
}

// FillSlot elicits a missing required slot.
func FillSlot(intent, slot string) Decision {
	return Decision{Kind: ActionFillSlot, NextState: StateSlotFilling, Intent: intent, Slot: slot, Reason: ReasonMissingSlot}
}

// Verify requests explicit confirmation for a high-risk intent.
func Verify(intent string) Decision {
	return Decision{Kind: ActionVerify, NextState: StateVerification, Intent: intent, Reason: ReasonHighRisk}
}

// QueryBackend hands the intent and its slots to the backend.
func QueryBackend(intent, reason string) Decision {
	return Decision{Kind: ActionQueryBackend, NextState: StateQueryBackend, Intent: intent, Reason: reason}
}

// Escalate hands the conversation over to a human agent.
func Escalate(intent, reason string) Decision {
	return Decision{Kind: ActionEscalate, NextState: StateFallback, Intent: intent, Reason: reason}
}

// RefuseAndEscalate refuses a sensitive disclosure and escalates.
func RefuseAndEscalate(reason string) Decision {
	return Decision{Kind: ActionRefuseAndEscalate, NextState: StateFallback, Reason: reason}
}

// IsFallback reports whether the decision counts against the session's fallback budget.
func (d Decision) IsFallback() bool {
	return d.Kind == ActionClarify || d.Kind == ActionEscalate
}
