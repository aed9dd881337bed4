package domain

// Entity is a raw span recognised by the entity extractor.
type Entity struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// TurnResult is what the orchestrator returns for one processed message.
type TurnResult struct {
	SessionID  string            `json:"session_id"`
	Response   string            `json:"response"`
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	State      State             `json:"state"`
	Slots      map[string]string `json:"slots"`
	Action     ActionKind        `json:"action"`
}
