package model

// ProgressEntry is one dataset's progress notification. Percent is a
// fraction in [0, 1]; State is nil when the notification carries no state.
type ProgressEntry struct {
	ID      int     `json:"id"`
	State   *State  `json:"state,omitempty"`
	Percent float64 `json:"percent"`
}

// ProgressUpdate maps dataset hashes to their latest progress notification.
type ProgressUpdate map[string]ProgressEntry

// StateOf returns a pointer to s, for building ProgressEntry literals.
func StateOf(s State) *State {
	return &s
}
