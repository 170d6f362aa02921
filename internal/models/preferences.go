package models

// Preferences mirrors the four settings keys of the study client.
type Preferences struct {
	Settings     map[string]any `json:"settings"`
	AdaptiveMode bool           `json:"adaptiveMode"`
	Difficulty   Difficulty     `json:"difficulty,omitempty"`
	TimerEnabled bool           `json:"timerEnabled"`
}
