package mcp

// SpotlightInput is the input for the spotlight tool.
type SpotlightInput struct {
	Windows []string `json:"windows,omitempty" jsonschema:"Window IDs to spotlight (required unless mode is off)"`
	Mode    string   `json:"mode,omitempty" jsonschema:"on, off or toggle (default: toggle)"`
}

// SnapInput is the input for the snap tool.
type SnapInput struct {
	Window string `json:"window" jsonschema:"required,Window ID"`
	Mode   string `json:"mode,omitempty" jsonschema:"on, off or toggle (default: toggle)"`
}

// ToggleOutput reports the state after a spotlight or snap change.
type ToggleOutput struct {
	Active  bool `json:"active"`
	Changed bool `json:"changed"`
}

// WindowStateInput is the input for restore_window and persist_window.
type WindowStateInput struct {
	Window   string `json:"window" jsonschema:"required,Window ID"`
	Identity string `json:"identity,omitempty" jsonschema:"Stable name the state is stored under"`
}

// SlideInput is the input for the slide_window tool.
type SlideInput struct {
	Window     string `json:"window" jsonschema:"required,Window ID"`
	X          int    `json:"x" jsonschema:"Target x in root coordinates"`
	Y          int    `json:"y" jsonschema:"Target y in root coordinates"`
	DurationMS int    `json:"duration_ms,omitempty" jsonschema:"Animation length in milliseconds (default: configured slide duration)"`
	Cancel     bool   `json:"cancel,omitempty" jsonschema:"Cancel a running slide instead of starting one"`
}

// OKOutput acknowledges a tool call with no other result.
type OKOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// StatusInput is the (empty) input for get_status.
type StatusInput struct{}

// StatusOutput is the output for get_status.
type StatusOutput struct {
	SpotlightPhase   string   `json:"spotlight_phase"`
	SpotlightSession string   `json:"spotlight_session,omitempty"`
	SpotlightWindows []string `json:"spotlight_windows,omitempty"`
	SnapThreshold    int      `json:"snap_threshold"`
	SnapWindows      []string `json:"snap_windows"`
	Revealing        int      `json:"revealing"`
	Sliding          []string `json:"sliding"`
	UptimeSeconds    int64    `json:"uptime_seconds"`
}
