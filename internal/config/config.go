package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Hotkeys binds global key sequences to window operations on the active
// window. Empty sequences are not bound.
type Hotkeys struct {
	Spotlight string `yaml:"spotlight"`
	Snap      string `yaml:"snap"`
}

// SnapConfig tunes edge snapping.
type SnapConfig struct {
	// Threshold is the maximum distance in pixels at which an edge snaps.
	Threshold int `yaml:"threshold"`
}

// SpotlightConfig controls the dimming backdrop.
type SpotlightConfig struct {
	// Tint is the backdrop colour as #RRGGBB.
	Tint      string  `yaml:"tint"`
	Opacity   float64 `yaml:"opacity"`
	FadeInMS  int     `yaml:"fade_in_ms"`
	FadeOutMS int     `yaml:"fade_out_ms"`
}

// RestoreConfig controls the reveal after a window's saved state is applied.
type RestoreConfig struct {
	RevealMS   int `yaml:"reveal_ms"`
	IntervalMS int `yaml:"interval_ms"`
}

// SlideConfig sets the default slide animation.
type SlideConfig struct {
	DurationMS int `yaml:"duration_ms"`
}

// StorageConfig selects where window state is persisted.
type StorageConfig struct {
	// Backend is one of: file, sqlite, memory.
	Backend string `yaml:"backend"`
	// Path is the state directory (file) or database file (sqlite).
	// Empty selects a location under the user state directory.
	Path string `yaml:"path,omitempty"`
}

// ReconcileConfig controls the periodic sweep for windows that vanished
// without notice.
type ReconcileConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

// Config is the effective daemon configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Hotkeys   Hotkeys         `yaml:"hotkeys"`
	Snap      SnapConfig      `yaml:"snap"`
	Spotlight SpotlightConfig `yaml:"spotlight"`
	Restore   RestoreConfig   `yaml:"restore"`
	Slide     SlideConfig     `yaml:"slide"`
	Storage   StorageConfig   `yaml:"storage"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Hotkeys: Hotkeys{
			Spotlight: "Mod4-Shift-s",
			Snap:      "Mod4-Shift-a",
		},
		Snap: SnapConfig{Threshold: 10},
		Spotlight: SpotlightConfig{
			Tint:    "#000000",
			Opacity: 0.6,
		},
		Restore: RestoreConfig{
			RevealMS:   120,
			IntervalMS: 16,
		},
		Slide:     SlideConfig{DurationMS: 200},
		Storage:   StorageConfig{Backend: StorageFile},
		Reconcile: ReconcileConfig{IntervalMS: 10000},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Snap.Threshold < 0 {
		return &ValidationError{Path: "snap.threshold", Err: fmt.Errorf("threshold must be >= 0")}
	}
	if _, err := ParseTint(c.Spotlight.Tint); err != nil {
		return &ValidationError{Path: "spotlight.tint", Err: err}
	}
	if c.Spotlight.Opacity < 0 || c.Spotlight.Opacity > 1 {
		return &ValidationError{Path: "spotlight.opacity", Err: fmt.Errorf("opacity must be between 0 and 1")}
	}
	if c.Spotlight.FadeInMS < 0 {
		return &ValidationError{Path: "spotlight.fade_in_ms", Err: fmt.Errorf("fade_in_ms must be >= 0")}
	}
	if c.Spotlight.FadeOutMS < 0 {
		return &ValidationError{Path: "spotlight.fade_out_ms", Err: fmt.Errorf("fade_out_ms must be >= 0")}
	}
	if c.Restore.RevealMS < 0 {
		return &ValidationError{Path: "restore.reveal_ms", Err: fmt.Errorf("reveal_ms must be >= 0")}
	}
	if c.Restore.IntervalMS <= 0 {
		return &ValidationError{Path: "restore.interval_ms", Err: fmt.Errorf("interval_ms must be > 0")}
	}
	if c.Slide.DurationMS < 0 {
		return &ValidationError{Path: "slide.duration_ms", Err: fmt.Errorf("duration_ms must be >= 0")}
	}
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return &ValidationError{Path: "storage.backend", Err: fmt.Errorf("backend must be one of: file, sqlite, memory")}
	}
	if c.Reconcile.IntervalMS < 0 {
		return &ValidationError{Path: "reconcile.interval_ms", Err: fmt.Errorf("interval_ms must be >= 0")}
	}
	return nil
}

// ParseTint parses a #RRGGBB colour.
func ParseTint(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("tint %q must be #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("tint %q must be #RRGGBB", s)
	}
	return uint32(v), nil
}

// TintRGB returns the validated backdrop tint.
func (c SpotlightConfig) TintRGB() uint32 {
	v, _ := ParseTint(c.Tint)
	return v
}

// FadeIn returns the backdrop fade-in duration.
func (c SpotlightConfig) FadeIn() time.Duration {
	return time.Duration(c.FadeInMS) * time.Millisecond
}

// FadeOut returns the backdrop fade-out duration.
func (c SpotlightConfig) FadeOut() time.Duration {
	return time.Duration(c.FadeOutMS) * time.Millisecond
}

// Reveal returns the reveal fade duration.
func (c RestoreConfig) Reveal() time.Duration {
	return time.Duration(c.RevealMS) * time.Millisecond
}

// Interval returns the reveal tick period.
func (c RestoreConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Duration returns the default slide duration.
func (c SlideConfig) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// Interval returns the reconcile period, zero when disabled.
func (c ReconcileConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
