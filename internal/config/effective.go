package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s: %s: %v", e.Source.position(), e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	set(&cfg.LogLevel, raw.LogLevel)
	if h := raw.Hotkeys; h != nil {
		set(&cfg.Hotkeys.Spotlight, h.Spotlight)
		set(&cfg.Hotkeys.Snap, h.Snap)
	}
	if s := raw.Snap; s != nil {
		set(&cfg.Snap.Threshold, s.Threshold)
	}
	if s := raw.Spotlight; s != nil {
		set(&cfg.Spotlight.Tint, s.Tint)
		set(&cfg.Spotlight.Opacity, s.Opacity)
		set(&cfg.Spotlight.FadeInMS, s.FadeInMS)
		set(&cfg.Spotlight.FadeOutMS, s.FadeOutMS)
	}
	if r := raw.Restore; r != nil {
		set(&cfg.Restore.RevealMS, r.RevealMS)
		set(&cfg.Restore.IntervalMS, r.IntervalMS)
	}
	if s := raw.Slide; s != nil {
		set(&cfg.Slide.DurationMS, s.DurationMS)
	}
	if s := raw.Storage; s != nil {
		set(&cfg.Storage.Backend, s.Backend)
		set(&cfg.Storage.Path, s.Path)
	}
	if r := raw.Reconcile; r != nil {
		set(&cfg.Reconcile.IntervalMS, r.IntervalMS)
	}
	return cfg, nil
}
