package config

import (
	"fmt"
	"sort"
)

// Explain returns the effective value at the given YAML path and its source.
//
// Supported paths include:
//
//	log_level
//	hotkeys.spotlight
//	snap.threshold
//	spotlight.tint
//	spotlight.opacity
//	restore.reveal_ms
//	storage.backend
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	values := flatten(res.Config)
	value, ok := values[path]
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown config path %q", path)
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "default"}, nil
}

// Paths lists every explainable path in sorted order.
func Paths() []string {
	values := flatten(DefaultConfig())
	out := make([]string, 0, len(values))
	for p := range values {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func flatten(c *Config) map[string]any {
	return map[string]any{
		"log_level":             c.LogLevel,
		"hotkeys.spotlight":     c.Hotkeys.Spotlight,
		"hotkeys.snap":          c.Hotkeys.Snap,
		"snap.threshold":        c.Snap.Threshold,
		"spotlight.tint":        c.Spotlight.Tint,
		"spotlight.opacity":     c.Spotlight.Opacity,
		"spotlight.fade_in_ms":  c.Spotlight.FadeInMS,
		"spotlight.fade_out_ms": c.Spotlight.FadeOutMS,
		"restore.reveal_ms":     c.Restore.RevealMS,
		"restore.interval_ms":   c.Restore.IntervalMS,
		"slide.duration_ms":     c.Slide.DurationMS,
		"storage.backend":       c.Storage.Backend,
		"storage.path":          c.Storage.Path,
		"reconcile.interval_ms": c.Reconcile.IntervalMS,
	}
}

// String formats a source for display.
func (s Source) String() string {
	if s.Kind == SourceFile {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
	if s.Name != "" {
		return string(s.Kind) + ":" + s.Name
	}
	return string(s.Kind)
}
