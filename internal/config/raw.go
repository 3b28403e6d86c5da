package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawHotkeys struct {
	Spotlight *string `yaml:"spotlight"`
	Snap      *string `yaml:"snap"`
}

type RawSnap struct {
	Threshold *int `yaml:"threshold"`
}

type RawSpotlight struct {
	Tint      *string  `yaml:"tint"`
	Opacity   *float64 `yaml:"opacity"`
	FadeInMS  *int     `yaml:"fade_in_ms"`
	FadeOutMS *int     `yaml:"fade_out_ms"`
}

type RawRestore struct {
	RevealMS   *int `yaml:"reveal_ms"`
	IntervalMS *int `yaml:"interval_ms"`
}

type RawSlide struct {
	DurationMS *int `yaml:"duration_ms"`
}

type RawStorage struct {
	Backend *string `yaml:"backend"`
	Path    *string `yaml:"path"`
}

type RawReconcile struct {
	IntervalMS *int `yaml:"interval_ms"`
}

// RawConfig mirrors Config with every field optional so that included
// files only override what they set.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	LogLevel  *string       `yaml:"log_level"`
	Hotkeys   *RawHotkeys   `yaml:"hotkeys"`
	Snap      *RawSnap      `yaml:"snap"`
	Spotlight *RawSpotlight `yaml:"spotlight"`
	Restore   *RawRestore   `yaml:"restore"`
	Slide     *RawSlide     `yaml:"slide"`
	Storage   *RawStorage   `yaml:"storage"`
	Reconcile *RawReconcile `yaml:"reconcile"`
}

func pick[T any](base, override *T) *T {
	if override != nil {
		return override
	}
	return base
}

func mergeSection[T any](base, override *T, merge func(a, b T) T) *T {
	switch {
	case override == nil:
		return base
	case base == nil:
		return override
	default:
		out := merge(*base, *override)
		return &out
	}
}

// merge returns r with every field set in o applied on top.
func (r RawConfig) merge(o RawConfig) RawConfig {
	out := r
	out.Include = nil
	out.LogLevel = pick(r.LogLevel, o.LogLevel)
	out.Hotkeys = mergeSection(r.Hotkeys, o.Hotkeys, func(a, b RawHotkeys) RawHotkeys {
		return RawHotkeys{Spotlight: pick(a.Spotlight, b.Spotlight), Snap: pick(a.Snap, b.Snap)}
	})
	out.Snap = mergeSection(r.Snap, o.Snap, func(a, b RawSnap) RawSnap {
		return RawSnap{Threshold: pick(a.Threshold, b.Threshold)}
	})
	out.Spotlight = mergeSection(r.Spotlight, o.Spotlight, func(a, b RawSpotlight) RawSpotlight {
		return RawSpotlight{
			Tint:      pick(a.Tint, b.Tint),
			Opacity:   pick(a.Opacity, b.Opacity),
			FadeInMS:  pick(a.FadeInMS, b.FadeInMS),
			FadeOutMS: pick(a.FadeOutMS, b.FadeOutMS),
		}
	})
	out.Restore = mergeSection(r.Restore, o.Restore, func(a, b RawRestore) RawRestore {
		return RawRestore{RevealMS: pick(a.RevealMS, b.RevealMS), IntervalMS: pick(a.IntervalMS, b.IntervalMS)}
	})
	out.Slide = mergeSection(r.Slide, o.Slide, func(a, b RawSlide) RawSlide {
		return RawSlide{DurationMS: pick(a.DurationMS, b.DurationMS)}
	})
	out.Storage = mergeSection(r.Storage, o.Storage, func(a, b RawStorage) RawStorage {
		return RawStorage{Backend: pick(a.Backend, b.Backend), Path: pick(a.Path, b.Path)}
	})
	out.Reconcile = mergeSection(r.Reconcile, o.Reconcile, func(a, b RawReconcile) RawReconcile {
		return RawReconcile{IntervalMS: pick(a.IntervalMS, b.IntervalMS)}
	})
	return out
}
