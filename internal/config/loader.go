package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind says where a setting came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source locates a setting. Name is set for defaults, File/Line/Column for
// settings read from YAML.
type Source struct {
	Kind   SourceKind
	Name   string
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// LoadResult is a loaded configuration plus where each key was set.
type LoadResult struct {
	Config *Config
	// Sources maps a dotted YAML path to the file that set it last.
	Sources map[string]Source
	// Files lists every file read, includes before the file including them.
	Files []string
}

// DefaultConfigPath returns ~/.config/windeck/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "windeck", "config.yaml"), nil
}

// Load returns the effective configuration from the default path.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load with per-key sources, for `config explain`.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file
// yields defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	ld := &loader{
		visited: make(map[string]bool),
		sources: make(map[string]Source),
	}

	var raw RawConfig
	if _, err := os.Stat(path); err == nil {
		raw, err = ld.load(path)
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, ld.locate(err)
	}
	return &LoadResult{Config: cfg, Sources: ld.sources, Files: ld.files}, nil
}

// loader merges one include tree. Files included twice are read once;
// a file that includes one of its ancestors is an error.
type loader struct {
	visited map[string]bool
	chain   []string
	sources map[string]Source
	files   []string
}

func (ld *loader) load(path string) (RawConfig, error) {
	name := resolve(path)
	if slices.Contains(ld.chain, name) {
		return RawConfig{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(ld.chain, " -> "), name)
	}
	if ld.visited[name] {
		return RawConfig{}, nil
	}
	ld.visited[name] = true

	doc, err := readFile(name)
	if err != nil {
		return RawConfig{}, err
	}

	ld.chain = append(ld.chain, name)
	var merged RawConfig
	for _, inc := range doc.includes {
		paths, err := includedFiles(name, inc.path)
		if err != nil {
			return RawConfig{}, fmt.Errorf("%s: include %q: %w", inc.at.position(), inc.path, err)
		}
		for _, p := range paths {
			sub, err := ld.load(p)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(sub)
		}
	}
	ld.chain = ld.chain[:len(ld.chain)-1]

	// The including file wins over what it includes.
	merged = merged.merge(doc.raw)
	for k, src := range doc.sources {
		ld.sources[k] = src
	}
	ld.files = append(ld.files, name)
	return merged, nil
}

// locate prefixes a validation error with the file position of its key.
func (ld *loader) locate(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := ld.sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}

type include struct {
	path string
	at   Source
}

type document struct {
	raw      RawConfig
	sources  map[string]Source
	includes []include
}

func readFile(name string) (*document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", name, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", name, err)
	}
	doc := &document{sources: make(map[string]Source)}

	// Unknown keys are errors, which Node.Decode cannot report.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc.raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	indexKeys(top, name, "", doc.sources)
	doc.includes = includesOf(top, name)
	return doc, nil
}

func at(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// indexKeys records the position of every mapping value under its dotted
// path. Sequences are recorded as a whole.
func indexKeys(n *yaml.Node, file, prefix string, out map[string]Source) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if prefix != "" {
				key = prefix + "." + key
			}
			out[key] = at(file, val)
			indexKeys(val, file, key, out)
		}
	case yaml.SequenceNode:
		if prefix != "" {
			out[prefix] = at(file, n)
		}
	}
}

// includesOf returns the top-level include entries with their positions.
func includesOf(top *yaml.Node, file string) []include {
	if top.Kind != yaml.MappingNode {
		return nil
	}
	var val *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "include" {
			val = top.Content[i+1]
			break
		}
	}
	if val == nil {
		return nil
	}

	items := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		items = val.Content
	}
	var out []include
	for _, it := range items {
		if it.Kind == yaml.ScalarNode {
			out = append(out, include{path: it.Value, at: at(file, it)})
		}
	}
	return out
}

// resolve returns the absolute, symlink-free form of path, or just the
// absolute form when symlinks cannot be followed.
func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// includedFiles expands one include entry relative to the including file.
// A directory contributes its *.yaml and *.yml files in name order.
func includedFiles(from, entry string) ([]string, error) {
	if entry == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if entry == "~" || strings.HasPrefix(entry, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		entry = filepath.Join(home, strings.TrimPrefix(entry, "~"))
	}
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(filepath.Dir(from), entry)
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{entry}, nil
	}

	entries, err := os.ReadDir(entry)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				files = append(files, filepath.Join(entry, e.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
