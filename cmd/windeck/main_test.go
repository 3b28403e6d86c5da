package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/windeck/internal/config"
	"github.com/1broseidon/windeck/internal/desk"
	"github.com/1broseidon/windeck/internal/ipc"
	"github.com/1broseidon/windeck/internal/store"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := parsePoint("-40", "300")
	if err != nil || x != -40 || y != 300 {
		t.Fatalf("parsePoint = %d,%d,%v", x, y, err)
	}
	if _, _, err := parsePoint("left", "0"); err == nil {
		t.Fatal("expected error for non-numeric x")
	}
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"memory", config.StorageConfig{Backend: config.StorageMemory}},
		{"file", config.StorageConfig{Backend: config.StorageFile, Path: filepath.Join(dir, "state")}},
		{"sqlite", config.StorageConfig{Backend: config.StorageSQLite, Path: filepath.Join(dir, "state.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, closeFn, err := openStorage(tt.cfg)
			if err != nil {
				t.Fatalf("openStorage: %v", err)
			}
			defer closeFn()

			key, err := store.KeyFor("Editor")
			if err != nil {
				t.Fatal(err)
			}
			if err := backend.Write(key, []byte(`{"v":1}`)); err != nil {
				t.Fatalf("Write: %v", err)
			}
			data, ok, err := backend.Read(key)
			if err != nil || !ok || string(data) != `{"v":1}` {
				t.Fatalf("Read = %q, %v, %v", data, ok, err)
			}
		})
	}
}

func TestWriteStatusTable(t *testing.T) {
	since := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	st := &ipc.StatusData{
		Status: desk.Status{
			Spotlight: desk.SpotlightStatus{Phase: "active", Session: "abc", Windows: []string{"0x10", "0x20"}, Since: &since},
			Snap:      desk.SnapStatus{Threshold: 10},
		},
		UptimeSeconds: 5,
	}
	var buf bytes.Buffer
	writeStatusTable(&buf, st)
	out := buf.String()

	for _, want := range []string{"spotlight:", "active", "0x10,0x20", "09:30:00", "10px", "snapping:", "sliding:"} {
		if !strings.Contains(out, want) {
			t.Errorf("status table missing %q:\n%s", want, out)
		}
	}
}
