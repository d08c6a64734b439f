package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("shadow:\n  far_offset: 35\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := Default()
	if cfg.Shadow.FarOffset != 35 {
		t.Errorf("FarOffset = %v, want 35", cfg.Shadow.FarOffset)
	}
	if cfg.Shadow.NearOffset != def.Shadow.NearOffset {
		t.Errorf("NearOffset = %v, want default %v", cfg.Shadow.NearOffset, def.Shadow.NearOffset)
	}
	if cfg.Shadow.MapResolution != def.Shadow.MapResolution || cfg.Scene.Casters != def.Scene.Casters {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if Default().Shadow.NearOffset != -2 || Default().Shadow.FarOffset != 20 {
		t.Errorf("default offsets = %v/%v, want -2/20", Default().Shadow.NearOffset, Default().Shadow.FarOffset)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"far not above near", "shadow:\n  near_offset: 4\n  far_offset: 4\n"},
		{"NaN offset", "shadow:\n  near_offset: .nan\n"},
		{"infinite offset", "shadow:\n  far_offset: .inf\n"},
		{"zero resolution", "shadow:\n  map_resolution: 0\n"},
		{"negative caster distance", "shadow:\n  caster_distance: -1\n"},
		{"negative workers", "engine:\n  parallel_tasks: -2\n"},
		{"negative frame limit", "engine:\n  frame_limit: -30\n"},
		{"unknown log level", "log_level: loud\n"},
		{"negative casters", "scene:\n  casters: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Parse() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("shadow: [")); err == nil {
		t.Fatal("Parse() error = nil for malformed YAML")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shadowbench.yaml")
	data := []byte("log_level: debug\nengine:\n  parallel_tasks: 4\n  frames: 10\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.ParallelTasks != 4 || cfg.Engine.Frames != 10 {
		t.Errorf("engine = %+v, want 4 workers and 10 frames", cfg.Engine)
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", level)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file returned no error")
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	if n := len(cfg.Shadow.TaskOptions()); n != 3 {
		t.Errorf("len(TaskOptions()) = %d, want 3", n)
	}
	if n := len(cfg.Shadow.ShadowOptions()); n != 1 {
		t.Errorf("len(ShadowOptions()) = %d, want 1", n)
	}
}
