// Package config loads the YAML configuration of a shadow rendering run.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-shadow/engine/light"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"` // debug, info, warn, error
	Engine   EngineConfig `yaml:"engine"`
	Shadow   ShadowConfig `yaml:"shadow"`
	Scene    SceneConfig  `yaml:"scene"`
}

// EngineConfig contains frame loop settings.
type EngineConfig struct {
	FrameLimit    float64 `yaml:"frame_limit"`    // frames per second, 0 = uncapped
	ParallelTasks int     `yaml:"parallel_tasks"` // worker count, 0 = run tasks in order
	Profiling     bool    `yaml:"profiling"`
	Frames        int     `yaml:"frames"` // frames to render, 0 = until cancelled
}

// ShadowConfig contains shadow task and shadow map settings.
type ShadowConfig struct {
	NearOffset     float32 `yaml:"near_offset"` // added to the camera near distance
	FarOffset      float32 `yaml:"far_offset"`  // added to the camera near distance
	MapResolution  int     `yaml:"map_resolution"`
	DepthBias      int32   `yaml:"depth_bias"`
	DepthBiasSlope float32 `yaml:"depth_bias_slope"`
	CasterDistance float32 `yaml:"caster_distance"`
}

// SceneConfig describes the generated benchmark scene.
type SceneConfig struct {
	Casters      int     `yaml:"casters"`
	SkinnedEvery int     `yaml:"skinned_every"` // every Nth caster is skinned, 0 = none
	Spread       float32 `yaml:"spread"`        // half-width of the square the casters are placed in
}

// Default returns the configuration used for every field a file leaves out.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Frames: 600,
		},
		Shadow: ShadowConfig{
			NearOffset:     shadow.DefaultNearOffset,
			FarOffset:      shadow.DefaultFarOffset,
			MapResolution:  light.ShadowMapResolution,
			CasterDistance: light.DefaultCasterDistance,
		},
		Scene: SceneConfig{
			Casters:      256,
			SkinnedEvery: 4,
			Spread:       30,
		},
	}
}

// Load reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - *Config: the validated configuration
//   - error: when the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the validated configuration
//   - error: when the document cannot be parsed or validated
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// TaskOptions returns the shadow task options described by s.
func (s ShadowConfig) TaskOptions() []shadow.TaskBuilderOption {
	return []shadow.TaskBuilderOption{
		shadow.WithNearOffset(s.NearOffset),
		shadow.WithFarOffset(s.FarOffset),
		shadow.WithDepthBias(s.DepthBias, s.DepthBiasSlope),
	}
}

// ShadowOptions returns the shadow state options described by s.
func (s ShadowConfig) ShadowOptions() []light.ShadowBuilderOption {
	return []light.ShadowBuilderOption{
		light.WithCasterDistance(s.CasterDistance),
	}
}
