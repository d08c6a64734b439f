package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid value")

// Validate checks if the configuration is valid.
func Validate(cfg *Config) error {
	if _, err := cfg.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Engine.FrameLimit < 0 || math.IsNaN(cfg.Engine.FrameLimit) {
		return fmt.Errorf("%w: engine.frame_limit must be >= 0", ErrInvalidConfig)
	}
	if cfg.Engine.ParallelTasks < 0 {
		return fmt.Errorf("%w: engine.parallel_tasks must be >= 0", ErrInvalidConfig)
	}
	if cfg.Engine.Frames < 0 {
		return fmt.Errorf("%w: engine.frames must be >= 0", ErrInvalidConfig)
	}

	s := cfg.Shadow
	if !finite(s.NearOffset) || !finite(s.FarOffset) {
		return fmt.Errorf("%w: shadow offsets must be finite", ErrInvalidConfig)
	}
	if s.FarOffset <= s.NearOffset {
		return fmt.Errorf("%w: shadow.far_offset (%v) must exceed shadow.near_offset (%v)", ErrInvalidConfig, s.FarOffset, s.NearOffset)
	}
	if s.MapResolution <= 0 {
		return fmt.Errorf("%w: shadow.map_resolution must be > 0", ErrInvalidConfig)
	}
	if !finite(s.CasterDistance) || s.CasterDistance < 0 {
		return fmt.Errorf("%w: shadow.caster_distance must be finite and >= 0", ErrInvalidConfig)
	}

	if cfg.Scene.Casters < 0 {
		return fmt.Errorf("%w: scene.casters must be >= 0", ErrInvalidConfig)
	}
	if cfg.Scene.SkinnedEvery < 0 {
		return fmt.Errorf("%w: scene.skinned_every must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
