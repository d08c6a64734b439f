package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/engine"
	"github.com/Carmen-Shannon/oxy-shadow/engine/config"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
)

func TestBuildScene(t *testing.T) {
	s := buildScene(config.SceneConfig{Casters: 10, SkinnedEvery: 5, Spread: 10})
	if s.Count() != 10 {
		t.Fatalf("Count() = %d, want 10", s.Count())
	}
	var skinned, casters int
	s.ForEachShadowCaster(func(b scene.ItemBound) {
		casters++
		if b.Key.IsSkinned() {
			skinned++
		}
	})
	if casters != 10 || skinned != 2 {
		t.Errorf("casters = %d, skinned = %d, want 10 and 2", casters, skinned)
	}
}

func TestRunHeadless(t *testing.T) {
	t.Cleanup(func() { engine.SetLogger(nil) })
	if err := run(benchOptions{configPath: "shadowbench.yaml", frames: 3}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
