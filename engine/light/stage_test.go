package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
)

func TestStageKeylight(t *testing.T) {
	point := NewLight(LightTypePoint, WithCastsShadows(true))
	disabled := NewLight(LightTypeDirectional, WithCastsShadows(true), WithEnabled(false))
	noShadow := NewLight(LightTypeDirectional)
	sun := NewLight(LightTypeDirectional, WithCastsShadows(true))

	tests := []struct {
		name   string
		lights []Light
		want   Light
	}{
		{"empty", nil, nil},
		{"point only", []Light{point}, nil},
		{"skips disabled and non-casting", []Light{point, disabled, noShadow, sun}, sun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStage()
			for _, l := range tt.lights {
				s.AddLight(l, nil)
			}
			if got := s.Keylight(); got != tt.want {
				t.Errorf("Keylight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStageShadow(t *testing.T) {
	sun := NewLight(LightTypeDirectional, WithCastsShadows(true))
	shadow := NewShadow(sun, gpu.NewFramebuffer("shadow", 64, 64))
	s := NewStage(WithLight(sun, shadow))

	if s.Shadow(sun) != shadow {
		t.Error("Shadow(sun) is not the registered shadow")
	}
	if s.Shadow(nil) != nil {
		t.Error("Shadow(nil) != nil")
	}

	s.AddLight(sun, nil)
	if s.Shadow(sun) != nil {
		t.Error("re-adding without a shadow kept the old one")
	}
	if len(s.Lights()) != 1 {
		t.Errorf("len(Lights()) = %d, want 1", len(s.Lights()))
	}

	s.RemoveLight(sun)
	if s.Keylight() != nil || len(s.Lights()) != 0 {
		t.Error("RemoveLight left the light registered")
	}
}

func TestLightSetDirectionNormalizes(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(0, 0, -4)
	if l.Direction() != [3]float32{0, 0, -1} {
		t.Errorf("Direction() = %v", l.Direction())
	}
	l.SetDirection(0, 0, 0)
	if l.Direction() != [3]float32{0, 0, -1} {
		t.Errorf("zero SetDirection changed Direction() to %v", l.Direction())
	}
}
