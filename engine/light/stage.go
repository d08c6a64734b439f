package light

import (
	"slices"
	"sync"
)

// Stage owns the lights of a scene and the shadow state of those that cast shadows.
// Thread-safe for concurrent access.
type Stage interface {
	// AddLight registers l. shadow may be nil for lights that do not render a shadow map.
	// Adding a registered light replaces its shadow.
	//
	// Parameters:
	//   - l: the light to add
	//   - shadow: the light's shadow state, or nil
	AddLight(l Light, shadow *Shadow)

	// RemoveLight unregisters l. Unknown lights are ignored.
	RemoveLight(l Light)

	// Lights returns the registered lights in registration order.
	//
	// Returns:
	//   - []Light: a copy of the light list
	Lights() []Light

	// Keylight returns the primary shadow-casting light: the first registered directional
	// light that is enabled and casts shadows.
	//
	// Returns:
	//   - Light: the keylight, or nil when there is none
	Keylight() Light

	// Shadow returns the shadow state registered for l.
	//
	// Returns:
	//   - *Shadow: the shadow, or nil
	Shadow(l Light) *Shadow
}

type stage struct {
	mu      *sync.RWMutex
	lights  []Light
	shadows map[Light]*Shadow
}

var _ Stage = &stage{}

// NewStage creates an empty light stage.
//
// Parameters:
//   - opts: variadic list of StageBuilderOption functions
//
// Returns:
//   - Stage: the stage
func NewStage(opts ...StageBuilderOption) Stage {
	s := &stage{
		mu:      &sync.RWMutex{},
		shadows: make(map[Light]*Shadow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *stage) AddLight(l Light, shadow *Shadow) {
	if l == nil {
		panic("light: AddLight requires a light")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(l, shadow)
}

func (s *stage) add(l Light, shadow *Shadow) {
	if !slices.Contains(s.lights, l) {
		s.lights = append(s.lights, l)
	}
	if shadow == nil {
		delete(s.shadows, l)
		return
	}
	s.shadows[l] = shadow
}

func (s *stage) RemoveLight(l Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(x Light) bool { return x == l })
	delete(s.shadows, l)
}

func (s *stage) Lights() []Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *stage) Keylight() Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lights {
		if l.Type() == LightTypeDirectional && l.Enabled() && l.CastsShadows() {
			return l
		}
	}
	return nil
}

func (s *stage) Shadow(l Light) *Shadow {
	if l == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shadows[l]
}
