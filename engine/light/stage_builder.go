package light

// StageBuilderOption configures a Stage during construction.
type StageBuilderOption func(*stage)

// WithLight registers a light and its shadow state (which may be nil).
//
// Parameters:
//   - l: the light
//   - shadow: the light's shadow, or nil
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithLight(l Light, shadow *Shadow) StageBuilderOption {
	return func(s *stage) {
		if l == nil {
			panic("light: WithLight requires a light")
		}
		s.add(l, shadow)
	}
}
