package light

// ShadowBuilderOption configures a Shadow during construction.
type ShadowBuilderOption func(*Shadow)

// WithCasterDistance sets how far the light frustum extends toward the light beyond the
// fitted view slice. Negative values are treated as 0.
//
// Parameters:
//   - distance: the extra depth in world units
//
// Returns:
//   - ShadowBuilderOption: option function to apply
func WithCasterDistance(distance float32) ShadowBuilderOption {
	return func(s *Shadow) {
		s.casterDistance = max(distance, 0)
	}
}
