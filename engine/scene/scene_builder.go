package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithItems adds initial items to the scene. IDs are assigned in argument order.
//
// Parameters:
//   - items: the items to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithItems(items ...Item) SceneBuilderOption {
	return func(s *scene) {
		for _, item := range items {
			s.add(item)
		}
	}
}
