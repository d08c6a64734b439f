package shape

// PlumberBuilderOption is a functional option used to configure a Plumber during construction.
type PlumberBuilderOption func(*plumber)

// WithLabel sets the label used in pipeline keys and error messages.
//
// Parameters:
//   - label: the plumber label (e.g. "shadow")
//
// Returns:
//   - PlumberBuilderOption: a function that sets the label
func WithLabel(label string) PlumberBuilderOption {
	return func(p *plumber) {
		p.label = label
	}
}
