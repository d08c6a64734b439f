package shape

import "strings"

// Filter selects the keys a pipeline serves. A key matches when every bit in Mask has the
// value given by Flags; bits outside Mask are ignored. Invalid keys never match.
type Filter struct {
	Flags Key
	Mask  Key
}

// FilterFromKey returns a filter matching exactly k.
func FilterFromKey(k Key) Filter {
	return Filter{Flags: k &^ Invalid, Mask: allFlags &^ Invalid}
}

// Matches reports whether key satisfies the filter.
//
// Parameters:
//   - key: the shape key to test
//
// Returns:
//   - bool: true if the key is valid and agrees with Flags on every masked bit
func (f Filter) Matches(key Key) bool {
	if !key.IsValid() {
		return false
	}
	return key&f.Mask == f.Flags&f.Mask
}

// String renders the filter as +Flag / -Flag terms, or "*" when it matches every valid key.
func (f Filter) String() string {
	if f.Mask&^Invalid == 0 {
		return "*"
	}
	var b strings.Builder
	for i := 0; i < numFlags; i++ {
		bit := Key(1) << i
		if f.Mask&bit == 0 || bit == Invalid {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if f.Flags&bit != 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
		b.WriteString(flagNames[i])
	}
	return b.String()
}

// FilterBuilder assembles a Filter. With* requires a flag to be set, Without* requires it to
// be clear; flags never mentioned are ignored by the filter.
//
//	nonSkinned := shape.NewFilterBuilder().WithoutSkinned().Build()
type FilterBuilder struct {
	filter Filter
}

// NewFilterBuilder returns a builder for the filter matching every valid key.
func NewFilterBuilder() FilterBuilder {
	return FilterBuilder{}
}

// With requires the given flags to be set.
func (b FilterBuilder) With(flags Key) FilterBuilder {
	b.filter.Flags |= flags
	b.filter.Mask |= flags
	return b
}

// Without requires the given flags to be clear.
func (b FilterBuilder) Without(flags Key) FilterBuilder {
	b.filter.Flags &^= flags
	b.filter.Mask |= flags
	return b
}

func (b FilterBuilder) WithSkinned() FilterBuilder        { return b.With(Skinned) }
func (b FilterBuilder) WithoutSkinned() FilterBuilder     { return b.Without(Skinned) }
func (b FilterBuilder) WithTranslucent() FilterBuilder    { return b.With(Translucent) }
func (b FilterBuilder) WithoutTranslucent() FilterBuilder { return b.Without(Translucent) }
func (b FilterBuilder) WithDepthOnly() FilterBuilder      { return b.With(DepthOnly) }
func (b FilterBuilder) WithoutDepthOnly() FilterBuilder   { return b.Without(DepthOnly) }
func (b FilterBuilder) WithWireframe() FilterBuilder      { return b.With(Wireframe) }
func (b FilterBuilder) WithoutWireframe() FilterBuilder   { return b.Without(Wireframe) }

// Build returns the assembled filter.
func (b FilterBuilder) Build() Filter {
	return b.filter
}
