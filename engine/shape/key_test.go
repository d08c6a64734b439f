package shape

import "testing"

func TestKeyBuilder(t *testing.T) {
	k := NewKeyBuilder().WithSkinned().WithDepthOnly().Build()
	if !k.IsSkinned() || !k.Has(DepthOnly) {
		t.Errorf("key %v missing Skinned or DepthOnly", k)
	}
	if k.IsTranslucent() {
		t.Errorf("key %v should not be translucent", k)
	}
	if got := KeyBuilderFrom(k).Without(Skinned).Build(); got != DepthOnly {
		t.Errorf("Without(Skinned) = %v, want DepthOnly", got)
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{0, "Opaque"},
		{Skinned, "Skinned"},
		{Translucent | Skinned, "Translucent|Skinned"},
		{InvalidKey(), "Invalid"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(%d).String() = %q, want %q", uint32(tt.key), got, tt.want)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	nonSkinned := NewFilterBuilder().WithoutSkinned().Build()
	skinned := NewFilterBuilder().WithSkinned().Build()
	opaqueSkinned := NewFilterBuilder().WithSkinned().WithoutTranslucent().Build()
	wildcard := NewFilterBuilder().Build()

	tests := []struct {
		name   string
		filter Filter
		key    Key
		want   bool
	}{
		{"rigid vs withoutSkinned", nonSkinned, 0, true},
		{"rigid translucent vs withoutSkinned", nonSkinned, Translucent, true},
		{"skinned vs withoutSkinned", nonSkinned, Skinned, false},
		{"skinned vs withSkinned", skinned, Skinned | Tangents, true},
		{"rigid vs withSkinned", skinned, 0, false},
		{"translucent skinned vs opaque skinned", opaqueSkinned, Skinned | Translucent, false},
		{"wildcard", wildcard, Wireframe | Emissive, true},
		{"invalid vs wildcard", wildcard, InvalidKey(), false},
		{"invalid skinned vs withSkinned", skinned, Skinned | Invalid, false},
		{"exact", FilterFromKey(Skinned | Specular), Skinned | Specular, true},
		{"exact superset", FilterFromKey(Skinned), Skinned | Specular, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.key); got != tt.want {
				t.Errorf("Filter{%s}.Matches(%s) = %v, want %v", tt.filter, tt.key, got, tt.want)
			}
		})
	}
}

func TestFilterString(t *testing.T) {
	if got := NewFilterBuilder().Build().String(); got != "*" {
		t.Errorf("wildcard String() = %q, want %q", got, "*")
	}
	f := NewFilterBuilder().WithSkinned().WithoutTranslucent().Build()
	if got := f.String(); got != "-Translucent +Skinned" {
		t.Errorf("String() = %q, want %q", got, "-Translucent +Skinned")
	}
}
