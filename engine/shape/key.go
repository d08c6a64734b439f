package shape

import (
	"math/bits"
	"strings"
)

// Key is the bit set of material and geometry flags of a drawable shape. It selects the
// pipeline permutation a shape is drawn with. Keys are plain values and can be used as
// map keys directly.
type Key uint32

const (
	// Translucent marks shapes drawn with blending.
	Translucent Key = 1 << iota
	// Lightmap marks shapes that sample a baked lightmap.
	Lightmap
	// Tangents marks shapes that carry a tangent stream.
	Tangents
	// Specular marks shapes with a specular map.
	Specular
	// Emissive marks shapes with an emissive map.
	Emissive
	// Skinned marks shapes deformed by a skeleton.
	Skinned
	// Stereo marks shapes rendered to both eyes in one pass.
	Stereo
	// DepthOnly marks shapes drawn without color output.
	DepthOnly
	// Wireframe marks shapes drawn as lines.
	Wireframe
	// NoCullFace marks double-sided shapes.
	NoCullFace
	// OwnPipeline marks shapes that bring their own pipeline and bypass the cache.
	OwnPipeline
	// Invalid marks a key that must never match any filter.
	Invalid

	numFlags = iota
)

// allFlags has every defined bit set.
const allFlags Key = 1<<numFlags - 1

var flagNames = [numFlags]string{
	"Translucent", "Lightmap", "Tangents", "Specular", "Emissive", "Skinned",
	"Stereo", "DepthOnly", "Wireframe", "NoCullFace", "OwnPipeline", "Invalid",
}

// InvalidKey returns a key carrying only the Invalid bit.
func InvalidKey() Key {
	return Invalid
}

// Has reports whether every bit of flags is set on k.
func (k Key) Has(flags Key) bool {
	return k&flags == flags
}

// IsValid reports whether the Invalid bit is clear.
func (k Key) IsValid() bool {
	return k&Invalid == 0
}

// IsSkinned reports whether the shape is deformed by a skeleton.
func (k Key) IsSkinned() bool {
	return k.Has(Skinned)
}

// IsTranslucent reports whether the shape is drawn with blending.
func (k Key) IsTranslucent() bool {
	return k.Has(Translucent)
}

// String lists the set flags separated by '|', or "Opaque" for the zero key.
func (k Key) String() string {
	if k == 0 {
		return "Opaque"
	}
	var b strings.Builder
	for rest := k & allFlags; rest != 0; rest &= rest - 1 {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(flagNames[bits.TrailingZeros32(uint32(rest))])
	}
	return b.String()
}

// KeyBuilder assembles a Key one flag at a time.
//
//	key := shape.NewKeyBuilder().WithSkinned().WithDepthOnly().Build()
type KeyBuilder struct {
	key Key
}

// NewKeyBuilder returns a builder for the zero (opaque, rigid) key.
func NewKeyBuilder() KeyBuilder {
	return KeyBuilder{}
}

// KeyBuilderFrom returns a builder seeded with an existing key.
func KeyBuilderFrom(k Key) KeyBuilder {
	return KeyBuilder{key: k}
}

// With sets the given flags.
func (b KeyBuilder) With(flags Key) KeyBuilder {
	b.key |= flags
	return b
}

// Without clears the given flags.
func (b KeyBuilder) Without(flags Key) KeyBuilder {
	b.key &^= flags
	return b
}

func (b KeyBuilder) WithTranslucent() KeyBuilder { return b.With(Translucent) }
func (b KeyBuilder) WithLightmap() KeyBuilder    { return b.With(Lightmap) }
func (b KeyBuilder) WithTangents() KeyBuilder    { return b.With(Tangents) }
func (b KeyBuilder) WithSpecular() KeyBuilder    { return b.With(Specular) }
func (b KeyBuilder) WithEmissive() KeyBuilder    { return b.With(Emissive) }
func (b KeyBuilder) WithSkinned() KeyBuilder     { return b.With(Skinned) }
func (b KeyBuilder) WithStereo() KeyBuilder      { return b.With(Stereo) }
func (b KeyBuilder) WithDepthOnly() KeyBuilder   { return b.With(DepthOnly) }
func (b KeyBuilder) WithWireframe() KeyBuilder   { return b.With(Wireframe) }
func (b KeyBuilder) WithNoCullFace() KeyBuilder  { return b.With(NoCullFace) }
func (b KeyBuilder) WithOwnPipeline() KeyBuilder { return b.With(OwnPipeline) }
func (b KeyBuilder) Invalidate() KeyBuilder      { return b.With(Invalid) }

// Build returns the assembled key.
func (b KeyBuilder) Build() Key {
	return b.key
}
