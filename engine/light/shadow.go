package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/internal/logging"
)

// ShadowMapResolution is the default width and height in texels of a shadow map.
const ShadowMapResolution = 2048

// DefaultCasterDistance is how far the light frustum's near plane is pulled toward the
// light beyond the fitted view slice, so that casters between the light and the slice
// still reach the shadow map.
const DefaultCasterDistance float32 = 20.0

// minShadowDepth is the smallest far-near span left by clamping.
const minShadowDepth float32 = 0.01

// Shadow is the shadow state of one directional light: the light-space frustum, rebuilt in
// place every frame, and the framebuffer it renders into.
type Shadow struct {
	light       Light
	framebuffer gpu.Framebuffer
	frustum     common.ViewFrustum

	near, far float32

	casterDistance float32
}

// NewShadow creates the shadow state for l rendering into fb. It panics if either is nil.
//
// Parameters:
//   - l: the shadow-casting light
//   - fb: the shadow map framebuffer
//   - opts: variadic list of ShadowBuilderOption functions
//
// Returns:
//   - *Shadow: the shadow
func NewShadow(l Light, fb gpu.Framebuffer, opts ...ShadowBuilderOption) *Shadow {
	if l == nil {
		panic("light: NewShadow requires a light")
	}
	if fb == nil {
		panic("light: NewShadow requires a framebuffer")
	}
	s := &Shadow{
		light:          l,
		framebuffer:    fb,
		near:           0,
		far:            1,
		casterDistance: DefaultCasterDistance,
	}
	for _, opt := range opts {
		opt(s)
	}
	dir := l.Direction()
	s.frustum.SetOrtho(-1, 1, -1, 1, 0, 1)
	s.frustum.SetView([3]float32{}, dir, common.StableUp(dir))
	return s
}

// Light returns the light the shadow belongs to.
func (s *Shadow) Light() Light { return s.light }

// Framebuffer returns the shadow map target.
func (s *Shadow) Framebuffer() gpu.Framebuffer { return s.framebuffer }

// Frustum returns the light frustum. The pointer stays valid for the life of the Shadow;
// its contents change on every SetKeylightFrustum.
func (s *Shadow) Frustum() *common.ViewFrustum { return &s.frustum }

// Projection returns the light projection matrix (column-major).
func (s *Shadow) Projection() []float32 { return s.frustum.Projection() }

// View returns the light view matrix (column-major).
func (s *Shadow) View() []float32 { return s.frustum.View() }

// Near returns the near bound of the view slice covered by the last SetKeylightFrustum.
func (s *Shadow) Near() float32 { return s.near }

// Far returns the far bound of the view slice covered by the last SetKeylightFrustum.
func (s *Shadow) Far() float32 { return s.far }

// SetKeylightFrustum fits the light frustum around the slice of ref between the view
// distances near and far. The light looks along its direction from behind the slice; the
// orthographic box is the light-space bounding box of the slice's eight corners, with the
// near plane pulled toward the light by the caster distance.
//
// Non-finite bounds or far <= near panic in debug builds. Otherwise they are clamped: a
// non-finite bound is replaced by ref's own, and far is moved above near.
//
// Parameters:
//   - ref: the reference (camera) frustum
//   - near: near view distance of the slice
//   - far: far view distance of the slice
func (s *Shadow) SetKeylightFrustum(ref *common.ViewFrustum, near, far float32) {
	if ref == nil {
		panic("light: SetKeylightFrustum requires a reference frustum")
	}
	near, far = sanitizeBounds(ref, near, far)

	dir := s.light.Direction()
	position := common.Sub3(ref.Position(), common.Scale3(dir, near+far))
	s.frustum.SetView(position, dir, common.StableUp(dir))

	view := s.frustum.View()
	corners := ref.Corners(near, far)
	lo := common.TransformPoint(view, corners[0])
	hi := lo
	for _, c := range corners[1:] {
		p := common.TransformPoint(view, c)
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	// The light looks down -Z in view space, so depth is -z.
	s.frustum.SetOrtho(lo[0], hi[0], lo[1], hi[1], -hi[2]-s.casterDistance, -lo[2])
	s.near, s.far = near, far
}

func sanitizeBounds(ref *common.ViewFrustum, near, far float32) (float32, float32) {
	if common.IsFinite32(near) && common.IsFinite32(far) && far > near {
		return near, far
	}
	if common.DebugAssertions {
		panic(fmt.Sprintf("light: malformed shadow bounds near=%v far=%v", near, far))
	}
	origNear, origFar := near, far
	if !common.IsFinite32(near) {
		near = ref.Near()
		if !common.IsFinite32(near) {
			near = 0
		}
	}
	if !common.IsFinite32(far) {
		far = ref.Far()
	}
	if !common.IsFinite32(far) || far <= near {
		far = near + minShadowDepth
	}
	logging.Logger().Warn("light: clamped malformed shadow bounds",
		"near", origNear, "far", origFar, "clampedNear", near, "clampedFar", far)
	return near, far
}
