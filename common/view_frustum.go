package common

import "math"

// ViewFrustum is a positioned and oriented viewing volume. It keeps the view
// and projection transforms together with the six culling planes extracted
// from their product, so culling and rendering always agree.
//
// A ViewFrustum is a plain value owned by its creator. Other components hold
// it by pointer for the duration of a frame and must not retain it longer.
type ViewFrustum struct {
	position  [3]float32
	direction [3]float32
	up        [3]float32
	right     [3]float32

	orthographic bool
	fovY         float32
	aspect       float32
	ortho        [4]float32 // left, right, bottom, top
	near, far    float32

	view       [16]float32
	projection [16]float32
	viewProj   [16]float32
	planes     Frustum
}

// NewPerspectiveFrustum creates a perspective frustum at position looking along direction.
//
// Parameters:
//   - position: the eye position in world space
//   - direction: the look direction (need not be normalized)
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near clip distance
//   - far: far clip distance
//
// Returns:
//   - *ViewFrustum: the new frustum
func NewPerspectiveFrustum(position, direction [3]float32, fovY, aspect, near, far float32) *ViewFrustum {
	f := &ViewFrustum{}
	f.SetPerspective(fovY, aspect, near, far)
	f.SetView(position, direction, StableUp(Normalize3(direction)))
	return f
}

// NewOrthoFrustum creates an orthographic frustum at position looking along direction.
//
// Parameters:
//   - position: the eye position in world space
//   - direction: the look direction (need not be normalized)
//   - left, right, bottom, top: view-space extents
//   - near, far: view-space depth range
//
// Returns:
//   - *ViewFrustum: the new frustum
func NewOrthoFrustum(position, direction [3]float32, left, right, bottom, top, near, far float32) *ViewFrustum {
	f := &ViewFrustum{}
	f.SetOrtho(left, right, bottom, top, near, far)
	f.SetView(position, direction, StableUp(Normalize3(direction)))
	return f
}

// SetView positions and orients the frustum and recomputes its planes.
//
// Parameters:
//   - position: the eye position in world space
//   - direction: the look direction (need not be normalized)
//   - up: an approximate up vector, not parallel to direction
func (f *ViewFrustum) SetView(position, direction, up [3]float32) {
	f.position = position
	f.direction = Normalize3(direction)
	f.right = Normalize3(Cross3(f.direction, up))
	f.up = Cross3(f.right, f.direction)
	LookAt(f.view[:], position, Add3(position, f.direction), f.up)
	f.update()
}

// SetPerspective replaces the projection with a perspective projection.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near clip distance
//   - far: far clip distance
func (f *ViewFrustum) SetPerspective(fovY, aspect, near, far float32) {
	f.orthographic = false
	f.fovY, f.aspect = fovY, aspect
	f.near, f.far = near, far
	Perspective(f.projection[:], fovY, aspect, near, far)
	f.update()
}

// SetOrtho replaces the projection with an orthographic projection.
//
// Parameters:
//   - left, right, bottom, top: view-space extents
//   - near, far: view-space depth range (near may be negative)
func (f *ViewFrustum) SetOrtho(left, right, bottom, top, near, far float32) {
	f.orthographic = true
	f.ortho = [4]float32{left, right, bottom, top}
	f.near, f.far = near, far
	Ortho(f.projection[:], left, right, bottom, top, near, far)
	f.update()
}

func (f *ViewFrustum) update() {
	Mul4(f.viewProj[:], f.projection[:], f.view[:])
	f.planes = ExtractFrustumFromMatrix(f.viewProj[:])
}

// Position returns the eye position.
func (f *ViewFrustum) Position() [3]float32 { return f.position }

// Direction returns the normalized look direction.
func (f *ViewFrustum) Direction() [3]float32 { return f.direction }

// Up returns the orthonormal up vector.
func (f *ViewFrustum) Up() [3]float32 { return f.up }

// Right returns the orthonormal right vector.
func (f *ViewFrustum) Right() [3]float32 { return f.right }

// Near returns the near clip distance.
func (f *ViewFrustum) Near() float32 { return f.near }

// Far returns the far clip distance.
func (f *ViewFrustum) Far() float32 { return f.far }

// FieldOfView returns the vertical field of view in radians (perspective only).
func (f *ViewFrustum) FieldOfView() float32 { return f.fovY }

// AspectRatio returns width / height (perspective only).
func (f *ViewFrustum) AspectRatio() float32 { return f.aspect }

// OrthoBounds returns the view-space left, right, bottom and top extents (orthographic only).
func (f *ViewFrustum) OrthoBounds() (left, right, bottom, top float32) {
	return f.ortho[0], f.ortho[1], f.ortho[2], f.ortho[3]
}

// IsOrthographic reports whether the projection is orthographic.
func (f *ViewFrustum) IsOrthographic() bool { return f.orthographic }

// View returns the world-to-view matrix (column-major). Callers must not modify it.
func (f *ViewFrustum) View() []float32 { return f.view[:] }

// Projection returns the projection matrix (column-major). Callers must not modify it.
func (f *ViewFrustum) Projection() []float32 { return f.projection[:] }

// ViewProjection returns Projection * View. Callers must not modify it.
func (f *ViewFrustum) ViewProjection() []float32 { return f.viewProj[:] }

// Planes returns the culling planes.
func (f *ViewFrustum) Planes() *Frustum { return &f.planes }

// ContainsPoint reports whether point lies inside the frustum.
func (f *ViewFrustum) ContainsPoint(point [3]float32) bool {
	return f.planes.ContainsPoint(point)
}

// BoxIntersection classifies box against the frustum.
func (f *ViewFrustum) BoxIntersection(box AABox) Intersection {
	return f.planes.ClassifyBox(box)
}

// IntersectsBox reports whether any part of box may be inside the frustum.
func (f *ViewFrustum) IntersectsBox(box AABox) bool {
	return f.planes.ClassifyBox(box) != Outside
}

// ContainsBox reports whether box is entirely inside the frustum.
func (f *ViewFrustum) ContainsBox(box AABox) bool {
	return f.planes.ClassifyBox(box) == Inside
}

// Corners returns the eight world-space corners of the slice of this frustum
// between the view distances near and far. The first four are on the near
// slice (bottom-left, bottom-right, top-left, top-right), the last four on the
// far slice in the same order.
//
// Parameters:
//   - near: distance of the near slice along the look direction
//   - far: distance of the far slice along the look direction
//
// Returns:
//   - [8][3]float32: the corner points
func (f *ViewFrustum) Corners(near, far float32) [8][3]float32 {
	var out [8][3]float32
	for i, d := range [2]float32{near, far} {
		halfW, halfH := f.halfExtentsAt(d)
		left, right := -halfW, halfW
		bottom, top := -halfH, halfH
		if f.orthographic {
			left, right, bottom, top = f.ortho[0], f.ortho[1], f.ortho[2], f.ortho[3]
		}
		center := Add3(f.position, Scale3(f.direction, d))
		xs := [2]float32{left, right}
		ys := [2]float32{bottom, top}
		for c := 0; c < 4; c++ {
			p := Add3(center, Scale3(f.right, xs[c&1]))
			out[i*4+c] = Add3(p, Scale3(f.up, ys[c>>1]))
		}
	}
	return out
}

func (f *ViewFrustum) halfExtentsAt(d float32) (float32, float32) {
	halfH := d * float32(math.Tan(float64(f.fovY)/2))
	return halfH * f.aspect, halfH
}
