package common

// AABox is an axis-aligned bounding box described by its minimum corner and
// its size along each axis.
type AABox struct {
	Corner [3]float32
	Scale  [3]float32
}

// NewAABox creates an AABox from its minimum corner and per-axis size.
// Negative sizes are folded so that Corner is always the minimum point.
//
// Parameters:
//   - corner: the minimum point of the box
//   - scale: the size of the box along x, y and z
//
// Returns:
//   - AABox: the box
func NewAABox(corner, scale [3]float32) AABox {
	for i := 0; i < 3; i++ {
		if scale[i] < 0 {
			corner[i] += scale[i]
			scale[i] = -scale[i]
		}
	}
	return AABox{Corner: corner, Scale: scale}
}

// NewAACube creates a cube-shaped AABox with equal size on every axis.
//
// Parameters:
//   - corner: the minimum point of the cube
//   - scale: the edge length
//
// Returns:
//   - AABox: the cube
func NewAACube(corner [3]float32, scale float32) AABox {
	return NewAABox(corner, [3]float32{scale, scale, scale})
}

// BoxAround returns the AABox centered on center with the given half extents.
func BoxAround(center, halfExtents [3]float32) AABox {
	return NewAABox(Sub3(center, halfExtents), Scale3(halfExtents, 2))
}

// Minimum returns the minimum corner of the box.
func (b AABox) Minimum() [3]float32 {
	return b.Corner
}

// Maximum returns the maximum corner of the box.
func (b AABox) Maximum() [3]float32 {
	return Add3(b.Corner, b.Scale)
}

// Center returns the center point of the box.
func (b AABox) Center() [3]float32 {
	return Add3(b.Corner, Scale3(b.Scale, 0.5))
}

// IsEmpty reports whether the box has no volume on any axis.
func (b AABox) IsEmpty() bool {
	return b.Scale[0] == 0 && b.Scale[1] == 0 && b.Scale[2] == 0
}

// Contains reports whether point lies inside the box or on its boundary.
//
// Parameters:
//   - point: the point to test
//
// Returns:
//   - bool: true if the point is inside
func (b AABox) Contains(point [3]float32) bool {
	maxP := b.Maximum()
	for i := 0; i < 3; i++ {
		if point[i] < b.Corner[i] || point[i] > maxP[i] {
			return false
		}
	}
	return true
}

// Touches reports whether the two boxes overlap or share a boundary.
//
// Parameters:
//   - other: the box to test against
//
// Returns:
//   - bool: true if the boxes touch
func (b AABox) Touches(other AABox) bool {
	aMax := b.Maximum()
	bMax := other.Maximum()
	for i := 0; i < 3; i++ {
		if aMax[i] < other.Corner[i] || bMax[i] < b.Corner[i] {
			return false
		}
	}
	return true
}

// TouchesSphere reports whether a sphere overlaps the box.
//
// Parameters:
//   - center: the sphere center
//   - radius: the sphere radius
//
// Returns:
//   - bool: true if the sphere touches the box
func (b AABox) TouchesSphere(center [3]float32, radius float32) bool {
	maxP := b.Maximum()
	var distSq float32
	for i := 0; i < 3; i++ {
		switch {
		case center[i] < b.Corner[i]:
			d := b.Corner[i] - center[i]
			distSq += d * d
		case center[i] > maxP[i]:
			d := center[i] - maxP[i]
			distSq += d * d
		}
	}
	return distSq <= radius*radius
}

// Vertices writes the eight corners of the box into out.
func (b AABox) Vertices(out *[8][3]float32) {
	minP := b.Corner
	maxP := b.Maximum()
	for i := 0; i < 8; i++ {
		out[i] = [3]float32{minP[0], minP[1], minP[2]}
		if i&1 != 0 {
			out[i][0] = maxP[0]
		}
		if i&2 != 0 {
			out[i][1] = maxP[1]
		}
		if i&4 != 0 {
			out[i][2] = maxP[2]
		}
	}
}
