package common

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance of point from the plane.
// Positive values lie on the side the normal points to.
func (p Plane) SignedDistance(point [3]float32) float32 {
	return Dot3(p.Normal, point) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// Intersection classifies a volume against a frustum.
type Intersection int

const (
	// Outside means the volume is entirely outside at least one plane.
	Outside Intersection = iota
	// Intersect means the volume straddles one or more planes.
	Intersect
	// Inside means the volume is entirely inside every plane.
	Inside
)

// String returns the name of the intersection result.
func (i Intersection) String() string {
	switch i {
	case Outside:
		return "outside"
	case Intersect:
		return "intersect"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix and must map depth
// to the WebGPU clip range [0, 1], so the near plane is row 2 on its own.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	// M[row][col] lives at viewProj[col*4+row].
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.setPlane(FrustumLeft, r3, r0, 1)
	f.setPlane(FrustumRight, r3, r0, -1)
	f.setPlane(FrustumBottom, r3, r1, 1)
	f.setPlane(FrustumTop, r3, r1, -1)
	f.setPlane(FrustumNear, [4]float32{}, r2, 1)
	f.setPlane(FrustumFar, r3, r2, -1)
	return f
}

// setPlane stores base + sign*offset as the plane at index and normalizes it.
func (f *Frustum) setPlane(index int, base, offset [4]float32, sign float32) {
	p := &f.Planes[index]
	p.Normal = [3]float32{
		base[0] + sign*offset[0],
		base[1] + sign*offset[1],
		base[2] + sign*offset[2],
	}
	p.Distance = base[3] + sign*offset[3]

	if length := Length3(p.Normal); length > 0 {
		invLen := 1.0 / length
		p.Normal = Scale3(p.Normal, invLen)
		p.Distance *= invLen
	}
}

// ContainsPoint reports whether point lies inside all six planes.
func (f *Frustum) ContainsPoint(point [3]float32) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(point) < 0 {
			return false
		}
	}
	return true
}

// ClassifyBox tests an axis-aligned box against the six planes using the
// positive/negative vertex of the box for each plane.
//
// Parameters:
//   - box: the box to classify
//
// Returns:
//   - Intersection: Outside, Intersect or Inside
func (f *Frustum) ClassifyBox(box AABox) Intersection {
	minP := box.Minimum()
	maxP := box.Maximum()
	result := Inside
	for i := range f.Planes {
		p := &f.Planes[i]
		var pos, neg [3]float32
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] >= 0 {
				pos[axis], neg[axis] = maxP[axis], minP[axis]
			} else {
				pos[axis], neg[axis] = minP[axis], maxP[axis]
			}
		}
		if p.SignedDistance(pos) < 0 {
			return Outside
		}
		if p.SignedDistance(neg) < 0 {
			result = Intersect
		}
	}
	return result
}
