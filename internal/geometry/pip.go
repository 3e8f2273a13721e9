package geometry

// Even-odd ray casting. A point is inside a polygon when it is inside the
// outer ring and outside every hole ring; inside a multipolygon when
// inside any member polygon.

func (p polygon) contains(pt point) bool {
	if !inBBox(pt, p.box) {
		return false
	}
	if !pointInRing(pt, p.rings[0]) {
		return false
	}
	for _, hole := range p.rings[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

func pointInRing(pt point, ring []point) bool {
	inside := false
	x, y := pt.lng, pt.lat
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].lng, ring[i].lat
		xj, yj := ring[j].lng, ring[j].lat
		// The epsilon guards the horizontal-edge division; boundary-line
		// coordinates are inherently unstable under ray casting either way.
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi) {
			inside = !inside
		}
	}
	return inside
}

func inBBox(pt point, b bbox) bool {
	return pt.lng >= b[0] && pt.lng <= b[2] && pt.lat >= b[1] && pt.lat <= b[3]
}
