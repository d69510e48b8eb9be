// Package geometry holds the polygon math for the boundary pipeline:
// normalization to the storage winding convention, inclusive
// point-in-polygon containment, vertex projection for rendering, and
// the EWKB storage encoding. Everything here is pure computation over
// go-geom values; nothing touches a store.
package geometry

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/discgeo/discgeo/internal/errs"
)

// srid is the WGS84 spatial reference id. All boundaries and course
// points share it; there is no reprojection anywhere in this system.
const srid = 4326

// NormalizeBoundary repairs and reorients a raw boundary geometry into
// the storage-valid form: a MultiPolygon whose exterior rings wind
// counter-clockwise and whose holes wind clockwise. Polygon input is
// wrapped into a single-element MultiPolygon. Any other geometry type,
// or a polygon that is still degenerate or self-intersecting after
// repair, yields a Geometry-kind error.
func NormalizeBoundary(g geom.T) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		p, err := NormalizePolygon(t)
		if err != nil {
			return nil, err
		}
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		if err := mp.Push(p); err != nil {
			return nil, errs.Geometryf("assemble multipolygon: %v", err)
		}
		return mp, nil

	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, errs.Geometryf("empty multipolygon")
		}
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		for i := 0; i < t.NumPolygons(); i++ {
			p, err := NormalizePolygon(t.Polygon(i))
			if err != nil {
				return nil, errs.Geometryf("component %d: %v", i, err)
			}
			if err := mp.Push(p); err != nil {
				return nil, errs.Geometryf("assemble multipolygon: %v", err)
			}
		}
		return mp, nil

	case nil:
		return nil, errs.Geometryf("nil geometry")

	default:
		return nil, errs.Geometryf("unsupported geometry type %T", g)
	}
}

// NormalizePolygon returns a copy of p with every ring repaired
// (redundant vertices and spikes removed, closure enforced) and wound
// to the storage convention: exterior counter-clockwise, holes
// clockwise. Pure function; p is not modified.
func NormalizePolygon(p *geom.Polygon) (*geom.Polygon, error) {
	if p == nil || p.NumLinearRings() == 0 {
		return nil, errs.Geometryf("empty polygon")
	}

	out := geom.NewPolygon(geom.XY).SetSRID(srid)
	for i := 0; i < p.NumLinearRings(); i++ {
		coords, err := repairRing(p.LinearRing(i).Coords())
		if err != nil {
			return nil, err
		}
		if !ringIsSimple(coords) {
			return nil, errs.Geometryf("ring %d self-intersects after repair", i)
		}

		ccw := xy.IsRingCounterClockwise(geom.XY, flatten(coords))
		wantCCW := i == 0 // holes wind opposite the exterior
		if ccw != wantCCW {
			reverseCoords(coords)
		}

		ring := geom.NewLinearRing(geom.XY)
		if _, err := ring.SetCoords(coords); err != nil {
			return nil, errs.Geometryf("ring %d: %v", i, err)
		}
		if err := out.Push(ring); err != nil {
			return nil, errs.Geometryf("ring %d: %v", i, err)
		}
	}
	return out, nil
}

// repairRing removes consecutive duplicate vertices and zero-width
// spikes (A,B,A backtracks), then re-closes the ring. This covers the
// minor topological defects common in published boundary files. A ring
// with fewer than 3 distinct vertices after repair is degenerate.
func repairRing(coords []geom.Coord) ([]geom.Coord, error) {
	if len(coords) == 0 {
		return nil, errs.Geometryf("empty ring")
	}

	// Work on the open form: drop the closing vertex if present.
	open := coords
	if len(open) > 1 && coordEqual(open[0], open[len(open)-1]) {
		open = open[:len(open)-1]
	}

	dedup := dedupeCoords(open)

	// Remove spikes until stable: vertex i is a spike when its
	// neighbors coincide, so the boundary doubles back on itself.
	// Each removal leaves the coincident neighbors adjacent, so
	// re-deduplicate after every pass.
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(dedup) && len(dedup) >= 3; i++ {
			prev := dedup[(i-1+len(dedup))%len(dedup)]
			next := dedup[(i+1)%len(dedup)]
			if coordEqual(prev, next) {
				dedup = dedupeCoords(append(dedup[:i], dedup[i+1:]...))
				changed = true
				break
			}
		}
	}

	if len(dedup) < 3 {
		return nil, errs.Geometryf("degenerate ring: %d distinct vertices", len(dedup))
	}

	closed := append(dedup, geom.Coord{dedup[0][0], dedup[0][1]})
	return closed, nil
}

// ringIsSimple reports whether the closed ring has no self-intersection
// between non-adjacent edges. Adjacent edges sharing a vertex are fine;
// spikes that would make adjacent edges overlap were already removed by
// repairRing. Pinch points, rings that touch themselves at a single
// vertex, also fail here: repairRing does not split them into separate
// rings, so they are rejected rather than repaired.
func ringIsSimple(closed []geom.Coord) bool {
	n := len(closed) - 1 // number of edges
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if adjacent {
				continue
			}
			if segmentsIntersect(closed[i], closed[i+1], closed[j], closed[j+1]) {
				return false
			}
		}
	}
	return true
}

// segmentsIntersect reports whether segments pq and rs share any point.
func segmentsIntersect(p, q, r, s geom.Coord) bool {
	d1 := cross(r, s, p)
	d2 := cross(r, s, q)
	d3 := cross(p, q, r)
	d4 := cross(p, q, s)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(r, s, p) {
		return true
	}
	if d2 == 0 && onSegment(r, s, q) {
		return true
	}
	if d3 == 0 && onSegment(p, q, r) {
		return true
	}
	if d4 == 0 && onSegment(p, q, s) {
		return true
	}
	return false
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c geom.Coord) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether c, known collinear with ab, lies on ab.
func onSegment(a, b, c geom.Coord) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}

// dedupeCoords drops consecutive duplicate vertices, treating the
// slice as cyclic (first and last may coincide).
func dedupeCoords(open []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, 0, len(open))
	for _, c := range open {
		if len(out) > 0 && coordEqual(c, out[len(out)-1]) {
			continue
		}
		out = append(out, geom.Coord{c[0], c[1]})
	}
	for len(out) > 1 && coordEqual(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func coordEqual(a, b geom.Coord) bool {
	return a[0] == b[0] && a[1] == b[1]
}

func reverseCoords(coords []geom.Coord) {
	for i, j := 0, len(coords)-1; i < j; i, j = i+1, j-1 {
		coords[i], coords[j] = coords[j], coords[i]
	}
}

func flatten(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
