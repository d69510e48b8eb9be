package geometry

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Contains reports whether the point (lng, lat) lies within the
// boundary. The test is inclusive: a point exactly on an exterior or
// hole edge counts as contained. A point strictly inside a hole is not
// contained. For multi-part boundaries, containment in any component
// polygon suffices.
func Contains(mp *geom.MultiPolygon, lng, lat float64) bool {
	if mp == nil {
		return false
	}
	c := geom.Coord{lng, lat}
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), c) {
			return true
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	if p == nil || p.NumLinearRings() == 0 {
		return false
	}

	exterior := p.LinearRing(0).FlatCoords()
	if xy.IsOnLine(geom.XY, c, exterior) {
		return true
	}
	if !xy.IsPointInRing(geom.XY, c, exterior) {
		return false
	}

	for i := 1; i < p.NumLinearRings(); i++ {
		hole := p.LinearRing(i).FlatCoords()
		if xy.IsOnLine(geom.XY, c, hole) {
			// The hole edge belongs to the polygon.
			return true
		}
		if xy.IsPointInRing(geom.XY, c, hole) {
			return false
		}
	}
	return true
}
