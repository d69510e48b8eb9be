package geometry

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/discgeo/discgeo/internal/model"
)

// ProjectExterior converts a polygon's exterior ring into the ordered
// (latitude, longitude) vertex sequence used by rendering consumers.
// The stored (x=lng, y=lat) axis order is swapped; holes are not
// projected. The ring's stored (already counter-clockwise) order is
// preserved.
func ProjectExterior(p *geom.Polygon) []model.LatLng {
	if p == nil || p.NumLinearRings() == 0 {
		return nil
	}
	return projectRing(p.LinearRing(0).FlatCoords())
}

// ProjectBoundary projects a stored boundary. For a multi-part
// boundary the component with the largest exterior ring area is
// rendered; outlying islands are not stitched into the sequence.
func ProjectBoundary(mp *geom.MultiPolygon) []model.LatLng {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil
	}

	best, bestArea := 0, -1.0
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		if a := ringArea(p.LinearRing(0).FlatCoords()); a > bestArea {
			best, bestArea = i, a
		}
	}
	if bestArea < 0 {
		return nil
	}
	return ProjectExterior(mp.Polygon(best))
}

func projectRing(flat []float64) []model.LatLng {
	pts := make([]model.LatLng, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		pts = append(pts, model.LatLng{Lat: flat[i+1], Lng: flat[i]})
	}
	return pts
}

// ringArea returns the absolute shoelace area of a closed flat ring.
func ringArea(flat []float64) float64 {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return math.Abs(sum / 2)
}
