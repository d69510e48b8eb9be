package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// EncodeBoundary marshals a normalized boundary to EWKB bytes with
// SRID 4326, the column format both store backends persist.
func EncodeBoundary(mp *geom.MultiPolygon) ([]byte, error) {
	if mp == nil {
		return nil, eris.New("geometry: encode nil boundary")
	}
	data, err := ewkb.Marshal(mp, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode EWKB")
	}
	return data, nil
}

// DecodeBoundary unmarshals an EWKB boundary column back into a
// MultiPolygon.
func DecodeBoundary(data []byte) (*geom.MultiPolygon, error) {
	if len(data) == 0 {
		return nil, eris.New("geometry: decode empty boundary")
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode EWKB")
	}
	mp, ok := g.(*geom.MultiPolygon)
	if !ok {
		return nil, eris.Errorf("geometry: expected multipolygon, got %T", g)
	}
	return mp, nil
}
