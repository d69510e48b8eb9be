package ingest

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ShapefileSource reads boundary features from a TIGER-style shapefile.
// Every DBF column is exposed as a string attribute keyed by its
// upper-cased field name, so the same attribute schemas apply as for
// GeoJSON sources.
type ShapefileSource struct {
	reader  *shp.Reader
	fields  []string
	cur     RawFeature
	skipped int
}

// OpenShapefile opens the .shp/.dbf pair at path.
func OpenShapefile(path string) (*ShapefileSource, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToUpper(strings.TrimRight(f.String(), "\x00"))
	}
	return &ShapefileSource{reader: reader, fields: names}, nil
}

func (s *ShapefileSource) Next() bool {
	for s.reader.Next() {
		n, shape := s.reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			s.skipped++
			zap.L().Warn("ingest: skipping non-polygon shapefile record", zap.Int("record", n))
			continue
		}
		g := polygonShapeToGeom(poly)
		if g == nil {
			s.skipped++
			zap.L().Warn("ingest: skipping empty shapefile polygon", zap.Int("record", n))
			continue
		}

		attrs := make(map[string]any, len(s.fields))
		for i, name := range s.fields {
			val := strings.TrimSpace(strings.TrimRight(s.reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}
		s.cur = RawFeature{Attributes: attrs, Geometry: g}
		return true
	}
	return false
}

func (s *ShapefileSource) Feature() RawFeature { return s.cur }

// Skipped reports how many non-polygon or empty records were dropped.
func (s *ShapefileSource) Skipped() int { return s.skipped }

func (s *ShapefileSource) Err() error { return nil }

func (s *ShapefileSource) Close() error { return s.reader.Close() }

// polygonShapeToGeom converts a shapefile polygon to a MultiPolygon,
// one component per part. Returns nil when no part yields a valid ring.
func polygonShapeToGeom(p *shp.Polygon) geom.T {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
