// Package model defines the persisted entities shared across the
// ingestion pipeline, the store backends, and the query engine.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// GeoType classifies a geography record.
type GeoType string

const (
	GeoTypeState   GeoType = "STATE"
	GeoTypeCounty  GeoType = "COUNTY"
	GeoTypeZipcode GeoType = "ZIPCODE"
)

// Valid reports whether t is one of the known geography types.
func (t GeoType) Valid() bool {
	switch t {
	case GeoTypeState, GeoTypeCounty, GeoTypeZipcode:
		return true
	}
	return false
}

// LatLng is a single rendered boundary vertex, in (latitude, longitude)
// order for map consumers. Stored geometry is (x=lng, y=lat); the
// projector swaps the axes.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geography is an administrative boundary (state, county, or zipcode).
// Boundary is always a normalized MultiPolygon: exterior rings
// counter-clockwise, holes clockwise, SRID 4326. Records are created by
// the ingestion pipeline and never mutated afterward.
type Geography struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Type      GeoType            `json:"type"`
	Boundary  *geom.MultiPolygon `json:"-"`
	CreatedAt time.Time          `json:"created_at"`

	// LatLngs is the projected exterior ring, populated on demand by
	// the query engine. Never persisted.
	LatLngs []LatLng `json:"lat_lngs,omitempty"`
}

// Relationship is an explicit parent/child edge between two geographies
// (county belongs to state). Names are retained for audit; ids are
// authoritative.
type Relationship struct {
	ID         int64  `json:"id"`
	GeoID      int64  `json:"geo_id"`
	GeoName    string `json:"geo_name"`
	ParentID   int64  `json:"parent_geo_id"`
	ParentName string `json:"parent_geo_name"`
}

// StateRef is one row of the read-only state reference table: FIPS
// number, full name, and postal abbreviation.
type StateRef struct {
	Number       int    `json:"number"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}
