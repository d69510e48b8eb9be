// Package ingest reads administrative-boundary features from GeoJSON
// and shapefile sources, normalizes their polygons, and persists
// geography records plus the county-to-state hierarchy.
package ingest

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/discgeo/discgeo/internal/errs"
)

// RawFeature is one boundary record as read from a source: the raw
// attribute bag plus the raw (not yet normalized) geometry.
type RawFeature struct {
	Attributes map[string]any
	Geometry   geom.T
}

// Source yields RawFeatures one at a time. The sequence is single-pass;
// re-reading requires opening a new Source.
type Source interface {
	Next() bool
	Feature() RawFeature
	Err() error
	Close() error
}

// StateAttributes is the parsed attribute schema for a state feature.
type StateAttributes struct {
	StateCode int
	Name      string
}

// CountyAttributes is the parsed attribute schema for a county feature.
// StateCode refers to the state the county belongs to.
type CountyAttributes struct {
	StateCode int
	Name      string
}

// ZipAttributes is the parsed attribute schema for a zipcode feature.
type ZipAttributes struct {
	ZipCode string
}

// Census sources carry the state code under "STATE", the display name
// under "NAME", and the zip under "ZIP_CODE".
const (
	attrStateCode = "STATE"
	attrName      = "NAME"
	attrZipCode   = "ZIP_CODE"
)

func ParseStateAttributes(attrs map[string]any) (StateAttributes, error) {
	code, err := attrInt(attrs, attrStateCode)
	if err != nil {
		return StateAttributes{}, err
	}
	name, err := attrString(attrs, attrName)
	if err != nil {
		return StateAttributes{}, err
	}
	return StateAttributes{StateCode: code, Name: name}, nil
}

func ParseCountyAttributes(attrs map[string]any) (CountyAttributes, error) {
	code, err := attrInt(attrs, attrStateCode)
	if err != nil {
		return CountyAttributes{}, err
	}
	name, err := attrString(attrs, attrName)
	if err != nil {
		return CountyAttributes{}, err
	}
	return CountyAttributes{StateCode: code, Name: name}, nil
}

func ParseZipAttributes(attrs map[string]any) (ZipAttributes, error) {
	zip, err := attrString(attrs, attrZipCode)
	if err != nil {
		return ZipAttributes{}, err
	}
	return ZipAttributes{ZipCode: zip}, nil
}

// attrString fetches a required string attribute. Numeric values are
// stringified since DBF files type some code columns as numbers.
func attrString(attrs map[string]any, key string) (string, error) {
	v, ok := attrs[key]
	if !ok {
		return "", errs.Validationf("missing attribute %q", key)
	}
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return "", errs.Validationf("empty attribute %q", key)
		}
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(s), nil
	}
	return "", errs.Validationf("attribute %q has unsupported type %T", key, v)
}

// attrInt fetches a required integer attribute. GeoJSON decodes numbers
// as float64 and shapefile DBF fields arrive as strings; both forms are
// accepted.
func attrInt(attrs map[string]any, key string) (int, error) {
	v, ok := attrs[key]
	if !ok {
		return 0, errs.Validationf("missing attribute %q", key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, errs.Validationf("attribute %q is not numeric: %q", key, n)
		}
		return i, nil
	}
	return 0, errs.Validationf("attribute %q has unsupported type %T", key, v)
}
