// Package geoquery answers read-only containment and hierarchy queries
// over ingested geographies: point-in-polygon course lookups, exact
// name lookups, and county-by-state traversal.
package geoquery

import (
	"context"
	"sort"
	"strconv"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
	"github.com/discgeo/discgeo/internal/store"
)

// Engine runs containment queries against a store. All operations are
// read-only and safe for concurrent callers; the only mutation is
// populating the transient LatLngs projection on returned geographies.
type Engine struct {
	store store.Store
}

// NewEngine creates a query engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// sortByName orders geographies by case-insensitive collated name.
// Collators carry mutable iterator state, so each sort gets its own.
func sortByName(gs []model.Geography) {
	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(gs, func(i, j int) bool {
		return coll.CompareString(gs[i].Name, gs[j].Name) < 0
	})
}

// ContainmentResult pairs matched courses with the geographies they
// were matched against. A course inside several requested boundaries
// appears once per boundary; callers wanting a distinct course list
// must dedupe themselves.
type ContainmentResult struct {
	Courses     []model.Course    `json:"courses"`
	Geographies []model.Geography `json:"geographies"`
}

// GeographyByID returns the geography with the given id, with its
// exterior ring projected into LatLngs for rendering.
func (e *Engine) GeographyByID(ctx context.Context, id int64) (*model.Geography, error) {
	g, err := e.store.GeographyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.LatLngs = geometry.ProjectBoundary(g.Boundary)
	return g, nil
}

// GeographyByExactName returns the single geography with exactly the
// given name and type. Zero matches or more than one match both report
// NotFound; name uniqueness per type is enforced at ingestion.
func (e *Engine) GeographyByExactName(ctx context.Context, name string, t model.GeoType) (*model.Geography, error) {
	if !t.Valid() {
		return nil, errs.Validationf("unknown geography type %q", t)
	}
	matches, err := e.store.GeographiesByName(ctx, name, t)
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, errs.NotFoundf("%s named %q (%d matches)", t, name, len(matches))
	}
	g := matches[0]
	g.LatLngs = geometry.ProjectBoundary(g.Boundary)
	return &g, nil
}

// CoursesWithin returns every course whose point lies inside the named
// boundary. Points exactly on the edge count as inside; points inside a
// hole do not. Courses without coordinates are excluded upstream. An
// empty result is not an error.
func (e *Engine) CoursesWithin(ctx context.Context, boundaryID int64) ([]model.Course, error) {
	g, err := e.store.GeographyByID(ctx, boundaryID)
	if err != nil {
		return nil, err
	}
	candidates, err := e.store.CoursesWithPoints(ctx)
	if err != nil {
		return nil, err
	}
	return coursesInBoundary(g.Boundary, candidates), nil
}

// CoursesWithinMany applies the single-boundary containment test
// independently per requested id and concatenates the results.
func (e *Engine) CoursesWithinMany(ctx context.Context, boundaryIDs []int64) (*ContainmentResult, error) {
	candidates, err := e.store.CoursesWithPoints(ctx)
	if err != nil {
		return nil, err
	}

	res := &ContainmentResult{}
	for _, id := range boundaryIDs {
		g, err := e.store.GeographyByID(ctx, id)
		if err != nil {
			return nil, err
		}
		g.LatLngs = geometry.ProjectBoundary(g.Boundary)
		res.Geographies = append(res.Geographies, *g)
		res.Courses = append(res.Courses, coursesInBoundary(g.Boundary, candidates)...)
	}
	return res, nil
}

// CoursesInZipcode looks up the zipcode boundary by its zip string and
// returns the courses inside it together with the boundary itself.
func (e *Engine) CoursesInZipcode(ctx context.Context, zip string) (*ContainmentResult, error) {
	if err := validateZip(zip); err != nil {
		return nil, err
	}
	g, err := e.GeographyByExactName(ctx, zip, model.GeoTypeZipcode)
	if err != nil {
		return nil, err
	}
	candidates, err := e.store.CoursesWithPoints(ctx)
	if err != nil {
		return nil, err
	}
	return &ContainmentResult{
		Courses:     coursesInBoundary(g.Boundary, candidates),
		Geographies: []model.Geography{*g},
	}, nil
}

// CountiesForStates returns all county geographies whose parent
// relationship points at any of the given state ids, ordered by name.
// Pure relational traversal, no geometry math.
func (e *Engine) CountiesForStates(ctx context.Context, stateIDs []int64) ([]model.Geography, error) {
	counties, err := e.store.ChildrenOf(ctx, stateIDs)
	if err != nil {
		return nil, err
	}
	sortByName(counties)
	return counties, nil
}

// States returns all ingested state geographies, optionally with their
// exterior rings projected for rendering.
func (e *Engine) States(ctx context.Context, includeBoundaries bool) ([]model.Geography, error) {
	states, err := e.store.GeographiesByType(ctx, model.GeoTypeState)
	if err != nil {
		return nil, err
	}
	if includeBoundaries {
		for i := range states {
			states[i].LatLngs = geometry.ProjectBoundary(states[i].Boundary)
		}
	}
	sortByName(states)
	return states, nil
}

// coursesInBoundary filters candidates to those whose point the
// boundary contains, preserving input order.
func coursesInBoundary(boundary *geom.MultiPolygon, candidates []model.Course) []model.Course {
	var matched []model.Course
	for _, c := range candidates {
		if !c.HasPoint() {
			continue
		}
		if geometry.Contains(boundary, *c.Longitude, *c.Latitude) {
			matched = append(matched, c)
		}
	}
	return matched
}

// validateZip rejects zip strings that cannot name a ZCTA boundary.
func validateZip(zip string) error {
	if len(zip) != 5 {
		return errs.Validationf("zip code %q must be 5 digits", zip)
	}
	if _, err := strconv.Atoi(zip); err != nil {
		return errs.Validationf("zip code %q must be numeric", zip)
	}
	return nil
}
