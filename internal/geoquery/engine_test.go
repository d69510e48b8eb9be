package geoquery

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
	"github.com/discgeo/discgeo/internal/store"
)

func newEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return NewEngine(s), s
}

// addGeography persists a geography with a square boundary spanning
// (x0,y0)..(x0+size,y0+size).
func addGeography(t *testing.T, s store.Store, name string, gt model.GeoType, x0, y0, size float64) int64 {
	t.Helper()
	p := geom.NewPolygon(geom.XY)
	_, err := p.SetCoords([][]geom.Coord{{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}})
	require.NoError(t, err)
	mp, err := geometry.NormalizeBoundary(p)
	require.NoError(t, err)
	id, err := s.CreateGeography(context.Background(), &model.Geography{Name: name, Type: gt, Boundary: mp})
	require.NoError(t, err)
	return id
}

func addCourse(t *testing.T, s store.Store, name string, lat, lng float64) int64 {
	t.Helper()
	id, err := s.CreateCourse(context.Background(), &model.Course{
		Name: name, Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	return id
}

func TestGeographyByID_AttachesProjection(t *testing.T) {
	e, s := newEngine(t)
	id := addGeography(t, s, "Georgia", model.GeoTypeState, 0, 0, 4)

	g, err := e.GeographyByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Georgia", g.Name)
	require.Len(t, g.LatLngs, 5)
	assert.Equal(t, model.LatLng{Lat: 0, Lng: 0}, g.LatLngs[0])
}

func TestGeographyByID_NotFound(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.GeographyByID(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestGeographyByExactName(t *testing.T) {
	e, s := newEngine(t)
	addGeography(t, s, "30144", model.GeoTypeZipcode, 0, 0, 4)

	g, err := e.GeographyByExactName(context.Background(), "30144", model.GeoTypeZipcode)
	require.NoError(t, err)
	assert.Equal(t, "30144", g.Name)

	_, err = e.GeographyByExactName(context.Background(), "99999", model.GeoTypeZipcode)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestGeographyByExactName_ScopedToType(t *testing.T) {
	e, s := newEngine(t)
	addGeography(t, s, "Washington", model.GeoTypeState, 0, 0, 4)
	addGeography(t, s, "Washington", model.GeoTypeCounty, 0, 0, 4)

	g, err := e.GeographyByExactName(context.Background(), "Washington", model.GeoTypeCounty)
	require.NoError(t, err)
	assert.Equal(t, model.GeoTypeCounty, g.Type)
}

func TestGeographyByExactName_InvalidType(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.GeographyByExactName(context.Background(), "x", model.GeoType("PLANET"))
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestCoursesWithin_TwoInsideOneOutside(t *testing.T) {
	e, s := newEngine(t)
	id := addGeography(t, s, "30144", model.GeoTypeZipcode, 0, 0, 4)

	addCourse(t, s, "Inside A", 1, 1)
	addCourse(t, s, "Inside B", 3, 3)
	addCourse(t, s, "Outside", 10, 10)

	courses, err := e.CoursesWithin(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Inside A", courses[0].Name)
	assert.Equal(t, "Inside B", courses[1].Name)
}

func TestCoursesWithin_ExcludesCoursesWithoutPoints(t *testing.T) {
	e, s := newEngine(t)
	id := addGeography(t, s, "30144", model.GeoTypeZipcode, 0, 0, 4)

	_, err := s.CreateCourse(context.Background(), &model.Course{Name: "No Point"})
	require.NoError(t, err)
	addCourse(t, s, "Inside", 2, 2)

	courses, err := e.CoursesWithin(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Inside", courses[0].Name)
}

func TestCoursesWithin_EmptyResultIsNotAnError(t *testing.T) {
	e, s := newEngine(t)
	id := addGeography(t, s, "30144", model.GeoTypeZipcode, 0, 0, 4)

	courses, err := e.CoursesWithin(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestCoursesWithinMany_DuplicatesAcrossOverlappingBoundaries(t *testing.T) {
	e, s := newEngine(t)
	// Overlapping squares: (0..4) and (2..6). Point (3,3) is in both.
	a := addGeography(t, s, "Cobb", model.GeoTypeCounty, 0, 0, 4)
	b := addGeography(t, s, "Fulton", model.GeoTypeCounty, 2, 2, 4)

	addCourse(t, s, "Shared", 3, 3)
	addCourse(t, s, "Only A", 1, 1)

	res, err := e.CoursesWithinMany(context.Background(), []int64{a, b})
	require.NoError(t, err)
	require.Len(t, res.Geographies, 2)

	// The shared course appears once per matching boundary.
	require.Len(t, res.Courses, 3)
	var shared int
	for _, c := range res.Courses {
		if c.Name == "Shared" {
			shared++
		}
	}
	assert.Equal(t, 2, shared)
}

func TestCoursesInZipcode(t *testing.T) {
	e, s := newEngine(t)
	addGeography(t, s, "30144", model.GeoTypeZipcode, 0, 0, 4)
	addCourse(t, s, "Inside", 2, 2)

	res, err := e.CoursesInZipcode(context.Background(), "30144")
	require.NoError(t, err)
	require.Len(t, res.Courses, 1)
	require.Len(t, res.Geographies, 1)
	assert.Equal(t, "30144", res.Geographies[0].Name)
	assert.NotEmpty(t, res.Geographies[0].LatLngs)
}

func TestCoursesInZipcode_InvalidZip(t *testing.T) {
	e, _ := newEngine(t)

	for _, zip := range []string{"", "123", "abcde", "301445"} {
		_, err := e.CoursesInZipcode(context.Background(), zip)
		require.Error(t, err, "zip %q", zip)
		assert.True(t, errs.IsValidation(err), "zip %q", zip)
	}
}

func TestCoursesInZipcode_UnknownZip(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.CoursesInZipcode(context.Background(), "30144")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestCountiesForStates_AlphabeticalByName(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	stateID := addGeography(t, s, "Georgia", model.GeoTypeState, 0, 0, 10)
	for _, name := range []string{"Fulton", "cobb", "DeKalb"} {
		countyID := addGeography(t, s, name, model.GeoTypeCounty, 0, 0, 4)
		_, err := s.CreateRelationship(ctx, &model.Relationship{
			GeoID: countyID, GeoName: name, ParentID: stateID, ParentName: "Georgia",
		})
		require.NoError(t, err)
	}

	counties, err := e.CountiesForStates(ctx, []int64{stateID})
	require.NoError(t, err)
	require.Len(t, counties, 3)
	// Case-insensitive collation, not byte order.
	assert.Equal(t, "cobb", counties[0].Name)
	assert.Equal(t, "DeKalb", counties[1].Name)
	assert.Equal(t, "Fulton", counties[2].Name)
}

func TestCountiesForStates_ConcurrentCallers(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	stateID := addGeography(t, s, "Georgia", model.GeoTypeState, 0, 0, 10)
	for _, name := range []string{"Fulton", "cobb", "DeKalb"} {
		countyID := addGeography(t, s, name, model.GeoTypeCounty, 0, 0, 4)
		_, err := s.CreateRelationship(ctx, &model.Relationship{
			GeoID: countyID, GeoName: name, ParentID: stateID, ParentName: "Georgia",
		})
		require.NoError(t, err)
	}

	// One engine, many callers. The race detector flags any shared
	// mutable sort state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				counties, err := e.CountiesForStates(ctx, []int64{stateID})
				assert.NoError(t, err)
				assert.Len(t, counties, 3)
			}
		}()
	}
	wg.Wait()
}

func TestCountiesForStates_UnrelatedStatesExcluded(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	ga := addGeography(t, s, "Georgia", model.GeoTypeState, 0, 0, 10)
	tx := addGeography(t, s, "Texas", model.GeoTypeState, 20, 20, 10)
	countyID := addGeography(t, s, "Travis", model.GeoTypeCounty, 21, 21, 2)
	_, err := s.CreateRelationship(ctx, &model.Relationship{
		GeoID: countyID, GeoName: "Travis", ParentID: tx, ParentName: "Texas",
	})
	require.NoError(t, err)

	counties, err := e.CountiesForStates(ctx, []int64{ga})
	require.NoError(t, err)
	assert.Empty(t, counties)
}

func TestStates(t *testing.T) {
	e, s := newEngine(t)
	addGeography(t, s, "Texas", model.GeoTypeState, 20, 20, 10)
	addGeography(t, s, "Georgia", model.GeoTypeState, 0, 0, 10)

	states, err := e.States(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "Georgia", states[0].Name)
	assert.Empty(t, states[0].LatLngs)

	states, err = e.States(context.Background(), true)
	require.NoError(t, err)
	assert.NotEmpty(t, states[0].LatLngs)
}
