package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testBoundary(t *testing.T, coords ...[]geom.Coord) *geom.MultiPolygon {
	t.Helper()
	if coords == nil {
		coords = [][]geom.Coord{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	}
	p := geom.NewPolygon(geom.XY)
	_, err := p.SetCoords(coords)
	require.NoError(t, err)
	mp, err := geometry.NormalizeBoundary(p)
	require.NoError(t, err)
	return mp
}

func TestSQLite_GeographyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &model.Geography{Name: "Georgia", Type: model.GeoTypeState, Boundary: testBoundary(t)}
	id, err := s.CreateGeography(ctx, g)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GeographyByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Georgia", got.Name)
	assert.Equal(t, model.GeoTypeState, got.Type)
	require.NotNil(t, got.Boundary)
	assert.Equal(t, g.Boundary.FlatCoords(), got.Boundary.FlatCoords())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_GeographyByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GeographyByID(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestSQLite_GeographiesByName_FiltersType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGeography(ctx, &model.Geography{Name: "Washington", Type: model.GeoTypeState, Boundary: testBoundary(t)})
	require.NoError(t, err)
	_, err = s.CreateGeography(ctx, &model.Geography{Name: "Washington", Type: model.GeoTypeCounty, Boundary: testBoundary(t)})
	require.NoError(t, err)

	got, err := s.GeographiesByName(ctx, "Washington", model.GeoTypeState)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.GeoTypeState, got[0].Type)

	got, err = s.GeographiesByName(ctx, "Nowhere", model.GeoTypeState)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_UniquePerTypeAndName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGeography(ctx, &model.Geography{Name: "30339", Type: model.GeoTypeZipcode, Boundary: testBoundary(t)})
	require.NoError(t, err)
	_, err = s.CreateGeography(ctx, &model.Geography{Name: "30339", Type: model.GeoTypeZipcode, Boundary: testBoundary(t)})
	assert.Error(t, err, "duplicate name within a type must be rejected")

	exists, err := s.GeographyExists(ctx, "30339", model.GeoTypeZipcode)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.GeographyExists(ctx, "30339", model.GeoTypeCounty)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLite_RelationshipsAndChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stateID, err := s.CreateGeography(ctx, &model.Geography{Name: "Georgia", Type: model.GeoTypeState, Boundary: testBoundary(t)})
	require.NoError(t, err)

	for _, name := range []string{"Fulton", "Cobb", "DeKalb"} {
		countyID, err := s.CreateGeography(ctx, &model.Geography{Name: name, Type: model.GeoTypeCounty, Boundary: testBoundary(t)})
		require.NoError(t, err)
		_, err = s.CreateRelationship(ctx, &model.Relationship{
			GeoID: countyID, GeoName: name, ParentID: stateID, ParentName: "Georgia",
		})
		require.NoError(t, err)
	}

	children, err := s.ChildrenOf(ctx, []int64{stateID})
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Cobb", children[0].Name)
	assert.Equal(t, "DeKalb", children[1].Name)
	assert.Equal(t, "Fulton", children[2].Name)

	children, err = s.ChildrenOf(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestSQLite_GeographiesByIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.CreateGeography(ctx, &model.Geography{Name: "Utah", Type: model.GeoTypeState, Boundary: testBoundary(t)})
	require.NoError(t, err)
	id2, err := s.CreateGeography(ctx, &model.Geography{Name: "Idaho", Type: model.GeoTypeState, Boundary: testBoundary(t)})
	require.NoError(t, err)

	got, err := s.GeographiesByIDs(ctx, []int64{id1, id2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Idaho", got[0].Name)
	assert.Equal(t, "Utah", got[1].Name)
}

func TestSQLite_StateCodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStateCodes(ctx, StateRefs))
	// Seeding twice is an upsert, not an error.
	require.NoError(t, s.SeedStateCodes(ctx, StateRefs))

	ref, err := s.StateByName(ctx, "Georgia")
	require.NoError(t, err)
	assert.Equal(t, 13, ref.Number)
	assert.Equal(t, "GA", ref.Abbreviation)

	_, err = s.StateByName(ctx, "Atlantis")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestSQLite_Courses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lat, lng := 34.0, -84.5
	_, err := s.CreateCourse(ctx, &model.Course{
		Name: "East Roswell Park", RawName: "east roswell park dgc",
		HoleCount: 18, Rating: 4.2, Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	_, err = s.CreateCourse(ctx, &model.Course{Name: "Ungeocoded Course"})
	require.NoError(t, err)

	courses, err := s.CoursesWithPoints(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1, "courses without coordinates are excluded")
	assert.Equal(t, "East Roswell Park", courses[0].Name)
	require.NotNil(t, courses[0].Latitude)
	assert.Equal(t, 34.0, *courses[0].Latitude)
}

func TestSQLite_IngestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StartIngestRun(ctx, "counties", "counties.geojson")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.CompleteIngestRun(ctx, id, 3100, 42))

	runs, err := s.ListIngestRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestRunComplete, runs[0].Status)
	assert.Equal(t, 3100, runs[0].Loaded)
	assert.Equal(t, 42, runs[0].Skipped)
	require.NotNil(t, runs[0].CompletedAt)
}

func TestSQLite_FailIngestRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StartIngestRun(ctx, "zips", "zips.ndjson")
	require.NoError(t, err)
	require.NoError(t, s.FailIngestRun(ctx, id, "state code 99 not found"))

	runs, err := s.ListIngestRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestRunFailed, runs[0].Status)
	assert.Equal(t, "state code 99 not found", runs[0].Error)

	err = s.CompleteIngestRun(ctx, "no-such-run", 0, 0)
	assert.True(t, errs.IsNotFound(err))
}
