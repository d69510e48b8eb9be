package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func encodedBoundary(t *testing.T) []byte {
	t.Helper()
	p := geom.NewPolygon(geom.XY)
	_, err := p.SetCoords([][]geom.Coord{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}})
	require.NoError(t, err)
	mp, err := geometry.NormalizeBoundary(p)
	require.NoError(t, err)
	data, err := geometry.EncodeBoundary(mp)
	require.NoError(t, err)
	return data
}

func TestPostgresStore_CreateGeography(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO geographies`).
		WithArgs("Georgia", "STATE", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	p := geom.NewPolygon(geom.XY)
	_, err := p.SetCoords([][]geom.Coord{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}})
	require.NoError(t, err)
	mp, err := geometry.NormalizeBoundary(p)
	require.NoError(t, err)

	g := &model.Geography{Name: "Georgia", Type: model.GeoTypeState, Boundary: mp}
	id, err := s.CreateGeography(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), g.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GeographyByID_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, geo_type, boundary, created_at FROM geographies WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GeographyByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GeographyByID_DecodesBoundary(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, geo_type, boundary, created_at FROM geographies WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "geo_type", "boundary", "created_at"}).
			AddRow(int64(3), "Fulton", "COUNTY", encodedBoundary(t), time.Now().UTC()))

	g, err := s.GeographyByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Fulton", g.Name)
	assert.Equal(t, model.GeoTypeCounty, g.Type)
	require.NotNil(t, g.Boundary)
	assert.Equal(t, 1, g.Boundary.NumPolygons())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ChildrenOf_UsesArrayParam(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE r\.parent_geo_id = ANY\(\$1\)`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "geo_type", "boundary", "created_at"}).
			AddRow(int64(10), "Cobb", "COUNTY", encodedBoundary(t), time.Now().UTC()).
			AddRow(int64(11), "Fulton", "COUNTY", encodedBoundary(t), time.Now().UTC()))

	children, err := s.ChildrenOf(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Cobb", children[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ChildrenOf_EmptyInput(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	children, err := s.ChildrenOf(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StateByName_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT state_number, full_name, abbreviation FROM state_codes`).
		WithArgs("Atlantis").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.StateByName(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteIngestRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE ingest_runs SET status`).
		WithArgs("complete", 10, 0, pgxmock.AnyArg(), "missing-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteIngestRun(context.Background(), "missing-run", 10, 0)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartIngestRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO ingest_runs`).
		WithArgs(pgxmock.AnyArg(), "counties", "counties.geojson", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.StartIngestRun(context.Background(), "counties", "counties.geojson")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
