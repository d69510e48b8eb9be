package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
)

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool   Pool
	closer func()
}

// NewPostgres connects to the given DSN and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closer: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closer: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geographies (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	geo_type   TEXT NOT NULL,
	boundary   BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (geo_type, name)
);

CREATE TABLE IF NOT EXISTS geography_relationships (
	id              BIGSERIAL PRIMARY KEY,
	geo_id          BIGINT NOT NULL REFERENCES geographies(id),
	geo_name        TEXT NOT NULL,
	parent_geo_id   BIGINT NOT NULL REFERENCES geographies(id),
	parent_geo_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_codes (
	state_number INTEGER PRIMARY KEY,
	full_name    TEXT NOT NULL UNIQUE,
	abbreviation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	raw_name   TEXT,
	address    TEXT,
	hole_count INTEGER NOT NULL DEFAULT 0,
	rating     DOUBLE PRECISION NOT NULL DEFAULT 0,
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           UUID PRIMARY KEY,
	dataset      TEXT NOT NULL,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	loaded       INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_relationships_parent ON geography_relationships(parent_geo_id);
CREATE INDEX IF NOT EXISTS idx_geographies_type ON geographies(geo_type);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closer()
	return nil
}

func (s *PostgresStore) CreateGeography(ctx context.Context, g *model.Geography) (int64, error) {
	data, err := geometry.EncodeBoundary(g.Boundary)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO geographies (name, geo_type, boundary, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		g.Name, string(g.Type), data, now,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert geography %s/%s", g.Type, g.Name)
	}
	g.ID = id
	g.CreatedAt = now
	return id, nil
}

func (s *PostgresStore) GeographyByID(ctx context.Context, id int64) (*model.Geography, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies WHERE id = $1`, id)

	g, err := scanGeography(row)
	if err == pgx.ErrNoRows {
		return nil, errs.NotFoundf("geography %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get geography %d", id)
	}
	return g, nil
}

func (s *PostgresStore) GeographiesByName(ctx context.Context, name string, t model.GeoType) ([]model.Geography, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE name = $1 AND geo_type = $2`,
		name, string(t),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: geographies by name %s/%s", t, name)
	}
	return collectGeographyRows(rows)
}

func (s *PostgresStore) GeographiesByIDs(ctx context.Context, ids []int64) ([]model.Geography, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE id = ANY($1) ORDER BY name ASC`,
		ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: geographies by ids")
	}
	return collectGeographyRows(rows)
}

func (s *PostgresStore) GeographiesByType(ctx context.Context, t model.GeoType) ([]model.Geography, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE geo_type = $1 ORDER BY name ASC`,
		string(t),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: geographies by type %s", t)
	}
	return collectGeographyRows(rows)
}

func (s *PostgresStore) GeographyExists(ctx context.Context, name string, t model.GeoType) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM geographies WHERE name = $1 AND geo_type = $2`,
		name, string(t),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: geography exists %s/%s", t, name)
	}
	return n > 0, nil
}

func (s *PostgresStore) CreateRelationship(ctx context.Context, r *model.Relationship) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO geography_relationships (geo_id, geo_name, parent_geo_id, parent_geo_name)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		r.GeoID, r.GeoName, r.ParentID, r.ParentName,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert relationship %s -> %s", r.GeoName, r.ParentName)
	}
	r.ID = id
	return id, nil
}

func (s *PostgresStore) ChildrenOf(ctx context.Context, parentIDs []int64) ([]model.Geography, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.geo_type, g.boundary, g.created_at
		 FROM geographies g
		 JOIN geography_relationships r ON r.geo_id = g.id
		 WHERE r.parent_geo_id = ANY($1)
		 ORDER BY g.name ASC`,
		parentIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: children of")
	}
	return collectGeographyRows(rows)
}

func (s *PostgresStore) StateByName(ctx context.Context, fullName string) (*model.StateRef, error) {
	var ref model.StateRef
	err := s.pool.QueryRow(ctx,
		`SELECT state_number, full_name, abbreviation FROM state_codes WHERE full_name = $1`,
		fullName,
	).Scan(&ref.Number, &ref.FullName, &ref.Abbreviation)
	if err == pgx.ErrNoRows {
		return nil, errs.NotFoundf("state %q", fullName)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: state by name %q", fullName)
	}
	return &ref, nil
}

func (s *PostgresStore) SeedStateCodes(ctx context.Context, refs []model.StateRef) error {
	for _, ref := range refs {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO state_codes (state_number, full_name, abbreviation) VALUES ($1, $2, $3)
			 ON CONFLICT (state_number) DO UPDATE SET full_name = EXCLUDED.full_name, abbreviation = EXCLUDED.abbreviation`,
			ref.Number, ref.FullName, ref.Abbreviation,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed state %s", ref.FullName)
		}
	}
	return nil
}

func (s *PostgresStore) CreateCourse(ctx context.Context, c *model.Course) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO courses (name, raw_name, address, hole_count, rating, latitude, longitude, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		c.Name, c.RawName, c.Address, c.HoleCount, c.Rating, c.Latitude, c.Longitude, now,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert course %s", c.Name)
	}
	c.ID = id
	c.CreatedAt = now
	return id, nil
}

func (s *PostgresStore) CoursesWithPoints(ctx context.Context) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(raw_name, ''), COALESCE(address, ''), hole_count, rating, latitude, longitude, created_at
		 FROM courses
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: courses with points")
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.RawName, &c.Address, &c.HoleCount, &c.Rating,
			&c.Latitude, &c.Longitude, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan course")
		}
		courses = append(courses, c)
	}
	return courses, eris.Wrap(rows.Err(), "postgres: iterate courses")
}

func (s *PostgresStore) StartIngestRun(ctx context.Context, dataset, source string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, dataset, source, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, dataset, source, string(model.IngestRunRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: start ingest run %s", dataset)
	}
	return id, nil
}

func (s *PostgresStore) CompleteIngestRun(ctx context.Context, id string, loaded, skipped int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, loaded = $2, skipped = $3, completed_at = $4 WHERE id = $5`,
		string(model.IngestRunComplete), loaded, skipped, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete ingest run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("ingest run %s", id)
	}
	return nil
}

func (s *PostgresStore) FailIngestRun(ctx context.Context, id, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.IngestRunFailed), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail ingest run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("ingest run %s", id)
	}
	return nil
}

func (s *PostgresStore) ListIngestRuns(ctx context.Context) ([]model.IngestRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset, source, status, loaded, skipped, COALESCE(error, ''), started_at, completed_at
		 FROM ingest_runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ingest runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var status string
		if err := rows.Scan(&r.ID, &r.Dataset, &r.Source, &status, &r.Loaded, &r.Skipped,
			&r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ingest run")
		}
		r.Status = model.IngestRunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate ingest runs")
}

func collectGeographyRows(rows pgx.Rows) ([]model.Geography, error) {
	defer rows.Close()

	var out []model.Geography
	for rows.Next() {
		g, err := scanGeography(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan geography")
		}
		out = append(out, *g)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate geographies")
}
