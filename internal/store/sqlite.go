package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geographies (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	geo_type   TEXT NOT NULL,
	boundary   BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (geo_type, name)
);

CREATE TABLE IF NOT EXISTS geography_relationships (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	geo_id          INTEGER NOT NULL REFERENCES geographies(id),
	geo_name        TEXT NOT NULL,
	parent_geo_id   INTEGER NOT NULL REFERENCES geographies(id),
	parent_geo_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_codes (
	state_number INTEGER PRIMARY KEY,
	full_name    TEXT NOT NULL UNIQUE,
	abbreviation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	raw_name   TEXT,
	address    TEXT,
	hole_count INTEGER NOT NULL DEFAULT 0,
	rating     REAL NOT NULL DEFAULT 0,
	latitude   REAL,
	longitude  REAL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	dataset      TEXT NOT NULL,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	loaded       INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_relationships_parent ON geography_relationships(parent_geo_id);
CREATE INDEX IF NOT EXISTS idx_geographies_type ON geographies(geo_type);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateGeography(ctx context.Context, g *model.Geography) (int64, error) {
	data, err := geometry.EncodeBoundary(g.Boundary)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO geographies (name, geo_type, boundary, created_at) VALUES (?, ?, ?, ?)`,
		g.Name, string(g.Type), data, now,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert geography %s/%s", g.Type, g.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	g.ID = id
	g.CreatedAt = now
	return id, nil
}

func (s *SQLiteStore) GeographyByID(ctx context.Context, id int64) (*model.Geography, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies WHERE id = ?`, id)

	g, err := scanGeography(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("geography %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get geography %d", id)
	}
	return g, nil
}

func (s *SQLiteStore) GeographiesByName(ctx context.Context, name string, t model.GeoType) ([]model.Geography, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE name = ? AND geo_type = ?`,
		name, string(t),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: geographies by name %s/%s", t, name)
	}
	return collectGeographies(rows)
}

func (s *SQLiteStore) GeographiesByIDs(ctx context.Context, ids []int64) ([]model.Geography, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE id IN (`+placeholders(len(ids))+`) ORDER BY name ASC`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: geographies by ids")
	}
	return collectGeographies(rows)
}

func (s *SQLiteStore) GeographiesByType(ctx context.Context, t model.GeoType) ([]model.Geography, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, geo_type, boundary, created_at FROM geographies
		 WHERE geo_type = ? ORDER BY name ASC`,
		string(t),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: geographies by type %s", t)
	}
	return collectGeographies(rows)
}

func (s *SQLiteStore) GeographyExists(ctx context.Context, name string, t model.GeoType) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM geographies WHERE name = ? AND geo_type = ?`,
		name, string(t),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: geography exists %s/%s", t, name)
	}
	return n > 0, nil
}

func (s *SQLiteStore) CreateRelationship(ctx context.Context, r *model.Relationship) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO geography_relationships (geo_id, geo_name, parent_geo_id, parent_geo_name)
		 VALUES (?, ?, ?, ?)`,
		r.GeoID, r.GeoName, r.ParentID, r.ParentName,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert relationship %s -> %s", r.GeoName, r.ParentName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	r.ID = id
	return id, nil
}

func (s *SQLiteStore) ChildrenOf(ctx context.Context, parentIDs []int64) ([]model.Geography, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(parentIDs))
	for i, id := range parentIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.geo_type, g.boundary, g.created_at
		 FROM geographies g
		 JOIN geography_relationships r ON r.geo_id = g.id
		 WHERE r.parent_geo_id IN (`+placeholders(len(parentIDs))+`)
		 ORDER BY g.name ASC`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: children of")
	}
	return collectGeographies(rows)
}

func (s *SQLiteStore) StateByName(ctx context.Context, fullName string) (*model.StateRef, error) {
	var ref model.StateRef
	err := s.db.QueryRowContext(ctx,
		`SELECT state_number, full_name, abbreviation FROM state_codes WHERE full_name = ?`,
		fullName,
	).Scan(&ref.Number, &ref.FullName, &ref.Abbreviation)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("state %q", fullName)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: state by name %q", fullName)
	}
	return &ref, nil
}

func (s *SQLiteStore) SeedStateCodes(ctx context.Context, refs []model.StateRef) error {
	for _, ref := range refs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO state_codes (state_number, full_name, abbreviation) VALUES (?, ?, ?)
			 ON CONFLICT (state_number) DO UPDATE SET full_name = excluded.full_name, abbreviation = excluded.abbreviation`,
			ref.Number, ref.FullName, ref.Abbreviation,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed state %s", ref.FullName)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateCourse(ctx context.Context, c *model.Course) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (name, raw_name, address, hole_count, rating, latitude, longitude, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.RawName, c.Address, c.HoleCount, c.Rating, c.Latitude, c.Longitude, now,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert course %s", c.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	c.ID = id
	c.CreatedAt = now
	return id, nil
}

func (s *SQLiteStore) CoursesWithPoints(ctx context.Context) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, raw_name, address, hole_count, rating, latitude, longitude, created_at
		 FROM courses
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: courses with points")
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		var rawName, address sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &rawName, &address, &c.HoleCount, &c.Rating,
			&c.Latitude, &c.Longitude, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan course")
		}
		c.RawName = rawName.String
		c.Address = address.String
		courses = append(courses, c)
	}
	return courses, eris.Wrap(rows.Err(), "sqlite: iterate courses")
}

func (s *SQLiteStore) StartIngestRun(ctx context.Context, dataset, source string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, dataset, source, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, dataset, source, string(model.IngestRunRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: start ingest run %s", dataset)
	}
	return id, nil
}

func (s *SQLiteStore) CompleteIngestRun(ctx context.Context, id string, loaded, skipped int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, loaded = ?, skipped = ?, completed_at = ? WHERE id = ?`,
		string(model.IngestRunComplete), loaded, skipped, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete ingest run %s", id)
	}
	return checkRowsAffected(res, "ingest run", id)
}

func (s *SQLiteStore) FailIngestRun(ctx context.Context, id, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.IngestRunFailed), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail ingest run %s", id)
	}
	return checkRowsAffected(res, "ingest run", id)
}

func (s *SQLiteStore) ListIngestRuns(ctx context.Context) ([]model.IngestRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, source, status, loaded, skipped, error, started_at, completed_at
		 FROM ingest_runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ingest runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var status string
		var errStr sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Dataset, &r.Source, &status, &r.Loaded, &r.Skipped,
			&errStr, &r.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ingest run")
		}
		r.Status = model.IngestRunStatus(status)
		r.Error = errStr.String
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate ingest runs")
}

// helpers

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errs.NotFoundf("%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanGeography(row scannable) (*model.Geography, error) {
	var g model.Geography
	var geoType string
	var boundary []byte
	if err := row.Scan(&g.ID, &g.Name, &geoType, &boundary, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Type = model.GeoType(geoType)
	mp, err := geometry.DecodeBoundary(boundary)
	if err != nil {
		return nil, err
	}
	g.Boundary = mp
	return &g, nil
}

func collectGeographies(rows *sql.Rows) ([]model.Geography, error) {
	defer rows.Close()

	var out []model.Geography
	for rows.Next() {
		g, err := scanGeography(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan geography")
		}
		out = append(out, *g)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate geographies")
}
