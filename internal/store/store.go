// Package store defines the persistence interface for geographies,
// relationships, courses, and ingest-run audit records, with SQLite
// (default, embedded) and Postgres backends.
package store

import (
	"context"

	"github.com/discgeo/discgeo/internal/model"
)

// Store is the storage handle passed explicitly into the ingestion
// pipeline and the query engine. Geography and relationship rows are
// write-once: there are no update methods by design.
type Store interface {
	// Geographies
	CreateGeography(ctx context.Context, g *model.Geography) (int64, error)
	GeographyByID(ctx context.Context, id int64) (*model.Geography, error)
	GeographiesByName(ctx context.Context, name string, t model.GeoType) ([]model.Geography, error)
	GeographiesByIDs(ctx context.Context, ids []int64) ([]model.Geography, error)
	GeographiesByType(ctx context.Context, t model.GeoType) ([]model.Geography, error)
	GeographyExists(ctx context.Context, name string, t model.GeoType) (bool, error)

	// Relationships
	CreateRelationship(ctx context.Context, r *model.Relationship) (int64, error)
	ChildrenOf(ctx context.Context, parentIDs []int64) ([]model.Geography, error)

	// State reference data (read-only for the pipeline)
	StateByName(ctx context.Context, fullName string) (*model.StateRef, error)
	SeedStateCodes(ctx context.Context, refs []model.StateRef) error

	// Courses (written by the external scraper/geocoder path)
	CreateCourse(ctx context.Context, c *model.Course) (int64, error)
	CoursesWithPoints(ctx context.Context) ([]model.Course, error)

	// Ingest run audit log
	StartIngestRun(ctx context.Context, dataset, source string) (string, error)
	CompleteIngestRun(ctx context.Context, id string, loaded, skipped int) error
	FailIngestRun(ctx context.Context, id, errMsg string) error
	ListIngestRuns(ctx context.Context) ([]model.IngestRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
