package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/errs"
	"github.com/discgeo/discgeo/internal/geometry"
	"github.com/discgeo/discgeo/internal/model"
	"github.com/discgeo/discgeo/internal/store"
)

// Pipeline runs boundary ingestion against a store. Features are
// persisted one at a time with no batch transaction: a failure partway
// through leaves prior features committed, and reruns skip geographies
// that already exist.
type Pipeline struct {
	store store.Store
}

// NewPipeline creates an ingestion pipeline over the given store.
func NewPipeline(s store.Store) *Pipeline {
	return &Pipeline{store: s}
}

// Result summarizes one ingestion run.
type Result struct {
	RunID   string
	Loaded  int
	Skipped int
}

// ReadStateNames consumes a state-boundary source once and returns the
// numeric state code to full name lookup used by county ingestion.
func ReadStateNames(src Source) (map[int]string, error) {
	names := make(map[int]string)
	for src.Next() {
		attrs, err := ParseStateAttributes(src.Feature().Attributes)
		if err != nil {
			zap.L().Warn("ingest: skipping state feature without code or name", zap.Error(err))
			continue
		}
		names[attrs.StateCode] = attrs.Name
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// IngestStates persists one STATE geography per feature. States receive
// no parent relationships.
func (p *Pipeline) IngestStates(ctx context.Context, src Source, source string) (*Result, error) {
	return p.run(ctx, "states", source, src, func(ctx context.Context, f RawFeature) (bool, error) {
		attrs, err := ParseStateAttributes(f.Attributes)
		if err != nil {
			return false, err
		}
		g, err := p.persistGeography(ctx, attrs.Name, model.GeoTypeState, f.Geometry)
		return g != nil, err
	})
}

// IngestZipsOptions controls zipcode ingestion.
type IngestZipsOptions struct {
	// StopAtZip halts the run cleanly after ingesting the feature with
	// this zip code. The cutoff is inclusive. Empty disables it.
	StopAtZip string
}

// IngestZips persists one ZIPCODE geography per feature. Zipcodes
// receive no parent relationships from this pipeline.
func (p *Pipeline) IngestZips(ctx context.Context, src Source, source string, opts IngestZipsOptions) (*Result, error) {
	return p.run(ctx, "zips", source, src, func(ctx context.Context, f RawFeature) (bool, error) {
		attrs, err := ParseZipAttributes(f.Attributes)
		if err != nil {
			return false, err
		}
		g, err := p.persistGeography(ctx, attrs.ZipCode, model.GeoTypeZipcode, f.Geometry)
		if err != nil {
			return false, err
		}
		if opts.StopAtZip != "" && attrs.ZipCode == opts.StopAtZip {
			zap.L().Info("ingest: reached configured stop zip", zap.String("zip", attrs.ZipCode))
			return g != nil, errStop
		}
		return g != nil, nil
	})
}

// IngestCounties persists one COUNTY geography per feature and links it
// to its parent state. The state must already be ingested and present
// in the state reference table; an unresolvable parent aborts the whole
// run rather than leaving an inconsistent hierarchy.
func (p *Pipeline) IngestCounties(ctx context.Context, src Source, source string, stateNames map[int]string) (*Result, error) {
	return p.run(ctx, "counties", source, src, func(ctx context.Context, f RawFeature) (bool, error) {
		attrs, err := ParseCountyAttributes(f.Attributes)
		if err != nil {
			return false, err
		}

		stateName, ok := stateNames[attrs.StateCode]
		if !ok {
			return false, errs.Integrityf("no state name for code %d (county %q)", attrs.StateCode, attrs.Name)
		}
		if _, err := p.store.StateByName(ctx, stateName); err != nil {
			if errs.IsNotFound(err) {
				return false, errs.Integrityf("state %q missing from reference table (county %q)", stateName, attrs.Name)
			}
			return false, err
		}
		parents, err := p.store.GeographiesByName(ctx, stateName, model.GeoTypeState)
		if err != nil {
			return false, err
		}
		if len(parents) != 1 {
			return false, errs.Integrityf("expected one STATE geography named %q, found %d (county %q)",
				stateName, len(parents), attrs.Name)
		}
		parent := parents[0]

		county, err := p.persistGeography(ctx, attrs.Name, model.GeoTypeCounty, f.Geometry)
		if err != nil || county == nil {
			return false, err
		}

		_, err = p.store.CreateRelationship(ctx, &model.Relationship{
			GeoID:      county.ID,
			GeoName:    county.Name,
			ParentID:   parent.ID,
			ParentName: parent.Name,
		})
		return true, err
	})
}

// errStop is an internal signal to end a run cleanly before the source
// is exhausted.
var errStop = eris.New("ingest: stop")

// run drives a source through the per-feature handler with audit-log
// accounting. The handler reports whether the feature was loaded;
// ValidationError and GeometryError skip the feature, IntegrityError
// and store failures abort the run.
func (p *Pipeline) run(ctx context.Context, dataset, source string, src Source,
	handle func(context.Context, RawFeature) (bool, error)) (*Result, error) {

	log := zap.L().With(zap.String("component", "ingest"), zap.String("dataset", dataset))
	defer src.Close()

	runID, err := p.store.StartIngestRun(ctx, dataset, source)
	if err != nil {
		return nil, err
	}
	log.Info("starting ingestion", zap.String("run", runID), zap.String("source", source))

	res := &Result{RunID: runID}
	start := time.Now()

	fail := func(cause error) (*Result, error) {
		if logErr := p.store.FailIngestRun(ctx, runID, cause.Error()); logErr != nil {
			log.Error("failed to record run failure", zap.Error(logErr))
		}
		return nil, cause
	}

	stopped := false
	for !stopped && src.Next() {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		loaded, err := handle(ctx, src.Feature())
		switch {
		case err == nil:
			if loaded {
				res.Loaded++
			} else {
				res.Skipped++
			}
		case errors.Is(err, errStop):
			if loaded {
				res.Loaded++
			}
			stopped = true
		case errs.IsValidation(err) || errs.IsGeometry(err):
			res.Skipped++
			log.Warn("skipping feature", zap.Error(err))
		default:
			log.Error("aborting run", zap.Error(err))
			return fail(err)
		}
	}
	if !stopped {
		if err := src.Err(); err != nil {
			return fail(err)
		}
	}

	if err := p.store.CompleteIngestRun(ctx, runID, res.Loaded, res.Skipped); err != nil {
		return nil, err
	}
	log.Info("ingestion complete",
		zap.Int("loaded", res.Loaded),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// persistGeography normalizes and stores one boundary. Returns nil
// without error when a geography of the same type and name already
// exists, which makes reruns of the same source idempotent.
func (p *Pipeline) persistGeography(ctx context.Context, name string, t model.GeoType, g geom.T) (*model.Geography, error) {
	if g == nil {
		return nil, errs.Geometryf("feature %q has no geometry", name)
	}
	exists, err := p.store.GeographyExists(ctx, name, t)
	if err != nil {
		return nil, err
	}
	if exists {
		zap.L().Debug("ingest: geography already present", zap.String("name", name), zap.String("type", string(t)))
		return nil, nil
	}

	boundary, err := geometry.NormalizeBoundary(g)
	if err != nil {
		return nil, err
	}
	created := &model.Geography{Name: name, Type: t, Boundary: boundary}
	if _, err := p.store.CreateGeography(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}
