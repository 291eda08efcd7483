package country

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pavletto/forestdata/gadm"
	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/layers"
	"github.com/pavletto/forestdata/internal/logging"
	"github.com/pavletto/forestdata/internal/observability"
)

// Report summarises a successful Compute run.
type Report struct {
	Boundary       string    // reprojected boundary shapefile
	Extent         orb.Bound // boundary extent in the target projection
	Region         orb.Bound // working region handed to the layers
	Copied         []CopiedFile
	ScratchRemoved bool
}

// Compute reprojects the country boundary, derives the working region, runs
// the requested layers inside TempDir and copies their outputs into
// OutputDir. TempDir is removed at the end unless KeepTempDir is set. The
// first failing step aborts the run and leaves both directories as they
// are.
func Compute(ctx context.Context, opts Options) (Report, error) {
	if err := opts.validate(); err != nil {
		return Report{}, err
	}
	if opts.Extent == nil {
		opts.Extent = geo.ShapefileExtent
	}
	r := &run{opts: opts, log: logging.OrNoop(opts.Logger).With("iso3", opts.ISO3)}

	ctx, span := observability.Tracer().Start(ctx, "country.compute", trace.WithAttributes(
		attribute.String("iso3", opts.ISO3),
		attribute.String("proj", opts.Proj),
		attribute.Bool("data_country", opts.DataCountry),
		attribute.Bool("data_forest", opts.DataForest),
	))
	defer span.End()

	if err := r.execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("country data failed, scratch kept", "temp_dir", opts.TempDir, "err", err)
		return r.report, err
	}
	return r.report, nil
}

type run struct {
	opts   Options
	log    *slog.Logger
	report Report
}

func (r *run) execute(ctx context.Context) error {
	o := r.opts

	if err := r.reproject(ctx); err != nil {
		return err
	}

	extent, err := o.Extent.Extent(r.report.Boundary)
	if err != nil {
		return &domain.OpError{Op: "country.extent", Kind: domain.KindInvalidInput, Path: r.report.Boundary, Err: err}
	}
	r.report.Extent = extent
	r.report.Region = geo.WorkingRegion(extent, geo.RegionBuffer)
	r.log.Info("working region", "extent", geo.Format(extent), "region", geo.Format(r.report.Region))

	job := layers.Job{ISO3: o.ISO3, Proj: o.Proj, Region: r.report.Region, Dir: o.TempDir}

	if o.DataCountry {
		for _, c := range o.Country {
			if err := r.layer(ctx, c, job); err != nil {
				return err
			}
		}
		if err := r.copyOutputs(countryOutputs); err != nil {
			return err
		}
	}

	if o.DataForest {
		if err := r.layer(ctx, o.Forest, job); err != nil {
			return err
		}
		for _, d := range forestDirs {
			if err := os.MkdirAll(filepath.Join(o.OutputDir, d), 0o755); err != nil {
				return &domain.OpError{Op: "country.forest", Kind: domain.KindCopy, Path: d, Err: err}
			}
		}
		if err := r.copyOutputs(forestOutputs); err != nil {
			return err
		}
	}

	if !o.KeepTempDir {
		if err := os.RemoveAll(o.TempDir); err != nil {
			r.log.Error("scratch removal failed", "temp_dir", o.TempDir, "err", err)
		} else {
			r.report.ScratchRemoved = true
			r.log.Debug("scratch removed", "temp_dir", o.TempDir)
		}
	}
	r.log.Info("country data ready", "output_dir", o.OutputDir, "files", len(r.report.Copied))
	return nil
}

func (r *run) reproject(ctx context.Context) error {
	o := r.opts
	src := filepath.Join(o.TempDir, gadm.ShapefileName(o.ISO3))
	dst := filepath.Join(o.TempDir, ReprojectedBoundary)

	ctx, span := observability.Tracer().Start(ctx, "country.reproject")
	defer span.End()

	r.log.Info("reprojecting boundary", "src", src, "dst", dst, "proj", o.Proj)
	if err := o.Reprojector.Reproject(ctx, src, dst, geo.BoundaryReprojectOptions(o.Proj)); err != nil {
		span.RecordError(err)
		return err
	}
	r.report.Boundary = dst
	return nil
}

func (r *run) layer(ctx context.Context, c layers.Computer, job layers.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := observability.Tracer().Start(ctx, "country.layer",
		trace.WithAttributes(attribute.String("layer", c.Name())))
	defer span.End()

	start := time.Now()
	r.log.Info("computing layer", "layer", c.Name())
	err := c.Compute(ctx, job)
	r.opts.Metrics.ObserveLayer(c.Name(), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !domain.IsKind(err, domain.KindLayer) {
			err = &domain.OpError{Op: "country.layer." + c.Name(), Kind: domain.KindLayer, Path: job.Dir, Err: err}
		}
		return err
	}
	return nil
}

func (r *run) copyOutputs(outputs []output) error {
	o := r.opts
	for _, out := range outputs {
		files, err := out.resolve(o.TempDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			r.log.Debug("no files match", "pattern", out.src)
			continue
		}
		dir := filepath.Join(o.OutputDir, out.subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.OpError{Op: "country.copy", Kind: domain.KindCopy, Path: dir, Err: err}
		}
		for _, src := range files {
			dst := out.target(o.OutputDir, src)
			if err := copyFile(src, dst); err != nil {
				return err
			}
			o.Metrics.ObserveCopy(out.subdir)
			r.report.Copied = append(r.report.Copied, CopiedFile{Src: src, Dst: dst})
		}
	}
	return nil
}
