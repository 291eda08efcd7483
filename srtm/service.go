package srtm

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/observability"
)

// BoundarySource makes a country boundary shapefile available in dir and
// returns its path.
type BoundarySource interface {
	Ensure(ctx context.Context, iso3, dir string) (string, error)
}

// DownloadRequest contains parameters for a country tile download
type DownloadRequest struct {
	ISO3 string

	// Extent reads the boundary envelope. Defaults to geo.ShapefileExtent.
	Extent geo.ExtentReader
}

// DownloadResult lists what happened to every tile covering the country
type DownloadResult struct {
	Boundary   string    // boundary shapefile path
	Extent     orb.Bound // boundary envelope, degrees
	Tiles      []TileID  // in fetch order
	Downloaded []TileID
	Cached     []TileID
	Absent     []TileID
}

// DownloadCountry fetches every SRTM tile covering the country iso3 into the
// store cache directory, getting the boundary first when missing. Absent
// tiles are skipped; any other failure stops the run and is returned along
// with what was done so far.
func DownloadCountry(ctx context.Context, store *Store, boundaries BoundarySource, req DownloadRequest) (DownloadResult, error) {
	if store == nil {
		return DownloadResult{}, fmt.Errorf("store is nil")
	}
	if boundaries == nil {
		return DownloadResult{}, fmt.Errorf("boundary source is nil")
	}
	if req.Extent == nil {
		req.Extent = geo.ShapefileExtent
	}

	ctx, span := observability.Tracer().Start(ctx, "srtm.download_country",
		trace.WithAttributes(attribute.String("iso3", req.ISO3)))
	defer span.End()

	var res DownloadResult
	shp, err := boundaries.Ensure(ctx, req.ISO3, store.Config().CacheDir)
	if err != nil {
		return res, err
	}
	res.Boundary = shp

	res.Extent, err = req.Extent.Extent(shp)
	if err != nil {
		return res, &domain.OpError{Op: "srtm.download_country", Kind: domain.KindInvalidInput, Path: shp, Err: err}
	}
	res.Tiles, err = TilesFor(res.Extent)
	if err != nil {
		return res, err
	}
	span.SetAttributes(attribute.Int("tiles", len(res.Tiles)))

	for _, t := range res.Tiles {
		outcome, err := store.Fetch(ctx, t)
		if err != nil {
			return res, err
		}
		switch outcome {
		case Downloaded:
			res.Downloaded = append(res.Downloaded, t)
		case Cached:
			res.Cached = append(res.Cached, t)
		case Absent:
			res.Absent = append(res.Absent, t)
		}
	}
	return res, nil
}

// TileInfo describes one tile covering an extent
type TileInfo struct {
	ID          TileID
	Stem        string
	URL         string
	Cached      bool
	Bound       orb.Bound
	GeoidOffset float64 // metres, EGM96 at the tile centre
}

// Describe lists the tiles covering b without fetching anything.
func Describe(store *Store, b orb.Bound) ([]TileInfo, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	tiles, err := TilesFor(b)
	if err != nil {
		return nil, err
	}
	out := make([]TileInfo, 0, len(tiles))
	for _, t := range tiles {
		n, err := GeoidOffset(t)
		if err != nil {
			return nil, fmt.Errorf("geoid offset for %s: %w", t, err)
		}
		out = append(out, TileInfo{
			ID:          t,
			Stem:        t.FileStem(),
			URL:         store.URL(t),
			Cached:      store.IsCached(t),
			Bound:       t.Bound(),
			GeoidOffset: n,
		})
	}
	return out, nil
}
