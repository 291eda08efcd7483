// Package gdal adapts GDAL/OGR, through godal, to the geo interfaces.
package gdal

import (
	"context"
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"

	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
)

var registerOnce sync.Once

// Register loads every GDAL driver. It is safe to call repeatedly.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// Reprojector runs ogr2ogr-equivalent translations in process.
type Reprojector struct{}

var _ geo.Reprojector = Reprojector{}

func (Reprojector) Reproject(ctx context.Context, src, dst string, opts geo.ReprojectOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	Register()

	ds, err := godal.Open(src, godal.VectorOnly())
	if err != nil {
		return &domain.OpError{Op: "gdal.reproject", Kind: domain.KindReproject, Path: src, Err: err}
	}
	defer ds.Close()

	out, err := ds.VectorTranslate(dst, opts.Switches())
	if err != nil {
		return &domain.OpError{Op: "gdal.reproject", Kind: domain.KindReproject, Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &domain.OpError{Op: "gdal.reproject", Kind: domain.KindReproject, Path: dst, Err: err}
	}
	return nil
}

// LayerExtent reads the envelope of the first layer through OGR.
var LayerExtent geo.ExtentReader = geo.ExtentReaderFunc(layerExtent)

func layerExtent(path string) (orb.Bound, error) {
	Register()

	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return orb.Bound{}, &domain.OpError{Op: "gdal.extent", Kind: domain.KindNotFound, Path: path, Err: err}
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return orb.Bound{}, &domain.OpError{
			Op:   "gdal.extent",
			Kind: domain.KindInvalidInput,
			Path: path,
			Err:  fmt.Errorf("no layers"),
		}
	}
	bnds, err := layers[0].Bounds()
	if err != nil {
		return orb.Bound{}, &domain.OpError{Op: "gdal.extent", Kind: domain.KindInvalidInput, Path: path, Err: err}
	}
	return geo.NewExtent(bnds[0], bnds[1], bnds[2], bnds[3]), nil
}
