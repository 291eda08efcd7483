package geo

import (
	"errors"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"

	"github.com/pavletto/forestdata/internal/domain"
)

var errEmptyShapefile = errors.New("shapefile has no geometries")

// ShapefileExtent is the default ExtentReader: it scans every record of an
// ESRI shapefile and returns the union of their bounds.
var ShapefileExtent ExtentReader = ExtentReaderFunc(shapefileExtent)

func shapefileExtent(path string) (orb.Bound, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return orb.Bound{}, &domain.OpError{Op: "geo.extent", Kind: domain.KindNotFound, Path: path, Err: err}
	}
	defer d.Close()

	var bounds []*geom.Bounds
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		bounds = append(bounds, g.Bounds())
	}
	if err := d.Error(); err != nil {
		return orb.Bound{}, &domain.OpError{Op: "geo.extent", Kind: domain.KindInvalidInput, Path: path, Err: err}
	}

	b, ok := unionBounds(bounds)
	if !ok {
		return orb.Bound{}, &domain.OpError{Op: "geo.extent", Kind: domain.KindInvalidInput, Path: path, Err: errEmptyShapefile}
	}
	return b, nil
}

func unionBounds(bounds []*geom.Bounds) (orb.Bound, bool) {
	var (
		out orb.Bound
		n   int
	)
	for _, gb := range bounds {
		if gb == nil {
			continue
		}
		b := NewExtent(gb.Min.X, gb.Min.Y, gb.Max.X, gb.Max.Y)
		if Validate(b) != nil {
			continue
		}
		if n == 0 {
			out = b
		} else {
			out = out.Union(b)
		}
		n++
	}
	return out, n > 0
}
