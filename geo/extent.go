// Package geo computes extents of boundary files and the buffered working
// regions derived from them.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// RegionBuffer is the margin, in projected units, added around a country
// extent to form its working region.
const RegionBuffer = 5000.0

// ExtentReader returns the extent of a vector file in its native CRS.
type ExtentReader interface {
	Extent(path string) (orb.Bound, error)
}

// ExtentReaderFunc adapts a function to ExtentReader.
type ExtentReaderFunc func(path string) (orb.Bound, error)

func (f ExtentReaderFunc) Extent(path string) (orb.Bound, error) { return f(path) }

// NewExtent builds a bound from xmin, ymin, xmax, ymax.
func NewExtent(xmin, ymin, xmax, ymax float64) orb.Bound {
	return orb.Bound{Min: orb.Point{xmin, ymin}, Max: orb.Point{xmax, ymax}}
}

// Validate checks that b is a finite, non-inverted box.
func Validate(b orb.Bound) error {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("extent %s is not finite", Format(b))
		}
	}
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return fmt.Errorf("extent %s is inverted", Format(b))
	}
	return nil
}

// WorkingRegion pads b by buffer on every side and rounds outward, floor on
// the minima and ceil on the maxima.
func WorkingRegion(b orb.Bound, buffer float64) orb.Bound {
	return NewExtent(
		math.Floor(b.Min[0]-buffer),
		math.Floor(b.Min[1]-buffer),
		math.Ceil(b.Max[0]+buffer),
		math.Ceil(b.Max[1]+buffer),
	)
}

// Format renders b as "xmin ymin xmax ymax", the order GDAL tools take.
func Format(b orb.Bound) string {
	return fmt.Sprintf("%g %g %g %g", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}
