package srtm

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
)

const (
	TileSize = 5.0 // degrees
	Columns  = 72
	Rows     = 24

	westEdge  = -180.0
	northEdge = 60.0
)

// ColumnRange returns the inclusive column range whose cells intersect or
// touch [xmin, xmax]. The range is empty (lo > hi) when no column does.
func ColumnRange(xmin, xmax float64) (lo, hi int) {
	lo = int(math.Ceil((xmin - westEdge) / TileSize))
	hi = int(math.Floor((xmax-westEdge)/TileSize)) + 1
	return clampRange(lo, hi, Columns)
}

// RowRange returns the inclusive row range whose cells intersect or touch
// [ymin, ymax]. Rows count southwards from 60°N.
func RowRange(ymin, ymax float64) (lo, hi int) {
	lo = int(math.Ceil((northEdge - ymax) / TileSize))
	hi = int(math.Floor((northEdge-ymin)/TileSize)) + 1
	return clampRange(lo, hi, Rows)
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 1 {
		lo = 1
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// TilesFor lists the tiles covering the geographic extent b, by ascending
// column and then ascending row. Cells only touching the extent edge are
// included so the extent is never under-covered.
func TilesFor(b orb.Bound) ([]TileID, error) {
	if err := geo.Validate(b); err != nil {
		return nil, &domain.OpError{Op: "srtm.tiles", Kind: domain.KindInvalidInput, Err: err}
	}

	c0, c1 := ColumnRange(b.Min[0], b.Max[0])
	r0, r1 := RowRange(b.Min[1], b.Max[1])

	var tiles []TileID
	for c := c0; c <= c1; c++ {
		for r := r0; r <= r1; r++ {
			tiles = append(tiles, TileID{Lon: c, Lat: r})
		}
	}
	return tiles, nil
}

// Bound is the geographic extent covered by the tile.
func (t TileID) Bound() orb.Bound {
	xmin := westEdge + TileSize*float64(t.Lon-1)
	ymax := northEdge - TileSize*float64(t.Lat-1)
	return geo.NewExtent(xmin, ymax-TileSize, xmin+TileSize, ymax)
}
