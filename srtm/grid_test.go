package srtm_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/srtm"
)

func TestColumnRange(t *testing.T) {
	tests := []struct {
		name       string
		xmin, xmax float64
		lo, hi     int
	}{
		{"straddles the meridian", -3, 2, 36, 37},
		{"inside one cell", 1, 4, 37, 37},
		{"touches western cell edge", 0, 4, 36, 37},
		{"antimeridian clamps low", -180, -176, 1, 1},
		{"east edge clamps high", 176, 180, 72, 72},
		{"whole world", -180, 180, 1, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := srtm.ColumnRange(tt.xmin, tt.xmax)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("ColumnRange(%v, %v) = %d..%d, want %d..%d", tt.xmin, tt.xmax, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestRowRange(t *testing.T) {
	tests := []struct {
		name       string
		ymin, ymax float64
		lo, hi     int
	}{
		{"two rows", 8, 14, 10, 11},
		{"inside one cell", 11, 14, 10, 10},
		{"top of the grid", 56, 60, 1, 1},
		{"bottom of the grid", -60, -56, 24, 24},
		{"north of coverage clamps", 55, 80, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := srtm.RowRange(tt.ymin, tt.ymax)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("RowRange(%v, %v) = %d..%d, want %d..%d", tt.ymin, tt.ymax, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestTilesFor(t *testing.T) {
	got, err := srtm.TilesFor(geo.NewExtent(-3, 8, 2, 14))
	if err != nil {
		t.Fatalf("TilesFor() error = %v", err)
	}
	want := []srtm.TileID{{36, 10}, {36, 11}, {37, 10}, {37, 11}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TilesFor() = %v, want %v", got, want)
	}
}

func TestTilesForSingleCell(t *testing.T) {
	got, err := srtm.TilesFor(geo.NewExtent(1, 11, 4, 14))
	if err != nil {
		t.Fatalf("TilesFor() error = %v", err)
	}
	if len(got) != 1 || got[0] != (srtm.TileID{Lon: 37, Lat: 10}) {
		t.Fatalf("TilesFor() = %v, want [37_10]", got)
	}
}

func TestTilesForOutsideCoverage(t *testing.T) {
	got, err := srtm.TilesFor(geo.NewExtent(10, 76, 20, 80))
	if err != nil {
		t.Fatalf("TilesFor() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("TilesFor() = %v, want none north of 60N", got)
	}
}

func TestTilesForCoversExtent(t *testing.T) {
	extents := [][4]float64{
		{-3, 8, 2, 14},
		{43.2, -25.6, 50.5, -11.9},
		{-74.1, -4.3, -51.6, 5.3},
		{100.1, 0.9, 119.3, 7.4},
	}
	for _, e := range extents {
		b := geo.NewExtent(e[0], e[1], e[2], e[3])
		tiles, err := srtm.TilesFor(b)
		if err != nil {
			t.Fatalf("TilesFor(%v) error = %v", e, err)
		}
		union := tiles[0].Bound()
		for _, tl := range tiles[1:] {
			union = union.Union(tl.Bound())
		}
		if !union.Contains(b.Min) || !union.Contains(b.Max) {
			t.Errorf("tiles %v do not cover %v (union %v)", tiles, e, union)
		}
	}
}

func TestTilesForInvalidExtent(t *testing.T) {
	for _, b := range [][4]float64{
		{2, 8, -3, 14},
		{math.NaN(), 8, 2, 14},
	} {
		_, err := srtm.TilesFor(geo.NewExtent(b[0], b[1], b[2], b[3]))
		if !domain.IsKind(err, domain.KindInvalidInput) {
			t.Errorf("TilesFor(%v) error = %v, want invalid input", b, err)
		}
	}
}

func TestTileBound(t *testing.T) {
	got := srtm.TileID{Lon: 37, Lat: 10}.Bound()
	want := geo.NewExtent(0, 10, 5, 15)
	if got != want {
		t.Fatalf("Bound() = %v, want %v", got, want)
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		id   srtm.TileID
		stem string
	}{
		{srtm.TileID{Lon: 36, Lat: 10}, "36_10"},
		{srtm.TileID{Lon: 1, Lat: 9}, "01_09"},
		{srtm.TileID{Lon: 72, Lat: 24}, "72_24"},
		{srtm.TileID{Lon: -3, Lat: 5}, "-03_05"},
	}
	for _, tt := range tests {
		if got := tt.id.FileStem(); got != tt.stem {
			t.Errorf("FileStem(%v) = %s, want %s", tt.id, got, tt.stem)
		}
	}
	if got := (srtm.TileID{Lon: 1, Lat: 9}).FileName(); got != "SRTM_V41_01_09.zip" {
		t.Errorf("FileName() = %s", got)
	}
}

func TestGeoidOffset(t *testing.T) {
	// Indian Ocean geoid low south of Sri Lanka.
	n, err := srtm.GeoidOffset(srtm.TileID{Lon: 52, Lat: 11})
	if err != nil {
		t.Fatalf("GeoidOffset() error = %v", err)
	}
	if n > -60 || n < -110 {
		t.Errorf("GeoidOffset() = %.1f, want a deep negative undulation", n)
	}

	for _, id := range []srtm.TileID{{1, 1}, {36, 12}, {72, 24}} {
		n, err := srtm.GeoidOffset(id)
		if err != nil {
			t.Fatalf("GeoidOffset(%v) error = %v", id, err)
		}
		if n < -110 || n > 90 {
			t.Errorf("GeoidOffset(%v) = %.1f, outside the EGM96 range", id, n)
		}
	}
}

func TestGeoidOffsetWestOfGreenwich(t *testing.T) {
	tests := []struct {
		name string
		id   srtm.TileID
	}{
		{"just west of Greenwich", srtm.TileID{Lon: 36, Lat: 10}},
		{"date line", srtm.TileID{Lon: 1, Lat: 1}},
		{"Amazon", srtm.TileID{Lon: 24, Lat: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := srtm.GeoidOffset(tt.id)
			if err != nil {
				t.Fatalf("GeoidOffset(%v) error = %v", tt.id, err)
			}
			if n == 0 || n < -110 || n > 90 {
				t.Errorf("GeoidOffset(%v) = %.1f, want a non-zero EGM96 undulation", tt.id, n)
			}
		})
	}
}
