package geo

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"
)

func TestWorkingRegion(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Bound
		want orb.Bound
	}{
		{
			name: "fractional",
			in:   NewExtent(100.4, -200.6, 3000.2, 4000.7),
			want: NewExtent(-4900, -5201, 8001, 9001),
		},
		{
			name: "integral",
			in:   NewExtent(0, 0, 10, 10),
			want: NewExtent(-5000, -5000, 5010, 5010),
		},
		{
			name: "negative mercator",
			in:   NewExtent(-1234567.89, 987654.321, -1000000.01, 1000000.5),
			want: NewExtent(-1239568, 982654, -995000, 1005001),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkingRegion(tt.in, RegionBuffer)
			if got != tt.want {
				t.Fatalf("WorkingRegion() = %s, want %s", Format(got), Format(tt.want))
			}

			if got.Min[0] > tt.in.Min[0]-RegionBuffer || got.Min[1] > tt.in.Min[1]-RegionBuffer {
				t.Errorf("lower margin under %v: %s", RegionBuffer, Format(got))
			}
			if got.Max[0] < tt.in.Max[0]+RegionBuffer || got.Max[1] < tt.in.Max[1]+RegionBuffer {
				t.Errorf("upper margin under %v: %s", RegionBuffer, Format(got))
			}
			if !(got.Min[0] < tt.in.Min[0] && got.Min[1] < tt.in.Min[1] &&
				got.Max[0] > tt.in.Max[0] && got.Max[1] > tt.in.Max[1]) {
				t.Errorf("region %s does not strictly contain %s", Format(got), Format(tt.in))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      orb.Bound
		wantErr bool
	}{
		{"ok", NewExtent(-3, 10, 2, 14), false},
		{"point", NewExtent(1, 1, 1, 1), false},
		{"inverted x", NewExtent(2, 10, -3, 14), true},
		{"inverted y", NewExtent(-3, 14, 2, 10), true},
		{"nan", NewExtent(math.NaN(), 0, 1, 1), true},
		{"inf", NewExtent(0, 0, math.Inf(1), 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnionBounds(t *testing.T) {
	got, ok := unionBounds([]*geom.Bounds{
		{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		nil,
		{Min: geom.Point{X: -3, Y: 0.5}, Max: geom.Point{X: 0.5, Y: 4}},
	})
	if !ok {
		t.Fatal("unionBounds reported empty input")
	}
	if want := NewExtent(-3, 0, 1, 4); got != want {
		t.Fatalf("unionBounds() = %s, want %s", Format(got), Format(want))
	}

	if _, ok := unionBounds(nil); ok {
		t.Fatal("unionBounds(nil) should report empty")
	}
}

type boundaryRecord struct {
	geom.Polygon
	Name string
}

func TestShapefileExtent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gadm36_ABC_0.shp")
	e, err := shp.NewEncoder(path, boundaryRecord{})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	records := []boundaryRecord{
		{Polygon: geom.Polygon{{{X: -3, Y: 10}, {X: 2, Y: 10}, {X: 2, Y: 14}, {X: -3, Y: 14}, {X: -3, Y: 10}}}, Name: "main"},
		{Polygon: geom.Polygon{{{X: 4, Y: 8}, {X: 6, Y: 8}, {X: 6, Y: 9}, {X: 4, Y: 9}, {X: 4, Y: 8}}}, Name: "island"},
	}
	for _, r := range records {
		if err := e.Encode(r); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	e.Close()

	got, err := ShapefileExtent.Extent(path)
	if err != nil {
		t.Fatalf("Extent: %v", err)
	}
	if want := NewExtent(-3, 8, 6, 14); got != want {
		t.Fatalf("Extent() = %s, want %s", Format(got), Format(want))
	}
}

func TestShapefileExtentMissing(t *testing.T) {
	if _, err := ShapefileExtent.Extent(filepath.Join(t.TempDir(), "nope.shp")); err == nil {
		t.Fatal("expected error for a missing shapefile")
	}
}
