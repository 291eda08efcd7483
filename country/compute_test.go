package country_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pavletto/forestdata/country"
	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/layers"
	"github.com/pavletto/forestdata/internal/observability"
)

// fakeReprojector writes an empty shapefile set at dst and records the call.
type fakeReprojector struct {
	src, dst string
	opts     geo.ReprojectOptions
	err      error
}

func (f *fakeReprojector) Reproject(_ context.Context, src, dst string, opts geo.ReprojectOptions) error {
	f.src, f.dst, f.opts = src, dst, opts
	if f.err != nil {
		return f.err
	}
	stem := dst[:len(dst)-len(filepath.Ext(dst))]
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		if err := os.WriteFile(stem+ext, []byte(ext), 0o644); err != nil {
			return err
		}
	}
	return nil
}

var projExtent = geo.NewExtent(-333001.4, 886234.2, 222001.7, 1565000.9)

func fixedExtent() geo.ExtentReader {
	return geo.ExtentReaderFunc(func(string) (orb.Bound, error) { return projExtent, nil })
}

// writer returns a computer that creates files in the job dir and records
// the jobs it ran.
func writer(name string, jobs *[]layers.Job, files ...string) layers.Computer {
	return layers.Func(name, func(_ context.Context, job layers.Job) error {
		*jobs = append(*jobs, job)
		for _, f := range files {
			if err := os.WriteFile(filepath.Join(job.Dir, f), []byte(name+":"+f), 0o640); err != nil {
				return err
			}
		}
		return nil
	})
}

var forestFiles = []string{
	"dist_edge_t1.tif", "fcc12.tif",
	"dist_edge_t2.tif", "dist_defor_t2.tif",
	"dist_edge_t3.tif", "dist_defor_t3.tif",
	"forest_t1.tif", "forest_t2.tif", "forest_t3.tif",
	"forest_2005.tif", "forest_2015.tif",
	"fcc23.tif", "fcc123.tif", "fcc12345.tif",
}

type fixture struct {
	root    string
	opts    country.Options
	reproj  *fakeReprojector
	jobs    []layers.Job
	metrics *observability.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{root: root, reproj: &fakeReprojector{}}

	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	f.metrics = metrics

	opts := country.DefaultOptions("ABC")
	opts.TempDir = filepath.Join(root, "data_raw")
	opts.OutputDir = filepath.Join(root, "data")
	opts.Reprojector = f.reproj
	opts.Extent = fixedExtent()
	opts.Metrics = metrics
	opts.Country = []layers.Computer{
		writer(layers.OSM, &f.jobs, "dist_road.tif", "dist_town.tif", "dist_river.tif"),
		writer(layers.SRTM, &f.jobs, "altitude.tif", "slope.tif"),
		writer(layers.WDPA, &f.jobs, "pa.tif", "pa_PROJ.shp"),
		writer(layers.Biomass, &f.jobs, "AGB.tif"),
	}
	opts.Forest = writer(layers.Forest, &f.jobs, forestFiles...)
	f.opts = opts

	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(opts.TempDir, "gadm36_ABC_0.shp"), []byte("shp"), 0o644); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) out(parts ...string) string {
	return filepath.Join(append([]string{f.opts.OutputDir}, parts...)...)
}

func assertExists(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		fi, err := os.Lstat(p)
		if err != nil {
			t.Errorf("expected %s: %v", p, err)
			continue
		}
		if !fi.Mode().IsRegular() {
			t.Errorf("%s is not a regular file (mode %v)", p, fi.Mode())
		}
	}
}

func assertMissing(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be absent, stat err = %v", p, err)
		}
	}
}

func TestComputeEndToEnd(t *testing.T) {
	f := newFixture(t)

	rep, err := country.Compute(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if want := filepath.Join(f.opts.TempDir, "gadm36_ABC_0.shp"); f.reproj.src != want {
		t.Errorf("reprojected %s, want %s", f.reproj.src, want)
	}
	if want := filepath.Join(f.opts.TempDir, "ctry_PROJ.shp"); f.reproj.dst != want {
		t.Errorf("reprojection target %s, want %s", f.reproj.dst, want)
	}
	if want := geo.BoundaryReprojectOptions("EPSG:3395"); !reflect.DeepEqual(f.reproj.opts, want) {
		t.Errorf("reprojection options = %+v, want %+v", f.reproj.opts, want)
	}

	wantRegion := geo.NewExtent(-338002, 881234, 227002, 1570001)
	if rep.Region != wantRegion {
		t.Errorf("Region = %v, want %v", rep.Region, wantRegion)
	}

	if len(f.jobs) != 5 {
		t.Fatalf("ran %d layers, want 5", len(f.jobs))
	}
	for _, j := range f.jobs {
		if j.Region != wantRegion || j.Dir != f.opts.TempDir || j.Proj != "EPSG:3395" || j.ISO3 != "ABC" {
			t.Errorf("job = %+v", j)
		}
	}

	assertExists(t,
		f.out("emissions", "AGB.tif"),
		f.out("dist_road.tif"), f.out("dist_town.tif"), f.out("dist_river.tif"),
		f.out("ctry_PROJ.shp"), f.out("ctry_PROJ.dbf"), f.out("pa_PROJ.shp"),
		f.out("altitude.tif"), f.out("slope.tif"), f.out("pa.tif"),
		f.out("dist_edge.tif"), f.out("fcc.tif"),
		f.out("validation", "dist_edge_t2.tif"), f.out("validation", "dist_defor_t2.tif"),
		f.out("forecast", "dist_edge_t3.tif"), f.out("forecast", "dist_defor_t3.tif"),
		f.out("forest", "forest_t1.tif"), f.out("forest", "forest_2015.tif"), f.out("forest", "fcc12345.tif"),
	)

	b, err := os.ReadFile(f.out("dist_edge.tif"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte("forest:dist_edge_t1.tif")) {
		t.Errorf("dist_edge.tif = %q, want the content of dist_edge_t1.tif", b)
	}

	if !rep.ScratchRemoved {
		t.Error("Report.ScratchRemoved = false")
	}
	assertMissing(t, f.opts.TempDir)

	if got := testutil.ToFloat64(f.metrics.FilesCopied.WithLabelValues("forest")); got != 8 {
		t.Errorf("files copied to forest = %v, want 8", got)
	}
	if got := testutil.CollectAndCount(f.metrics.LayerDurations); got != 5 {
		t.Errorf("layer duration series = %d, want 5", got)
	}
}

func TestComputeWithoutForest(t *testing.T) {
	f := newFixture(t)
	f.opts.DataForest = false
	f.opts.Forest = nil

	if _, err := country.Compute(context.Background(), f.opts); err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	assertExists(t, f.out("emissions", "AGB.tif"), f.out("altitude.tif"))
	assertMissing(t, f.out("forest"), f.out("validation"), f.out("forecast"), f.out("dist_edge.tif"))
}

func TestComputeForestOnly(t *testing.T) {
	f := newFixture(t)
	f.opts.DataCountry = false
	f.opts.Country = nil

	if _, err := country.Compute(context.Background(), f.opts); err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	assertExists(t, f.out("dist_edge.tif"), f.out("forest", "fcc23.tif"))
	assertMissing(t, f.out("emissions"), f.out("altitude.tif"))
	if len(f.jobs) != 1 {
		t.Errorf("ran %d layers, want only forest", len(f.jobs))
	}
}

func TestComputeKeepTempDir(t *testing.T) {
	f := newFixture(t)
	f.opts.KeepTempDir = true

	rep, err := country.Compute(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if rep.ScratchRemoved {
		t.Error("Report.ScratchRemoved = true with KeepTempDir")
	}
	assertExists(t, filepath.Join(f.opts.TempDir, "ctry_PROJ.shp"), filepath.Join(f.opts.TempDir, "fcc12.tif"))
}

func TestComputeLayerFailureKeepsScratch(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("wdpa service down")
	f.opts.Country[2] = layers.Func(layers.WDPA, func(context.Context, layers.Job) error { return boom })

	_, err := country.Compute(context.Background(), f.opts)
	if !errors.Is(err, boom) {
		t.Fatalf("Compute() error = %v, want %v", err, boom)
	}
	if !domain.IsKind(err, domain.KindLayer) {
		t.Errorf("Compute() error kind, want layer: %v", err)
	}
	assertExists(t, filepath.Join(f.opts.TempDir, "altitude.tif"))
	assertMissing(t, f.out("emissions"), filepath.Join(f.opts.TempDir, "AGB.tif"))
}

func TestComputeMissingOutputIsError(t *testing.T) {
	f := newFixture(t)
	var jobs []layers.Job
	f.opts.Country[1] = writer(layers.SRTM, &jobs, "altitude.tif")

	_, err := country.Compute(context.Background(), f.opts)
	if !domain.IsKind(err, domain.KindCopy) {
		t.Fatalf("Compute() error = %v, want copy kind", err)
	}
	assertExists(t, filepath.Join(f.opts.TempDir, "gadm36_ABC_0.shp"))
}

func TestComputeReprojectFailure(t *testing.T) {
	f := newFixture(t)
	f.reproj.err = &domain.OpError{Op: "gdal.reproject", Kind: domain.KindReproject, Err: errors.New("bad srs")}

	_, err := country.Compute(context.Background(), f.opts)
	if !domain.IsKind(err, domain.KindReproject) {
		t.Fatalf("Compute() error = %v, want reproject kind", err)
	}
	if len(f.jobs) != 0 {
		t.Errorf("ran %d layers after a failed reprojection", len(f.jobs))
	}
}

func TestComputeCopyPreservesModeAndTime(t *testing.T) {
	f := newFixture(t)
	f.opts.DataForest = false
	f.opts.Forest = nil
	old := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	var jobs []layers.Job
	inner := writer(layers.Biomass, &jobs, "AGB.tif")
	f.opts.Country[3] = layers.Func(layers.Biomass, func(ctx context.Context, job layers.Job) error {
		if err := inner.Compute(ctx, job); err != nil {
			return err
		}
		return os.Chtimes(filepath.Join(job.Dir, "AGB.tif"), old, old)
	})

	if _, err := country.Compute(context.Background(), f.opts); err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	fi, err := os.Stat(f.out("emissions", "AGB.tif"))
	if err != nil {
		t.Fatal(err)
	}
	if !fi.ModTime().Equal(old) {
		t.Errorf("mtime = %v, want %v", fi.ModTime(), old)
	}
	if fi.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", fi.Mode().Perm())
	}
}

func TestComputeInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*country.Options)
	}{
		{"bad iso3", func(o *country.Options) { o.ISO3 = "abc" }},
		{"no reprojector", func(o *country.Options) { o.Reprojector = nil }},
		{"country without layers", func(o *country.Options) { o.Country = nil }},
		{"forest without layer", func(o *country.Options) { o.Forest = nil }},
		{"empty temp dir", func(o *country.Options) { o.TempDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(&f.opts)
			if _, err := country.Compute(context.Background(), f.opts); err == nil {
				t.Fatal("expected an error")
			}
			if f.reproj.dst != "" {
				t.Error("reprojection ran despite invalid options")
			}
		})
	}
}

func TestCountryComputers(t *testing.T) {
	doc := "layers:\n" +
		"  osm: {program: sh}\n  srtm: {program: sh}\n  wdpa: {program: sh}\n  biomass: {program: sh}\n"
	r, err := layers.ParseRegistry([]byte(doc), nil)
	if err != nil {
		t.Fatal(err)
	}
	cs, err := country.CountryComputers(r)
	if err != nil {
		t.Fatalf("CountryComputers() error = %v", err)
	}
	var names []string
	for _, c := range cs {
		names = append(names, c.Name())
	}
	if !reflect.DeepEqual(names, layers.CountryLayers) {
		t.Errorf("names = %v, want %v", names, layers.CountryLayers)
	}

	partial, _ := layers.ParseRegistry([]byte("layers:\n  osm: {program: sh}\n"), nil)
	if _, err := country.CountryComputers(partial); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Errorf("CountryComputers(partial) error = %v", err)
	}
}
