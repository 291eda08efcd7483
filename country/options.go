// Package country turns the raw data downloaded for a country into the
// model-ready tree: reprojected boundary, working region, environmental
// and forest layers, copied into an output directory.
package country

import (
	"fmt"
	"log/slog"

	"github.com/pavletto/forestdata/gadm"
	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/layers"
	"github.com/pavletto/forestdata/internal/observability"
)

const (
	DefaultTempDir   = "data_raw"
	DefaultOutputDir = "data"
	DefaultProj      = "EPSG:3395" // World Mercator
)

// ReprojectedBoundary is the boundary written to the scratch directory in
// the target projection.
const ReprojectedBoundary = "ctry_PROJ.shp"

type Options struct {
	ISO3        string
	TempDir     string // scratch directory holding the raw downloads
	OutputDir   string
	Proj        string // GDAL/OGR projection definition
	DataCountry bool
	DataForest  bool
	KeepTempDir bool

	Reprojector geo.Reprojector
	Extent      geo.ExtentReader // defaults to geo.ShapefileExtent

	// Country layers run in slice order; osm, srtm, wdpa, biomass.
	Country []layers.Computer
	Forest  layers.Computer

	Logger  *slog.Logger
	Metrics *observability.Collector
}

// DefaultOptions returns the options of a full run for iso3. Collaborators
// still have to be set.
func DefaultOptions(iso3 string) Options {
	return Options{
		ISO3:        iso3,
		TempDir:     DefaultTempDir,
		OutputDir:   DefaultOutputDir,
		Proj:        DefaultProj,
		DataCountry: true,
		DataForest:  true,
	}
}

// CountryComputers resolves the country layers from a registry in run order.
func CountryComputers(r *layers.Registry) ([]layers.Computer, error) {
	out := make([]layers.Computer, 0, len(layers.CountryLayers))
	for _, name := range layers.CountryLayers {
		c, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (o Options) validate() error {
	if err := gadm.ValidateISO3(o.ISO3); err != nil {
		return err
	}
	var problems []string
	if o.TempDir == "" {
		problems = append(problems, "temp dir is empty")
	}
	if o.OutputDir == "" {
		problems = append(problems, "output dir is empty")
	}
	if o.Proj == "" {
		problems = append(problems, "projection is empty")
	}
	if o.Reprojector == nil {
		problems = append(problems, "no reprojector")
	}
	if o.DataCountry && len(o.Country) == 0 {
		problems = append(problems, "country data requested without country layers")
	}
	for i, c := range o.Country {
		if c == nil {
			problems = append(problems, fmt.Sprintf("country layer %d is nil", i))
		}
	}
	if o.DataForest && o.Forest == nil {
		problems = append(problems, "forest data requested without a forest layer")
	}
	if len(problems) > 0 {
		return &domain.OpError{Op: "country.options", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("%v", problems)}
	}
	return nil
}
