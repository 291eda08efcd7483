// Package layers defines how country and forest data layers are computed
// into a scratch directory.
package layers

import (
	"context"

	"github.com/paulmach/orb"
)

// Layer names understood by the country orchestrator, in run order.
const (
	OSM     = "osm"
	SRTM    = "srtm"
	WDPA    = "wdpa"
	Biomass = "biomass"
	Forest  = "forest"
)

// CountryLayers are run, in this order, when country data is requested.
var CountryLayers = []string{OSM, SRTM, WDPA, Biomass}

// Known lists every layer name a registry may configure.
var Known = append(append([]string(nil), CountryLayers...), Forest)

// Job is one layer computation for a country.
type Job struct {
	ISO3   string
	Proj   string    // target projection, e.g. "EPSG:3395"
	Region orb.Bound // working region in Proj units
	Dir    string    // scratch directory; outputs are written here
}

// Computer produces the files of one layer into Job.Dir.
type Computer interface {
	Name() string
	Compute(ctx context.Context, job Job) error
}

type funcComputer struct {
	name string
	fn   func(context.Context, Job) error
}

// Func wraps fn as a Computer called name.
func Func(name string, fn func(context.Context, Job) error) Computer {
	return funcComputer{name: name, fn: fn}
}

func (f funcComputer) Name() string                               { return f.name }
func (f funcComputer) Compute(ctx context.Context, job Job) error { return f.fn(ctx, job) }
