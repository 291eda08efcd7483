package geo

import "context"

// SourceSRS is the CRS of the downloaded GADM boundaries.
const SourceSRS = "EPSG:4326"

// ReprojectOptions mirror the ogr2ogr switches used to reproject a boundary
// vector file.
type ReprojectOptions struct {
	Overwrite            bool
	SrcSRS               string
	DstSRS               string
	Format               string
	LayerCreationOptions []string
}

// BoundaryReprojectOptions are the options used for country boundaries:
// overwrite, EPSG:4326 source, shapefile output in UTF-8.
func BoundaryReprojectOptions(dstSRS string) ReprojectOptions {
	return ReprojectOptions{
		Overwrite:            true,
		SrcSRS:               SourceSRS,
		DstSRS:               dstSRS,
		Format:               "ESRI Shapefile",
		LayerCreationOptions: []string{"ENCODING=UTF-8"},
	}
}

// Switches renders the options as ogr2ogr command line switches.
func (o ReprojectOptions) Switches() []string {
	var sw []string
	if o.Overwrite {
		sw = append(sw, "-overwrite")
	}
	if o.SrcSRS != "" {
		sw = append(sw, "-s_srs", o.SrcSRS)
	}
	if o.DstSRS != "" {
		sw = append(sw, "-t_srs", o.DstSRS)
	}
	if o.Format != "" {
		sw = append(sw, "-f", o.Format)
	}
	for _, lco := range o.LayerCreationOptions {
		sw = append(sw, "-lco", lco)
	}
	return sw
}

// Reprojector rewrites the vector file src into dst in another CRS.
type Reprojector interface {
	Reproject(ctx context.Context, src, dst string, opts ReprojectOptions) error
}
