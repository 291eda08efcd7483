package country

// output says where a scratch file ends up below the output directory.
type output struct {
	src    string // file name, or a pattern when glob is set
	glob   bool   // may match nothing
	subdir string
	rename string
}

var countryOutputs = []output{
	{src: "AGB.tif", subdir: "emissions"},
	{src: "dist_*.tif", glob: true},
	{src: "*_PROJ.*", glob: true},
	{src: "altitude.tif"},
	{src: "slope.tif"},
	{src: "pa.tif"},
}

// Directories made for forest data, even when nothing lands in them.
var forestDirs = []string{"forest", "validation", "forecast"}

var forestOutputs = []output{
	{src: "dist_edge_t1.tif", rename: "dist_edge.tif"},
	{src: "fcc12.tif", rename: "fcc.tif"},

	{src: "dist_edge_t2.tif", subdir: "validation"},
	{src: "dist_defor_t2.tif", subdir: "validation"},

	{src: "dist_edge_t3.tif", subdir: "forecast"},
	{src: "dist_defor_t3.tif", subdir: "forecast"},

	{src: "forest_t1.tif", subdir: "forest"},
	{src: "forest_t2.tif", subdir: "forest"},
	{src: "forest_t3.tif", subdir: "forest"},
	{src: "forest_2005.tif", subdir: "forest"},
	{src: "forest_2015.tif", subdir: "forest"},
	{src: "fcc23.tif", subdir: "forest"},
	{src: "fcc123.tif", subdir: "forest"},
	{src: "fcc12345.tif", subdir: "forest"},
}
