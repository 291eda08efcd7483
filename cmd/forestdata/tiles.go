package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/pavletto/forestdata/gadm"
	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/srtm"
)

// tilesCmd represents the tiles command
var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the SRTM tiles covering a country or a bounding box",
	Long: `List the CGIAR SRTM tiles covering an extent, without downloading them.

The extent comes either from a country boundary already on disk (--iso3,
looked up in --boundary-dir) or from --bbox xmin,ymin,xmax,ymax in degrees.
For each tile the archive name, URL, cache state and the EGM96 geoid offset
at the tile centre are printed.

Examples:
  forestdata tiles --bbox -3,8,2,14
  forestdata tiles --iso3 MDG --boundary-dir data_raw`,
	RunE: observed("tiles", func(cmd *cobra.Command, args []string) error {
		b, err := tilesExtent(cmd)
		if err != nil {
			return err
		}

		store, err := appCfg.CreateStore(metrics)
		if err != nil {
			return err
		}
		infos, err := srtm.Describe(store, b)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Extent: %s\n", geo.Format(b))
		for _, ti := range infos {
			fmt.Fprintf(out, "%s  cached=%-5v  geoid=%7.2fm  %s\n", ti.ID.FileName(), ti.Cached, ti.GeoidOffset, ti.URL)
		}
		fmt.Fprintf(out, "Tiles: %d\n", len(infos))
		return nil
	}),
}

func tilesExtent(cmd *cobra.Command) (orb.Bound, error) {
	bbox, _ := cmd.Flags().GetString("bbox")
	iso3, _ := cmd.Flags().GetString("iso3")
	switch {
	case bbox != "" && iso3 != "":
		return orb.Bound{}, fmt.Errorf("--bbox and --iso3 are exclusive")
	case bbox != "":
		return parseBBox(bbox)
	case iso3 != "":
		if err := gadm.ValidateISO3(iso3); err != nil {
			return orb.Bound{}, err
		}
		dir, _ := cmd.Flags().GetString("boundary-dir")
		if dir == "" {
			dir = appCfg.CacheDir
		}
		return appCfg.ExtentReader().Extent(filepath.Join(dir, gadm.ShapefileName(iso3)))
	}
	return orb.Bound{}, fmt.Errorf("one of --bbox or --iso3 is required")
}

// parseBBox reads "xmin,ymin,xmax,ymax".
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must have exactly 4 values")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox value %q: %w", p, err)
		}
		v[i] = f
	}
	b := geo.NewExtent(v[0], v[1], v[2], v[3])
	return b, geo.Validate(b)
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().String("bbox", "", "Extent in degrees: xmin,ymin,xmax,ymax")
	tilesCmd.Flags().String("iso3", "", "Country whose boundary gives the extent")
	tilesCmd.Flags().String("boundary-dir", "", "Directory holding the boundary (default --cache-dir)")
}
