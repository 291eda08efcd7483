package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pavletto/forestdata/country"
	"github.com/pavletto/forestdata/internal/gdal"
	"github.com/pavletto/forestdata/internal/layers"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Build the model-ready data tree of a country",
	Long: `Build the model-ready data tree of a country from the raw downloads.

The GADM boundary is made available in the temporary directory, reprojected
to --proj and buffered by 5 km to get the working region. The layers
configured in --layers-config then run inside the temporary directory and
their outputs are copied into --output-dir:

  <output-dir>/            dist_*.tif, *_PROJ.*, altitude.tif, slope.tif, pa.tif,
                           dist_edge.tif, fcc.tif
  <output-dir>/emissions/  AGB.tif
  <output-dir>/forest/     forest_t1..t3, forest_2005, forest_2015, fcc23, fcc123, fcc12345
  <output-dir>/validation/ dist_edge_t2.tif, dist_defor_t2.tif
  <output-dir>/forecast/   dist_edge_t3.tif, dist_defor_t3.tif

The temporary directory is removed on success unless --keep-temp-dir is set.

Examples:
  forestdata compute --iso3 MDG
  forestdata compute --iso3 MDG --proj EPSG:32738 --data-forest=false --keep-temp-dir`,
	RunE: observed("compute", func(cmd *cobra.Command, args []string) error {
		iso3, _ := cmd.Flags().GetString("iso3")
		cfg := appCfg

		registry, err := layers.LoadRegistry(cfg.LayersConfig, log)
		if err != nil {
			return err
		}

		opts := country.DefaultOptions(iso3)
		opts.TempDir = cfg.TempDir
		opts.OutputDir = cfg.OutputDir
		opts.Proj = cfg.Proj
		opts.DataCountry = cfg.DataCountry
		opts.DataForest = cfg.DataForest
		opts.KeepTempDir = cfg.KeepTempDir
		opts.Reprojector = gdal.Reprojector{}
		opts.Extent = cfg.ExtentReader()
		opts.Logger = log
		opts.Metrics = metrics

		if opts.DataCountry {
			if opts.Country, err = country.CountryComputers(registry); err != nil {
				return err
			}
		}
		if opts.DataForest {
			if opts.Forest, err = registry.Get(layers.Forest); err != nil {
				return err
			}
		}

		if _, err := cfg.CreateBoundaries(metrics).Ensure(cmd.Context(), iso3, opts.TempDir); err != nil {
			return err
		}

		rep, err := country.Compute(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Region: %.0f %.0f %.0f %.0f\n",
			rep.Region.Min[0], rep.Region.Min[1], rep.Region.Max[0], rep.Region.Max[1])
		fmt.Fprintf(cmd.OutOrStdout(), "Files copied to %s: %d\n", opts.OutputDir, len(rep.Copied))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().String("iso3", "", "Country ISO 3166-1 alpha-3 code (required)")
	computeCmd.MarkFlagRequired("iso3")
	computeCmd.Flags().String("temp-dir", country.DefaultTempDir, "Scratch directory holding the raw downloads")
	computeCmd.Flags().String("output-dir", country.DefaultOutputDir, "Output directory")
	computeCmd.Flags().String("proj", country.DefaultProj, "Target projection (EPSG, PROJ.4 or WKT)")
	computeCmd.Flags().Bool("data-country", true, "Compute the country environmental layers")
	computeCmd.Flags().Bool("data-forest", true, "Compute the forest layers")
	computeCmd.Flags().Bool("keep-temp-dir", false, "Keep the scratch directory")
	computeCmd.Flags().String("layers-config", "layers.yaml", "YAML file mapping layers to commands")
}
