package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pavletto/forestdata/srtm"
)

// downloadSRTMCmd represents the download-srtm command
var downloadSRTMCmd = &cobra.Command{
	Use:   "download-srtm",
	Short: "Download the SRTM tiles covering a country",
	Long: `Download every CGIAR SRTM v4.1 5x5 degree tile covering a country.

The GADM boundary of the country is fetched first when it is not already in
the output directory; its extent decides which tiles are needed. Tiles that
are already present are not downloaded again, and tiles the server does not
have (ocean cells) are skipped with a warning.

Examples:
  forestdata download-srtm --iso3 MDG
  forestdata download-srtm --iso3 MDG --output-dir data_raw`,
	RunE: observed("download-srtm", func(cmd *cobra.Command, args []string) error {
		iso3, _ := cmd.Flags().GetString("iso3")
		cfg := appCfg
		cfg.CacheDir = cfg.DownloadDir

		store, err := cfg.CreateStore(metrics)
		if err != nil {
			return err
		}
		res, err := srtm.DownloadCountry(cmd.Context(), store, cfg.CreateBoundaries(metrics), srtm.DownloadRequest{
			ISO3:   iso3,
			Extent: cfg.ExtentReader(),
		})
		if err != nil {
			return err
		}

		log.Info("srtm download done",
			"iso3", iso3,
			"tiles", len(res.Tiles),
			"downloaded", len(res.Downloaded),
			"cached", len(res.Cached),
			"absent", len(res.Absent))
		fmt.Fprintf(cmd.OutOrStdout(), "Boundary: %s\n", res.Boundary)
		fmt.Fprintf(cmd.OutOrStdout(), "Tiles: %d (downloaded %d, cached %d, absent %d)\n",
			len(res.Tiles), len(res.Downloaded), len(res.Cached), len(res.Absent))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(downloadSRTMCmd)

	downloadSRTMCmd.Flags().String("iso3", "", "Country ISO 3166-1 alpha-3 code (required)")
	downloadSRTMCmd.MarkFlagRequired("iso3")
	downloadSRTMCmd.Flags().String("output-dir", "", "Directory for the boundary and tile archives (default --cache-dir; env FAR_OUTPUT_DIR)")
}
