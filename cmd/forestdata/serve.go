package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavletto/forestdata/srtm"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 120 * time.Second
)

// newMux wires the HTTP routes of the serve command.
func newMux(s *srtm.Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles", s.HandleTiles)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP server that provides REST API endpoints for:
  - /tiles?xmin=&ymin=&xmax=&ymax= - SRTM tiles covering an extent
  - /health - Health check endpoint
  - /metrics - Prometheus metrics

Configuration can be provided via environment variables or command-line flags.
Flags take precedence over environment variables.`,
	RunE: observed("serve", func(cmd *cobra.Command, args []string) error {
		store, err := appCfg.CreateStore(metrics)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         appCfg.Addr,
			Handler:      newMux(&srtm.Server{Store: store}),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		}

		ctx := cmd.Context()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info("starting server", "addr", appCfg.Addr, "cache_dir", appCfg.CacheDir, "download", appCfg.SRTMURLTemplate != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
