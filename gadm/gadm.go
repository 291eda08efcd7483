// Package gadm fetches GADM 3.6 country boundary shapefiles into a local
// directory.
package gadm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/fetch"
	"github.com/pavletto/forestdata/internal/logging"
	"github.com/pavletto/forestdata/internal/observability"
)

const DefaultURLTemplate = "https://biogeo.ucdavis.edu/data/gadm3.6/shp/gadm36_{iso3}_shp.zip"

type SourceConfig struct {
	URLTemplate string // "https://.../gadm36_{iso3}_shp.zip"

	// VerifySiblings also requires the .shx and .dbf members before a
	// cached boundary is trusted.
	VerifySiblings bool

	Client  *http.Client
	Logger  *slog.Logger
	Metrics *observability.Collector
}

// Source ensures boundary shapefiles are present locally.
type Source struct {
	cfg SourceConfig
	log *slog.Logger
}

func NewSource(cfg SourceConfig) *Source {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Client == nil {
		cfg.Client = fetch.New(fetch.DefaultConfig())
	}
	return &Source{cfg: cfg, log: logging.OrNoop(cfg.Logger)}
}

// ShapefileName is the level-0 boundary shapefile for iso3. Its presence is
// taken as proof that the whole archive was extracted.
func ShapefileName(iso3 string) string {
	return "gadm36_" + iso3 + "_0.shp"
}

// ArchiveName is the local name of the downloaded archive.
func ArchiveName(iso3 string) string {
	return iso3 + "_shp.zip"
}

// ValidateISO3 checks for a three letter upper case country code.
func ValidateISO3(iso3 string) error {
	if len(iso3) != 3 {
		return &domain.OpError{Op: "gadm.iso3", Kind: domain.KindInvalidInput, Err: fmt.Errorf("country code %q must have 3 letters", iso3)}
	}
	for _, r := range iso3 {
		if r < 'A' || r > 'Z' {
			return &domain.OpError{Op: "gadm.iso3", Kind: domain.KindInvalidInput, Err: fmt.Errorf("country code %q must be upper case ASCII", iso3)}
		}
	}
	return nil
}

func (s *Source) URL(iso3 string) string {
	return strings.ReplaceAll(s.cfg.URLTemplate, "{iso3}", iso3)
}

// Ensure makes sure the boundary shapefile for iso3 exists in dir, creating
// dir and downloading plus extracting the GADM archive on a cache miss. It
// returns the shapefile path. Download failures, a wrong code answered by
// 404 included, are returned to the caller.
func (s *Source) Ensure(ctx context.Context, iso3, dir string) (string, error) {
	if err := ValidateISO3(iso3); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{Op: "gadm.ensure", Kind: domain.KindInvalidInput, Path: dir, Err: err}
	}

	shpPath := filepath.Join(dir, ShapefileName(iso3))
	if s.cached(shpPath) {
		s.log.Debug("boundary cached", "iso3", iso3, "path", shpPath)
		return shpPath, nil
	}

	url := s.URL(iso3)
	archive := filepath.Join(dir, ArchiveName(iso3))
	s.log.Info("downloading boundary", "iso3", iso3, "url", url)
	n, err := fetch.Download(ctx, s.cfg.Client, url, archive)
	if err != nil {
		return "", &domain.OpError{Op: "gadm.ensure", Kind: domain.KindTransport, Path: url, Err: err}
	}
	s.cfg.Metrics.ObserveDownload("boundary", n)

	files, err := fetch.ExtractAll(archive, dir)
	if err != nil {
		return "", err
	}
	s.log.Info("boundary extracted", "iso3", iso3, "files", len(files), "bytes", n)

	if !fileExists(shpPath) {
		return "", &domain.OpError{
			Op:   "gadm.ensure",
			Kind: domain.KindArchive,
			Path: archive,
			Err:  fmt.Errorf("archive has no %s", ShapefileName(iso3)),
		}
	}
	return shpPath, nil
}

func (s *Source) cached(shpPath string) bool {
	if !fileExists(shpPath) {
		return false
	}
	if !s.cfg.VerifySiblings {
		return true
	}
	stem := strings.TrimSuffix(shpPath, ".shp")
	for _, ext := range []string{".shx", ".dbf"} {
		if !fileExists(stem + ext) {
			s.log.Warn("boundary cache incomplete, downloading again", "missing", stem+ext)
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
