package srtm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/fetch"
	"github.com/pavletto/forestdata/internal/logging"
	"github.com/pavletto/forestdata/internal/observability"
)

const DefaultURLTemplate = "http://srtm.csi.cgiar.org/wp-content/uploads/files/srtm_5x5/TIFF/srtm_{x}_{y}.zip"

type StoreConfig struct {
	CacheDir          string
	URLTemplate       string // "http://.../srtm_{x}_{y}.zip", bands zero padded
	PermitDownload    bool
	HTTPClientTimeout time.Duration

	Client  *http.Client // overrides HTTPClientTimeout when set
	Logger  *slog.Logger
	Metrics *observability.Collector
}

// Outcome tells how Fetch satisfied a tile.
type Outcome int

const (
	Cached     Outcome = iota // archive already on disk
	Downloaded                // archive fetched and stored
	Absent                    // no such tile upstream (ocean cell)
)

func (o Outcome) String() string {
	switch o {
	case Cached:
		return "cached"
	case Downloaded:
		return "downloaded"
	case Absent:
		return "absent"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Store keeps SRTM tile archives in a flat cache directory.
type Store struct {
	cfg  StoreConfig
	http *http.Client
	log  *slog.Logger
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.CacheDir == "" {
		return nil, &domain.OpError{Op: "srtm.store", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("CacheDir required")}
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, &domain.OpError{Op: "srtm.store", Kind: domain.KindInvalidConfig, Path: cfg.CacheDir, Err: err}
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	client := cfg.Client
	if client == nil {
		fc := fetch.DefaultConfig()
		if cfg.HTTPClientTimeout > 0 {
			fc.Timeout = cfg.HTTPClientTimeout
		}
		client = fetch.New(fc)
	}
	return &Store{cfg: cfg, http: client, log: logging.OrNoop(cfg.Logger)}, nil
}

func (s *Store) Config() StoreConfig { return s.cfg }

// URL is the download address of t.
func (s *Store) URL(t TileID) string {
	u := s.cfg.URLTemplate
	repl := map[string]string{
		"{x}": padBand(t.Lon),
		"{y}": padBand(t.Lat),
	}
	for k, v := range repl {
		u = strings.ReplaceAll(u, k, v)
	}
	return u
}

// CachePath is where the archive of t lives once fetched.
func (s *Store) CachePath(t TileID) string {
	return filepath.Join(s.cfg.CacheDir, t.FileName())
}

// IsCached reports whether the archive of t is already on disk. A file of
// the right name is trusted as is.
func (s *Store) IsCached(t TileID) bool {
	fi, err := os.Stat(s.CachePath(t))
	return err == nil && fi.Mode().IsRegular()
}

// Fetch makes sure the archive of t is on disk. A tile the server does not
// have is reported as Absent with a nil error and leaves no file behind.
// Any other failure is returned.
func (s *Store) Fetch(ctx context.Context, t TileID) (Outcome, error) {
	ctx, span := observability.Tracer().Start(ctx, "srtm.fetch",
		trace.WithAttributes(attribute.String("tile", t.FileStem())))
	defer span.End()

	outcome, err := s.fetch(ctx, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	s.cfg.Metrics.ObserveTile(outcome.String())
	return outcome, nil
}

func (s *Store) fetch(ctx context.Context, t TileID) (Outcome, error) {
	if s.IsCached(t) {
		s.log.Debug("tile cached", "tile", t.FileStem(), "path", s.CachePath(t))
		return Cached, nil
	}
	if !s.cfg.PermitDownload {
		return 0, &domain.OpError{
			Op:   "srtm.fetch",
			Kind: domain.KindNotFound,
			Path: s.CachePath(t),
			Err:  fmt.Errorf("tile not cached and download disabled"),
		}
	}

	url := s.URL(t)
	n, err := fetch.Download(ctx, s.http, url, s.CachePath(t))
	switch {
	case fetch.IsNotFound(err):
		s.log.Warn("SRTM not existing for tile", "tile", t.FileStem(), "url", url)
		return Absent, nil
	case err != nil:
		return 0, &domain.OpError{Op: "srtm.fetch", Kind: domain.KindTransport, Path: url, Err: err}
	}
	s.cfg.Metrics.ObserveDownload("srtm", n)
	s.log.Info("tile downloaded", "tile", t.FileStem(), "bytes", n)
	return Downloaded, nil
}
