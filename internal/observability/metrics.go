package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics recorded while downloading and
// preparing country data. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Tiles          *prometheus.CounterVec
	Downloads      *prometheus.CounterVec
	DownloadBytes  prometheus.Counter
	LayerDurations *prometheus.HistogramVec
	FilesCopied    *prometheus.CounterVec
	Runs           *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tiles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forestdata_tiles_total",
		Help: "SRTM tiles resolved, labeled by outcome (cached, downloaded, absent).",
	}, []string{"outcome"}), "forestdata_tiles_total")
	if err != nil {
		return nil, err
	}

	downloads, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forestdata_downloads_total",
		Help: "Completed archive downloads, labeled by kind (boundary, tile).",
	}, []string{"kind"}), "forestdata_downloads_total")
	if err != nil {
		return nil, err
	}

	bytes, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forestdata_download_bytes_total",
		Help: "Bytes written to the local cache by downloads.",
	}), "forestdata_download_bytes_total")
	if err != nil {
		return nil, err
	}

	layers, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forestdata_layer_duration_seconds",
		Help:    "Wall time of layer computations in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"layer"}), "forestdata_layer_duration_seconds")
	if err != nil {
		return nil, err
	}

	copied, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forestdata_files_copied_total",
		Help: "Files copied into the country output tree, labeled by subdirectory.",
	}, []string{"subdir"}), "forestdata_files_copied_total")
	if err != nil {
		return nil, err
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forestdata_runs_total",
		Help: "CLI command runs, labeled by command and status.",
	}, []string{"command", "status"}), "forestdata_runs_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Tiles:          tiles,
		Downloads:      downloads,
		DownloadBytes:  bytes,
		LayerDurations: layers,
		FilesCopied:    copied,
		Runs:           runs,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current metric values in the text exposition
// format, for pickup by the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func (c *Collector) ObserveTile(outcome string) {
	if c == nil {
		return
	}
	c.Tiles.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveDownload(kind string, n int64) {
	if c == nil {
		return
	}
	c.Downloads.WithLabelValues(kind).Inc()
	if n > 0 {
		c.DownloadBytes.Add(float64(n))
	}
}

func (c *Collector) ObserveLayer(layer string, d time.Duration) {
	if c == nil {
		return
	}
	c.LayerDurations.WithLabelValues(layer).Observe(d.Seconds())
}

func (c *Collector) ObserveCopy(subdir string) {
	if c == nil {
		return
	}
	if subdir == "" {
		subdir = "."
	}
	c.FilesCopied.WithLabelValues(subdir).Inc()
}

func (c *Collector) ObserveRun(command string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Runs.WithLabelValues(command, status).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
