package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavletto/forestdata/country"
	"github.com/pavletto/forestdata/gadm"
	"github.com/pavletto/forestdata/geo"
	"github.com/pavletto/forestdata/internal/domain"
	"github.com/pavletto/forestdata/internal/fetch"
	"github.com/pavletto/forestdata/internal/gdal"
	"github.com/pavletto/forestdata/internal/observability"
	"github.com/pavletto/forestdata/srtm"
)

// Config holds application configuration
type Config struct {
	CacheDir        string
	DownloadDir     string // download-srtm target, defaults to CacheDir
	SRTMURLTemplate string
	GADMURLTemplate string
	HTTPTimeout     time.Duration
	VerifySiblings  bool
	ExtentBackend   string // shapefile | gdal

	TempDir      string
	OutputDir    string
	Proj         string
	DataCountry  bool
	DataForest   bool
	KeepTempDir  bool
	LayersConfig string

	LogLevel  string
	LogFormat string

	MetricsFile     string
	TracingEnabled  bool
	TracingExporter string
	OTLPEndpoint    string

	Addr string
}

// fileValues are the settings of a YAML config file keyed by flag name.
type fileValues map[string]string

// LoadConfig loads configuration from command flags, environment variables
// and the optional YAML config file, in that order of precedence.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	file, err := loadConfigFile(getConfigString(cmd, nil, "config", "FAR_CONFIG", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}
	cfg.CacheDir = getConfigString(cmd, file, "cache-dir", "FAR_CACHE_DIR", ".")
	cfg.SRTMURLTemplate = getConfigString(cmd, file, "srtm-url-template", "FAR_SRTM_URL_TEMPLATE", srtm.DefaultURLTemplate)
	cfg.GADMURLTemplate = getConfigString(cmd, file, "gadm-url-template", "FAR_GADM_URL_TEMPLATE", gadm.DefaultURLTemplate)
	cfg.HTTPTimeout = getConfigDuration(cmd, file, "http-timeout", "FAR_HTTP_TIMEOUT", fetch.DefaultConfig().Timeout)
	cfg.VerifySiblings = getConfigBool(cmd, file, "verify-siblings", "FAR_VERIFY_SIBLINGS", false)
	cfg.ExtentBackend = getConfigString(cmd, file, "extent-backend", "FAR_EXTENT_BACKEND", "shapefile")
	cfg.DownloadDir = getConfigString(cmd, file, "output-dir", "FAR_OUTPUT_DIR", cfg.CacheDir)

	cfg.TempDir = getConfigString(cmd, file, "temp-dir", "FAR_TEMP_DIR", country.DefaultTempDir)
	cfg.OutputDir = getConfigString(cmd, file, "output-dir", "FAR_OUTPUT_DIR", country.DefaultOutputDir)
	cfg.Proj = getConfigString(cmd, file, "proj", "FAR_PROJ", country.DefaultProj)
	cfg.DataCountry = getConfigBool(cmd, file, "data-country", "FAR_DATA_COUNTRY", true)
	cfg.DataForest = getConfigBool(cmd, file, "data-forest", "FAR_DATA_FOREST", true)
	cfg.KeepTempDir = getConfigBool(cmd, file, "keep-temp-dir", "FAR_KEEP_TEMP_DIR", false)
	cfg.LayersConfig = getConfigString(cmd, file, "layers-config", "FAR_LAYERS_CONFIG", "layers.yaml")

	cfg.LogLevel = getConfigString(cmd, file, "log-level", "FAR_LOG_LEVEL", "info")
	cfg.LogFormat = getConfigString(cmd, file, "log-format", "FAR_LOG_FORMAT", "text")

	cfg.MetricsFile = getConfigString(cmd, file, "metrics-file", "FAR_METRICS_FILE", "")
	cfg.TracingEnabled = getConfigBool(cmd, file, "tracing", "FAR_TRACING_ENABLED", false)
	cfg.TracingExporter = getConfigString(cmd, file, "tracing-exporter", "FAR_TRACING_EXPORTER", "stdout")
	cfg.OTLPEndpoint = getConfigString(cmd, file, "otlp-endpoint", "FAR_OTLP_ENDPOINT", "localhost:4317")

	cfg.Addr = getConfigString(cmd, file, "addr", "ADDR", ":8080")

	if cfg.ExtentBackend != "shapefile" && cfg.ExtentBackend != "gdal" {
		return cfg, &domain.OpError{Op: "config.load", Kind: domain.KindInvalidConfig, Path: "extent-backend", Err: fmt.Errorf("unknown extent backend %q", cfg.ExtentBackend)}
	}
	return cfg, nil
}

func loadConfigFile(path string) (fileValues, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{Op: "config.load_file", Kind: domain.KindNotFound, Path: path, Err: err}
	}
	var v fileValues
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, &domain.OpError{Op: "config.load_file", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return v, nil
}

// httpClient is shared by tile and boundary downloads. A zero HTTPTimeout
// disables the per-request timeout.
func (c *Config) httpClient() *http.Client {
	fc := fetch.DefaultConfig()
	fc.Timeout = c.HTTPTimeout
	return fetch.New(fc)
}

// CreateStore creates the SRTM tile store from the configuration
func (c *Config) CreateStore(m *observability.Collector) (*srtm.Store, error) {
	return srtm.NewStore(srtm.StoreConfig{
		CacheDir:       c.CacheDir,
		URLTemplate:    c.SRTMURLTemplate,
		PermitDownload: c.SRTMURLTemplate != "",
		Client:         c.httpClient(),
		Logger:         log,
		Metrics:        m,
	})
}

// CreateBoundaries creates the GADM boundary source from the configuration
func (c *Config) CreateBoundaries(m *observability.Collector) *gadm.Source {
	return gadm.NewSource(gadm.SourceConfig{
		URLTemplate:    c.GADMURLTemplate,
		VerifySiblings: c.VerifySiblings,
		Client:         c.httpClient(),
		Logger:         log,
		Metrics:        m,
	})
}

// ExtentReader picks the extent backend.
func (c *Config) ExtentReader() geo.ExtentReader {
	if c.ExtentBackend == "gdal" {
		return gdal.LayerExtent
	}
	return geo.ShapefileExtent
}

// getConfigString gets a string value from flag, then env, then file, then default
func getConfigString(cmd *cobra.Command, file fileValues, flagName, envName, defaultValue string) string {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetString(flagName)
		return val
	}
	if v := os.Getenv(envName); v != "" {
		return v
	}
	if v, ok := file[flagName]; ok {
		return v
	}
	return defaultValue
}

// getConfigBool gets a bool value from flag, then env, then file, then default
func getConfigBool(cmd *cobra.Command, file fileValues, flagName, envName string, defaultValue bool) bool {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetBool(flagName)
		return val
	}
	if v := os.Getenv(envName); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if v, ok := file[flagName]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// getConfigDuration gets a duration from flag, then env, then file, then default
func getConfigDuration(cmd *cobra.Command, file fileValues, flagName, envName string, defaultValue time.Duration) time.Duration {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetDuration(flagName)
		return val
	}
	if v := os.Getenv(envName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if v, ok := file[flagName]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
