package config

import (
	"time"

	"git.home.luguber.info/inful/pressline/internal/foundation/normalization"
)

// Config represents the unified configuration for daemon and direct modes.
type Config struct {
	Version    string            `yaml:"version"`
	Site       SiteConfig        `yaml:"site"`
	Content    ContentConfig     `yaml:"content,omitempty"`
	Storage    StorageConfig     `yaml:"storage"`
	Build      BuildConfig       `yaml:"build"`
	CDN        CDNConfig         `yaml:"cdn,omitempty"`
	Triggers   TriggerConfig     `yaml:"triggers,omitempty"`
	Schedules  []ScheduleConfig  `yaml:"schedules,omitempty"`
	Watch      *WatchConfig      `yaml:"watch,omitempty"`
	Daemon     *DaemonConfig     `yaml:"daemon,omitempty"`
	Archive    ArchiveConfig     `yaml:"archive,omitempty"`
	Events     *EventsConfig     `yaml:"events,omitempty"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty"`
}

// SiteConfig carries the parameters passed to the site build tool.
type SiteConfig struct {
	BaseURL         string      `yaml:"base_url"`
	Environment     Environment `yaml:"environment,omitempty"` // production|staging|development
	CommentsEnabled bool        `yaml:"comments_enabled,omitempty"`
	AnalyticsID     string      `yaml:"analytics_id,omitempty"`
}

// ContentConfig configures content generation and thumbnail rendering.
type ContentConfig struct {
	Languages []string     `yaml:"languages,omitempty"` // default [en, ja]
	Root      string       `yaml:"root,omitempty"`      // key prefix inside the bucket
	Watermark string       `yaml:"watermark,omitempty"` // thumbnail site-name watermark
	Fonts     []FontConfig `yaml:"fonts,omitempty"`
}

// FontConfig maps a language to a font file used for thumbnail text.
type FontConfig struct {
	Lang string `yaml:"lang"`
	Path string `yaml:"path"`
}

// StorageConfig selects and configures the content bucket backend.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend,omitempty"` // fs|memory|minio
	Bucket  string         `yaml:"bucket,omitempty"`
	Root    string         `yaml:"root,omitempty"` // fs backend directory
	Minio   *MinioConfig   `yaml:"minio,omitempty"`
}

// MinioConfig carries S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// BuildConfig configures the external site build tool and its workspace.
type BuildConfig struct {
	ToolVersion string `yaml:"tool_version,omitempty"`
	ToolBaseURL string `yaml:"tool_base_url,omitempty"` // binary download endpoint
	CacheDir    string `yaml:"cache_dir,omitempty"`     // fetched binaries keyed by version
	Root        string `yaml:"root,omitempty"`          // build workspace root
	BuildID     string `yaml:"build_id,omitempty"`      // fixed output directory name
	Timeout     string `yaml:"timeout,omitempty"`       // hard wall-clock limit
}

// TimeoutDuration parses Timeout, falling back to 10 minutes.
func (b BuildConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(b.Timeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}

// CDNConfig configures edge cache invalidation.
type CDNConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	DistributionID string `yaml:"distribution_id,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, falling back to 30 seconds.
func (c CDNConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// TriggerConfig bounds trigger delivery: submission retries happen only while
// the request is younger than MaxAge.
type TriggerConfig struct {
	MaxAge            string           `yaml:"max_age,omitempty"`
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"` // fixed|linear|exponential
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
	RunTimeout        string           `yaml:"run_timeout,omitempty"` // per-run terminal-state guarantee
}

// MaxAgeDuration parses MaxAge, falling back to 10 minutes.
func (t TriggerConfig) MaxAgeDuration() time.Duration {
	if d, err := time.ParseDuration(t.MaxAge); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}

// InitialDelay parses RetryInitialDelay, falling back to 2 seconds.
func (t TriggerConfig) InitialDelay() time.Duration {
	if d, err := time.ParseDuration(t.RetryInitialDelay); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// MaxDelay parses RetryMaxDelay, falling back to 30 seconds.
func (t TriggerConfig) MaxDelay() time.Duration {
	if d, err := time.ParseDuration(t.RetryMaxDelay); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// RunTimeoutDuration parses RunTimeout, falling back to 15 minutes.
func (t TriggerConfig) RunTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(t.RunTimeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Minute
}

// ScheduleConfig describes one scheduled trigger cadence. Exactly one of Cron
// or Every must be set.
type ScheduleConfig struct {
	Name     string `yaml:"name"`
	Cron     string `yaml:"cron,omitempty"`  // five-field cron expression
	Every    string `yaml:"every,omitempty"` // duration alternative for short cadences
	Draft    bool   `yaml:"draft,omitempty"` // submit draft runs
	Disabled bool   `yaml:"disabled,omitempty"`
}

// WatchConfig configures the change-detection trigger.
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Paths    []string `yaml:"paths"`
	Debounce string   `yaml:"debounce,omitempty"`
}

// DebounceDuration parses Debounce, falling back to 2 seconds.
func (w WatchConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(w.Debounce); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// DaemonConfig represents daemon-specific configuration.
type DaemonConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig represents HTTP server configuration.
type HTTPConfig struct {
	AdminPort int `yaml:"admin_port"` // status/run/metrics endpoints
}

// ArchiveConfig configures the terminal run record archive.
type ArchiveConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file; empty disables archiving
}

// EventsConfig configures the optional NATS lifecycle event publisher.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringHealth represents health check configuration.
type MonitoringHealth struct {
	Path string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Environment enumerates deployment environments passed to the build tool.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvStaging     Environment = "staging"
	EnvDevelopment Environment = "development"
)

var environmentNormalizer = normalization.NewNormalizer(map[string]Environment{
	"production":  EnvProduction,
	"staging":     EnvStaging,
	"development": EnvDevelopment,
}, "")

// NormalizeEnvironment converts user input into a typed environment, returning
// empty string for unknown values.
func NormalizeEnvironment(raw string) Environment {
	return environmentNormalizer.Normalize(raw)
}

// StorageBackend enumerates supported content bucket backends.
type StorageBackend string

const (
	StorageBackendFS     StorageBackend = "fs"
	StorageBackendMemory StorageBackend = "memory"
	StorageBackendMinio  StorageBackend = "minio"
)

var storageBackendNormalizer = normalization.NewNormalizer(map[string]StorageBackend{
	"fs":     StorageBackendFS,
	"memory": StorageBackendMemory,
	"minio":  StorageBackendMinio,
}, "")

// NormalizeStorageBackend converts user input into a typed backend, returning
// empty string for unknown values.
func NormalizeStorageBackend(raw string) StorageBackend {
	return storageBackendNormalizer.Normalize(raw)
}
