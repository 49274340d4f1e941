// Package config loads, defaults, and validates the pressline configuration
// file. Values support ${ENV_VAR} expansion; a .env file next to the process
// is honored without overriding existing environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads a configuration file (version 1.x).
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing environment always wins.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version != "1.0" {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.0)", config.Version)
	}

	// Apply defaults before validation so canonical values drive the checks.
	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults applies default values to configuration
func applyDefaults(config *Config) error {
	applier := NewDefaultApplier()
	return applier.ApplyDefaults(config)
}

// Init writes an example configuration file (version 1.0).
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Version: "1.0",
		Site: SiteConfig{
			BaseURL:         "https://news.example.com",
			Environment:     EnvProduction,
			CommentsEnabled: true,
			AnalyticsID:     "${SITE_ANALYTICS_ID}",
		},
		Content: ContentConfig{
			Languages: []string{"en", "ja"},
			Root:      "content",
			Watermark: "pressline",
			Fonts: []FontConfig{
				{Lang: "en", Path: "./assets/fonts/NotoSans-Regular.ttf"},
				{Lang: "ja", Path: "./assets/fonts/NotoSansJP-Regular.ttf"},
			},
		},
		Storage: StorageConfig{
			Backend: StorageBackendFS,
			Bucket:  "site-content",
			Root:    "./data/content",
			Minio: &MinioConfig{
				Endpoint:  "localhost:9000",
				AccessKey: "${MINIO_ACCESS_KEY}",
				SecretKey: "${MINIO_SECRET_KEY}",
				Secure:    false,
			},
		},
		Build: BuildConfig{
			ToolVersion: "0.148.2",
			ToolBaseURL: "https://dl.example.com/sitegen",
			CacheDir:    "./cache/tools",
			Root:        "./build",
			BuildID:     "public",
			Timeout:     "10m",
		},
		CDN: CDNConfig{
			Enabled:        true,
			Endpoint:       "https://edge.example.com/v1/invalidations",
			DistributionID: "${CDN_DISTRIBUTION_ID}",
			Timeout:        "30s",
		},
		Triggers: TriggerConfig{
			MaxAge:            "10m",
			MaxRetries:        3,
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: "2s",
			RetryMaxDelay:     "30s",
			RunTimeout:        "15m",
		},
		Schedules: []ScheduleConfig{
			{Name: "published", Cron: "0 6 * * 1-5"},
			{Name: "draft", Cron: "0 18 * * *", Draft: true},
		},
		Watch: &WatchConfig{
			Enabled:  true,
			Paths:    []string{"./site.yaml"},
			Debounce: "2s",
		},
		Daemon: &DaemonConfig{
			HTTP: HTTPConfig{AdminPort: 8080},
		},
		Archive: ArchiveConfig{
			Path: "./pressline.db",
		},
		Events: &EventsConfig{
			NATSURL:       "nats://localhost:4222",
			SubjectPrefix: "pressline.runs",
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Health:  MonitoringHealth{Path: "/healthz"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatJSON},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
