package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SiteDefaultApplier handles Site configuration defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Environment == "" {
		cfg.Site.Environment = EnvProduction
	} else {
		if env := NormalizeEnvironment(string(cfg.Site.Environment)); env != "" {
			cfg.Site.Environment = env
		}
		// Unknown values survive so validation can report them.
	}
	return nil
}

// ContentDefaultApplier handles Content configuration defaults.
type ContentDefaultApplier struct{}

func (c *ContentDefaultApplier) Domain() string { return "content" }

func (c *ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Content.Languages) == 0 {
		cfg.Content.Languages = []string{"en", "ja"}
	}
	if cfg.Content.Root == "" {
		cfg.Content.Root = "content"
	}
	if cfg.Content.Watermark == "" {
		cfg.Content.Watermark = "pressline"
	}
	return nil
}

// StorageDefaultApplier handles Storage configuration defaults.
type StorageDefaultApplier struct{}

func (s *StorageDefaultApplier) Domain() string { return "storage" }

func (s *StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendFS
	} else {
		if b := NormalizeStorageBackend(string(cfg.Storage.Backend)); b != "" {
			cfg.Storage.Backend = b
		}
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "site-content"
	}
	if cfg.Storage.Backend == StorageBackendFS && cfg.Storage.Root == "" {
		cfg.Storage.Root = "./data/content"
	}
	return nil
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.ToolVersion == "" {
		cfg.Build.ToolVersion = "0.148.2"
	}
	if cfg.Build.CacheDir == "" {
		cfg.Build.CacheDir = "./cache/tools"
	}
	if cfg.Build.Root == "" {
		cfg.Build.Root = "./build"
	}
	if cfg.Build.BuildID == "" {
		cfg.Build.BuildID = "public"
	}
	if cfg.Build.Timeout == "" {
		cfg.Build.Timeout = "10m"
	}
	return nil
}

// CDNDefaultApplier handles CDN configuration defaults.
type CDNDefaultApplier struct{}

func (c *CDNDefaultApplier) Domain() string { return "cdn" }

func (c *CDNDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.CDN.Timeout == "" {
		cfg.CDN.Timeout = "30s"
	}
	return nil
}

// TriggerDefaultApplier handles Trigger configuration defaults.
type TriggerDefaultApplier struct{}

func (t *TriggerDefaultApplier) Domain() string { return "triggers" }

func (t *TriggerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Triggers.MaxAge == "" {
		cfg.Triggers.MaxAge = "10m"
	}
	if cfg.Triggers.MaxRetries < 0 {
		cfg.Triggers.MaxRetries = 0
	}
	if cfg.Triggers.MaxRetries == 0 { // default 3 retries unless explicitly set >0
		cfg.Triggers.MaxRetries = 3
	}
	if cfg.Triggers.RetryBackoff == "" {
		cfg.Triggers.RetryBackoff = RetryBackoffLinear
	} else {
		cfg.Triggers.RetryBackoff = NormalizeRetryBackoff(string(cfg.Triggers.RetryBackoff))
		if cfg.Triggers.RetryBackoff == "" { // fallback to default if unknown
			cfg.Triggers.RetryBackoff = RetryBackoffLinear
		}
	}
	if cfg.Triggers.RetryInitialDelay == "" {
		cfg.Triggers.RetryInitialDelay = "2s"
	}
	if cfg.Triggers.RetryMaxDelay == "" {
		cfg.Triggers.RetryMaxDelay = "30s"
	}
	if cfg.Triggers.RunTimeout == "" {
		cfg.Triggers.RunTimeout = "15m"
	}
	return nil
}

// ScheduleDefaultApplier handles Schedule configuration defaults.
type ScheduleDefaultApplier struct{}

func (s *ScheduleDefaultApplier) Domain() string { return "schedules" }

func (s *ScheduleDefaultApplier) ApplyDefaults(cfg *Config) error {
	// Distinguish between nil (defaults wanted) and explicitly empty list.
	if cfg.Schedules == nil {
		cfg.Schedules = []ScheduleConfig{
			{Name: "published", Cron: "0 6 * * 1-5"},
			{Name: "draft", Cron: "0 18 * * *", Draft: true},
		}
	}
	return nil
}

// WatchDefaultApplier handles Watch configuration defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch == nil {
		return nil // watching stays off unless configured
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
	return nil
}

// DaemonDefaultApplier handles Daemon configuration defaults.
type DaemonDefaultApplier struct{}

func (d *DaemonDefaultApplier) Domain() string { return "daemon" }

func (d *DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon == nil {
		return nil // No daemon config to apply defaults to
	}
	if cfg.Daemon.HTTP.AdminPort == 0 {
		cfg.Daemon.HTTP.AdminPort = 8080
	}
	return nil
}

// EventsDefaultApplier handles Events configuration defaults.
type EventsDefaultApplier struct{}

func (e *EventsDefaultApplier) Domain() string { return "events" }

func (e *EventsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Events == nil {
		return nil // event publishing stays off unless configured
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "pressline.runs"
	}
	return nil
}

// MonitoringDefaultApplier handles Monitoring configuration defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring == nil {
		cfg.Monitoring = &MonitoringConfig{}
	}

	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Health.Path == "" {
		cfg.Monitoring.Health.Path = "/healthz"
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	} else {
		lvl := NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
		if lvl != "" {
			cfg.Monitoring.Logging.Level = lvl
		}
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatJSON
	} else {
		fmtVal := NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
		if fmtVal != "" {
			cfg.Monitoring.Logging.Format = fmtVal
		}
	}

	return nil
}
