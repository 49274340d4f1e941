package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs comprehensive configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	// Validate in order of dependencies
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateContent(); err != nil {
		return err
	}
	if err := cv.validateStorage(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateCDN(); err != nil {
		return err
	}
	if err := cv.validateTriggers(); err != nil {
		return err
	}
	if err := cv.validateSchedules(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateEvents(); err != nil {
		return err
	}
	return nil
}

// validateSite validates the site parameter block.
func (cv *configurationValidator) validateSite() error {
	if cv.config.Site.BaseURL == "" {
		return errors.New("site.base_url is required")
	}
	if err := validateHTTPURL("site.base_url", cv.config.Site.BaseURL); err != nil {
		return err
	}
	switch cv.config.Site.Environment {
	case EnvProduction, EnvStaging, EnvDevelopment:
		// Valid environments
	default:
		return fmt.Errorf("invalid site.environment: %s (allowed: production|staging|development)", cv.config.Site.Environment)
	}
	return nil
}

// validateContent validates languages and font assignments.
func (cv *configurationValidator) validateContent() error {
	if len(cv.config.Content.Languages) == 0 {
		return errors.New("content.languages cannot be empty")
	}

	known := make(map[string]bool, len(cv.config.Content.Languages))
	for _, lang := range cv.config.Content.Languages {
		switch lang {
		case "en", "ja":
			// Supported branch languages
		default:
			return fmt.Errorf("unsupported content language: %s (allowed: en|ja)", lang)
		}
		if known[lang] {
			return fmt.Errorf("duplicate content language: %s", lang)
		}
		known[lang] = true
	}

	for _, font := range cv.config.Content.Fonts {
		if font.Lang == "" || font.Path == "" {
			return errors.New("content.fonts entries require both lang and path")
		}
		if !known[font.Lang] {
			return fmt.Errorf("content.fonts references unknown language: %s", font.Lang)
		}
	}

	return nil
}

// validateStorage validates the content bucket backend selection.
func (cv *configurationValidator) validateStorage() error {
	switch cv.config.Storage.Backend {
	case StorageBackendFS, StorageBackendMemory, StorageBackendMinio:
		// Valid backends
	default:
		return fmt.Errorf("invalid storage.backend: %s (allowed: fs|memory|minio)", cv.config.Storage.Backend)
	}

	if cv.config.Storage.Backend == StorageBackendMinio {
		m := cv.config.Storage.Minio
		if m == nil {
			return errors.New("storage.minio section is required for the minio backend")
		}
		if m.Endpoint == "" {
			return errors.New("storage.minio.endpoint is required")
		}
		if strings.Contains(m.Endpoint, "://") {
			return fmt.Errorf("storage.minio.endpoint must be host:port without scheme: %s", m.Endpoint)
		}
		if m.AccessKey == "" || m.SecretKey == "" {
			return errors.New("storage.minio requires access_key and secret_key")
		}
	}

	return nil
}

// validateBuild validates build tool settings.
func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.ToolVersion == "" {
		return errors.New("build.tool_version is required")
	}
	if cv.config.Build.ToolBaseURL != "" {
		if err := validateHTTPURL("build.tool_base_url", cv.config.Build.ToolBaseURL); err != nil {
			return err
		}
	}
	if _, err := time.ParseDuration(cv.config.Build.Timeout); err != nil {
		return fmt.Errorf("invalid build.timeout: %s: %w", cv.config.Build.Timeout, err)
	}
	if strings.ContainsAny(cv.config.Build.BuildID, "/\\") {
		return fmt.Errorf("build.build_id must be a bare directory name: %s", cv.config.Build.BuildID)
	}
	return nil
}

// validateCDN validates cache invalidation settings.
func (cv *configurationValidator) validateCDN() error {
	if !cv.config.CDN.Enabled {
		return nil
	}
	if cv.config.CDN.Endpoint == "" {
		return errors.New("cdn.endpoint is required when cdn.enabled is true")
	}
	if err := validateHTTPURL("cdn.endpoint", cv.config.CDN.Endpoint); err != nil {
		return err
	}
	if cv.config.CDN.DistributionID == "" {
		return errors.New("cdn.distribution_id is required when cdn.enabled is true")
	}
	if _, err := time.ParseDuration(cv.config.CDN.Timeout); err != nil {
		return fmt.Errorf("invalid cdn.timeout: %s: %w", cv.config.CDN.Timeout, err)
	}
	return nil
}

// validateTriggers validates trigger delivery bounds.
func (cv *configurationValidator) validateTriggers() error {
	if _, err := time.ParseDuration(cv.config.Triggers.MaxAge); err != nil {
		return fmt.Errorf("invalid triggers.max_age: %s: %w", cv.config.Triggers.MaxAge, err)
	}

	switch cv.config.Triggers.RetryBackoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		// Valid backoff strategies
	default:
		return fmt.Errorf("invalid triggers.retry_backoff: %s (allowed: fixed|linear|exponential)", cv.config.Triggers.RetryBackoff)
	}

	initDur, err := time.ParseDuration(cv.config.Triggers.RetryInitialDelay)
	if err != nil {
		return fmt.Errorf("invalid triggers.retry_initial_delay: %s: %w", cv.config.Triggers.RetryInitialDelay, err)
	}
	maxDur, err := time.ParseDuration(cv.config.Triggers.RetryMaxDelay)
	if err != nil {
		return fmt.Errorf("invalid triggers.retry_max_delay: %s: %w", cv.config.Triggers.RetryMaxDelay, err)
	}
	if maxDur < initDur {
		return fmt.Errorf("triggers.retry_max_delay (%s) must be >= triggers.retry_initial_delay (%s)",
			cv.config.Triggers.RetryMaxDelay, cv.config.Triggers.RetryInitialDelay)
	}

	if cv.config.Triggers.MaxRetries < 0 {
		return fmt.Errorf("triggers.max_retries cannot be negative: %d", cv.config.Triggers.MaxRetries)
	}

	if _, err := time.ParseDuration(cv.config.Triggers.RunTimeout); err != nil {
		return fmt.Errorf("invalid triggers.run_timeout: %s: %w", cv.config.Triggers.RunTimeout, err)
	}

	return nil
}

// validateSchedules validates cadence definitions.
func (cv *configurationValidator) validateSchedules() error {
	names := make(map[string]bool)
	for _, s := range cv.config.Schedules {
		if s.Name == "" {
			return errors.New("schedule name cannot be empty")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate schedule name: %s", s.Name)
		}
		names[s.Name] = true

		hasCron := s.Cron != ""
		hasEvery := s.Every != ""
		if hasCron == hasEvery {
			return fmt.Errorf("schedule %s must set exactly one of cron or every", s.Name)
		}
		if hasCron {
			if fields := strings.Fields(s.Cron); len(fields) != 5 {
				return fmt.Errorf("schedule %s: cron expression must have 5 fields: %q", s.Name, s.Cron)
			}
		}
		if hasEvery {
			d, err := time.ParseDuration(s.Every)
			if err != nil {
				return fmt.Errorf("schedule %s: invalid every duration: %w", s.Name, err)
			}
			if d <= 0 {
				return fmt.Errorf("schedule %s: every must be positive", s.Name)
			}
		}
	}
	return nil
}

// validateWatch validates change-detection settings.
func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w == nil || !w.Enabled {
		return nil
	}
	if len(w.Paths) == 0 {
		return errors.New("watch.paths cannot be empty when watch.enabled is true")
	}
	if _, err := time.ParseDuration(w.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce: %s: %w", w.Debounce, err)
	}
	return nil
}

// validateEvents validates the NATS publisher settings.
func (cv *configurationValidator) validateEvents() error {
	if cv.config.Events == nil {
		return nil
	}
	if cv.config.Events.NATSURL == "" {
		return errors.New("events.nats_url is required when events are configured")
	}
	return nil
}

// validateHTTPURL requires an absolute http(s) URL.
func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https: %s", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host: %s", field, raw)
	}
	return nil
}
