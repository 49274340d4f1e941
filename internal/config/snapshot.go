package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Snapshot computes a stable hash of build-affecting normalized configuration
// fields. It is intentionally narrower than full serialization so unrelated
// config edits do not register as site-affecting changes. Slice fields are
// order-insensitive (sorted prior to hashing). Callers SHOULD run Load (which
// applies defaults) before computing a snapshot to ensure canonical values.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) {
		h.Write([]byte(strings.Join(parts, "=")))
		h.Write([]byte{0})
	}
	// Site parameters fed to the build tool
	w("site.base_url", c.Site.BaseURL)
	w("site.environment", string(c.Site.Environment))
	w("site.comments_enabled", boolToString(c.Site.CommentsEnabled))
	w("site.analytics_id", c.Site.AnalyticsID)
	// Content shape
	langs := append([]string{}, c.Content.Languages...)
	sort.Strings(langs)
	w("content.languages", strings.Join(langs, ","))
	w("content.root", c.Content.Root)
	// Build tool identity
	w("build.tool_version", c.Build.ToolVersion)
	w("build.build_id", c.Build.BuildID)
	// Storage location
	w("storage.backend", string(c.Storage.Backend))
	w("storage.bucket", c.Storage.Bucket)
	return hex.EncodeToString(h.Sum(nil))
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
