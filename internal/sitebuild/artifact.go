// Package sitebuild turns the accumulated content tree into a deployable
// static site: it exports content from the object store, resolves the
// external site tool through a verified cache, runs it under a wall-clock
// timeout and verifies the produced artifact.
package sitebuild

import "time"

// BuildRequest carries what the builder needs from a run.
type BuildRequest struct {
	RunID   string
	IsDraft bool
}

// BuildArtifact reports one build's outcome. It is populated for every
// outcome; LogRef points at the captured tool output whenever the tool ran.
type BuildArtifact struct {
	Success          bool
	ArtifactLocation string
	LogRef           string
	ToolVersion      string
	Duration         time.Duration
}

// Environment parameters handed to the site tool.
const (
	EnvBaseURL         = "SITE_BASE_URL"
	EnvEnvironment     = "SITE_ENVIRONMENT"
	EnvCommentsEnabled = "SITE_COMMENTS_ENABLED"
	EnvAnalyticsID     = "SITE_ANALYTICS_ID"
)
