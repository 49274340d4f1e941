package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyKind       = "trigger_kind"
	KeyState      = "run_state"
	KeyLang       = "lang"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyBucket     = "bucket"
	KeyObjectKey  = "object_key"
	KeyPath       = "path"
	KeyAttempt    = "attempt"
	KeyBuildID    = "build_id"
	KeyToolVer    = "tool_version"
	KeyComponent  = "component"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func Lang(l string) slog.Attr          { return slog.String(KeyLang, l) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }
func Bucket(b string) slog.Attr        { return slog.String(KeyBucket, b) }
func ObjectKey(k string) slog.Attr     { return slog.String(KeyObjectKey, k) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func ToolVersion(v string) slog.Attr   { return slog.String(KeyToolVer, v) }
func Component(name string) slog.Attr  { return slog.String(KeyComponent, name) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
