package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *PipelineError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline stage errors

func GenerationFailed(lang string, cause error) *PipelineError {
	return Wrap(cause, CategoryGeneration, SeverityError, "content generation failed").
		WithContext("lang", lang)
}

func RenderFailed(lang string, cause error) *PipelineError {
	return Wrap(cause, CategoryRender, SeverityError, "thumbnail render failed").
		WithContext("lang", lang)
}

func StorageFailed(operation, key string, cause error) *PipelineError {
	return WrapRetryable(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("operation", operation).
		WithContext("key", key)
}

func BuildFailed(stage string, cause error) *PipelineError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "site build failed").
		WithContext("stage", stage)
}

func BuildTimeout(cause error) *PipelineError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "site build exceeded timeout")
}

func VerifyFailed(path string, cause error) *PipelineError {
	return Wrap(cause, CategoryVerify, SeverityError, "artifact verification failed").
		WithContext("path", path)
}

func InvalidationFailed(distribution string, cause error) *PipelineError {
	return WrapRetryable(cause, CategoryInvalidate, SeverityWarning, "cache invalidation failed").
		WithContext("distribution", distribution)
}

// Trigger errors

func TriggerRejected(kind, reason string) *PipelineError {
	return New(CategoryTrigger, SeverityWarning, "trigger rejected").
		WithContext("kind", kind).
		WithContext("reason", reason)
}

func TriggerExpired(kind string) *PipelineError {
	return New(CategoryTrigger, SeverityWarning, "trigger exceeded max age").
		WithContext("kind", kind)
}

// Network errors

func NetworkTimeout(url string, cause error) *PipelineError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

func ToolFetchError(url string, cause error) *PipelineError {
	return WrapRetryable(cause, CategoryNetwork, SeverityError, "build tool fetch failed").
		WithContext("url", url)
}

// Internal errors

func InternalError(message string, cause error) *PipelineError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
