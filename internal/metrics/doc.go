// Package metrics provides observability hooks for the publishing pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never forces nil checks into pipeline
// code. The daemon swaps in NewPrometheusRecorder and exposes the registry
// via HTTPHandler on /metrics; library consumers and tests keep the noop or
// inject their own Recorder for verification.
//
// All PrometheusRecorder methods are nil-receiver safe, which lets callers
// hold a *PrometheusRecorder field that may never be assigned.
package metrics
