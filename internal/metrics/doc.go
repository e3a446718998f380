// Package metrics records cache and compute activity of the flow metrics services.
//
// Services receive a Recorder through an option and default to NoopRecorder, so
// nothing needs a nil check. When the mcp command is started with --metrics-addr,
// a PrometheusRecorder is injected and its registry is served by NewHTTPHandler.
package metrics
