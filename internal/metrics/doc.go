// Package metrics records request and generation metrics.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// nil checks when metrics are disabled:
//
//	recorder := metrics.NewPrometheusRecorder(reg)
//	res := resolver.New(resolver.Options{Metrics: recorder, ...})
//
// The HTTP server exposes the registry passed to NewPrometheusRecorder at
// /metrics through HTTPHandler.
package metrics
