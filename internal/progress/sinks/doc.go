// Package sinks implements progress consumers: structured logging, Prometheus
// counters and the run status store. Each satisfies progress.Sink.
package sinks
