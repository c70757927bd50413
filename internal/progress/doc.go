// Package progress carries crawl run events from the state machine and workers
// to pluggable sinks (logs, Prometheus counters, the run status store) without
// ever blocking the crawl.
package progress
