// Package api hosts the HTTP server operators use to watch a crawl. Routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/runs/{run_id} for the aggregated status of one crawl run.
package api
