// Package server exposes the curation trigger over HTTP.
//
// Routes:
//
//	GET|POST /api/cron/sync-events   run one curation pass (bearer secret when configured)
//	GET      /healthz                liveness plus the last run summary
//	GET      /metrics                Prometheus exposition, when metrics are enabled
package server
