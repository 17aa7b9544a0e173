// Package scheduler runs curation passes on a cron schedule.
//
// Both the cron jobs and the HTTP trigger go through a single Runner, which
// allows one pass at a time and hands each finished report to its hooks
// (metrics, notifications).
package scheduler
