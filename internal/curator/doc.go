// Package curator runs a curation pass: it fetches raw events from every
// configured source, drops non-music listings from the scraped sources,
// resolves each event's venue and locality, and upserts the result into the
// store keyed by external id.
//
// A pass never fails because one source or one event fails. Source failures
// yield no events, per-event failures are listed in the Report, and only a
// failure to preload venues from the store marks the run unsuccessful.
package curator
