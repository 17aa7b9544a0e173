// Package store persists venues and curated events.
//
// Two backends implement Store: a SQLite database (modernc.org/sqlite, schema
// managed by goose migrations embedded in the binary) and a single JSON
// document in a data directory for quick local runs. Venue names are unique
// case-insensitively, venue slugs are unique, and every event is keyed by
// its source-qualified external id.
package store
