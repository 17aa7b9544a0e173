// Package scraper fetches and parses the public HTML event calendars of
// SLUG Magazine and City Weekly.
//
// Each page is parsed in two tiers. Embedded JSON-LD Event/MusicEvent data is
// authoritative when a page carries it; otherwise the page is flattened into
// text lines and matched against the site's date header, title, time and
// venue layout. The fallback tier is best effort and may miss or mis-read
// events when a site changes its markup.
//
// Both tiers are pure functions over a parsed document so they can be tested
// against fixed fixtures. Adapters never return errors: fetch failures are
// logged and produce an empty (or partial) list.
package scraper
