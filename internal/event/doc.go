// Package event defines the shapes events take on their way through curation.
//
// Adapters produce RawEvent values; the curator turns them into CuratedEvent
// values carrying a derived venue locality and a stable external id, and the
// store persists them as Venue and Event records. The external id is the only
// de-duplication key across runs, so ExternalID must stay deterministic.
package event
