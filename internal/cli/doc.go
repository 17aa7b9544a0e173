// Package cli implements the rocksalt-curate command-line interface.
//
// The cli package provides the Cobra commands that run curation passes
// (curate), serve the HTTP trigger with scheduled runs (serve), and inspect
// or seed the store (venues, events). It reads its settings through the
// config package and wires the adapters, store, cache, metrics and notifiers
// together.
package cli
