// Package storage defines the store contract consumed by the rollup and
// query engines: point reads, full-overwrite writes, inclusive range
// queries over one player's timestamp-ordered rows, and change
// notifications for the incremental aggregator.
package storage
