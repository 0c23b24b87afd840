// Package sqlite is the durable store for blockwatch: the single
// credential record, per-endpoint rate-limit windows with TTL
// self-cleaning, the blocked-username set, and sync-run bookkeeping.
package sqlite
