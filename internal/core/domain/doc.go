// Package domain holds the core entities of blockwatch: the managed
// OAuth credential, rate-limit windows, sync-run records, and the
// sentinel errors the services signal with. It has no dependencies on
// adapters or external libraries.
package domain
