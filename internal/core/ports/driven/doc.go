// Package driven defines the outbound ports of the core: storage,
// the provider's OAuth and resource endpoints, and tweet resolution.
// Adapters implement these; core services depend only on the interfaces.
package driven
