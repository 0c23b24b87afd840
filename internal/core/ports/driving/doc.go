// Package driving defines the inbound ports of the core: the surfaces
// the CLI and the Discord listener call into.
package driving
