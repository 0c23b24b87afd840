// Package services contains the core behavior of blockwatch: the OAuth
// session manager, the rate-limit tracker, and the blocked-list sync
// engine. Services depend only on the ports packages.
package services
