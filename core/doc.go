// Package core contains the canonical GNAP domain contracts, entities, and
// the grant negotiation engine. Lower-level adapters (stores, caches,
// transports) must depend on this package; core must not depend on
// driver-specific or transport-specific adapters.
package core
