// Package inbound routes typed command messages to their registered
// handlers. Transports decode a payload into a message and hand it to
// the dispatcher without knowing which handler owns it.
package inbound
