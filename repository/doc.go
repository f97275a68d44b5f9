// Package repository implements the cache-aside persistence layer: reads
// check the expiring cache first and repopulate it from the durable store
// on miss; writes land in the store first and mirror to the cache on a
// best-effort basis. The store is always authoritative.
package repository
