// Package cache provides the expiring cache adapters backing the
// cache-aside repositories: an in-process TTL map for single-node
// deployments and tests, and a Redis adapter for shared deployments.
package cache
