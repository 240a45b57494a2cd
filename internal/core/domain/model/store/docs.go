// Package store holds the Store aggregate: a fulfillment location that can be
// matched to deliveries while it is active, and its informational inventory.
package store
