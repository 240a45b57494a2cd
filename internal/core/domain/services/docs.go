// Package services provides domain services that work across aggregates.
//
// The package includes:
//   - StoreMatcher: picks the fulfilling store for a vendor's delivery
package services
