// Package kernel provides the shared domain primitives of the fulfillment engine.
//
// The package includes:
//   - UUID: an identifier value object with byte-wise ordering used for tie-breaks
//   - GeoPoint: a latitude/longitude pair with great-circle distance
//   - Haversine: the pure distance function behind GeoPoint.DistanceTo
//
// Values are immutable and safe for concurrent use.
package kernel
