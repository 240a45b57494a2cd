// Package errs holds the error kinds shared by the domain, the use cases and
// the transports.
//
// Every typed error unwraps to one sentinel, and the HTTP adapter maps the
// sentinel to a status code:
//   - ErrObjectNotFound: 404, an entity referenced by id does not exist
//   - ErrValueIsInvalid, ErrValueIsRequired, ErrValueIsOutOfRange: 400
//   - ErrServiceUnavailable: 503, e.g. a vendor with no active store
//
// Constructors come in pairs, with and without a cause:
//
//	return errs.NewObjectNotFoundError("deliveryID", id)
//	return errs.NewValueIsRequiredError("trackerId")
//
// Callers classify failures with errors.Is against the sentinels, never by
// matching messages.
package errs
