// Package delivery provides the Delivery aggregate: line items with a frozen
// total, the status lifecycle with one-time timestamps, and the append-only
// location history together with the current-position snapshot.
//
// Status lifecycle:
//
//	PendingPayment -> Paid -> Assigned -> InTransit -> Delivered
//	        \___________\_________\__________\______-> Cancelled
//
// Delivered and Cancelled are terminal by convention only. SetStatus accepts
// any valid status from any other so that downstream corrections (payment
// reversals, dispatch fixes) can be written; callers can detect backward
// moves with Status.IsBackwardFrom.
package delivery
