// Package queries contains the read side of the fulfillment engine. Handlers
// read straight from the database with SQL and return flat read models; they
// never load aggregates for writing and never open a transaction.
package queries
