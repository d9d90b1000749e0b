// Package store provides the in-memory data layer for the travel-visit service.
//
// The store holds three entity kinds (users, locations, and the visits that
// link them) in id-keyed tables, plus two secondary indices that answer
// "all visits by user X" and "all visits to location Y" without scanning the
// visit table. Indices are materialized views maintained synchronously by
// every mutation that touches a visit.
//
// # Operations
//
// Entities are created with AddUser, AddLocation and AddVisit, read with
// GetUser, GetLocation and GetVisit, and mutated with UpdateUser,
// UpdateLocation and UpdateVisit. Updates take a patch value: absent fields
// keep their current value, and the resulting entity is re-validated as a
// whole before anything is committed.
//
// UserVisits returns a user's visit history, ascending by visit time, with
// optional date, country and distance filters. LocationAvg returns a
// location's average mark over an optionally filtered subset of its visits,
// rounded to five decimal digits.
//
// # Concurrency
//
// The whole aggregate, all three tables and both indices, sits behind a
// single reader/writer lock. Reads take it shared, mutations exclusively, so
// no caller ever observes a visit present in a table but missing from an
// index. The store runs no goroutines of its own; callers needing bounded
// lock waits should dispatch through their own worker pool.
//
// # Errors
//
//   - [ErrNotFound] - no entity with the given id
//   - [ErrAlreadyExists] - insert with an id already present
//   - [ErrInvalid] - validation failed; the concrete error is a [ValidationError]
//   - [ErrInconsistent] - an index bucket diverged from its table (a store bug)
//   - [ErrStoreFailed] - a mutation panicked mid-write; the store is unusable
package store
