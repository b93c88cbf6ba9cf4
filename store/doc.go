// Package store is the persistence layer of the suds grooming scheduler.
//
// It stores parents, pets, groomers and appointments in three key-value
// tables with no secondary indexes. Keys are derived from business
// identifiers (phone numbers, names, employee numbers, appointment times);
// queries the tables cannot answer by key are answered by a full scan with a
// filter expression and a client-side sort.
//
// # Tables
//
//	Customer  customerId=CUSTOMER#<digits>   id=PARENT#<FIRST><LAST> | PET#<NAME>
//	Groomer   groomerId=GROOMER#<employee>   version=v0 (latest pointer) | v1..vN (snapshots)
//	Schedule  scheduleId=SCHEDULE#<epoch seconds>
//
// # Stores
//
//   - [CustomerStore] - parents and pets multiplexed in one table by sort key prefix
//   - [GroomerStore] - append-only versions plus a latest pointer
//   - [ScheduleStore] - appointments with time-range queries
//
// All stores are stateless and safe for concurrent use. They talk to a
// [Backend]; [DynamoBackend] is the production implementation and
// package memory provides one for tests.
//
// # Scans
//
// List operations read the whole table and filter with a [Filter], which
// renders to a DynamoDB filter expression and can also be evaluated in
// memory. Their cost is proportional to table size. Results are sorted
// before they are returned because scan order is unspecified.
//
// # Groomer versioning
//
// A save reads "v0", writes snapshot "v(N+1)" and rewrites "v0". The writes
// are not transactional; see [GroomerStore] for the failure window and
// [GroomerStore.ReconcileGroomer] for the repair.
//
// # Errors
//
//   - [ErrInvalidInput] - identifier empty after normalization; no backend call made
//   - [ErrNotFound] - exact-key lookup missed
//   - [ErrAmbiguous] - more than one parent shares a phone number
//   - [ErrBackendUnavailable] - transport or backend failure, cause wrapped
//   - [ErrConcurrentModification] - strict groomer save lost a race
package store
