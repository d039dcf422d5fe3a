// Package core provides the business logic of the hospital record service.
//
// It is independent of any transport. The web handlers drive [Service];
// the bootstrap loader reuses [ParseRecord] for seed rows.
//
// # Ingestion
//
// [Service.Ingest] takes a batch of raw JSON values and partitions every
// element into exactly one outcome:
//
//   - malformed: the value is not an object with exactly the fields
//     id, name, city, state and address (no duplicates, no extras), or a
//     field has the wrong JSON type. The raw value is reported unchanged
//     in [IngestionOutcome.IncorrectFormat] and no write is attempted.
//   - conflicting: the insert collided with an existing id. The id is
//     reported in [IngestionOutcome.ConflictingKeys].
//   - accepted: the insert succeeded. Accepted records are only counted.
//
// Elements are processed in input order and every insert commits on its
// own, so a conflict on one record never undoes an earlier insert. Any
// store failure other than a duplicate id aborts the batch with an error.
//
// # Queries
//
// [Service.ListHospitals] returns all records ordered by id.
// [Service.GetHospital] returns a [Lookup] whose Found flag reports absence
// as an ordinary result rather than an error.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError]; see error_messages.go for the code reference.
package core
