// Package store provides the DynamoDB-backed persistence layer for Items.
//
// Items live in a single table keyed by id, with a global secondary index
// keyed by serialNumber and sorted by dateCreatedAt. The secondary index is
// a DynamoDB GSI projection, so the table service maintains it and it never
// drifts from the primary record.
//
// # Contract
//
// [Store] exposes the six persistence primitives the dispatcher needs:
//
//   - [Store.GetByID] - primary key lookup
//   - [Store.GetBySerialNumber] - secondary lookup, latest creation wins
//   - [Store.List] - full scan, drained across pages
//   - [Store.Put] - unconditional or create-if-absent write
//   - [Store.ApplyPartialUpdate] - server-side merge of supplied fields
//   - [Store.Delete] - conditional delete
//
// # Errors
//
// Expected outcomes map to sentinel errors:
//
//   - [ErrNotFound] - no Item for the given key
//   - [ErrAlreadyExists] - create-if-absent hit an existing id
//
// Any other error is an underlying persistence failure. The store never
// retries; retry policy belongs to the caller.
//
// # Timestamps
//
// dateCreatedAt uses [TimeLayout], a fixed-width RFC 3339 form with a
// nanosecond fraction. Fixed width keeps lexicographic order on the GSI
// sort key identical to chronological order.
package store
