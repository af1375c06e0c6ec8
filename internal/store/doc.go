// Package store provides the item directory backing the catalog and the relay.
//
// # Interfaces
//
//   - Directory: read-only Count, FetchByOffset, FetchByID
//   - ItemStore: Directory plus CreateItem, ListItems, DeleteItem for the
//     items CLI
//
// The relay and the catalog pager only ever see a Directory. Items are
// owned by whoever runs the items CLI; the bots never mutate them.
//
// # Ordering
//
// FetchByOffset walks items in ascending id order. That order is the
// catalog's page order, so page N is always the N-th item by id.
//
// # SQLite Configuration
//
// Two drivers are available:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, needs cgo
//
// File databases run with PRAGMA journal_mode=WAL. ":memory:" is
// supported for tests and pins the pool to one connection.
//
// # Testing
//
// Use NewMockStore(items...) for unit tests; it counts directory reads in
// the Reads field.
package store
