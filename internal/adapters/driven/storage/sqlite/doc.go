// Package sqlite provides SQLite-based persistent storage.
//
// The store is the on-disk analogue of browser local storage: a single
// key-value table holding UTF-8 text values. Schema changes ship as
// embedded, numbered migrations applied on open.
//
// The pure-Go modernc.org/sqlite driver keeps the binary CGO-free.
package sqlite
