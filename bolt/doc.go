// Package bolt reads bolt buckets as sequences.
//
// A cursor sequence opens a read-only transaction on its first pull and
// rolls it back when the sequence ends or is closed. Until then the
// transaction pins the database file mapping, so writers that need to grow
// the file wait; close cursor sequences promptly.
package bolt
