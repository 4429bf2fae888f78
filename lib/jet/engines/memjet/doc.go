// Package memjet implements the jet.API engine contract entirely in process.
// It backs the command line tool and every test of the ISAM layer, and serves
// as the reference for the behaviour a native engine binding must show.
//
// Key Components:
//
//   - memjetImpl: The engine. Instances, sessions and open tables live in
//     xsync.MapOf registries keyed by their handles; handle values come from a
//     single atomic counter so they are unique across all handle kinds.
//     The catalog (databases, tables, records) and the log position are guarded
//     by one engine mutex.
//
//   - Table (internal): Schema and records of one table. Records are kept in
//     a B-tree keyed by bookmark, so cursors walk them in insertion order.
//     Column ids are handed out from three ranges: fixed columns from 1,
//     variable columns from 128 and tagged (long or multi-valued) columns
//     from 256.
//
//   - cursor: An open table. A cursor is positioned by bookmark, so deleting
//     the current record leaves it between its neighbours.
//
// Transactions:
//
//	Every write registers an undo function with the innermost transaction level
//	of its session. Rollback runs the undo functions of one level in reverse
//	order. Committing a nested level appends its undo list to the parent;
//	committing the outermost level discards it and advances the log position.
//	Writes outside of a transaction commit immediately. The nesting depth is
//	limited to Options.MaxTransactionDepth (7 by default).
//
// Table Locking:
//
//	CreateTable returns the new table opened with OpenTableDenyRead. While a
//	deny-read handle exists, every OpenTable fails with ErrTableLocked; opening
//	with DenyRead while other handles exist fails with ErrTableInUse, and so
//	does DeleteTable on a table with open handles.
//
// Key Constraints:
//
//	On Update every index key is built from the effective column values
//	(stored value or column default). NULL handling follows the index options
//	(DisallowNull, IgnoreNull, IgnoreAnyNull, conditional columns). Keys longer
//	than CbKeyMost (or 255 bytes without IndexKeyMost) are truncated, or
//	rejected with ErrKeyTruncated when the index carries IndexDisallowTruncation.
//	Unique and primary indexes reject duplicate keys with ErrKeyDuplicate.
//
// Persistence Format:
//
//  1. Magic number "MEMJET\x00\x00" to identify the file format
//  2. Version number (currently 1)
//  3. One BSON document with the log position and all databases, including
//     signatures, schemas, autoincrement counters and records
//
// Snapshots can only be loaded while no session is open.
package memjet
