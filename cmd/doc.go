// Package cmd implements the command-line interface of the managed ISAM layer.
// It provides a hierarchical command structure for creating databases and
// tables, writing and listing rows and printing the engine's identifier
// encodings.
//
// The package is organized into several subpackages:
//
//   - db: Commands for database operations (create, info)
//   - table: Commands for table operations (create, drop, list, exists, describe)
//   - row: Commands for row operations (insert, list)
//   - encode: Commands printing the text form of engine identifiers
//   - perf: Performance testing tool running benchmarks on an in-memory engine
//   - util: Shared utilities for command-line processing, configuration and
//     the snapshot backed workspace (internal use)
//
// The db, table and row commands read and, if they changed something,
// rewrite the snapshot file given by --data-file (env ISAM_DATA_FILE).
//
// See isam -help for a list of all commands.
package cmd
