// Package jet defines the boundary between the managed ISAM layer and a native,
// single-threaded-per-session storage engine.
//
// The package focuses on:
//   - Opaque identifier value types (handles, log positions, packed timestamps,
//     backup markers) and their exact textual encodings
//   - The option sets (grbits), column types and code pages understood by the engine
//   - The engine status codes, surfaced as *Error values
//   - The API interface every engine implementation must satisfy
//
// Identifier Encodings:
//
//	Every identifier type implements fmt.Stringer. The encodings are a pure,
//	deterministic function of the payload and are persisted in diagnostics and
//	backup manifests, so they must never change:
//
//	  JET_INSTANCE(0x123abc)                       pointer-sized handles, lowercase hex
//	  JET_DBID(23)                                 signed decimal
//	  JET_COLUMNID(0x12ec)                         lowercase hex
//	  JET_INDEXID(0x1:0x2:0x3)                     three unpadded hex parts
//	  JET_LGPOS(0x1,1F,3)                          generation hex, sector UPPERCASE hex, offset decimal
//	  JET_LOGTIME(17:44:4:31:5:110:0x80:0x0)       packed calendar timestamp
//	  JET_BKLOGTIME(17:44:4:31:5:110:0x80:0x80)    packed backup timestamp
//	  JET_SIGNATURE(99:05/31/2010 04:44:17:HOST)   random id, creation time, computer name
//	  JET_BKINFO(36-57:JET_LGPOS(...):JET_BKLOGTIME(...))
//
// Engine Interface:
//
//	API mirrors the native call surface (sessions, databases, tables, columns,
//	indexes, transactions, cursors). Implementations are not required to be safe
//	for concurrent use of a single session; callers serialize access per Sesid.
//
// Related Packages:
//
// The engines/memjet package (github.com/ValentinKolb/isam/lib/jet/engines/memjet)
// provides an in-process implementation of API with nested transactions and
// snapshot persistence.
//
// The testing package (github.com/ValentinKolb/isam/lib/jet/testing) provides a
// conformance suite (RunEngineTests) and benchmarks (RunEngineBenchmarks) for
// any API implementation.
package jet
