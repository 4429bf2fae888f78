// Package isam provides safe, disposable objects over a jet.API engine.
//
// Objects are created top down and disposed bottom up:
//
//	instance, _ := isam.NewInstance(api, "app")
//	session, _ := instance.BeginSession()
//	db, _ := session.CreateDatabase("app.edb", nil)
//	_ = db.CreateTable(isam.TableDefinition{...})
//	cursor, _ := db.OpenCursor("people", false)
//	...
//	cursor.Dispose(); db.Dispose(); session.Dispose(); instance.Dispose()
//
// Locking:
//
//	The engine allows one call per session at a time. Every object holds the
//	mutex of its Session for the duration of its engine calls. Database and
//	Cursor take an additional local lock in Dispose, always after the session
//	lock.
//
// Disposal:
//
//	Dispose is idempotent on every object. A child is disposed if it was
//	disposed itself or if one of its parents was; parents never notify their
//	children. A Database left open is closed by a finalizer, which logs a
//	warning, but the engine handle stays open until the garbage collector
//	gets to it, so Dispose must always be called.
//
// Schema Changes:
//
//	CreateTable converts and validates the whole TableDefinition before the
//	first engine call, then creates the table, its columns and indexes inside
//	one transaction. Failures roll the transaction back, so the table either
//	exists completely or not at all. Each committed CreateTable or DropTable
//	increments the SchemaVersion of the database once.
//
// Errors:
//
//	All failures are *Error values. Use errors.Is with ErrEngine, ErrDisposed,
//	ErrInvalidDefinition or ErrResourceBusy to tell them apart; engine errors
//	also match the native jet.Err codes.
package isam
