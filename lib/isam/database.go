package isam

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/isam/lib/jet"
)

// Space hints for new tables
const (
	initialPages   = 16
	initialDensity = 90
)

// Database is an open database of a Session. It must be disposed explicitly;
// a database that becomes unreachable while open is closed by a finalizer,
// which logs the leak.
type Database struct {
	*database
}

// database holds the state of a Database. The finalizer sits on the outer
// handle so that the table collection may point back to the state without
// forming a cycle through the finalized object.
type database struct {
	session       *Session
	name          string
	dbid          jet.Dbid
	schemaVersion *SchemaVersion
	tables        *TableCollection

	mu       sync.Mutex
	cleanup  bool // the engine handle still has to be closed
	disposed atomic.Bool
}

// newDatabase wraps an opened dbid. The caller holds the session lock.
func newDatabase(s *Session, name string, dbid jet.Dbid, opts *DatabaseOptions) *Database {
	version := opts.SchemaVersion
	if version == nil {
		version = DefaultSchemaVersion
	}

	inner := &database{
		session:       s,
		name:          name,
		dbid:          dbid,
		schemaVersion: version,
		cleanup:       true,
	}
	inner.tables = &TableCollection{db: inner}

	db := &Database{database: inner}
	runtime.SetFinalizer(db, (*Database).finalize)
	return db
}

// Name returns the name the database was opened with.
func (d *Database) Name() string { return d.name }

// Dbid returns the engine handle of the database.
func (d *Database) Dbid() jet.Dbid { return d.dbid }

// SchemaVersion returns the current value of the schema counter of the database.
func (d *Database) SchemaVersion() uint64 { return d.schemaVersion.Load() }

// Disposed reports whether the database or its session was disposed.
func (d *database) Disposed() bool {
	return d.disposed.Load() || d.session.Disposed()
}

// Tables returns the tables of the database.
func (d *Database) Tables() (*TableCollection, error) {
	if d.Disposed() {
		return nil, disposedError("Tables")
	}
	return d.tables, nil
}

// Info returns the engine metadata of the database.
func (d *Database) Info() (jet.DbInfo, error) {
	s := d.session
	s.lock()
	defer s.unlock()

	if d.Disposed() {
		return jet.DbInfo{}, disposedError("Info")
	}
	info, err := s.api.GetDatabaseInfo(s.sesid, d.dbid)
	if err != nil {
		return jet.DbInfo{}, engineError("Info", err)
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Schema Operations
// --------------------------------------------------------------------------

// CreateTable creates a table with all of its columns and indexes in one
// transaction. The definition is validated before any engine call is made.
// If any step fails the table does not exist afterwards and the schema
// version is unchanged.
func (d *Database) CreateTable(def TableDefinition) error {
	const op = "CreateTable"

	schema, err := convertTableDefinition(def)
	if err != nil {
		return err
	}

	s := d.session
	s.lock()
	defer s.unlock()

	if d.Disposed() {
		return disposedError(op)
	}

	tx, err := s.beginTransactionLocked()
	if err != nil {
		return err
	}
	defer func() { _ = tx.disposeLocked() }()

	tableid, err := s.api.CreateTable(s.sesid, d.dbid, schema.name, initialPages, initialDensity)
	if err != nil {
		return engineError(op, err)
	}
	for _, column := range schema.columns {
		if _, err := s.api.AddColumn(s.sesid, tableid, column.name, column.def, column.defaultValue); err != nil {
			return engineError(op, err)
		}
	}
	for _, index := range schema.indexes {
		if err := s.api.CreateIndex2(s.sesid, tableid, []jet.IndexCreate{index}); err != nil {
			return engineError(op, err)
		}
	}
	// the table handle returned by CreateTable is exclusive
	if err := s.api.CloseTable(s.sesid, tableid); err != nil {
		return engineError(op, err)
	}
	if err := tx.commitLocked(); err != nil {
		return err
	}

	version := d.schemaVersion.increment()
	log.Infof("created table %s in %s (%d columns, %d indexes, schema version %d)",
		schema.name, d.name, len(schema.columns), len(schema.indexes), version)
	return nil
}

// DropTable deletes a table. Tables with open cursors cannot be deleted;
// the engine failure is returned with code ErrCResourceBusy.
func (d *Database) DropTable(name string) error {
	const op = "DropTable"

	s := d.session
	s.lock()
	defer s.unlock()

	if d.Disposed() {
		return disposedError(op)
	}

	tx, err := s.beginTransactionLocked()
	if err != nil {
		return err
	}
	defer func() { _ = tx.disposeLocked() }()

	if err := s.api.DeleteTable(s.sesid, d.dbid, name); err != nil {
		return engineError(op, err)
	}
	if err := tx.commitLocked(); err != nil {
		return err
	}

	version := d.schemaVersion.increment()
	log.Infof("dropped table %s in %s (schema version %d)", name, d.name, version)
	return nil
}

// Exists reports whether the database contains a table (case-insensitive).
func (d *Database) Exists(name string) (bool, error) {
	if d.Disposed() {
		return false, disposedError("Exists")
	}
	return d.tables.Contains(name)
}

// --------------------------------------------------------------------------
// Cursors
// --------------------------------------------------------------------------

// OpenCursor opens a cursor over a table. An exclusive cursor denies every
// other handle on the table while it is open.
func (d *Database) OpenCursor(name string, exclusive bool) (*Cursor, error) {
	const op = "OpenCursor"

	s := d.session
	s.lock()
	defer s.unlock()

	if d.Disposed() {
		return nil, disposedError(op)
	}

	grbit := jet.OpenTableUpdatable
	if exclusive {
		grbit |= jet.OpenTableDenyRead
	}
	tableid, err := s.api.OpenTable(s.sesid, d.dbid, name, grbit)
	if err != nil {
		return nil, engineError(op, err)
	}
	columns, err := s.api.GetTableColumns(s.sesid, tableid)
	if err != nil {
		_ = s.api.CloseTable(s.sesid, tableid)
		return nil, engineError(op, err)
	}

	return newCursor(d, name, tableid, exclusive, columns), nil
}

// OpenCursorShared opens a shared cursor over a table.
func (d *Database) OpenCursorShared(name string) (*Cursor, error) {
	return d.OpenCursor(name, false)
}

// --------------------------------------------------------------------------
// Disposal
// --------------------------------------------------------------------------

// Dispose closes the database. Calling it more than once is a no-op.
// Nothing is closed if the session was disposed before.
func (d *Database) Dispose() error {
	runtime.SetFinalizer(d, nil)
	return d.dispose()
}

func (d *Database) finalize() {
	log.Warningf("database %s (%s) was not disposed, closing it from the finalizer", d.name, d.dbid)
	if err := d.dispose(); err != nil {
		log.Errorf("closing leaked database %s failed: %v", d.name, err)
	}
}

func (d *database) dispose() error {
	s := d.session
	s.lock()
	defer s.unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if !d.Disposed() && d.cleanup {
		if cerr := s.api.CloseDatabase(s.sesid, d.dbid, jet.CloseDatabaseNone); cerr != nil {
			err = engineError("CloseDatabase", cerr)
		}
		d.cleanup = false
	}
	d.disposed.Store(true)
	return err
}
