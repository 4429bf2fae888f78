package isam

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("isam")

// --------------------------------------------------------------------------
// Instance
// --------------------------------------------------------------------------

// Instance is a running engine instance.
type Instance struct {
	api      jet.API
	handle   jet.Instance
	name     string
	disposed atomic.Bool
}

// NewInstance creates and starts an engine instance.
func NewInstance(api jet.API, name string) (*Instance, error) {
	handle, err := api.CreateInstance(name)
	if err != nil {
		return nil, engineError("CreateInstance", err)
	}
	if err := api.Init(handle); err != nil {
		_ = api.Term(handle)
		return nil, engineError("Init", err)
	}

	log.Debugf("instance %s started as %s", name, handle)
	return &Instance{api: api, handle: handle, name: name}, nil
}

// Handle returns the engine handle of the instance.
func (i *Instance) Handle() jet.Instance { return i.handle }

// BeginSession opens a new session on the instance.
func (i *Instance) BeginSession() (*Session, error) {
	if i.disposed.Load() {
		return nil, disposedError("BeginSession")
	}
	return NewSession(i.api, i.handle)
}

// Dispose stops the instance. All sessions of the instance end with it.
func (i *Instance) Dispose() error {
	if !i.disposed.CompareAndSwap(false, true) {
		return nil
	}
	if err := i.api.Term(i.handle); err != nil {
		return engineError("Term", err)
	}
	log.Debugf("instance %s stopped", i.name)
	return nil
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Session is one engine session. The engine does not allow concurrent calls
// on a session, so every object created from a Session (Transaction,
// Database, TableCollection, Cursor) holds the session lock for the duration
// of its engine calls. Object-local locks are always taken after it.
//
// Disposing a Session does not notify its children; they consult
// Session.Disposed on every call and fail with ErrDisposed.
type Session struct {
	api      jet.API
	sesid    jet.Sesid
	mu       sync.Mutex
	disposed atomic.Bool

	// open transactions, innermost last (guarded by mu)
	transactions []*Transaction
}

// NewSession begins an engine session on a running instance.
func NewSession(api jet.API, instance jet.Instance) (*Session, error) {
	sesid, err := api.BeginSession(instance)
	if err != nil {
		return nil, engineError("BeginSession", err)
	}
	return &Session{api: api, sesid: sesid}, nil
}

// Sesid returns the engine handle of the session.
func (s *Session) Sesid() jet.Sesid { return s.sesid }

// API returns the engine the session runs on.
func (s *Session) API() jet.API { return s.api }

// Disposed reports whether the session was disposed.
func (s *Session) Disposed() bool { return s.disposed.Load() }

// Dispose ends the engine session. Open transactions are rolled back by the
// engine. Calling Dispose more than once is a no-op.
func (s *Session) Dispose() error {
	s.lock()
	defer s.unlock()

	if s.disposed.Load() {
		return nil
	}
	s.disposed.Store(true)

	for _, tx := range s.transactions {
		tx.resolved = true
	}
	s.transactions = nil

	if err := s.api.EndSession(s.sesid); err != nil {
		return engineError("EndSession", err)
	}
	return nil
}

// BeginTransaction starts a transaction, nested in the current one if any.
func (s *Session) BeginTransaction() (*Transaction, error) {
	s.lock()
	defer s.unlock()

	if s.disposed.Load() {
		return nil, disposedError("BeginTransaction")
	}
	return s.beginTransactionLocked()
}

// DatabaseOptions configure an opened or created database.
type DatabaseOptions struct {
	SchemaVersion *SchemaVersion // Counter of schema changes, nil = DefaultSchemaVersion
	ReadOnly      bool           // Open the database read only (ignored on create)
}

// OpenDatabase opens an existing database. opts may be nil.
func (s *Session) OpenDatabase(name string, opts *DatabaseOptions) (*Database, error) {
	s.lock()
	defer s.unlock()

	if s.disposed.Load() {
		return nil, disposedError("OpenDatabase")
	}
	if opts == nil {
		opts = &DatabaseOptions{}
	}

	grbit := jet.OpenDatabaseNone
	if opts.ReadOnly {
		grbit = jet.OpenDatabaseReadOnly
	}
	dbid, err := s.api.OpenDatabase(s.sesid, name, grbit)
	if err != nil {
		return nil, engineError("OpenDatabase", err)
	}
	return newDatabase(s, name, dbid, opts), nil
}

// CreateDatabase creates a new database and opens it. opts may be nil.
func (s *Session) CreateDatabase(name string, opts *DatabaseOptions) (*Database, error) {
	s.lock()
	defer s.unlock()

	if s.disposed.Load() {
		return nil, disposedError("CreateDatabase")
	}
	if opts == nil {
		opts = &DatabaseOptions{}
	}

	dbid, err := s.api.CreateDatabase(s.sesid, name, jet.CreateDatabaseNone)
	if err != nil {
		return nil, engineError("CreateDatabase", err)
	}
	log.Infof("database %s created as %s", name, dbid)
	return newDatabase(s, name, dbid, opts), nil
}

func (s *Session) lock()   { s.mu.Lock() }
func (s *Session) unlock() { s.mu.Unlock() }
