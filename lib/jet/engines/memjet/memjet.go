package memjet

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet/internal"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum                   = "MEMJET\x00\x00" // File format identifier
	memjetVersion              = 1                // Snapshot version
	defaultMaxTransactionDepth = 7                // Nesting limit of the native engine
	sectorSize                 = 512              // Bytes per log sector
	sectorsPerGeneration       = 2048             // Sectors per log generation
	recordLogSize              = 64               // Log bytes charged per record operation
	schemaLogSize              = 128              // Log bytes charged per schema operation
)

var log = logger.GetLogger("memjet")

// --------------------------------------------------------------------------
// Public types
// --------------------------------------------------------------------------

// Engine is an in-process jet.API implementation with snapshot persistence.
type Engine interface {
	jet.API

	// Save writes all databases to w. Open sessions are not part of the snapshot.
	Save(w io.Writer) error

	// Load replaces all databases with the content of a snapshot.
	// Fails while sessions are open.
	Load(r io.Reader) error
}

// Options configures the engine during initialization
type Options struct {
	ComputerName        string // Stored in database signatures
	MaxTransactionDepth int    // Deepest allowed transaction nesting
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &Options{
		ComputerName:        host,
		MaxTransactionDepth: defaultMaxTransactionDepth,
	}
}

// --------------------------------------------------------------------------
// Core structures
// --------------------------------------------------------------------------

type instance struct {
	handle  jet.Instance
	name    string
	running bool
}

// undoFn reverts one logged operation. Undo functions run with the engine lock held.
type undoFn func()

type session struct {
	handle   jet.Sesid
	instance *instance
	levels   [][]undoFn         // One undo list per open transaction level
	touched  map[*database]bool // Databases written by the open transaction
	openDbs  map[jet.Dbid]int   // Open count per database
}

type database struct {
	name       string
	dbid       jet.Dbid
	signature  jet.Signature
	created    time.Time
	lastCommit jet.Lgpos
	tables     map[string]*internal.Table // Keyed by lower case table name
}

type memjetImpl struct {
	opts    Options
	handles atomic.Uint64 // Source of all handle values

	instances *xsync.MapOf[jet.Instance, *instance]
	sessions  *xsync.MapOf[jet.Sesid, *session]
	cursors   *xsync.MapOf[jet.Tableid, *cursor] // Open tables of all sessions

	// mu guards the catalog (databases, tables, records) and the log position
	mu        sync.Mutex
	databases map[string]*database
	nextDbid  int32
	lgpos     jet.Lgpos
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMemJet creates a new in-process engine with the specified options (optional)
func NewMemJet(opts *Options) Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.MaxTransactionDepth <= 0 {
		opts.MaxTransactionDepth = defaultMaxTransactionDepth
	}

	return &memjetImpl{
		opts:      *opts,
		instances: xsync.NewMapOf[jet.Instance, *instance](),
		sessions:  xsync.NewMapOf[jet.Sesid, *session](),
		cursors:   xsync.NewMapOf[jet.Tableid, *cursor](),
		databases: make(map[string]*database),
		lgpos:     jet.Lgpos{Generation: 1},
	}
}

func (e *memjetImpl) nextHandle() uintptr {
	return uintptr(e.handles.Add(1))
}

// --------------------------------------------------------------------------
// Instance and Session Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) CreateInstance(name string) (jet.Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "" {
		name = "instance"
	}

	inUse := false
	e.instances.Range(func(_ jet.Instance, inst *instance) bool {
		inUse = strings.EqualFold(inst.name, name)
		return !inUse
	})
	if inUse {
		return jet.Instance{}, jet.NewError("JetCreateInstance", jet.ErrInstanceNameInUse)
	}

	inst := &instance{handle: jet.Instance{Value: e.nextHandle()}, name: name}
	e.instances.Store(inst.handle, inst)
	return inst.handle, nil
}

func (e *memjetImpl) Init(handle jet.Instance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.Load(handle)
	if !ok {
		return jet.NewError("JetInit", jet.ErrInvalidInstance)
	}
	if inst.running {
		return jet.NewError("JetInit", jet.ErrAlreadyInitialized)
	}
	inst.running = true
	log.Infof("instance %s (%s) started", inst.name, handle)
	return nil
}

func (e *memjetImpl) Term(handle jet.Instance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.Load(handle)
	if !ok {
		return jet.NewError("JetTerm", jet.ErrInvalidInstance)
	}

	e.sessions.Range(func(sesid jet.Sesid, s *session) bool {
		if s.instance == inst {
			e.endSession(s)
		}
		return true
	})

	inst.running = false
	e.instances.Delete(handle)
	log.Infof("instance %s (%s) terminated", inst.name, handle)
	return nil
}

func (e *memjetImpl) BeginSession(handle jet.Instance) (jet.Sesid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances.Load(handle)
	if !ok {
		return jet.Sesid{}, jet.NewError("JetBeginSession", jet.ErrInvalidInstance)
	}
	if !inst.running {
		return jet.Sesid{}, jet.NewError("JetBeginSession", jet.ErrNotInitialized)
	}

	s := &session{
		handle:   jet.Sesid{Value: e.nextHandle()},
		instance: inst,
		touched:  make(map[*database]bool),
		openDbs:  make(map[jet.Dbid]int),
	}
	e.sessions.Store(s.handle, s)
	return s.handle, nil
}

func (e *memjetImpl) EndSession(sesid jet.Sesid) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session("JetEndSession", sesid)
	if err != nil {
		return err
	}
	e.endSession(s)
	return nil
}

// endSession rolls back, closes every table of s and drops the session.
func (e *memjetImpl) endSession(s *session) {
	for len(s.levels) > 0 {
		e.rollbackLevel(s)
	}
	e.closeCursors(func(c *cursor) bool { return c.sesid == s.handle })
	e.sessions.Delete(s.handle)
}

// session resolves a session handle.
func (e *memjetImpl) session(op string, sesid jet.Sesid) (*session, error) {
	s, ok := e.sessions.Load(sesid)
	if !ok {
		return nil, jet.NewError(op, jet.ErrInvalidSesid)
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Database Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) CreateDatabase(sesid jet.Sesid, name string, grbit jet.CreateDatabaseGrbit) (jet.Dbid, error) {
	const op = "JetCreateDatabase"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return jet.NilDbid, err
	}
	if name == "" {
		return jet.NilDbid, jet.NewError(op, jet.ErrInvalidParameter)
	}

	key := strings.ToLower(name)
	if existing, ok := e.databases[key]; ok {
		if grbit&jet.CreateDatabaseOverwriteExisting == 0 || e.databaseOpen(existing) {
			return jet.NilDbid, jet.NewError(op, jet.ErrDatabaseDuplicate)
		}
		log.Warningf("overwriting database %s", existing.name)
	}

	e.nextDbid++
	now := time.Now().UTC().Truncate(time.Second)
	db := &database{
		name:      name,
		dbid:      jet.Dbid{Value: e.nextDbid},
		signature: jet.NewSignature(uuid.New().ID(), now, e.opts.ComputerName),
		created:   now,
		tables:    make(map[string]*internal.Table),
	}
	e.databases[key] = db
	s.openDbs[db.dbid]++

	log.Debugf("database %s created as %s", name, db.dbid)
	return db.dbid, nil
}

func (e *memjetImpl) OpenDatabase(sesid jet.Sesid, name string, _ jet.OpenDatabaseGrbit) (jet.Dbid, error) {
	const op = "JetOpenDatabase"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return jet.NilDbid, err
	}
	db, ok := e.databases[strings.ToLower(name)]
	if !ok {
		return jet.NilDbid, jet.NewError(op, jet.ErrDatabaseNotFound)
	}
	s.openDbs[db.dbid]++
	return db.dbid, nil
}

func (e *memjetImpl) CloseDatabase(sesid jet.Sesid, dbid jet.Dbid, _ jet.CloseDatabaseGrbit) error {
	const op = "JetCloseDatabase"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return err
	}
	if s.openDbs[dbid] == 0 {
		return jet.NewError(op, jet.ErrInvalidDatabaseId)
	}

	s.openDbs[dbid]--
	if s.openDbs[dbid] == 0 {
		delete(s.openDbs, dbid)
		e.closeCursors(func(c *cursor) bool { return c.sesid == sesid && c.db.dbid == dbid })
	}
	return nil
}

func (e *memjetImpl) GetDatabaseInfo(sesid jet.Sesid, dbid jet.Dbid) (jet.DbInfo, error) {
	const op = "JetGetDatabaseInfo"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return jet.DbInfo{}, err
	}
	db, err := e.database(op, s, dbid)
	if err != nil {
		return jet.DbInfo{}, err
	}

	return jet.DbInfo{
		Name:            db.name,
		Dbid:            db.dbid,
		Signature:       db.signature,
		LogtimeCreate:   jet.NewLogTime(db.created),
		LgposLastCommit: db.lastCommit,
		TableCount:      len(db.tables),
	}, nil
}

// database resolves a dbid the session has opened.
func (e *memjetImpl) database(op string, s *session, dbid jet.Dbid) (*database, error) {
	if s.openDbs[dbid] > 0 {
		for _, db := range e.databases {
			if db.dbid == dbid {
				return db, nil
			}
		}
	}
	return nil, jet.NewError(op, jet.ErrInvalidDatabaseId)
}

// databaseOpen returns true if any session holds db open.
func (e *memjetImpl) databaseOpen(db *database) bool {
	open := false
	e.sessions.Range(func(_ jet.Sesid, s *session) bool {
		open = s.openDbs[db.dbid] > 0
		return !open
	})
	return open
}

// --------------------------------------------------------------------------
// Transaction Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) BeginTransaction(sesid jet.Sesid) error {
	const op = "JetBeginTransaction"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return err
	}
	if len(s.levels) >= e.opts.MaxTransactionDepth {
		return jet.NewError(op, jet.ErrTransTooDeep)
	}
	s.levels = append(s.levels, nil)
	return nil
}

func (e *memjetImpl) CommitTransaction(sesid jet.Sesid, _ jet.CommitTransactionGrbit) error {
	const op = "JetCommitTransaction"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return err
	}
	depth := len(s.levels)
	if depth == 0 {
		return jet.NewError(op, jet.ErrNotInTransaction)
	}

	undo := s.levels[depth-1]
	s.levels = s.levels[:depth-1]

	// a nested commit hands its undo list to the parent level
	if depth > 1 {
		s.levels[depth-2] = append(s.levels[depth-2], undo...)
		return nil
	}

	// commit to level 0 makes the changes durable
	e.advanceLog(len(undo) * recordLogSize)
	for db := range s.touched {
		db.lastCommit = e.lgpos
	}
	clear(s.touched)
	return nil
}

func (e *memjetImpl) Rollback(sesid jet.Sesid, grbit jet.RollbackTransactionGrbit) error {
	const op = "JetRollback"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return err
	}
	if len(s.levels) == 0 {
		return jet.NewError(op, jet.ErrNotInTransaction)
	}

	e.rollbackLevel(s)
	if grbit&jet.RollbackAll != 0 {
		for len(s.levels) > 0 {
			e.rollbackLevel(s)
		}
	}
	return nil
}

// rollbackLevel undoes the innermost transaction level of s in reverse order.
func (e *memjetImpl) rollbackLevel(s *session) {
	depth := len(s.levels)
	undo := s.levels[depth-1]
	s.levels = s.levels[:depth-1]
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	if len(s.levels) == 0 {
		clear(s.touched)
	}
}

// logged registers the undo function of a write. Outside of a transaction the
// write commits immediately.
func (e *memjetImpl) logged(s *session, db *database, size int, undo undoFn) {
	if depth := len(s.levels); depth > 0 {
		s.levels[depth-1] = append(s.levels[depth-1], undo)
		s.touched[db] = true
		return
	}
	e.advanceLog(size)
	db.lastCommit = e.lgpos
}

// advanceLog moves the log position n bytes forward.
func (e *memjetImpl) advanceLog(n int) {
	if n <= 0 {
		n = recordLogSize
	}
	offset := int(e.lgpos.ByteOffset) + n
	e.lgpos.Sector += int32(offset / sectorSize)
	e.lgpos.ByteOffset = int32(offset % sectorSize)
	if e.lgpos.Sector >= sectorsPerGeneration {
		e.lgpos.Generation += e.lgpos.Sector / sectorsPerGeneration
		e.lgpos.Sector %= sectorsPerGeneration
	}
}
