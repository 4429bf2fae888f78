package jet

// --------------------------------------------------------------------------
// Native create-structures
// --------------------------------------------------------------------------

// ColumnDef describes a column passed to AddColumn.
type ColumnDef struct {
	Coltyp Coltyp
	CP     CP
	CbMax  int // Maximum length in bytes, 0 = type default
	Grbit  ColumndefGrbit
}

// UnicodeIndex holds the collation of the text columns of an index.
type UnicodeIndex struct {
	Lcid     uint32 // Windows locale identifier
	MapFlags uint32 // LCMapString normalisation flags
}

// ConditionalColumn makes index membership depend on the nullness of a column.
type ConditionalColumn struct {
	ColumnName string
	Grbit      ConditionalColumnGrbit
}

// IndexCreate describes an index passed to CreateIndex2.
//
// Key is the double-null terminated key description, e.g. "+name\x00-age\x00\x00".
// Every key column is prefixed with '+' (ascending) or '-' (descending).
type IndexCreate struct {
	IndexName          string
	Key                string
	CbKey              int
	Grbit              CreateIndexGrbit
	Density            int
	Unicode            *UnicodeIndex
	ConditionalColumns []ConditionalColumn
	CbKeyMost          int // Maximum key length, honoured with IndexKeyMost
}

// --------------------------------------------------------------------------
// Metadata returned by the engine
// --------------------------------------------------------------------------

// ColumnInfo describes an existing column.
type ColumnInfo struct {
	Name     string         `json:"name"`
	Columnid Columnid       `json:"columnid"`
	Coltyp   Coltyp         `json:"coltyp"`
	CP       CP             `json:"cp"`
	CbMax    int            `json:"cb_max"`
	Grbit    ColumndefGrbit `json:"grbit"`
	Default  []byte         `json:"default,omitempty"`
}

// IndexSegment is one key column of an index.
type IndexSegment struct {
	ColumnName string `json:"column_name"`
	Ascending  bool   `json:"ascending"`
}

// IndexInfo describes an existing index.
type IndexInfo struct {
	Name               string              `json:"name"`
	Segments           []IndexSegment      `json:"segments"`
	Grbit              CreateIndexGrbit    `json:"grbit"`
	Density            int                 `json:"density"`
	Lcid               uint32              `json:"lcid"`
	MapFlags           uint32              `json:"map_flags"`
	ConditionalColumns []ConditionalColumn `json:"conditional_columns,omitempty"`
	CbKeyMost          int                 `json:"cb_key_most"`
}

// DbInfo describes an open database.
type DbInfo struct {
	Name            string    `json:"name"`
	Dbid            Dbid      `json:"dbid"`
	Signature       Signature `json:"signature"`
	LogtimeCreate   LogTime   `json:"logtime_create"`
	LgposLastCommit Lgpos     `json:"lgpos_last_commit"`
	TableCount      int       `json:"table_count"`
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// API is the call surface of a native storage engine.
// Every failing call returns a *Error carrying the native status code.
//
// A session is single threaded: implementations may assume that at most one
// call per Sesid is in flight. Calls on different sessions may run concurrently.
type API interface {

	// --------------------------------------------------------------------------
	// Instance and Session Operations
	// --------------------------------------------------------------------------

	// CreateInstance allocates a new engine instance with a unique name.
	CreateInstance(name string) (instance Instance, err error)

	// Init starts the instance. Sessions can only be opened on running instances.
	Init(instance Instance) (err error)

	// Term stops the instance, ending all of its sessions.
	Term(instance Instance) (err error)

	// BeginSession opens a new session on a running instance.
	BeginSession(instance Instance) (sesid Sesid, err error)

	// EndSession rolls back all open transactions of the session, closes its tables
	// and databases and invalidates the session handle.
	EndSession(sesid Sesid) (err error)

	// --------------------------------------------------------------------------
	// Database Operations
	// --------------------------------------------------------------------------

	// CreateDatabase creates a new database and opens it for the session.
	CreateDatabase(sesid Sesid, name string, grbit CreateDatabaseGrbit) (dbid Dbid, err error)

	// OpenDatabase opens an existing database for the session.
	OpenDatabase(sesid Sesid, name string, grbit OpenDatabaseGrbit) (dbid Dbid, err error)

	// CloseDatabase closes a database previously opened by the session.
	CloseDatabase(sesid Sesid, dbid Dbid, grbit CloseDatabaseGrbit) (err error)

	// GetDatabaseInfo returns metadata about an open database.
	GetDatabaseInfo(sesid Sesid, dbid Dbid) (info DbInfo, err error)

	// --------------------------------------------------------------------------
	// Transaction Operations
	// --------------------------------------------------------------------------

	// BeginTransaction starts a (possibly nested) transaction.
	BeginTransaction(sesid Sesid) (err error)

	// CommitTransaction commits the innermost transaction.
	CommitTransaction(sesid Sesid, grbit CommitTransactionGrbit) (err error)

	// Rollback undoes the innermost transaction (or all of them with RollbackAll).
	Rollback(sesid Sesid, grbit RollbackTransactionGrbit) (err error)

	// --------------------------------------------------------------------------
	// Schema Operations
	// --------------------------------------------------------------------------

	// CreateTable creates an empty table. The returned table is opened exclusively.
	CreateTable(sesid Sesid, dbid Dbid, name string, pages, density int) (tableid Tableid, err error)

	// DeleteTable deletes a table. Fails with ErrTableInUse while the table is open.
	DeleteTable(sesid Sesid, dbid Dbid, name string) (err error)

	// GetTableNames returns the names of all tables of a database.
	GetTableNames(sesid Sesid, dbid Dbid) (names []string, err error)

	// AddColumn adds a column to an open table.
	AddColumn(sesid Sesid, tableid Tableid, name string, def ColumnDef, defaultValue []byte) (columnid Columnid, err error)

	// GetTableColumns returns the columns of an open table.
	GetTableColumns(sesid Sesid, tableid Tableid) (columns []ColumnInfo, err error)

	// CreateIndex2 creates indexes on an open table.
	CreateIndex2(sesid Sesid, tableid Tableid, indexes []IndexCreate) (err error)

	// GetTableIndexes returns the indexes of an open table.
	GetTableIndexes(sesid Sesid, tableid Tableid) (indexes []IndexInfo, err error)

	// --------------------------------------------------------------------------
	// Cursor Operations
	// --------------------------------------------------------------------------

	// OpenTable opens a table for access.
	OpenTable(sesid Sesid, dbid Dbid, name string, grbit OpenTableGrbit) (tableid Tableid, err error)

	// CloseTable closes an open table.
	CloseTable(sesid Sesid, tableid Tableid) (err error)

	// Move positions the cursor. Moving past either end fails with ErrNoCurrentRecord.
	Move(sesid Sesid, tableid Tableid, offset Move) (err error)

	// PrepareUpdate starts (or cancels) an insert or a replace of the current record.
	PrepareUpdate(sesid Sesid, tableid Tableid, prep Prep) (err error)

	// SetColumn sets a column of the record being prepared. A nil value sets the column to NULL.
	SetColumn(sesid Sesid, tableid Tableid, columnid Columnid, value []byte) (err error)

	// Update writes the prepared record. After an insert the cursor is positioned on the new record.
	Update(sesid Sesid, tableid Tableid) (err error)

	// RetrieveColumn reads a column of the current record. NULL columns return nil.
	RetrieveColumn(sesid Sesid, tableid Tableid, columnid Columnid) (value []byte, err error)

	// Delete deletes the current record.
	Delete(sesid Sesid, tableid Tableid) (err error)
}
