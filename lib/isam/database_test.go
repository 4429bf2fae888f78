package isam

import (
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet"
)

// --------------------------------------------------------------------------
// Test helpers
// --------------------------------------------------------------------------

// faultAPI wraps an engine, counts selected calls and fails them on request.
type faultAPI struct {
	jet.API

	failAddColumn   bool
	failCreateIndex bool
	failCommit      bool

	beginTransactions int
	createTables      int
	addColumns        int
	createIndexes     int
	closeDatabases    int
}

func (f *faultAPI) BeginTransaction(sesid jet.Sesid) error {
	f.beginTransactions++
	return f.API.BeginTransaction(sesid)
}

func (f *faultAPI) CommitTransaction(sesid jet.Sesid, grbit jet.CommitTransactionGrbit) error {
	if f.failCommit {
		return jet.NewError("JetCommitTransaction", jet.ErrInvalidParameter)
	}
	return f.API.CommitTransaction(sesid, grbit)
}

func (f *faultAPI) CreateTable(sesid jet.Sesid, dbid jet.Dbid, name string, pages, density int) (jet.Tableid, error) {
	f.createTables++
	return f.API.CreateTable(sesid, dbid, name, pages, density)
}

func (f *faultAPI) AddColumn(sesid jet.Sesid, tableid jet.Tableid, name string, def jet.ColumnDef, defaultValue []byte) (jet.Columnid, error) {
	f.addColumns++
	if f.failAddColumn {
		return jet.Columnid{}, jet.NewError("JetAddColumn", jet.ErrInvalidParameter)
	}
	return f.API.AddColumn(sesid, tableid, name, def, defaultValue)
}

func (f *faultAPI) CreateIndex2(sesid jet.Sesid, tableid jet.Tableid, indexes []jet.IndexCreate) error {
	f.createIndexes++
	if f.failCreateIndex {
		return jet.NewError("JetCreateIndex2", jet.ErrIndexDuplicate)
	}
	return f.API.CreateIndex2(sesid, tableid, indexes)
}

func (f *faultAPI) CloseDatabase(sesid jet.Sesid, dbid jet.Dbid, grbit jet.CloseDatabaseGrbit) error {
	f.closeDatabases++
	return f.API.CloseDatabase(sesid, dbid, grbit)
}

type testEnv struct {
	api     *faultAPI
	session *Session
	db      *Database
	version *SchemaVersion
}

// newTestEnv starts a memjet instance with one session and a fresh database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &faultAPI{API: memjet.NewMemJet(nil)}
	instance, err := NewInstance(api, t.Name())
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	session, err := instance.BeginSession()
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}

	version := &SchemaVersion{}
	db, err := session.CreateDatabase("test.edb", &DatabaseOptions{SchemaVersion: version})
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Dispose()
		_ = session.Dispose()
		_ = instance.Dispose()
	})
	return &testEnv{api: api, session: session, db: db, version: version}
}

func peopleTable() TableDefinition {
	return TableDefinition{
		Name: "people",
		Columns: []ColumnDefinition{
			{Name: "id", Type: ColumnTypeInt32, Flags: ColumnNonNull},
			{Name: "name", Type: ColumnTypeText, MaxLength: 100},
			{Name: "age", Type: ColumnTypeInt16},
		},
		Indexes: []IndexDefinition{
			{Name: "primary", KeyColumns: []KeyColumn{{Name: "id"}}, Flags: IndexPrimary, Density: 90},
		},
	}
}

func mustCreate(t *testing.T, db *Database, def TableDefinition) {
	t.Helper()
	if err := db.CreateTable(def); err != nil {
		t.Fatalf("CreateTable(%s) failed: %v", def.Name, err)
	}
}

func expectExists(t *testing.T, db *Database, name string, expected bool) {
	t.Helper()
	exists, err := db.Exists(name)
	if err != nil {
		t.Fatalf("Exists(%s) failed: %v", name, err)
	}
	if exists != expected {
		t.Errorf("Expected Exists(%s) to be %v, got %v", name, expected, exists)
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestCreateTable(t *testing.T) {
	e := newTestEnv(t)

	mustCreate(t, e.db, peopleTable())
	expectExists(t, e.db, "people", true)
	expectExists(t, e.db, "PEOPLE", true)
	expectExists(t, e.db, "missing", false)

	if v := e.version.Load(); v != 1 {
		t.Errorf("Expected schema version 1, got %d", v)
	}
	if v := e.db.SchemaVersion(); v != 1 {
		t.Errorf("Expected database schema version 1, got %d", v)
	}
	if e.api.createIndexes != 1 {
		t.Errorf("Expected one CreateIndex2 call per index, got %d", e.api.createIndexes)
	}

	tables, err := e.db.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	info, err := tables.Get("people")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(info.Columns) != 3 {
		t.Errorf("Expected 3 columns, got %d", len(info.Columns))
	}
	if len(info.Indexes) != 1 {
		t.Fatalf("Expected 1 index, got %d", len(info.Indexes))
	}
	index := info.Indexes[0]
	if !index.Grbit.Has(jet.IndexPrimary | jet.IndexDisallowTruncation | jet.IndexUnicode) {
		t.Errorf("Expected primary, disallow truncation and unicode, got %s", index.Grbit)
	}
	if index.Lcid != lcidInvariant {
		t.Errorf("Expected lcid %d, got %d", lcidInvariant, index.Lcid)
	}
	for _, column := range info.Columns {
		if column.Name == "name" && (column.Coltyp != jet.ColtypText || column.CP != jet.CPUnicode || column.CbMax != 100) {
			t.Errorf("Expected a unicode Text(100) column, got %s cp %d max %d", column.Coltyp, column.CP, column.CbMax)
		}
	}

	if n, err := tables.Len(); err != nil || n != 1 {
		t.Errorf("Expected 1 table, got %d (%v)", n, err)
	}

	// the table is not left open by CreateTable
	cursor, err := e.db.OpenCursor("people", true)
	if err != nil {
		t.Fatalf("Expected the table to be closed after CreateTable, got %v", err)
	}
	_ = cursor.Dispose()

	t.Run("Duplicate", func(t *testing.T) {
		err := e.db.CreateTable(peopleTable())
		if !errors.Is(err, ErrEngine) || !errors.Is(err, jet.ErrTableDuplicate) {
			t.Errorf("Expected %s, got %v", jet.ErrTableDuplicate, err)
		}
		if v := e.version.Load(); v != 1 {
			t.Errorf("Expected schema version 1, got %d", v)
		}
	})
}

func TestCreateTableFailure(t *testing.T) {
	cases := []struct {
		name   string
		inject func(*faultAPI)
	}{
		{"AddColumn", func(f *faultAPI) { f.failAddColumn = true }},
		{"CreateIndex2", func(f *faultAPI) { f.failCreateIndex = true }},
		{"Commit", func(f *faultAPI) { f.failCommit = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			tc.inject(e.api)

			err := e.db.CreateTable(peopleTable())
			if !errors.Is(err, ErrEngine) {
				t.Fatalf("Expected an engine error, got %v", err)
			}

			*e.api = faultAPI{API: e.api.API}
			expectExists(t, e.db, "people", false)
			if v := e.version.Load(); v != 0 {
				t.Errorf("Expected schema version 0, got %d", v)
			}
			if n := len(e.session.transactions); n != 0 {
				t.Errorf("Expected no open transactions, got %d", n)
			}

			// nothing of the failed attempt is left behind
			mustCreate(t, e.db, peopleTable())
			if v := e.version.Load(); v != 1 {
				t.Errorf("Expected schema version 1, got %d", v)
			}
		})
	}
}

func TestCreateTableInvalidDefinition(t *testing.T) {
	cases := []struct {
		name string
		def  TableDefinition
	}{
		{"AllowAndDisallowTruncation", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeInt32}},
			Indexes: []IndexDefinition{{
				Name:       "idx",
				KeyColumns: []KeyColumn{{Name: "id"}},
				Flags:      IndexAllowTruncation | IndexDisallowTruncation,
			}},
		}},
		{"FixedAndVariable", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeInt32, Flags: ColumnFixed | ColumnVariable}},
		}},
		{"AutoIncrementText", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeText, Flags: ColumnAutoIncrement}},
		}},
		{"UnknownKeyColumn", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeInt32}},
			Indexes: []IndexDefinition{{Name: "idx", KeyColumns: []KeyColumn{{Name: "missing"}}}},
		}},
		{"OrdinalWithIgnoreCase", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeInt32}},
			Indexes: []IndexDefinition{{
				Name:           "idx",
				KeyColumns:     []KeyColumn{{Name: "id"}},
				CompareOptions: CompareOrdinal | CompareIgnoreCase,
			}},
		}},
		{"DefaultTypeMismatch", TableDefinition{
			Name:    "t",
			Columns: []ColumnDefinition{{Name: "id", Type: ColumnTypeInt16, DefaultValue: "seven"}},
		}},
		{"EmptyName", TableDefinition{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)

			err := e.db.CreateTable(tc.def)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Expected an invalid definition error, got %v", err)
			}
			if e.api.beginTransactions != 0 || e.api.createTables != 0 || e.api.addColumns != 0 {
				t.Errorf("Expected no engine calls, got %d transactions, %d tables, %d columns",
					e.api.beginTransactions, e.api.createTables, e.api.addColumns)
			}
			if v := e.version.Load(); v != 0 {
				t.Errorf("Expected schema version 0, got %d", v)
			}
		})
	}
}

func TestDropTable(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	t.Run("OpenCursor", func(t *testing.T) {
		cursor, err := e.db.OpenCursorShared("people")
		if err != nil {
			t.Fatalf("OpenCursor failed: %v", err)
		}

		err = e.db.DropTable("people")
		if !errors.Is(err, ErrResourceBusy) || !errors.Is(err, jet.ErrTableInUse) {
			t.Errorf("Expected a busy error, got %v", err)
		}
		if v := e.version.Load(); v != 1 {
			t.Errorf("Expected schema version 1, got %d", v)
		}
		expectExists(t, e.db, "people", true)

		if err := cursor.Dispose(); err != nil {
			t.Fatalf("Dispose failed: %v", err)
		}
	})

	t.Run("Drop", func(t *testing.T) {
		if err := e.db.DropTable("people"); err != nil {
			t.Fatalf("DropTable failed: %v", err)
		}
		expectExists(t, e.db, "people", false)
		if v := e.version.Load(); v != 2 {
			t.Errorf("Expected schema version 2, got %d", v)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		err := e.db.DropTable("people")
		if !errors.Is(err, ErrEngine) || !errors.Is(err, jet.ErrObjectNotFound) {
			t.Errorf("Expected %s, got %v", jet.ErrObjectNotFound, err)
		}
		if v := e.version.Load(); v != 2 {
			t.Errorf("Expected schema version 2, got %d", v)
		}
	})
}

func TestExclusiveCursor(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	exclusive, err := e.db.OpenCursor("people", true)
	if err != nil {
		t.Fatalf("OpenCursor failed: %v", err)
	}
	if !exclusive.Exclusive() {
		t.Errorf("Expected an exclusive cursor")
	}

	if _, err := e.db.OpenCursorShared("people"); !errors.Is(err, ErrResourceBusy) {
		t.Errorf("Expected a busy error while the table is held exclusively, got %v", err)
	}
	if err := exclusive.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}

	shared, err := e.db.OpenCursorShared("people")
	if err != nil {
		t.Fatalf("OpenCursor failed: %v", err)
	}
	defer shared.Dispose()

	if _, err := e.db.OpenCursor("people", true); !errors.Is(err, ErrResourceBusy) {
		t.Errorf("Expected a busy error while a shared cursor is open, got %v", err)
	}
}

func TestDatabaseDispose(t *testing.T) {
	t.Run("Twice", func(t *testing.T) {
		e := newTestEnv(t)

		if err := e.db.Dispose(); err != nil {
			t.Fatalf("Dispose failed: %v", err)
		}
		if err := e.db.Dispose(); err != nil {
			t.Errorf("Expected the second Dispose to succeed, got %v", err)
		}
		if e.api.closeDatabases != 1 {
			t.Errorf("Expected 1 CloseDatabase call, got %d", e.api.closeDatabases)
		}
		if !e.db.Disposed() {
			t.Errorf("Expected the database to be disposed")
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		e := newTestEnv(t)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := e.db.Dispose(); err != nil {
					t.Errorf("Dispose failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if e.api.closeDatabases != 1 {
			t.Errorf("Expected 1 CloseDatabase call, got %d", e.api.closeDatabases)
		}
	})

	t.Run("DuringCreateTable", func(t *testing.T) {
		e := newTestEnv(t)

		created := make(chan error, 1)
		go func() { created <- e.db.CreateTable(peopleTable()) }()
		if err := e.db.Dispose(); err != nil {
			t.Fatalf("Dispose failed: %v", err)
		}

		if err := <-created; err != nil && !errors.Is(err, ErrDisposed) {
			t.Errorf("Expected CreateTable to succeed or report %v, got %v", ErrDisposed, err)
		}
		if e.api.closeDatabases != 1 {
			t.Errorf("Expected 1 CloseDatabase call, got %d", e.api.closeDatabases)
		}
	})

	t.Run("FinalizerThenDispose", func(t *testing.T) {
		e := newTestEnv(t)

		e.db.finalize()
		if err := e.db.Dispose(); err != nil {
			t.Errorf("Expected Dispose after finalization to succeed, got %v", err)
		}
		if e.api.closeDatabases != 1 {
			t.Errorf("Expected 1 CloseDatabase call, got %d", e.api.closeDatabases)
		}
	})

	t.Run("Operations", func(t *testing.T) {
		e := newTestEnv(t)
		mustCreate(t, e.db, peopleTable())
		_ = e.db.Dispose()

		if err := e.db.CreateTable(peopleTable()); !errors.Is(err, ErrDisposed) {
			t.Errorf("Expected %v, got %v", ErrDisposed, err)
		}
		if _, err := e.db.OpenCursorShared("people"); !errors.Is(err, ErrDisposed) {
			t.Errorf("Expected %v, got %v", ErrDisposed, err)
		}

		// the database can be opened again
		db, err := e.session.OpenDatabase("test.edb", nil)
		if err != nil {
			t.Fatalf("OpenDatabase failed: %v", err)
		}
		defer db.Dispose()
		expectExists(t, db, "people", true)
	})
}

func TestSessionDispose(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	tables, err := e.db.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}

	if err := e.session.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if err := e.session.Dispose(); err != nil {
		t.Errorf("Expected the second Dispose to succeed, got %v", err)
	}
	if !e.db.Disposed() {
		t.Errorf("Expected the database to report disposed after its session")
	}

	checks := map[string]func() error{
		"CreateTable": func() error { return e.db.CreateTable(peopleTable()) },
		"DropTable":   func() error { return e.db.DropTable("people") },
		"Exists":      func() error { _, err := e.db.Exists("people"); return err },
		"OpenCursor":  func() error { _, err := e.db.OpenCursor("people", false); return err },
		"Tables":      func() error { _, err := e.db.Tables(); return err },
		"Info":        func() error { _, err := e.db.Info(); return err },
		"Names":       func() error { _, err := tables.Names(); return err },
		"Get":         func() error { _, err := tables.Get("people"); return err },
		"Begin":       func() error { _, err := e.session.BeginTransaction(); return err },
		"Open":        func() error { _, err := e.session.OpenDatabase("test.edb", nil); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, ErrDisposed) {
				t.Errorf("Expected %v, got %v", ErrDisposed, err)
			}
		})
	}

	// the engine closed the database with the session
	if err := e.db.Dispose(); err != nil {
		t.Errorf("Expected Dispose to succeed, got %v", err)
	}
	if e.api.closeDatabases != 0 {
		t.Errorf("Expected no CloseDatabase call, got %d", e.api.closeDatabases)
	}
}

func TestDatabaseInfo(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	info, err := e.db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Dbid != e.db.Dbid() {
		t.Errorf("Expected dbid %s, got %s", e.db.Dbid(), info.Dbid)
	}
	if info.TableCount != 1 {
		t.Errorf("Expected 1 table, got %d", info.TableCount)
	}
	if info.LgposLastCommit.IsNull() {
		t.Errorf("Expected a log position after a committed schema change")
	}
	if e.db.Name() != "test.edb" {
		t.Errorf("Expected name test.edb, got %s", e.db.Name())
	}
}

func TestDefaultSchemaVersion(t *testing.T) {
	api := memjet.NewMemJet(nil)
	instance, err := NewInstance(api, "default-version")
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	defer instance.Dispose()
	session, err := instance.BeginSession()
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	defer session.Dispose()
	db, err := session.CreateDatabase("default.edb", nil)
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	defer db.Dispose()

	before := DefaultSchemaVersion.Load()
	mustCreate(t, db, peopleTable())
	if v := DefaultSchemaVersion.Load(); v != before+1 {
		t.Errorf("Expected schema version %d, got %d", before+1, v)
	}
}
