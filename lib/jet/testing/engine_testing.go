package testing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
)

// EngineFactory is a function that creates a new, empty engine
type EngineFactory func() jet.API

// RunEngineTests runs the conformance suite for a jet.API implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("InstanceLifecycle", func(t *testing.T) {
			testInstanceLifecycle(t, factory())
		})

		t.Run("Databases", func(t *testing.T) {
			testDatabases(t, factory())
		})

		t.Run("Tables", func(t *testing.T) {
			testTables(t, factory())
		})

		t.Run("ExclusiveTables", func(t *testing.T) {
			testExclusiveTables(t, factory())
		})

		t.Run("Columns", func(t *testing.T) {
			testColumns(t, factory())
		})

		t.Run("Indexes", func(t *testing.T) {
			testIndexes(t, factory())
		})

		t.Run("Records", func(t *testing.T) {
			testRecords(t, factory())
		})

		t.Run("Constraints", func(t *testing.T) {
			testConstraints(t, factory())
		})

		t.Run("KeyTruncation", func(t *testing.T) {
			testKeyTruncation(t, factory())
		})

		t.Run("Transactions", func(t *testing.T) {
			testTransactions(t, factory())
		})

		t.Run("SchemaRollback", func(t *testing.T) {
			testSchemaRollback(t, factory())
		})

		t.Run("DefaultsAndAutoincrement", func(t *testing.T) {
			testDefaultsAndAutoincrement(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// env is a running instance with one session and one open database.
type env struct {
	api      jet.API
	instance jet.Instance
	sesid    jet.Sesid
	dbid     jet.Dbid
}

func newEnv(t testing.TB, api jet.API) *env {
	t.Helper()

	instance, err := api.CreateInstance("test")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if err := api.Init(instance); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sesid, err := api.BeginSession(instance)
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	dbid, err := api.CreateDatabase(sesid, "test.edb", jet.CreateDatabaseNone)
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	return &env{api: api, instance: instance, sesid: sesid, dbid: dbid}
}

func (e *env) close() {
	_ = e.api.Term(e.instance)
}

// secondSession opens another session with the test database opened.
func (e *env) secondSession(t testing.TB) (jet.Sesid, jet.Dbid) {
	t.Helper()
	sesid, err := e.api.BeginSession(e.instance)
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	dbid, err := e.api.OpenDatabase(sesid, "test.edb", jet.OpenDatabaseNone)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	return sesid, dbid
}

// column is a column to add with createTable.
type column struct {
	name string
	def  jet.ColumnDef
	dflt []byte
}

// createTable creates a table with the given columns and indexes and returns
// the (closed) table's column ids by name.
func (e *env) createTable(t testing.TB, name string, columns []column, indexes []jet.IndexCreate) map[string]jet.Columnid {
	t.Helper()

	tableid, err := e.api.CreateTable(e.sesid, e.dbid, name, 16, 90)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	ids := make(map[string]jet.Columnid)
	for _, c := range columns {
		id, err := e.api.AddColumn(e.sesid, tableid, c.name, c.def, c.dflt)
		if err != nil {
			t.Fatalf("AddColumn(%s) failed: %v", c.name, err)
		}
		ids[c.name] = id
	}
	if len(indexes) > 0 {
		if err := e.api.CreateIndex2(e.sesid, tableid, indexes); err != nil {
			t.Fatalf("CreateIndex2 failed: %v", err)
		}
	}
	if err := e.api.CloseTable(e.sesid, tableid); err != nil {
		t.Fatalf("CloseTable failed: %v", err)
	}
	return ids
}

func (e *env) openTable(t testing.TB, name string) jet.Tableid {
	t.Helper()
	tableid, err := e.api.OpenTable(e.sesid, e.dbid, name, jet.OpenTableUpdatable)
	if err != nil {
		t.Fatalf("OpenTable failed: %v", err)
	}
	return tableid
}

// insert writes one record, values are keyed by column id.
func (e *env) insert(tableid jet.Tableid, values map[jet.Columnid][]byte) error {
	if err := e.api.PrepareUpdate(e.sesid, tableid, jet.PrepInsert); err != nil {
		return err
	}
	for id, v := range values {
		if err := e.api.SetColumn(e.sesid, tableid, id, v); err != nil {
			_ = e.api.PrepareUpdate(e.sesid, tableid, jet.PrepCancel)
			return err
		}
	}
	if err := e.api.Update(e.sesid, tableid); err != nil {
		_ = e.api.PrepareUpdate(e.sesid, tableid, jet.PrepCancel)
		return err
	}
	return nil
}

// count returns the number of records of an open table.
func (e *env) count(t testing.TB, tableid jet.Tableid) int {
	t.Helper()
	n := 0
	err := e.api.Move(e.sesid, tableid, jet.MoveFirst)
	for err == nil {
		n++
		err = e.api.Move(e.sesid, tableid, jet.MoveNext)
	}
	if !errors.Is(err, jet.ErrNoCurrentRecord) {
		t.Fatalf("Move failed: %v", err)
	}
	return n
}

func expectCode(t testing.TB, err error, code jet.Err) {
	t.Helper()
	if !errors.Is(err, code) {
		t.Errorf("Expected %s, got %v", code, err)
	}
}

func expectNoErr(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func int32Bytes(v int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func key(parts ...string) string {
	k := ""
	for _, p := range parts {
		k += p + "\x00"
	}
	return k + "\x00"
}

func index(name, key string, grbit jet.CreateIndexGrbit) jet.IndexCreate {
	return jet.IndexCreate{IndexName: name, Key: key, CbKey: len(key), Grbit: grbit, Density: 90}
}

var (
	longCol = jet.ColumnDef{Coltyp: jet.ColtypLong}
	textCol = jet.ColumnDef{Coltyp: jet.ColtypLongText, CP: jet.CPUnicode}
	binCol  = jet.ColumnDef{Coltyp: jet.ColtypBinary, CbMax: 255}
)

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInstanceLifecycle(t *testing.T, api jet.API) {
	instance, err := api.CreateInstance("lifecycle")
	expectNoErr(t, err)
	if instance.IsInvalid() {
		t.Errorf("Expected a valid instance handle, got %s", instance)
	}

	_, err = api.CreateInstance("lifecycle")
	expectCode(t, err, jet.ErrInstanceNameInUse)

	_, err = api.BeginSession(instance)
	expectCode(t, err, jet.ErrNotInitialized)

	expectNoErr(t, api.Init(instance))
	expectCode(t, api.Init(instance), jet.ErrAlreadyInitialized)

	sesid, err := api.BeginSession(instance)
	expectNoErr(t, err)
	expectNoErr(t, api.BeginTransaction(sesid))

	expectNoErr(t, api.Term(instance))

	// terminating the instance ends its sessions
	expectCode(t, api.EndSession(sesid), jet.ErrInvalidSesid)
	_, err = api.BeginSession(instance)
	expectCode(t, err, jet.ErrInvalidInstance)

	// the name is free again
	_, err = api.CreateInstance("lifecycle")
	expectNoErr(t, err)
}

func testDatabases(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	_, err := api.CreateDatabase(e.sesid, "test.edb", jet.CreateDatabaseNone)
	expectCode(t, err, jet.ErrDatabaseDuplicate)

	_, err = api.OpenDatabase(e.sesid, "missing.edb", jet.OpenDatabaseNone)
	expectCode(t, err, jet.ErrDatabaseNotFound)

	info, err := api.GetDatabaseInfo(e.sesid, e.dbid)
	expectNoErr(t, err)
	if info.Dbid != e.dbid {
		t.Errorf("Expected dbid %s, got %s", e.dbid, info.Dbid)
	}
	if info.TableCount != 0 {
		t.Errorf("Expected 0 tables, got %d", info.TableCount)
	}
	if info.LogtimeCreate.IsZero() || info.Signature.CreationTime.IsZero() {
		t.Errorf("Expected creation timestamps, got %s / %s", info.LogtimeCreate, info.Signature)
	}

	// a second session sees the same database under the same dbid
	sesid2, dbid2 := e.secondSession(t)
	if dbid2 != e.dbid {
		t.Errorf("Expected dbid %s, got %s", e.dbid, dbid2)
	}
	expectNoErr(t, api.CloseDatabase(sesid2, dbid2, jet.CloseDatabaseNone))
	expectCode(t, api.CloseDatabase(sesid2, dbid2, jet.CloseDatabaseNone), jet.ErrInvalidDatabaseId)
	_, err = api.GetDatabaseInfo(sesid2, dbid2)
	expectCode(t, err, jet.ErrInvalidDatabaseId)

	_, err = api.GetDatabaseInfo(jet.NilSesid, e.dbid)
	expectCode(t, err, jet.ErrInvalidSesid)
}

func testTables(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	e.createTable(t, "beta", nil, nil)
	e.createTable(t, "Alpha", nil, nil)

	names, err := api.GetTableNames(e.sesid, e.dbid)
	expectNoErr(t, err)
	if fmt.Sprint(names) != "[Alpha beta]" {
		t.Errorf("Expected [Alpha beta], got %v", names)
	}

	_, err = api.CreateTable(e.sesid, e.dbid, "ALPHA", 16, 90)
	expectCode(t, err, jet.ErrTableDuplicate)

	_, err = api.CreateTable(e.sesid, e.dbid, "", 16, 90)
	expectCode(t, err, jet.ErrInvalidParameter)

	expectCode(t, api.DeleteTable(e.sesid, e.dbid, "gamma"), jet.ErrObjectNotFound)
	_, err = api.OpenTable(e.sesid, e.dbid, "gamma", jet.OpenTableNone)
	expectCode(t, err, jet.ErrObjectNotFound)

	// open tables can not be deleted
	tableid := e.openTable(t, "alpha")
	expectCode(t, api.DeleteTable(e.sesid, e.dbid, "alpha"), jet.ErrTableInUse)
	expectNoErr(t, api.CloseTable(e.sesid, tableid))
	expectNoErr(t, api.DeleteTable(e.sesid, e.dbid, "alpha"))

	expectCode(t, api.CloseTable(e.sesid, tableid), jet.ErrInvalidTableId)

	names, err = api.GetTableNames(e.sesid, e.dbid)
	expectNoErr(t, err)
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("Expected [beta], got %v", names)
	}
}

func testExclusiveTables(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	sesid2, dbid2 := e.secondSession(t)

	tableid, err := api.CreateTable(e.sesid, e.dbid, "locked", 16, 90)
	expectNoErr(t, err)

	// a freshly created table is held exclusively
	_, err = api.OpenTable(sesid2, dbid2, "locked", jet.OpenTableNone)
	expectCode(t, err, jet.ErrTableLocked)

	expectNoErr(t, api.CloseTable(e.sesid, tableid))

	shared, err := api.OpenTable(sesid2, dbid2, "locked", jet.OpenTableNone)
	expectNoErr(t, err)

	_, err = api.OpenTable(e.sesid, e.dbid, "locked", jet.OpenTableDenyRead)
	expectCode(t, err, jet.ErrTableInUse)

	// handles of one session are invalid in another
	_, err = api.GetTableColumns(e.sesid, shared)
	expectCode(t, err, jet.ErrInvalidTableId)

	expectNoErr(t, api.CloseTable(sesid2, shared))
}

func testColumns(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	tableid, err := api.CreateTable(e.sesid, e.dbid, "columns", 16, 90)
	expectNoErr(t, err)

	fixed, err := api.AddColumn(e.sesid, tableid, "fixed", longCol, nil)
	expectNoErr(t, err)
	variable, err := api.AddColumn(e.sesid, tableid, "variable", binCol, nil)
	expectNoErr(t, err)
	tagged, err := api.AddColumn(e.sesid, tableid, "tagged", textCol, nil)
	expectNoErr(t, err)

	if !(fixed.Value < variable.Value && variable.Value < tagged.Value) {
		t.Errorf("Expected fixed < variable < tagged column ids, got %s %s %s", fixed, variable, tagged)
	}

	_, err = api.AddColumn(e.sesid, tableid, "FIXED", longCol, nil)
	expectCode(t, err, jet.ErrColumnDuplicate)

	_, err = api.AddColumn(e.sesid, tableid, "bad", jet.ColumnDef{Coltyp: jet.Coltyp(13)}, nil)
	expectCode(t, err, jet.ErrInvalidParameter)

	_, err = api.AddColumn(e.sesid, tableid, "badDefault", longCol, []byte{1})
	expectCode(t, err, jet.ErrInvalidParameter)

	_, err = api.AddColumn(e.sesid, tableid, "badAutoinc",
		jet.ColumnDef{Coltyp: jet.ColtypText, Grbit: jet.ColumnAutoincrement}, nil)
	expectCode(t, err, jet.ErrInvalidParameter)

	columns, err := api.GetTableColumns(e.sesid, tableid)
	expectNoErr(t, err)
	if len(columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(columns))
	}
	if columns[2].Name != "tagged" || columns[2].Coltyp != jet.ColtypLongText || columns[2].CP != jet.CPUnicode {
		t.Errorf("Unexpected column info %+v", columns[2])
	}
}

func testIndexes(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	tableid, err := api.CreateTable(e.sesid, e.dbid, "indexes", 16, 90)
	expectNoErr(t, err)
	_, err = api.AddColumn(e.sesid, tableid, "id", longCol, nil)
	expectNoErr(t, err)
	_, err = api.AddColumn(e.sesid, tableid, "name", textCol, nil)
	expectNoErr(t, err)

	pk := index("primary", key("+id"), jet.IndexPrimary)
	byName := index("byName", key("+name", "-id"), jet.IndexUnicode)
	byName.Unicode = &jet.UnicodeIndex{Lcid: 1033, MapFlags: 0x401}
	expectNoErr(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{pk, byName}))

	expectCode(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{index("second", key("+name"), jet.IndexPrimary)}),
		jet.ErrIndexHasPrimary)
	expectCode(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{index("BYNAME", key("+id"), jet.IndexNone)}),
		jet.ErrIndexDuplicate)
	expectCode(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{index("missing", key("+nope"), jet.IndexNone)}),
		jet.ErrColumnNotFound)
	expectCode(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{index("badKey", "+id", jet.IndexNone)}),
		jet.ErrInvalidParameter)

	indexes, err := api.GetTableIndexes(e.sesid, tableid)
	expectNoErr(t, err)
	if len(indexes) != 2 {
		t.Fatalf("Expected 2 indexes, got %d", len(indexes))
	}
	got := indexes[1]
	if got.Name != "byName" || len(got.Segments) != 2 || got.Segments[1].ColumnName != "id" || got.Segments[1].Ascending {
		t.Errorf("Unexpected index info %+v", got)
	}
	if got.Lcid != 1033 || got.MapFlags != 0x401 {
		t.Errorf("Expected collation 1033/0x401, got %d/0x%x", got.Lcid, got.MapFlags)
	}
}

func testRecords(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	ids := e.createTable(t, "records", []column{{"id", longCol, nil}, {"data", binCol, nil}}, nil)
	tableid := e.openTable(t, "records")

	expectCode(t, api.Move(e.sesid, tableid, jet.MoveFirst), jet.ErrNoCurrentRecord)
	_, err := api.RetrieveColumn(e.sesid, tableid, ids["id"])
	expectCode(t, err, jet.ErrNoCurrentRecord)

	for i := int32(1); i <= 5; i++ {
		expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{
			ids["id"]:   int32Bytes(i),
			ids["data"]: []byte(fmt.Sprintf("record-%d", i)),
		}))
	}
	if n := e.count(t, tableid); n != 5 {
		t.Errorf("Expected 5 records, got %d", n)
	}

	// records come back in insertion order
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveLast))
	value, err := api.RetrieveColumn(e.sesid, tableid, ids["data"])
	expectNoErr(t, err)
	if string(value) != "record-5" {
		t.Errorf("Expected record-5, got %s", value)
	}
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MovePrevious))
	value, _ = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	if string(value) != "record-4" {
		t.Errorf("Expected record-4, got %s", value)
	}

	// replace
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepReplace))
	expectNoErr(t, api.SetColumn(e.sesid, tableid, ids["data"], []byte("changed")))
	expectNoErr(t, api.Update(e.sesid, tableid))
	value, _ = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	if string(value) != "changed" {
		t.Errorf("Expected changed, got %s", value)
	}

	// set to NULL
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepReplace))
	expectNoErr(t, api.SetColumn(e.sesid, tableid, ids["data"], nil))
	expectNoErr(t, api.Update(e.sesid, tableid))
	value, err = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	expectNoErr(t, err)
	if value != nil {
		t.Errorf("Expected NULL, got %v", value)
	}

	// the retrieved value is a copy
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveFirst))
	value, _ = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	value[0] = 'X'
	again, _ := api.RetrieveColumn(e.sesid, tableid, ids["data"])
	if !bytes.Equal(again, []byte("record-1")) {
		t.Errorf("Expected record-1, got %s", again)
	}

	// delete the first record
	expectNoErr(t, api.Delete(e.sesid, tableid))
	_, err = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	expectCode(t, err, jet.ErrNoCurrentRecord)
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveNext))
	value, _ = api.RetrieveColumn(e.sesid, tableid, ids["data"])
	if string(value) != "record-2" {
		t.Errorf("Expected record-2, got %s", value)
	}
	if n := e.count(t, tableid); n != 4 {
		t.Errorf("Expected 4 records, got %d", n)
	}

	expectCode(t, api.Update(e.sesid, tableid), jet.ErrUpdateNotPrepared)
	expectCode(t, api.SetColumn(e.sesid, tableid, ids["data"], []byte("x")), jet.ErrUpdateNotPrepared)

	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepInsert))
	expectCode(t, api.SetColumn(e.sesid, tableid, jet.Columnid{Value: 999}, []byte("x")), jet.ErrColumnNotFound)
	expectCode(t, api.SetColumn(e.sesid, tableid, ids["id"], []byte{1, 2}), jet.ErrInvalidParameter)
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepCancel))
}

func testConstraints(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	ids := e.createTable(t, "constrained", []column{
		{"id", jet.ColumnDef{Coltyp: jet.ColtypLong, Grbit: jet.ColumnNotNULL}, nil},
		{"email", binCol, nil},
	}, []jet.IndexCreate{
		index("primary", key("+id"), jet.IndexPrimary),
		index("byEmail", key("+email"), jet.IndexUnique|jet.IndexIgnoreNull),
	})
	tableid := e.openTable(t, "constrained")

	expectCode(t, e.insert(tableid, map[jet.Columnid][]byte{ids["email"]: []byte("a@b")}), jet.ErrNullInvalid)

	expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(1), ids["email"]: []byte("a@b")}))
	expectCode(t, e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(1)}), jet.ErrKeyDuplicate)
	expectCode(t, e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(2), ids["email"]: []byte("a@b")}), jet.ErrKeyDuplicate)

	// NULL keys are not indexed with IgnoreNull, so they never collide
	expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(2)}))
	expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(3)}))

	// replacing a record with its own key is fine
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveFirst))
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepReplace))
	expectNoErr(t, api.SetColumn(e.sesid, tableid, ids["email"], []byte("a@b")))
	expectNoErr(t, api.Update(e.sesid, tableid))

	if n := e.count(t, tableid); n != 3 {
		t.Errorf("Expected 3 records, got %d", n)
	}
}

func testKeyTruncation(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	strict := index("strict", key("+data"), jet.IndexKeyMost|jet.IndexDisallowTruncation)
	strict.CbKeyMost = 16
	loose := index("loose", key("+data"), jet.IndexKeyMost|jet.IndexUnique)
	loose.CbKeyMost = 16

	ids := e.createTable(t, "strict", []column{{"data", binCol, nil}}, []jet.IndexCreate{strict})
	tableid := e.openTable(t, "strict")

	expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{ids["data"]: []byte("short")}))
	expectCode(t, e.insert(tableid, map[jet.Columnid][]byte{ids["data"]: bytes.Repeat([]byte("x"), 64)}), jet.ErrKeyTruncated)

	// truncated keys of a unique index collide on their common prefix
	ids = e.createTable(t, "loose", []column{{"data", binCol, nil}}, []jet.IndexCreate{loose})
	tableid = e.openTable(t, "loose")

	expectNoErr(t, e.insert(tableid, map[jet.Columnid][]byte{ids["data"]: append(bytes.Repeat([]byte("x"), 64), 'a')}))
	expectCode(t, e.insert(tableid, map[jet.Columnid][]byte{ids["data"]: append(bytes.Repeat([]byte("x"), 64), 'b')}), jet.ErrKeyDuplicate)
}

func testTransactions(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	ids := e.createTable(t, "tx", []column{{"id", longCol, nil}}, nil)
	tableid := e.openTable(t, "tx")
	row := func(i int32) map[jet.Columnid][]byte { return map[jet.Columnid][]byte{ids["id"]: int32Bytes(i)} }

	expectCode(t, api.CommitTransaction(e.sesid, jet.CommitNone), jet.ErrNotInTransaction)
	expectCode(t, api.Rollback(e.sesid, jet.RollbackNone), jet.ErrNotInTransaction)

	before, err := api.GetDatabaseInfo(e.sesid, e.dbid)
	expectNoErr(t, err)

	// rollback discards the insert
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, e.insert(tableid, row(1)))
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackNone))
	if n := e.count(t, tableid); n != 0 {
		t.Errorf("Expected 0 records after rollback, got %d", n)
	}

	// a committed nested transaction is undone by the outer rollback
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, e.insert(tableid, row(1)))
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, e.insert(tableid, row(2)))
	expectNoErr(t, api.CommitTransaction(e.sesid, jet.CommitNone))
	if n := e.count(t, tableid); n != 2 {
		t.Errorf("Expected 2 records inside the transaction, got %d", n)
	}
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackNone))
	if n := e.count(t, tableid); n != 0 {
		t.Errorf("Expected 0 records after outer rollback, got %d", n)
	}

	// commit keeps the changes and advances the log position
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, e.insert(tableid, row(3)))
	expectNoErr(t, api.CommitTransaction(e.sesid, jet.CommitLazyFlush))
	if n := e.count(t, tableid); n != 1 {
		t.Errorf("Expected 1 record after commit, got %d", n)
	}
	after, err := api.GetDatabaseInfo(e.sesid, e.dbid)
	expectNoErr(t, err)
	if after.LgposLastCommit.Compare(before.LgposLastCommit) <= 0 {
		t.Errorf("Expected the commit position to advance, got %s -> %s", before.LgposLastCommit, after.LgposLastCommit)
	}

	// delete and replace are undone as well
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveFirst))
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepReplace))
	expectNoErr(t, api.SetColumn(e.sesid, tableid, ids["id"], int32Bytes(4)))
	expectNoErr(t, api.Update(e.sesid, tableid))
	expectNoErr(t, api.Delete(e.sesid, tableid))
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackNone))
	expectNoErr(t, api.Move(e.sesid, tableid, jet.MoveFirst))
	value, err := api.RetrieveColumn(e.sesid, tableid, ids["id"])
	expectNoErr(t, err)
	if !bytes.Equal(value, int32Bytes(3)) {
		t.Errorf("Expected the original value after rollback, got %v", value)
	}

	// nesting is limited
	depth := 0
	for ; depth < 64; depth++ {
		if err := api.BeginTransaction(e.sesid); err != nil {
			expectCode(t, err, jet.ErrTransTooDeep)
			break
		}
	}
	if depth == 0 || depth == 64 {
		t.Errorf("Expected a transaction depth limit, got %d", depth)
	}
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackAll))
	expectCode(t, api.CommitTransaction(e.sesid, jet.CommitNone), jet.ErrNotInTransaction)
}

func testSchemaRollback(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	// create table, column and index are undone together
	expectNoErr(t, api.BeginTransaction(e.sesid))
	tableid, err := api.CreateTable(e.sesid, e.dbid, "temp", 16, 90)
	expectNoErr(t, err)
	_, err = api.AddColumn(e.sesid, tableid, "id", longCol, nil)
	expectNoErr(t, err)
	expectNoErr(t, api.CreateIndex2(e.sesid, tableid, []jet.IndexCreate{index("primary", key("+id"), jet.IndexPrimary)}))
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackNone))

	names, err := api.GetTableNames(e.sesid, e.dbid)
	expectNoErr(t, err)
	if len(names) != 0 {
		t.Errorf("Expected no tables after rollback, got %v", names)
	}
	// the table handle is gone with the table
	expectCode(t, api.CloseTable(e.sesid, tableid), jet.ErrInvalidTableId)

	// delete table is undone
	e.createTable(t, "kept", []column{{"id", longCol, nil}}, nil)
	expectNoErr(t, api.BeginTransaction(e.sesid))
	expectNoErr(t, api.DeleteTable(e.sesid, e.dbid, "kept"))
	expectNoErr(t, api.Rollback(e.sesid, jet.RollbackNone))

	kept := e.openTable(t, "kept")
	columns, err := api.GetTableColumns(e.sesid, kept)
	expectNoErr(t, err)
	if len(columns) != 1 || columns[0].Name != "id" {
		t.Errorf("Expected the restored table to keep its columns, got %+v", columns)
	}
}

func testDefaultsAndAutoincrement(t *testing.T, api jet.API) {
	e := newEnv(t, api)
	defer e.close()

	ids := e.createTable(t, "defaults", []column{
		{"counter", jet.ColumnDef{Coltyp: jet.ColtypLong, Grbit: jet.ColumnAutoincrement}, nil},
		{"status", longCol, int32Bytes(7)},
	}, nil)
	tableid := e.openTable(t, "defaults")

	expectNoErr(t, e.insert(tableid, nil))
	expectNoErr(t, e.insert(tableid, nil))

	value, err := api.RetrieveColumn(e.sesid, tableid, ids["counter"])
	expectNoErr(t, err)
	if !bytes.Equal(value, int32Bytes(2)) {
		t.Errorf("Expected counter 2, got %v", value)
	}
	value, err = api.RetrieveColumn(e.sesid, tableid, ids["status"])
	expectNoErr(t, err)
	if !bytes.Equal(value, int32Bytes(7)) {
		t.Errorf("Expected default 7, got %v", value)
	}

	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepInsert))
	expectCode(t, api.SetColumn(e.sesid, tableid, ids["counter"], int32Bytes(9)), jet.ErrInvalidParameter)
	expectNoErr(t, api.PrepareUpdate(e.sesid, tableid, jet.PrepCancel))
}
