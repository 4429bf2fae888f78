package memjet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
)

func startSession(t *testing.T, engine Engine, name string) (jet.Instance, jet.Sesid) {
	t.Helper()
	instance, err := engine.CreateInstance(name)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if err := engine.Init(instance); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sesid, err := engine.BeginSession(instance)
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	return instance, sesid
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	source := NewMemJet(&Options{ComputerName: "SNAPHOST"})
	instance, sesid := startSession(t, source, "source")

	dbid, err := source.CreateDatabase(sesid, "snap.edb", jet.CreateDatabaseNone)
	must(t, err)
	tableid, err := source.CreateTable(sesid, dbid, "people", 16, 90)
	must(t, err)
	idCol, err := source.AddColumn(sesid, tableid, "id", jet.ColumnDef{Coltyp: jet.ColtypLong}, nil)
	must(t, err)
	nameCol, err := source.AddColumn(sesid, tableid, "name", jet.ColumnDef{Coltyp: jet.ColtypLongText, CP: jet.CPUnicode}, nil)
	must(t, err)
	pk := "+id\x00\x00"
	must(t, source.CreateIndex2(sesid, tableid, []jet.IndexCreate{{IndexName: "primary", Key: pk, CbKey: len(pk), Grbit: jet.IndexPrimary}}))

	for i, name := range []string{"ada", "grace", "linus"} {
		must(t, source.PrepareUpdate(sesid, tableid, jet.PrepInsert))
		must(t, source.SetColumn(sesid, tableid, idCol, binary.LittleEndian.AppendUint32(nil, uint32(i+1))))
		must(t, source.SetColumn(sesid, tableid, nameCol, []byte(name)))
		must(t, source.Update(sesid, tableid))
	}
	must(t, source.CloseTable(sesid, tableid))

	original, err := source.GetDatabaseInfo(sesid, dbid)
	must(t, err)

	var buf bytes.Buffer
	must(t, source.Save(&buf))
	must(t, source.Term(instance))

	if !bytes.HasPrefix(buf.Bytes(), []byte(magicNum)) {
		t.Fatalf("Expected the snapshot to start with the magic number")
	}

	target := NewMemJet(nil)
	must(t, target.Load(bytes.NewReader(buf.Bytes())))
	_, sesid = startSession(t, target, "target")

	dbid, err = target.OpenDatabase(sesid, "SNAP.edb", jet.OpenDatabaseNone)
	must(t, err)

	info, err := target.GetDatabaseInfo(sesid, dbid)
	must(t, err)
	if info.Signature.String() != original.Signature.String() {
		t.Errorf("Expected signature %s, got %s", original.Signature, info.Signature)
	}
	if info.LgposLastCommit != original.LgposLastCommit {
		t.Errorf("Expected last commit %s, got %s", original.LgposLastCommit, info.LgposLastCommit)
	}
	if info.TableCount != 1 {
		t.Errorf("Expected 1 table, got %d", info.TableCount)
	}

	tableid, err = target.OpenTable(sesid, dbid, "people", jet.OpenTableUpdatable)
	must(t, err)

	var names []string
	err = target.Move(sesid, tableid, jet.MoveFirst)
	for err == nil {
		value, rerr := target.RetrieveColumn(sesid, tableid, nameCol)
		must(t, rerr)
		names = append(names, string(value))
		err = target.Move(sesid, tableid, jet.MoveNext)
	}
	if len(names) != 3 || names[0] != "ada" || names[2] != "linus" {
		t.Errorf("Expected [ada grace linus], got %v", names)
	}

	// the primary index survives the snapshot
	must(t, target.PrepareUpdate(sesid, tableid, jet.PrepInsert))
	must(t, target.SetColumn(sesid, tableid, idCol, binary.LittleEndian.AppendUint32(nil, 2)))
	if err := target.Update(sesid, tableid); !errors.Is(err, jet.ErrKeyDuplicate) {
		t.Errorf("Expected %s, got %v", jet.ErrKeyDuplicate, err)
	}

	// loading is refused while sessions are open
	if err := target.Load(bytes.NewReader(buf.Bytes())); err == nil {
		t.Errorf("Expected Load to fail with open sessions")
	}
}

func TestLoadInvalid(t *testing.T) {
	engine := NewMemJet(nil)

	if err := engine.Load(bytes.NewReader([]byte("NOTAJET\x00\x01"))); err == nil {
		t.Errorf("Expected an error for a bad magic number")
	}
	if err := engine.Load(bytes.NewReader(append([]byte(magicNum), 99))); err == nil {
		t.Errorf("Expected an error for an unsupported version")
	}
	if err := engine.Load(bytes.NewReader(nil)); err == nil {
		t.Errorf("Expected an error for an empty snapshot")
	}
}

func TestTransactionDepthOption(t *testing.T) {
	engine := NewMemJet(&Options{ComputerName: "HOST", MaxTransactionDepth: 2})
	_, sesid := startSession(t, engine, "depth")

	must(t, engine.BeginTransaction(sesid))
	must(t, engine.BeginTransaction(sesid))
	if err := engine.BeginTransaction(sesid); !errors.Is(err, jet.ErrTransTooDeep) {
		t.Errorf("Expected %s, got %v", jet.ErrTransTooDeep, err)
	}
}
