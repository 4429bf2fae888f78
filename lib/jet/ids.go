package jet

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Pointer-sized handles
// --------------------------------------------------------------------------

// handleNil is the value the native engine uses for an unset handle.
const handleNil = ^uintptr(0)

// Instance is the handle of an engine instance.
type Instance struct {
	Value uintptr
}

// NilInstance is the instance handle that refers to no instance.
var NilInstance = Instance{Value: handleNil}

// IsInvalid returns true if the handle refers to no instance.
func (h Instance) IsInvalid() bool { return h.Value == 0 || h.Value == handleNil }

func (h Instance) String() string { return fmt.Sprintf("JET_INSTANCE(0x%x)", h.Value) }

// Sesid is the handle of an engine session.
type Sesid struct {
	Value uintptr
}

// NilSesid is the session handle that refers to no session.
var NilSesid = Sesid{Value: handleNil}

// IsInvalid returns true if the handle refers to no session.
func (h Sesid) IsInvalid() bool { return h.Value == 0 || h.Value == handleNil }

func (h Sesid) String() string { return fmt.Sprintf("JET_SESID(0x%x)", h.Value) }

// Tableid is the handle of an open table (a cursor in engine terms).
type Tableid struct {
	Value uintptr
}

// NilTableid is the table handle that refers to no table.
var NilTableid = Tableid{Value: handleNil}

// IsInvalid returns true if the handle refers to no table.
func (h Tableid) IsInvalid() bool { return h.Value == 0 || h.Value == handleNil }

func (h Tableid) String() string { return fmt.Sprintf("JET_TABLEID(0x%x)", h.Value) }

// OsSnapid is the handle of an operating system snapshot session.
type OsSnapid struct {
	Value uintptr
}

func (h OsSnapid) String() string { return fmt.Sprintf("JET_OSSNAPID(0x%x)", h.Value) }

// Handle is a generic engine handle (e.g. an open backup file).
type Handle struct {
	Value uintptr
}

func (h Handle) String() string { return fmt.Sprintf("JET_HANDLE(0x%x)", h.Value) }

// Ls is the handle of a local storage context.
type Ls struct {
	Value uintptr
}

func (h Ls) String() string { return fmt.Sprintf("JET_LS(0x%x)", h.Value) }

// --------------------------------------------------------------------------
// 32-bit identifiers
// --------------------------------------------------------------------------

// Dbid identifies an open database within an instance.
type Dbid struct {
	Value int32
}

// NilDbid is the database id that refers to no database.
var NilDbid = Dbid{Value: -1}

// IsInvalid returns true if the id refers to no database.
func (d Dbid) IsInvalid() bool { return d.Value < 0 }

func (d Dbid) String() string { return fmt.Sprintf("JET_DBID(%d)", d.Value) }

// Columnid identifies a column within a table.
type Columnid struct {
	Value uint32
}

// IsInvalid returns true if the id refers to no column.
func (c Columnid) IsInvalid() bool { return c.Value == 0 }

func (c Columnid) String() string { return fmt.Sprintf("JET_COLUMNID(0x%x)", c.Value) }

// --------------------------------------------------------------------------
// Composite identifiers
// --------------------------------------------------------------------------

// IndexId is the engine's composite index identifier: a pointer-sized part
// followed by two 32-bit parts.
type IndexId struct {
	IndexId1 uintptr
	IndexId2 uint32
	IndexId3 uint32
}

func (i IndexId) String() string {
	return fmt.Sprintf("JET_INDEXID(0x%x:0x%x:0x%x)", i.IndexId1, i.IndexId2, i.IndexId3)
}

// Lgpos is a position in the write-ahead log: generation, sector, byte offset.
type Lgpos struct {
	Generation int32
	Sector     int32
	ByteOffset int32
}

// IsNull returns true for the zero log position.
func (l Lgpos) IsNull() bool { return l == Lgpos{} }

// Compare orders log positions by generation, then sector, then byte offset.
// It returns -1, 0 or +1.
func (l Lgpos) Compare(other Lgpos) int {
	switch {
	case l.Generation != other.Generation:
		return cmpInt32(l.Generation, other.Generation)
	case l.Sector != other.Sector:
		return cmpInt32(l.Sector, other.Sector)
	default:
		return cmpInt32(l.ByteOffset, other.ByteOffset)
	}
}

// String renders the generation as lowercase hex, the sector as UPPERCASE hex
// and the byte offset as decimal. The mixed casing is part of the format.
func (l Lgpos) String() string {
	return fmt.Sprintf("JET_LGPOS(0x%x,%X,%d)", uint32(l.Generation), uint32(l.Sector), l.ByteOffset)
}

func cmpInt32(a, b int32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
