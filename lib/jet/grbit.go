package jet

import (
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Column types and code pages
// --------------------------------------------------------------------------

// Coltyp is the storage type of a column.
type Coltyp uint32

const (
	ColtypNil           Coltyp = 0
	ColtypBit           Coltyp = 1  // 1 byte, 0x00 or 0xff
	ColtypUnsignedByte  Coltyp = 2  // 1 byte unsigned integer
	ColtypShort         Coltyp = 3  // 2 byte signed integer
	ColtypLong          Coltyp = 4  // 4 byte signed integer
	ColtypCurrency      Coltyp = 5  // 8 byte signed integer
	ColtypIEEESingle    Coltyp = 6  // 4 byte float
	ColtypIEEEDouble    Coltyp = 7  // 8 byte float
	ColtypDateTime      Coltyp = 8  // 8 byte OLE automation date
	ColtypBinary        Coltyp = 9  // binary, up to 255 bytes
	ColtypText          Coltyp = 10 // text, up to 255 bytes
	ColtypLongBinary    Coltyp = 11 // binary, up to 2GB
	ColtypLongText      Coltyp = 12 // text, up to 2GB
	ColtypUnsignedLong  Coltyp = 14 // 4 byte unsigned integer
	ColtypLongLong      Coltyp = 15 // 8 byte signed integer
	ColtypGUID          Coltyp = 16 // 16 byte GUID
	ColtypUnsignedShort Coltyp = 17 // 2 byte unsigned integer
)

// MaxShortColumnLength is the largest value a Binary or Text column can hold.
const MaxShortColumnLength = 255

func (c Coltyp) String() string {
	switch c {
	case ColtypNil:
		return "Nil"
	case ColtypBit:
		return "Bit"
	case ColtypUnsignedByte:
		return "UnsignedByte"
	case ColtypShort:
		return "Short"
	case ColtypLong:
		return "Long"
	case ColtypCurrency:
		return "Currency"
	case ColtypIEEESingle:
		return "IEEESingle"
	case ColtypIEEEDouble:
		return "IEEEDouble"
	case ColtypDateTime:
		return "DateTime"
	case ColtypBinary:
		return "Binary"
	case ColtypText:
		return "Text"
	case ColtypLongBinary:
		return "LongBinary"
	case ColtypLongText:
		return "LongText"
	case ColtypUnsignedLong:
		return "UnsignedLong"
	case ColtypLongLong:
		return "LongLong"
	case ColtypGUID:
		return "GUID"
	case ColtypUnsignedShort:
		return "UnsignedShort"
	default:
		return "Unknown"
	}
}

// FixedSize returns the storage size of fixed-width column types.
// The boolean is false for variable-width types (Binary, Text and their long variants).
func (c Coltyp) FixedSize() (int, bool) {
	switch c {
	case ColtypBit, ColtypUnsignedByte:
		return 1, true
	case ColtypShort, ColtypUnsignedShort:
		return 2, true
	case ColtypLong, ColtypUnsignedLong, ColtypIEEESingle:
		return 4, true
	case ColtypCurrency, ColtypLongLong, ColtypIEEEDouble, ColtypDateTime:
		return 8, true
	case ColtypGUID:
		return 16, true
	default:
		return 0, false
	}
}

// IsText returns true for Text and LongText.
func (c Coltyp) IsText() bool { return c == ColtypText || c == ColtypLongText }

// IsLong returns true for the long value types.
func (c Coltyp) IsLong() bool { return c == ColtypLongText || c == ColtypLongBinary }

// IsValid returns true if c is a known column type other than Nil.
func (c Coltyp) IsValid() bool { return c != ColtypNil && c.String() != "Unknown" }

// CP is the code page of a text column.
type CP uint16

const (
	CPNone    CP = 0
	CPUnicode CP = 1200
	CPASCII   CP = 1252
)

// --------------------------------------------------------------------------
// Option sets (grbits)
// --------------------------------------------------------------------------

// ColumndefGrbit holds the options of a column definition.
type ColumndefGrbit uint32

const (
	ColumnNone               ColumndefGrbit = 0
	ColumnFixed              ColumndefGrbit = 0x1
	ColumnTagged             ColumndefGrbit = 0x2
	ColumnNotNULL            ColumndefGrbit = 0x4
	ColumnVersion            ColumndefGrbit = 0x8
	ColumnAutoincrement      ColumndefGrbit = 0x10
	ColumnUpdatable          ColumndefGrbit = 0x20
	ColumnTTKey              ColumndefGrbit = 0x40
	ColumnTTDescending       ColumndefGrbit = 0x80
	ColumnMultiValued        ColumndefGrbit = 0x400
	ColumnEscrowUpdate       ColumndefGrbit = 0x800
	ColumnUnversioned        ColumndefGrbit = 0x1000
	ColumnMaybeNull          ColumndefGrbit = 0x2000
	ColumnFinalize           ColumndefGrbit = 0x4000
	ColumnUserDefinedDefault ColumndefGrbit = 0x8000
	ColumnDeleteOnZero       ColumndefGrbit = 0x20000
	ColumnCompressed         ColumndefGrbit = 0x80000
)

// Has reports whether all bits of flag are set.
func (g ColumndefGrbit) Has(flag ColumndefGrbit) bool { return g&flag == flag }

func (g ColumndefGrbit) String() string {
	return formatBits(uint32(g), []namedBit{
		{uint32(ColumnFixed), "ColumnFixed"},
		{uint32(ColumnTagged), "ColumnTagged"},
		{uint32(ColumnNotNULL), "ColumnNotNULL"},
		{uint32(ColumnVersion), "ColumnVersion"},
		{uint32(ColumnAutoincrement), "ColumnAutoincrement"},
		{uint32(ColumnUpdatable), "ColumnUpdatable"},
		{uint32(ColumnTTKey), "ColumnTTKey"},
		{uint32(ColumnTTDescending), "ColumnTTDescending"},
		{uint32(ColumnMultiValued), "ColumnMultiValued"},
		{uint32(ColumnEscrowUpdate), "ColumnEscrowUpdate"},
		{uint32(ColumnUnversioned), "ColumnUnversioned"},
		{uint32(ColumnMaybeNull), "ColumnMaybeNull"},
		{uint32(ColumnFinalize), "ColumnFinalize"},
		{uint32(ColumnUserDefinedDefault), "ColumnUserDefinedDefault"},
		{uint32(ColumnDeleteOnZero), "ColumnDeleteOnZero"},
		{uint32(ColumnCompressed), "ColumnCompressed"},
	})
}

// CreateIndexGrbit holds the options of an index definition.
type CreateIndexGrbit uint32

const (
	IndexNone               CreateIndexGrbit = 0
	IndexUnique             CreateIndexGrbit = 0x1
	IndexPrimary            CreateIndexGrbit = 0x2
	IndexDisallowNull       CreateIndexGrbit = 0x4
	IndexIgnoreNull         CreateIndexGrbit = 0x8
	IndexIgnoreAnyNull      CreateIndexGrbit = 0x20
	IndexIgnoreFirstNull    CreateIndexGrbit = 0x40
	IndexLazyFlush          CreateIndexGrbit = 0x80
	IndexEmpty              CreateIndexGrbit = 0x100
	IndexUnversioned        CreateIndexGrbit = 0x200
	IndexSortNullsHigh      CreateIndexGrbit = 0x400
	IndexUnicode            CreateIndexGrbit = 0x800
	IndexTuples             CreateIndexGrbit = 0x1000
	IndexTupleLimits        CreateIndexGrbit = 0x2000
	IndexCrossProduct       CreateIndexGrbit = 0x4000
	IndexKeyMost            CreateIndexGrbit = 0x8000
	IndexDisallowTruncation CreateIndexGrbit = 0x10000
	IndexNestedTable        CreateIndexGrbit = 0x20000
	IndexDotNetGuid         CreateIndexGrbit = 0x40000
)

// Has reports whether all bits of flag are set.
func (g CreateIndexGrbit) Has(flag CreateIndexGrbit) bool { return g&flag == flag }

func (g CreateIndexGrbit) String() string {
	return formatBits(uint32(g), []namedBit{
		{uint32(IndexUnique), "IndexUnique"},
		{uint32(IndexPrimary), "IndexPrimary"},
		{uint32(IndexDisallowNull), "IndexDisallowNull"},
		{uint32(IndexIgnoreNull), "IndexIgnoreNull"},
		{uint32(IndexIgnoreAnyNull), "IndexIgnoreAnyNull"},
		{uint32(IndexIgnoreFirstNull), "IndexIgnoreFirstNull"},
		{uint32(IndexLazyFlush), "IndexLazyFlush"},
		{uint32(IndexEmpty), "IndexEmpty"},
		{uint32(IndexUnversioned), "IndexUnversioned"},
		{uint32(IndexSortNullsHigh), "IndexSortNullsHigh"},
		{uint32(IndexUnicode), "IndexUnicode"},
		{uint32(IndexTuples), "IndexTuples"},
		{uint32(IndexTupleLimits), "IndexTupleLimits"},
		{uint32(IndexCrossProduct), "IndexCrossProduct"},
		{uint32(IndexKeyMost), "IndexKeyMost"},
		{uint32(IndexDisallowTruncation), "IndexDisallowTruncation"},
		{uint32(IndexNestedTable), "IndexNestedTable"},
		{uint32(IndexDotNetGuid), "IndexDotNetGuid"},
	})
}

// OpenTableGrbit holds the options for opening a table.
type OpenTableGrbit uint32

const (
	OpenTableNone       OpenTableGrbit = 0
	OpenTableDenyWrite  OpenTableGrbit = 0x1
	OpenTableDenyRead   OpenTableGrbit = 0x2
	OpenTableReadOnly   OpenTableGrbit = 0x4
	OpenTableUpdatable  OpenTableGrbit = 0x8
	OpenTablePermitDDL  OpenTableGrbit = 0x10
	OpenTableNoCache    OpenTableGrbit = 0x20
	OpenTablePreread    OpenTableGrbit = 0x40
	OpenTableSequential OpenTableGrbit = 0x8000
)

// Has reports whether all bits of flag are set.
func (g OpenTableGrbit) Has(flag OpenTableGrbit) bool { return g&flag == flag }

// CreateDatabaseGrbit holds the options for creating a database.
type CreateDatabaseGrbit uint32

const (
	CreateDatabaseNone              CreateDatabaseGrbit = 0
	CreateDatabaseOverwriteExisting CreateDatabaseGrbit = 0x200
)

// OpenDatabaseGrbit holds the options for opening a database.
type OpenDatabaseGrbit uint32

const (
	OpenDatabaseNone      OpenDatabaseGrbit = 0
	OpenDatabaseReadOnly  OpenDatabaseGrbit = 0x1
	OpenDatabaseExclusive OpenDatabaseGrbit = 0x2
)

// CloseDatabaseGrbit holds the options for closing a database.
type CloseDatabaseGrbit uint32

const CloseDatabaseNone CloseDatabaseGrbit = 0

// CommitTransactionGrbit holds the options for committing a transaction.
type CommitTransactionGrbit uint32

const (
	CommitNone                 CommitTransactionGrbit = 0
	CommitLazyFlush            CommitTransactionGrbit = 0x1
	CommitWaitLastLevel0Commit CommitTransactionGrbit = 0x2
)

// RollbackTransactionGrbit holds the options for rolling back a transaction.
type RollbackTransactionGrbit uint32

const (
	RollbackNone RollbackTransactionGrbit = 0
	RollbackAll  RollbackTransactionGrbit = 0x1
)

// Move is the offset passed to a cursor move.
type Move int32

const (
	MoveFirst    Move = math.MinInt32
	MovePrevious Move = -1
	MoveNext     Move = 1
	MoveLast     Move = math.MaxInt32
)

// Prep selects the kind of record update being prepared.
type Prep uint32

const (
	PrepInsert        Prep = 0
	PrepReplace       Prep = 2
	PrepCancel        Prep = 3
	PrepReplaceNoLock Prep = 4
	PrepInsertCopy    Prep = 5
)

// ConditionalColumnGrbit selects the condition of a conditional index column.
type ConditionalColumnGrbit uint32

const (
	ColumnMustBeNull    ConditionalColumnGrbit = 0x1
	ColumnMustBeNonNull ConditionalColumnGrbit = 0x2
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

type namedBit struct {
	bit  uint32
	name string
}

// formatBits renders a bit set as "A|B|0x..." with unknown bits in hex.
func formatBits(value uint32, names []namedBit) string {
	if value == 0 {
		return "None"
	}
	var parts []string
	for _, n := range names {
		if value&n.bit != 0 {
			parts = append(parts, n.name)
			value &^= n.bit
		}
	}
	if value != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(value), 16))
	}
	return strings.Join(parts, "|")
}
