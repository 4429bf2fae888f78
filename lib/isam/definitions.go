package isam

import (
	"github.com/ValentinKolb/isam/lib/jet"
	"golang.org/x/text/language"
)

// --------------------------------------------------------------------------
// Column definitions
// --------------------------------------------------------------------------

// ColumnType is the abstract type of a column.
type ColumnType int

const (
	ColumnTypeBool ColumnType = iota
	ColumnTypeByte
	ColumnTypeInt16
	ColumnTypeUInt16
	ColumnTypeInt32
	ColumnTypeUInt32
	ColumnTypeInt64
	ColumnTypeUInt64
	ColumnTypeFloat32
	ColumnTypeFloat64
	ColumnTypeDateTime
	ColumnTypeGUID
	ColumnTypeText
	ColumnTypeBinary
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeBool:     "bool",
	ColumnTypeByte:     "byte",
	ColumnTypeInt16:    "int16",
	ColumnTypeUInt16:   "uint16",
	ColumnTypeInt32:    "int32",
	ColumnTypeUInt32:   "uint32",
	ColumnTypeInt64:    "int64",
	ColumnTypeUInt64:   "uint64",
	ColumnTypeFloat32:  "float32",
	ColumnTypeFloat64:  "float64",
	ColumnTypeDateTime: "datetime",
	ColumnTypeGUID:     "guid",
	ColumnTypeText:     "text",
	ColumnTypeBinary:   "binary",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseColumnType returns the column type with the given (lower case) name.
func ParseColumnType(name string) (ColumnType, bool) {
	for t, n := range columnTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// ColumnFlags are the abstract options of a column.
type ColumnFlags uint32

const (
	ColumnFlagNone ColumnFlags = 0
	ColumnFixed    ColumnFlags = 1 << iota
	ColumnVariable
	ColumnSparse
	ColumnNonNull
	ColumnVersion
	ColumnAutoIncrement
	ColumnUpdatable
	ColumnMultiValued
	ColumnEscrowUpdate
	ColumnFinalize
	ColumnDeleteOnZero
)

// Has reports whether all bits of flag are set.
func (f ColumnFlags) Has(flag ColumnFlags) bool { return f&flag == flag }

// ColumnDefinition describes one column of a table.
type ColumnDefinition struct {
	Name         string
	Type         ColumnType
	MaxLength    int // Maximum length in bytes for Text and Binary, 0 = unlimited
	Flags        ColumnFlags
	DefaultValue any // Go value matching Type, nil for no default
}

// --------------------------------------------------------------------------
// Index definitions
// --------------------------------------------------------------------------

// IndexFlags are the options of an index. Except for IndexAllowTruncation
// they share their values with the native index options.
type IndexFlags uint32

const (
	IndexFlagNone           IndexFlags = IndexFlags(jet.IndexNone)
	IndexUnique             IndexFlags = IndexFlags(jet.IndexUnique)
	IndexPrimary            IndexFlags = IndexFlags(jet.IndexPrimary)
	IndexDisallowNull       IndexFlags = IndexFlags(jet.IndexDisallowNull)
	IndexIgnoreNull         IndexFlags = IndexFlags(jet.IndexIgnoreNull)
	IndexIgnoreAnyNull      IndexFlags = IndexFlags(jet.IndexIgnoreAnyNull)
	IndexIgnoreFirstNull    IndexFlags = IndexFlags(jet.IndexIgnoreFirstNull)
	IndexAllowNull          IndexFlags = IndexFlags(jet.IndexNone)
	IndexSortNullsLow       IndexFlags = IndexFlags(jet.IndexNone)
	IndexSortNullsHigh      IndexFlags = IndexFlags(jet.IndexSortNullsHigh)
	IndexDisallowTruncation IndexFlags = IndexFlags(jet.IndexDisallowTruncation)

	// IndexAllowTruncation only exists in this layer. Without it truncated
	// keys are rejected, the opposite of the engine default.
	IndexAllowTruncation IndexFlags = 0x01000000
)

// Has reports whether all bits of flag are set.
func (f IndexFlags) Has(flag IndexFlags) bool { return f&flag == flag }

// CompareOptions select the collation of text key columns.
type CompareOptions uint32

const (
	CompareNone              CompareOptions = 0
	CompareIgnoreCase        CompareOptions = 0x1
	CompareIgnoreNonSpace    CompareOptions = 0x2
	CompareIgnoreSymbols     CompareOptions = 0x4
	CompareIgnoreKanaType    CompareOptions = 0x8
	CompareIgnoreWidth       CompareOptions = 0x10
	CompareOrdinalIgnoreCase CompareOptions = 0x10000000
	CompareStringSort        CompareOptions = 0x20000000
	CompareOrdinal           CompareOptions = 0x40000000
)

// KeyColumn is one key segment of an index.
type KeyColumn struct {
	Name       string
	Descending bool
}

// ConditionalColumn makes index membership depend on a column being NULL or not.
type ConditionalColumn struct {
	Name       string
	MustBeNull bool
}

// IndexDefinition describes one index of a table.
type IndexDefinition struct {
	Name               string
	KeyColumns         []KeyColumn
	Flags              IndexFlags
	Density            int            // Page fill percentage, 0 = engine default
	Locale             language.Tag   // Collation locale, the zero tag is the invariant locale
	CompareOptions     CompareOptions // Collation options
	ConditionalColumns []ConditionalColumn
	MaxKeyLength       int // Maximum key length in bytes, 0 = engine default
}

// --------------------------------------------------------------------------
// Table definition
// --------------------------------------------------------------------------

// TableDefinition describes a table with its columns and indexes.
type TableDefinition struct {
	Name    string
	Columns []ColumnDefinition
	Indexes []IndexDefinition
}
