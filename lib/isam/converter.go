package isam

import (
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
)

// --------------------------------------------------------------------------
// Column conversion
// --------------------------------------------------------------------------

// ColtypFromColumnDefinition returns the native column type used to store def.
func ColtypFromColumnDefinition(def ColumnDefinition) (jet.Coltyp, error) {
	switch def.Type {
	case ColumnTypeBool:
		return jet.ColtypBit, nil
	case ColumnTypeByte:
		return jet.ColtypUnsignedByte, nil
	case ColumnTypeInt16:
		return jet.ColtypShort, nil
	case ColumnTypeUInt16:
		return jet.ColtypUnsignedShort, nil
	case ColumnTypeInt32:
		return jet.ColtypLong, nil
	case ColumnTypeUInt32:
		return jet.ColtypUnsignedLong, nil
	case ColumnTypeInt64:
		return jet.ColtypCurrency, nil
	case ColumnTypeUInt64:
		// stored as 8 raw bytes
		return jet.ColtypBinary, nil
	case ColumnTypeFloat32:
		return jet.ColtypIEEESingle, nil
	case ColumnTypeFloat64:
		return jet.ColtypIEEEDouble, nil
	case ColumnTypeDateTime:
		return jet.ColtypDateTime, nil
	case ColumnTypeGUID:
		return jet.ColtypGUID, nil
	case ColumnTypeText:
		if def.MaxLength > 0 && def.MaxLength <= jet.MaxShortColumnLength {
			return jet.ColtypText, nil
		}
		return jet.ColtypLongText, nil
	case ColumnTypeBinary:
		if def.MaxLength > 0 && def.MaxLength <= jet.MaxShortColumnLength {
			return jet.ColtypBinary, nil
		}
		return jet.ColtypLongBinary, nil
	}
	return jet.ColtypNil, invalidDefinition("ColtypFromColumnDefinition", "column %q has unknown type %d", def.Name, int(def.Type))
}

// ColumndefGrbitFromColumnFlags maps the abstract column flags to the native column options.
func ColumndefGrbitFromColumnFlags(flags ColumnFlags) (jet.ColumndefGrbit, error) {
	const op = "ColumndefGrbitFromColumnFlags"

	switch {
	case flags.Has(ColumnFixed | ColumnVariable):
		return 0, invalidDefinition(op, "flags %#x: a column cannot be fixed and variable", uint32(flags))
	case flags.Has(ColumnFixed | ColumnSparse):
		return 0, invalidDefinition(op, "flags %#x: a column cannot be fixed and sparse", uint32(flags))
	case flags.Has(ColumnFinalize | ColumnDeleteOnZero):
		return 0, invalidDefinition(op, "flags %#x: finalize and delete-on-zero are exclusive", uint32(flags))
	}

	grbit := jet.ColumnNone
	mapping := []struct {
		flag  ColumnFlags
		grbit jet.ColumndefGrbit
	}{
		{ColumnFixed, jet.ColumnFixed},
		{ColumnSparse, jet.ColumnTagged},
		{ColumnNonNull, jet.ColumnNotNULL},
		{ColumnVersion, jet.ColumnVersion},
		{ColumnAutoIncrement, jet.ColumnAutoincrement},
		{ColumnMultiValued, jet.ColumnTagged | jet.ColumnMultiValued},
		{ColumnEscrowUpdate, jet.ColumnEscrowUpdate},
		{ColumnFinalize, jet.ColumnFinalize},
		{ColumnDeleteOnZero, jet.ColumnDeleteOnZero},
	}
	for _, m := range mapping {
		if flags.Has(m.flag) {
			grbit |= m.grbit
		}
	}
	return grbit, nil
}

// ColumnDefFromColumnDefinition validates def and returns the native column
// definition together with the encoded default value.
func ColumnDefFromColumnDefinition(def ColumnDefinition) (jet.ColumnDef, []byte, error) {
	const op = "ColumnDefFromColumnDefinition"

	if def.Name == "" {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column name is empty")
	}
	if def.MaxLength < 0 {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q has negative max length %d", def.Name, def.MaxLength)
	}
	coltyp, err := ColtypFromColumnDefinition(def)
	if err != nil {
		return jet.ColumnDef{}, nil, err
	}
	grbit, err := ColumndefGrbitFromColumnFlags(def.Flags)
	if err != nil {
		return jet.ColumnDef{}, nil, err
	}

	if def.Flags.Has(ColumnAutoIncrement) && def.Type != ColumnTypeInt32 && def.Type != ColumnTypeInt64 {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: autoincrement requires int32 or int64, got %s", def.Name, def.Type)
	}
	if def.Flags.Has(ColumnVersion) && def.Type != ColumnTypeInt32 {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: version columns must be int32, got %s", def.Name, def.Type)
	}
	if def.Flags.Has(ColumnEscrowUpdate) {
		if def.Type != ColumnTypeInt32 {
			return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: escrow columns must be int32, got %s", def.Name, def.Type)
		}
		if def.DefaultValue == nil {
			return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: escrow columns need a default value", def.Name)
		}
	}
	if def.Flags.Has(ColumnFixed) && coltyp.IsLong() {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: long values cannot be fixed", def.Name)
	}

	cbMax := 0
	switch {
	case def.Type == ColumnTypeUInt64:
		cbMax = 8
	case def.Type == ColumnTypeText || def.Type == ColumnTypeBinary:
		cbMax = def.MaxLength
	}

	defaultValue, err := BytesFromValue(coltyp, false, def.DefaultValue)
	if err != nil {
		return jet.ColumnDef{}, nil, err
	}
	if cbMax > 0 && len(defaultValue) > cbMax {
		return jet.ColumnDef{}, nil, invalidDefinition(op, "column %q: default value has %d bytes, max is %d", def.Name, len(defaultValue), cbMax)
	}

	return jet.ColumnDef{
		Coltyp: coltyp,
		CP:     jet.CPUnicode,
		CbMax:  cbMax,
		Grbit:  grbit,
	}, defaultValue, nil
}

// --------------------------------------------------------------------------
// Index conversion
// --------------------------------------------------------------------------

const knownIndexFlags = IndexUnique | IndexPrimary | IndexDisallowNull | IndexIgnoreNull |
	IndexIgnoreAnyNull | IndexIgnoreFirstNull | IndexSortNullsHigh | IndexDisallowTruncation |
	IndexAllowTruncation

// IndexKeyFromIndexDefinition builds the double-null terminated key description,
// e.g. "+name\x00-age\x00\x00".
func IndexKeyFromIndexDefinition(def IndexDefinition) (string, error) {
	const op = "IndexKeyFromIndexDefinition"

	if len(def.KeyColumns) == 0 {
		return "", invalidDefinition(op, "index %q has no key columns", def.Name)
	}

	var sb strings.Builder
	for _, column := range def.KeyColumns {
		if column.Name == "" || strings.ContainsRune(column.Name, 0) {
			return "", invalidDefinition(op, "index %q has an invalid key column name %q", def.Name, column.Name)
		}
		if column.Descending {
			sb.WriteByte('-')
		} else {
			sb.WriteByte('+')
		}
		sb.WriteString(column.Name)
		sb.WriteByte(0)
	}
	sb.WriteByte(0)
	return sb.String(), nil
}

// GrbitFromIndexDefinition maps the index flags to the native index options.
// Truncation is disallowed unless the definition explicitly allows it.
func GrbitFromIndexDefinition(def IndexDefinition) (jet.CreateIndexGrbit, error) {
	const op = "GrbitFromIndexDefinition"

	flags := def.Flags
	if unknown := flags &^ knownIndexFlags; unknown != 0 {
		return 0, invalidDefinition(op, "index %q has unknown flags %#x", def.Name, uint32(unknown))
	}
	if flags.Has(IndexAllowTruncation | IndexDisallowTruncation) {
		return 0, invalidDefinition(op, "index %q cannot both allow and disallow truncation", def.Name)
	}
	if flags.Has(IndexDisallowNull) && flags&(IndexIgnoreNull|IndexIgnoreAnyNull) != 0 {
		return 0, invalidDefinition(op, "index %q cannot both disallow and ignore nulls", def.Name)
	}
	if def.MaxKeyLength < 0 {
		return 0, invalidDefinition(op, "index %q has negative max key length %d", def.Name, def.MaxKeyLength)
	}

	grbit := jet.CreateIndexGrbit(flags &^ IndexAllowTruncation)
	if !flags.Has(IndexAllowTruncation) {
		grbit |= jet.IndexDisallowTruncation
	}
	grbit |= jet.IndexUnicode
	if def.MaxKeyLength > 0 {
		grbit |= jet.IndexKeyMost
	}
	return grbit, nil
}

// LCMapString normalisation flags
const (
	mapSortKey         uint32 = 0x400
	normIgnoreCase     uint32 = 0x1
	normIgnoreNonSpace uint32 = 0x2
	normIgnoreSymbols  uint32 = 0x4
	normIgnoreKanaType uint32 = 0x10000
	normIgnoreWidth    uint32 = 0x20000
	sortStringSort     uint32 = 0x1000
)

// UnicodeFlagsFromCompareOptions returns the LCMapString flags for the compare options.
func UnicodeFlagsFromCompareOptions(options CompareOptions) (uint32, error) {
	const op = "UnicodeFlagsFromCompareOptions"

	for _, ordinal := range []CompareOptions{CompareOrdinal, CompareOrdinalIgnoreCase} {
		if options.has(ordinal) && options != ordinal {
			return 0, invalidDefinition(op, "compare options %#x: ordinal comparison cannot be combined", uint32(options))
		}
	}

	flags := mapSortKey
	mapping := []struct {
		option CompareOptions
		flag   uint32
	}{
		{CompareIgnoreCase, normIgnoreCase},
		{CompareOrdinalIgnoreCase, normIgnoreCase},
		{CompareIgnoreNonSpace, normIgnoreNonSpace},
		{CompareIgnoreSymbols, normIgnoreSymbols},
		{CompareIgnoreKanaType, normIgnoreKanaType},
		{CompareIgnoreWidth, normIgnoreWidth},
		{CompareStringSort, sortStringSort},
	}
	for _, m := range mapping {
		if options.has(m.option) {
			flags |= m.flag
		}
	}
	if known := CompareIgnoreCase | CompareIgnoreNonSpace | CompareIgnoreSymbols | CompareIgnoreKanaType |
		CompareIgnoreWidth | CompareStringSort | CompareOrdinal | CompareOrdinalIgnoreCase; options&^known != 0 {
		return 0, invalidDefinition(op, "unknown compare options %#x", uint32(options&^known))
	}
	return flags, nil
}

func (c CompareOptions) has(option CompareOptions) bool { return c&option == option }

const (
	lcidInvariant uint32 = 127
	lcidDefault   uint32 = 1033
)

// LCIDs of the common regional locales
var regionLcids = map[string]uint32{
	"en-US": 1033, "en-GB": 2057, "en-AU": 3081, "en-CA": 4105,
	"de-DE": 1031, "de-AT": 3079, "de-CH": 2055,
	"fr-FR": 1036, "fr-CA": 3084, "fr-CH": 4108,
	"es-ES": 3082, "es-MX": 2058,
	"it-IT": 1040, "nl-NL": 1043, "pt-BR": 1046, "pt-PT": 2070,
	"sv-SE": 1053, "da-DK": 1030, "nb-NO": 1044, "fi-FI": 1035,
	"pl-PL": 1045, "cs-CZ": 1029, "ru-RU": 1049, "tr-TR": 1055,
	"ja-JP": 1041, "ko-KR": 1042, "zh-CN": 2052, "zh-TW": 1028,
}

// LCIDs used when only the language of a locale is known
var languageLcids = map[string]uint32{
	"en": 1033, "de": 1031, "fr": 1036, "es": 3082, "it": 1040, "nl": 1043,
	"pt": 1046, "sv": 1053, "da": 1030, "nb": 1044, "no": 1044, "fi": 1035,
	"pl": 1045, "cs": 1029, "ru": 1049, "tr": 1055, "ja": 1041, "ko": 1042,
	"zh": 2052,
}

// LcidFromLocale returns the Windows locale identifier of tag. The zero
// (undetermined) tag maps to the invariant locale, unknown locales to en-US.
func LcidFromLocale(tag language.Tag) uint32 {
	if tag == language.Und {
		return lcidInvariant
	}

	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence == language.Exact {
		if lcid, ok := regionLcids[base.String()+"-"+region.String()]; ok {
			return lcid
		}
	}
	if lcid, ok := languageLcids[base.String()]; ok {
		return lcid
	}
	return lcidDefault
}

// ConditionalColumnsFromIndexDefinition returns the native conditional columns of def.
func ConditionalColumnsFromIndexDefinition(def IndexDefinition) []jet.ConditionalColumn {
	columns := make([]jet.ConditionalColumn, 0, len(def.ConditionalColumns))
	for _, column := range def.ConditionalColumns {
		grbit := jet.ColumnMustBeNonNull
		if column.MustBeNull {
			grbit = jet.ColumnMustBeNull
		}
		columns = append(columns, jet.ConditionalColumn{ColumnName: column.Name, Grbit: grbit})
	}
	return columns
}

// IndexCreateFromIndexDefinition builds the native create-structure of one index.
func IndexCreateFromIndexDefinition(def IndexDefinition) (jet.IndexCreate, error) {
	if def.Name == "" {
		return jet.IndexCreate{}, invalidDefinition("IndexCreateFromIndexDefinition", "index name is empty")
	}
	if def.Density != 0 && (def.Density < 20 || def.Density > 100) {
		return jet.IndexCreate{}, invalidDefinition("IndexCreateFromIndexDefinition", "index %q has invalid density %d", def.Name, def.Density)
	}
	key, err := IndexKeyFromIndexDefinition(def)
	if err != nil {
		return jet.IndexCreate{}, err
	}
	grbit, err := GrbitFromIndexDefinition(def)
	if err != nil {
		return jet.IndexCreate{}, err
	}
	mapFlags, err := UnicodeFlagsFromCompareOptions(def.CompareOptions)
	if err != nil {
		return jet.IndexCreate{}, err
	}

	return jet.IndexCreate{
		IndexName: def.Name,
		Key:       key,
		CbKey:     len(key),
		Grbit:     grbit,
		Density:   def.Density,
		Unicode: &jet.UnicodeIndex{
			Lcid:     LcidFromLocale(def.Locale),
			MapFlags: mapFlags,
		},
		ConditionalColumns: ConditionalColumnsFromIndexDefinition(def),
		CbKeyMost:          def.MaxKeyLength,
	}, nil
}

// tableSchema is a fully converted table definition, ready for the engine.
type tableSchema struct {
	name     string
	columns  []columnSchema
	indexes  []jet.IndexCreate
	coltypes map[string]jet.Coltyp
}

type columnSchema struct {
	name         string
	def          jet.ColumnDef
	defaultValue []byte
}

// convertTableDefinition converts every column and index of def. No engine
// call may happen before this succeeded.
func convertTableDefinition(def TableDefinition) (*tableSchema, error) {
	const op = "CreateTable"

	if def.Name == "" {
		return nil, invalidDefinition(op, "table name is empty")
	}

	schema := &tableSchema{
		name:     def.Name,
		coltypes: make(map[string]jet.Coltyp, len(def.Columns)),
	}
	for _, column := range def.Columns {
		native, defaultValue, err := ColumnDefFromColumnDefinition(column)
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(column.Name)
		if _, ok := schema.coltypes[lower]; ok {
			return nil, invalidDefinition(op, "table %q defines column %q twice", def.Name, column.Name)
		}
		schema.coltypes[lower] = native.Coltyp
		schema.columns = append(schema.columns, columnSchema{name: column.Name, def: native, defaultValue: defaultValue})
	}

	primaries := 0
	for _, index := range def.Indexes {
		native, err := IndexCreateFromIndexDefinition(index)
		if err != nil {
			return nil, err
		}
		for _, key := range index.KeyColumns {
			if _, ok := schema.coltypes[strings.ToLower(key.Name)]; !ok {
				return nil, invalidDefinition(op, "index %q references unknown column %q", index.Name, key.Name)
			}
		}
		if index.Flags.Has(IndexPrimary) {
			primaries++
		}
		schema.indexes = append(schema.indexes, native)
	}
	if primaries > 1 {
		return nil, invalidDefinition(op, "table %q defines %d primary indexes", def.Name, primaries)
	}
	return schema, nil
}

// --------------------------------------------------------------------------
// Value conversion
// --------------------------------------------------------------------------

// OLE automation dates count days since 1899-12-30.
var oleEpochMilli = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).UnixMilli()

const millisPerDay = 24 * 60 * 60 * 1000

// BytesFromValue encodes value for a column of type coltyp. Text is encoded
// as Windows-1252 when ascii is set and as UTF-16LE otherwise. nil encodes
// to nil (NULL).
func BytesFromValue(coltyp jet.Coltyp, ascii bool, value any) ([]byte, error) {
	const op = "BytesFromValue"

	if value == nil {
		return nil, nil
	}
	mismatch := func() error {
		return invalidDefinition(op, "cannot store %T in a %s column", value, coltyp)
	}

	switch coltyp {
	case jet.ColtypBit:
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch()
		}
		if b {
			return []byte{0xff}, nil
		}
		return []byte{0x00}, nil

	case jet.ColtypUnsignedByte, jet.ColtypShort, jet.ColtypUnsignedShort, jet.ColtypLong,
		jet.ColtypUnsignedLong, jet.ColtypCurrency, jet.ColtypLongLong:
		return integerBytes(coltyp, value, mismatch)

	case jet.ColtypIEEESingle:
		f, ok := value.(float32)
		if !ok {
			return nil, mismatch()
		}
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(f)), nil

	case jet.ColtypIEEEDouble:
		f, ok := value.(float64)
		if !ok {
			return nil, mismatch()
		}
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)), nil

	case jet.ColtypDateTime:
		t, ok := value.(time.Time)
		if !ok {
			return nil, mismatch()
		}
		days := float64(t.UnixMilli()-oleEpochMilli) / millisPerDay
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(days)), nil

	case jet.ColtypGUID:
		id, ok := value.(uuid.UUID)
		if !ok {
			return nil, mismatch()
		}
		return guidBytes(id), nil

	case jet.ColtypText, jet.ColtypLongText:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch()
		}
		encoded, err := encodeText(s, ascii)
		if err != nil {
			return nil, invalidDefinition(op, "cannot encode %q: %v", s, err)
		}
		return encoded, nil

	case jet.ColtypBinary, jet.ColtypLongBinary:
		switch v := value.(type) {
		case []byte:
			return append([]byte{}, v...), nil
		case uint64:
			return binary.LittleEndian.AppendUint64(nil, v), nil
		}
		return nil, mismatch()
	}
	return nil, mismatch()
}

func integerBytes(coltyp jet.Coltyp, value any, mismatch func() error) ([]byte, error) {
	var (
		n      int64
		signed = true
		u      uint64
	)
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint:
		signed, u = false, uint64(v)
	case uint64:
		signed, u = false, v
	default:
		return nil, mismatch()
	}
	if !signed {
		if u > math.MaxInt64 {
			return nil, mismatch()
		}
		n = int64(u)
	}

	inRange := func(lo, hi int64) bool { return n >= lo && n <= hi }
	switch coltyp {
	case jet.ColtypUnsignedByte:
		if inRange(0, math.MaxUint8) {
			return []byte{byte(n)}, nil
		}
	case jet.ColtypShort:
		if inRange(math.MinInt16, math.MaxInt16) {
			return binary.LittleEndian.AppendUint16(nil, uint16(n)), nil
		}
	case jet.ColtypUnsignedShort:
		if inRange(0, math.MaxUint16) {
			return binary.LittleEndian.AppendUint16(nil, uint16(n)), nil
		}
	case jet.ColtypLong:
		if inRange(math.MinInt32, math.MaxInt32) {
			return binary.LittleEndian.AppendUint32(nil, uint32(n)), nil
		}
	case jet.ColtypUnsignedLong:
		if inRange(0, math.MaxUint32) {
			return binary.LittleEndian.AppendUint32(nil, uint32(n)), nil
		}
	case jet.ColtypCurrency, jet.ColtypLongLong:
		return binary.LittleEndian.AppendUint64(nil, uint64(n)), nil
	}
	return nil, mismatch()
}

// guidBytes returns the Windows layout of id: the first three groups little endian.
func guidBytes(id uuid.UUID) []byte {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = id[3], id[2], id[1], id[0]
	b[4], b[5] = id[5], id[4]
	b[6], b[7] = id[7], id[6]
	copy(b[8:], id[8:])
	return b
}

func guidFromBytes(b []byte) uuid.UUID {
	var id uuid.UUID
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	copy(id[8:], b[8:])
	return id
}

func encodeText(s string, ascii bool) ([]byte, error) {
	if ascii {
		return charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
}

func decodeText(b []byte, cp jet.CP) (string, error) {
	var (
		decoded []byte
		err     error
	)
	if cp == jet.CPASCII {
		decoded, err = charmap.Windows1252.NewDecoder().Bytes(b)
	} else {
		decoded, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	}
	return string(decoded), err
}

// ValueFromBytes decodes a column value stored by BytesFromValue. Columns of
// type Binary holding exactly 8 bytes are returned as []byte; callers that
// know the column is a UInt64 decode it with binary.LittleEndian.
func ValueFromBytes(coltyp jet.Coltyp, cp jet.CP, b []byte) (any, error) {
	const op = "ValueFromBytes"

	if b == nil {
		return nil, nil
	}
	if size, fixed := coltyp.FixedSize(); fixed && len(b) != size {
		return nil, invalidDefinition(op, "a %s value needs %d bytes, got %d", coltyp, size, len(b))
	}

	switch coltyp {
	case jet.ColtypBit:
		return b[0] != 0, nil
	case jet.ColtypUnsignedByte:
		return b[0], nil
	case jet.ColtypShort:
		return int16(binary.LittleEndian.Uint16(b)), nil
	case jet.ColtypUnsignedShort:
		return binary.LittleEndian.Uint16(b), nil
	case jet.ColtypLong:
		return int32(binary.LittleEndian.Uint32(b)), nil
	case jet.ColtypUnsignedLong:
		return binary.LittleEndian.Uint32(b), nil
	case jet.ColtypCurrency, jet.ColtypLongLong:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case jet.ColtypIEEESingle:
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case jet.ColtypIEEEDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case jet.ColtypDateTime:
		days := math.Float64frombits(binary.LittleEndian.Uint64(b))
		return time.UnixMilli(int64(math.Round(days*millisPerDay)) + oleEpochMilli).UTC(), nil
	case jet.ColtypGUID:
		return guidFromBytes(b), nil
	case jet.ColtypText, jet.ColtypLongText:
		s, err := decodeText(b, cp)
		if err != nil {
			return nil, invalidDefinition(op, "cannot decode text: %v", err)
		}
		return s, nil
	case jet.ColtypBinary, jet.ColtypLongBinary:
		return append([]byte{}, b...), nil
	}
	return nil, invalidDefinition(op, "unsupported column type %s", coltyp)
}
