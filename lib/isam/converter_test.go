package isam

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

func TestColtypFromColumnDefinition(t *testing.T) {
	cases := []struct {
		def      ColumnDefinition
		expected jet.Coltyp
	}{
		{ColumnDefinition{Type: ColumnTypeBool}, jet.ColtypBit},
		{ColumnDefinition{Type: ColumnTypeByte}, jet.ColtypUnsignedByte},
		{ColumnDefinition{Type: ColumnTypeInt16}, jet.ColtypShort},
		{ColumnDefinition{Type: ColumnTypeUInt16}, jet.ColtypUnsignedShort},
		{ColumnDefinition{Type: ColumnTypeInt32}, jet.ColtypLong},
		{ColumnDefinition{Type: ColumnTypeUInt32}, jet.ColtypUnsignedLong},
		{ColumnDefinition{Type: ColumnTypeInt64}, jet.ColtypCurrency},
		{ColumnDefinition{Type: ColumnTypeUInt64}, jet.ColtypBinary},
		{ColumnDefinition{Type: ColumnTypeFloat32}, jet.ColtypIEEESingle},
		{ColumnDefinition{Type: ColumnTypeFloat64}, jet.ColtypIEEEDouble},
		{ColumnDefinition{Type: ColumnTypeDateTime}, jet.ColtypDateTime},
		{ColumnDefinition{Type: ColumnTypeGUID}, jet.ColtypGUID},
		{ColumnDefinition{Type: ColumnTypeText, MaxLength: 255}, jet.ColtypText},
		{ColumnDefinition{Type: ColumnTypeText, MaxLength: 256}, jet.ColtypLongText},
		{ColumnDefinition{Type: ColumnTypeText}, jet.ColtypLongText},
		{ColumnDefinition{Type: ColumnTypeBinary, MaxLength: 16}, jet.ColtypBinary},
		{ColumnDefinition{Type: ColumnTypeBinary}, jet.ColtypLongBinary},
	}

	for _, tc := range cases {
		t.Run(tc.def.Type.String(), func(t *testing.T) {
			coltyp, err := ColtypFromColumnDefinition(tc.def)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if coltyp != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, coltyp)
			}
		})
	}

	if _, err := ColtypFromColumnDefinition(ColumnDefinition{Type: ColumnType(99)}); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("Expected an invalid definition error, got %v", err)
	}
}

func TestColumndefGrbitFromColumnFlags(t *testing.T) {
	t.Run("Mapping", func(t *testing.T) {
		grbit, err := ColumndefGrbitFromColumnFlags(ColumnFixed | ColumnNonNull | ColumnAutoIncrement | ColumnUpdatable)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		expected := jet.ColumnFixed | jet.ColumnNotNULL | jet.ColumnAutoincrement
		if grbit != expected {
			t.Errorf("Expected %s, got %s", expected, grbit)
		}

		grbit, err = ColumndefGrbitFromColumnFlags(ColumnMultiValued | ColumnSparse)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if grbit != jet.ColumnTagged|jet.ColumnMultiValued {
			t.Errorf("Expected tagged multi-valued, got %s", grbit)
		}
	})

	t.Run("Contradictions", func(t *testing.T) {
		for _, flags := range []ColumnFlags{
			ColumnFixed | ColumnVariable,
			ColumnFixed | ColumnSparse,
			ColumnFinalize | ColumnDeleteOnZero,
		} {
			if _, err := ColumndefGrbitFromColumnFlags(flags); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Expected flags %#x to be rejected, got %v", uint32(flags), err)
			}
		}
	})
}

func TestColumnDefFromColumnDefinition(t *testing.T) {
	def, dflt, err := ColumnDefFromColumnDefinition(ColumnDefinition{
		Name:         "counter",
		Type:         ColumnTypeInt32,
		Flags:        ColumnEscrowUpdate,
		DefaultValue: int32(5),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if def.Coltyp != jet.ColtypLong || def.CP != jet.CPUnicode || !def.Grbit.Has(jet.ColumnEscrowUpdate) {
		t.Errorf("Unexpected column def %+v", def)
	}
	if !bytes.Equal(dflt, []byte{5, 0, 0, 0}) {
		t.Errorf("Expected default [5 0 0 0], got %v", dflt)
	}

	invalid := []ColumnDefinition{
		{Name: "", Type: ColumnTypeInt32},
		{Name: "c", Type: ColumnTypeText, MaxLength: -1},
		{Name: "c", Type: ColumnTypeInt16, Flags: ColumnAutoIncrement},
		{Name: "c", Type: ColumnTypeInt64, Flags: ColumnVersion},
		{Name: "c", Type: ColumnTypeInt32, Flags: ColumnEscrowUpdate},
		{Name: "c", Type: ColumnTypeText, Flags: ColumnFixed},
		{Name: "c", Type: ColumnTypeText, MaxLength: 4, DefaultValue: "too long"},
	}
	for _, column := range invalid {
		if _, _, err := ColumnDefFromColumnDefinition(column); !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("Expected %+v to be rejected, got %v", column, err)
		}
	}
}

func TestIndexKeyFromIndexDefinition(t *testing.T) {
	key, err := IndexKeyFromIndexDefinition(IndexDefinition{
		Name:       "by_name",
		KeyColumns: []KeyColumn{{Name: "name"}, {Name: "age", Descending: true}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != "+name\x00-age\x00\x00" {
		t.Errorf("Expected %q, got %q", "+name\x00-age\x00\x00", key)
	}

	if _, err := IndexKeyFromIndexDefinition(IndexDefinition{Name: "empty"}); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("Expected an index without key columns to be rejected, got %v", err)
	}
}

func TestGrbitFromIndexDefinition(t *testing.T) {
	cases := []struct {
		name     string
		def      IndexDefinition
		expected jet.CreateIndexGrbit
	}{
		{
			"Default",
			IndexDefinition{},
			jet.IndexDisallowTruncation | jet.IndexUnicode,
		},
		{
			"AllowTruncation",
			IndexDefinition{Flags: IndexAllowTruncation},
			jet.IndexUnicode,
		},
		{
			"PrimaryUnique",
			IndexDefinition{Flags: IndexPrimary | IndexUnique | IndexSortNullsHigh},
			jet.IndexPrimary | jet.IndexUnique | jet.IndexSortNullsHigh | jet.IndexDisallowTruncation | jet.IndexUnicode,
		},
		{
			"IgnoreNulls",
			IndexDefinition{Flags: IndexIgnoreAnyNull | IndexAllowNull | IndexSortNullsLow},
			jet.IndexIgnoreAnyNull | jet.IndexDisallowTruncation | jet.IndexUnicode,
		},
		{
			"KeyMost",
			IndexDefinition{Flags: IndexDisallowTruncation, MaxKeyLength: 32},
			jet.IndexDisallowTruncation | jet.IndexUnicode | jet.IndexKeyMost,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grbit, err := GrbitFromIndexDefinition(tc.def)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if grbit != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, grbit)
			}
		})
	}

	t.Run("Rejected", func(t *testing.T) {
		for _, def := range []IndexDefinition{
			{Flags: IndexAllowTruncation | IndexDisallowTruncation},
			{Flags: IndexDisallowNull | IndexIgnoreNull},
			{Flags: IndexDisallowNull | IndexIgnoreAnyNull},
			{Flags: IndexFlags(0x80)},
			{MaxKeyLength: -1},
		} {
			if _, err := GrbitFromIndexDefinition(def); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Expected flags %#x to be rejected, got %v", uint32(def.Flags), err)
			}
		}
	})
}

func TestUnicodeFlagsFromCompareOptions(t *testing.T) {
	cases := []struct {
		options  CompareOptions
		expected uint32
	}{
		{CompareNone, 0x400},
		{CompareIgnoreCase, 0x401},
		{CompareIgnoreCase | CompareIgnoreWidth | CompareIgnoreKanaType, 0x30401},
		{CompareIgnoreNonSpace | CompareIgnoreSymbols | CompareStringSort, 0x1406},
		{CompareOrdinal, 0x400},
		{CompareOrdinalIgnoreCase, 0x401},
	}
	for _, tc := range cases {
		flags, err := UnicodeFlagsFromCompareOptions(tc.options)
		if err != nil {
			t.Fatalf("Unexpected error for %#x: %v", uint32(tc.options), err)
		}
		if flags != tc.expected {
			t.Errorf("Expected %#x for %#x, got %#x", tc.expected, uint32(tc.options), flags)
		}
	}

	for _, options := range []CompareOptions{CompareOrdinal | CompareIgnoreCase, CompareOrdinalIgnoreCase | CompareStringSort} {
		if _, err := UnicodeFlagsFromCompareOptions(options); !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("Expected %#x to be rejected, got %v", uint32(options), err)
		}
	}
}

func TestLcidFromLocale(t *testing.T) {
	cases := []struct {
		tag      language.Tag
		expected uint32
	}{
		{language.Und, 127},
		{language.AmericanEnglish, 1033},
		{language.BritishEnglish, 2057},
		{language.MustParse("de-CH"), 2055},
		{language.German, 1031},
		{language.Japanese, 1041},
		{language.MustParse("sw-KE"), 1033},
	}
	for _, tc := range cases {
		if lcid := LcidFromLocale(tc.tag); lcid != tc.expected {
			t.Errorf("Expected lcid %d for %s, got %d", tc.expected, tc.tag, lcid)
		}
	}
}

func TestConditionalColumnsFromIndexDefinition(t *testing.T) {
	columns := ConditionalColumnsFromIndexDefinition(IndexDefinition{
		ConditionalColumns: []ConditionalColumn{{Name: "deleted", MustBeNull: true}, {Name: "active"}},
	})
	if len(columns) != 2 {
		t.Fatalf("Expected 2 conditional columns, got %d", len(columns))
	}
	if columns[0].ColumnName != "deleted" || columns[0].Grbit != jet.ColumnMustBeNull {
		t.Errorf("Unexpected first conditional column %+v", columns[0])
	}
	if columns[1].ColumnName != "active" || columns[1].Grbit != jet.ColumnMustBeNonNull {
		t.Errorf("Unexpected second conditional column %+v", columns[1])
	}
}

func TestBytesFromValue(t *testing.T) {
	cases := []struct {
		name     string
		coltyp   jet.Coltyp
		ascii    bool
		value    any
		expected []byte
	}{
		{"Nil", jet.ColtypLong, false, nil, nil},
		{"True", jet.ColtypBit, false, true, []byte{0xff}},
		{"False", jet.ColtypBit, false, false, []byte{0x00}},
		{"Short", jet.ColtypShort, false, int16(-2), []byte{0xfe, 0xff}},
		{"Long", jet.ColtypLong, false, int32(0x01020304), []byte{4, 3, 2, 1}},
		{"LongFromInt", jet.ColtypLong, false, 258, []byte{2, 1, 0, 0}},
		{"Currency", jet.ColtypCurrency, false, int64(1), []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"UInt64", jet.ColtypBinary, false, uint64(0x0102), []byte{2, 1, 0, 0, 0, 0, 0, 0}},
		{"Double", jet.ColtypIEEEDouble, false, 1.0, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{"Single", jet.ColtypIEEESingle, false, float32(1), []byte{0, 0, 0x80, 0x3f}},
		{"OleEpoch", jet.ColtypDateTime, false, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC), make([]byte, 8)},
		{"OleDayOne", jet.ColtypDateTime, false, time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC), []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{"Guid", jet.ColtypGUID, false, uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
			[]byte{0x33, 0x22, 0x11, 0x00, 0x55, 0x44, 0x77, 0x66, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}},
		{"Unicode", jet.ColtypText, false, "Aé", []byte{0x41, 0x00, 0xe9, 0x00}},
		{"Ascii", jet.ColtypText, true, "Aé€", []byte{0x41, 0xe9, 0x80}},
		{"Binary", jet.ColtypLongBinary, false, []byte{9, 8}, []byte{9, 8}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := BytesFromValue(tc.coltyp, tc.ascii, tc.value)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !bytes.Equal(b, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, b)
			}
		})
	}

	t.Run("Mismatch", func(t *testing.T) {
		mismatches := []struct {
			coltyp jet.Coltyp
			value  any
		}{
			{jet.ColtypBit, 1},
			{jet.ColtypUnsignedByte, -1},
			{jet.ColtypShort, 40000},
			{jet.ColtypLong, "1"},
			{jet.ColtypUnsignedLong, uint64(1) << 63},
			{jet.ColtypIEEEDouble, float32(1)},
			{jet.ColtypGUID, "00112233-4455-6677-8899-aabbccddeeff"},
			{jet.ColtypText, []byte("x")},
		}
		for _, m := range mismatches {
			if _, err := BytesFromValue(m.coltyp, false, m.value); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Expected %T for %s to be rejected, got %v", m.value, m.coltyp, err)
			}
		}
	})
}

func TestValueFromBytes(t *testing.T) {
	at := time.Date(2010, 5, 31, 4, 44, 17, 0, time.UTC)
	b, err := BytesFromValue(jet.ColtypDateTime, false, at)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	value, err := ValueFromBytes(jet.ColtypDateTime, jet.CPNone, b)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !value.(time.Time).Equal(at) {
		t.Errorf("Expected %v, got %v", at, value)
	}

	id := uuid.New()
	b, _ = BytesFromValue(jet.ColtypGUID, false, id)
	if value, _ := ValueFromBytes(jet.ColtypGUID, jet.CPNone, b); value != id {
		t.Errorf("Expected %s, got %v", id, value)
	}

	if value, _ := ValueFromBytes(jet.ColtypText, jet.CPASCII, []byte{0x41, 0xe9, 0x80}); value != "Aé€" {
		t.Errorf("Expected Aé€, got %v", value)
	}
	if value, _ := ValueFromBytes(jet.ColtypLongText, jet.CPUnicode, []byte{0x41, 0x00, 0xe9, 0x00}); value != "Aé" {
		t.Errorf("Expected Aé, got %v", value)
	}
	if value, err := ValueFromBytes(jet.ColtypLong, jet.CPNone, nil); value != nil || err != nil {
		t.Errorf("Expected nil for NULL, got %v (%v)", value, err)
	}
	if _, err := ValueFromBytes(jet.ColtypLong, jet.CPNone, []byte{1, 2}); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("Expected a short value to be rejected, got %v", err)
	}
}

func TestConvertTableDefinition(t *testing.T) {
	schema, err := convertTableDefinition(peopleTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(schema.columns) != 3 || len(schema.indexes) != 1 {
		t.Fatalf("Expected 3 columns and 1 index, got %d and %d", len(schema.columns), len(schema.indexes))
	}
	index := schema.indexes[0]
	if index.Key != "+id\x00\x00" || index.CbKey != len(index.Key) || index.Unicode == nil || index.Density != 90 {
		t.Errorf("Unexpected index create %+v", index)
	}

	duplicate := peopleTable()
	duplicate.Columns = append(duplicate.Columns, ColumnDefinition{Name: "ID", Type: ColumnTypeInt32})
	if _, err := convertTableDefinition(duplicate); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("Expected a duplicate column to be rejected, got %v", err)
	}

	twoPrimaries := peopleTable()
	twoPrimaries.Indexes = append(twoPrimaries.Indexes, IndexDefinition{
		Name: "second", KeyColumns: []KeyColumn{{Name: "name"}}, Flags: IndexPrimary,
	})
	if _, err := convertTableDefinition(twoPrimaries); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("Expected two primary indexes to be rejected, got %v", err)
	}
}
