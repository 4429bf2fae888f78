package internal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/tidwall/btree"
)

// defaultKeyMost is the key length limit of indexes created without IndexKeyMost.
const defaultKeyMost = 255

// --------------------------------------------------------------------------
// Record (one row of a table)
// --------------------------------------------------------------------------

// Record stores the column values of one row, keyed by column id.
// A missing entry is a NULL column.
type Record struct {
	Bookmark uint64
	Values   map[uint32][]byte
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	values := make(map[uint32][]byte, len(r.Values))
	for k, v := range r.Values {
		values[k] = bytes.Clone(v)
	}
	return &Record{Bookmark: r.Bookmark, Values: values}
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{Bookmark: %d, Columns: %d}", r.Bookmark, len(r.Values))
}

// --------------------------------------------------------------------------
// Column and Index
// --------------------------------------------------------------------------

// Column is the engine side state of a column.
type Column struct {
	Info    jet.ColumnInfo
	AutoInc int64 // Last value handed out for autoincrement columns
}

// Index is the engine side state of an index.
type Index struct {
	Info jet.IndexInfo
}

// ParseKey splits a double-null terminated key description into segments.
// Segments without a '+' or '-' prefix are ascending.
func ParseKey(key string) ([]jet.IndexSegment, bool) {
	if len(key) < 3 || !strings.HasSuffix(key, "\x00\x00") {
		return nil, false
	}
	var segments []jet.IndexSegment
	for _, part := range strings.Split(strings.TrimSuffix(key, "\x00\x00"), "\x00") {
		segment := jet.IndexSegment{Ascending: true}
		switch {
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		case strings.HasPrefix(part, "-"):
			segment.Ascending = false
			part = part[1:]
		}
		if part == "" {
			return nil, false
		}
		segment.ColumnName = part
		segments = append(segments, segment)
	}
	return segments, true
}

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table holds the schema and the records of one table.
// Records are kept in a B-tree ordered by bookmark.
type Table struct {
	Name         string
	Pages        int
	Density      int
	Columns      []*Column
	Indexes      []*Index
	records      btree.Map[uint64, *Record]
	NextBookmark uint64
	NextFixed    uint32
	NextVariable uint32
	NextTagged   uint32
}

// Column id ranges, matching the native engine.
const (
	FirstFixedColumnid    = 1
	FirstVariableColumnid = 128
	FirstTaggedColumnid   = 256
)

// NewTable creates an empty table.
func NewTable(name string, pages, density int) *Table {
	return &Table{
		Name:         name,
		Pages:        pages,
		Density:      density,
		NextBookmark: 1,
		NextFixed:    FirstFixedColumnid,
		NextVariable: FirstVariableColumnid,
		NextTagged:   FirstTaggedColumnid,
	}
}

// ColumnByName finds a column by its case-insensitive name.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Info.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// ColumnByID finds a column by its id.
func (t *Table) ColumnByID(id uint32) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Info.Columnid.Value == id {
			return c, true
		}
	}
	return nil, false
}

// IndexByName finds an index by its case-insensitive name.
func (t *Table) IndexByName(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if strings.EqualFold(idx.Info.Name, name) {
			return idx, true
		}
	}
	return nil, false
}

// HasPrimary returns true if the table has a primary index.
func (t *Table) HasPrimary() bool {
	for _, idx := range t.Indexes {
		if idx.Info.Grbit.Has(jet.IndexPrimary) {
			return true
		}
	}
	return false
}

// AllocColumnid hands out the next column id of the range matching grbit and coltyp.
func (t *Table) AllocColumnid(grbit jet.ColumndefGrbit, coltyp jet.Coltyp) jet.Columnid {
	var id uint32
	_, fixedSize := coltyp.FixedSize()
	switch {
	case grbit.Has(jet.ColumnTagged) || grbit.Has(jet.ColumnMultiValued) || coltyp.IsLong():
		id = t.NextTagged
		t.NextTagged++
	case grbit.Has(jet.ColumnFixed) || fixedSize:
		id = t.NextFixed
		t.NextFixed++
	default:
		id = t.NextVariable
		t.NextVariable++
	}
	return jet.Columnid{Value: id}
}

// RemoveColumn drops a column from the schema.
func (t *Table) RemoveColumn(id uint32) {
	for i, c := range t.Columns {
		if c.Info.Columnid.Value == id {
			t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
			return
		}
	}
}

// RemoveIndex drops an index from the schema.
func (t *Table) RemoveIndex(name string) {
	for i, idx := range t.Indexes {
		if strings.EqualFold(idx.Info.Name, name) {
			t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
			return
		}
	}
}

// --------------------------------------------------------------------------
// Record navigation (bookmark order)
// --------------------------------------------------------------------------

// Len returns the number of records.
func (t *Table) Len() int { return t.records.Len() }

// Scan calls fn for every record in bookmark order until fn returns false.
func (t *Table) Scan(fn func(r *Record) bool) {
	t.records.Scan(func(_ uint64, r *Record) bool { return fn(r) })
}

// Find returns the record with the given bookmark.
func (t *Table) Find(bm uint64) (*Record, bool) {
	return t.records.Get(bm)
}

// Next returns the first record after bm.
func (t *Table) Next(bm uint64) (*Record, bool) {
	if bm == ^uint64(0) {
		return nil, false
	}
	var next *Record
	t.records.Ascend(bm+1, func(_ uint64, r *Record) bool {
		next = r
		return false
	})
	return next, next != nil
}

// Previous returns the last record before bm.
func (t *Table) Previous(bm uint64) (*Record, bool) {
	if bm == 0 {
		return nil, false
	}
	var prev *Record
	t.records.Descend(bm-1, func(_ uint64, r *Record) bool {
		prev = r
		return false
	})
	return prev, prev != nil
}

// Insert adds a record, replacing one with the same bookmark.
func (t *Table) Insert(r *Record) {
	t.records.Set(r.Bookmark, r)
}

// Remove deletes the record with the given bookmark.
func (t *Table) Remove(bm uint64) (*Record, bool) {
	return t.records.Delete(bm)
}

// --------------------------------------------------------------------------
// Value and key helpers
// --------------------------------------------------------------------------

// Value returns the effective value of a column: the stored value or the column default.
func (t *Table) Value(r *Record, c *Column) []byte {
	if v, ok := r.Values[c.Info.Columnid.Value]; ok {
		return v
	}
	return c.Info.Default
}

// IndexEntry is the key of a record in one index.
type IndexEntry struct {
	Key     []byte
	Indexed bool // false if null handling or a conditional column excludes the record
}

// ErrNullKey signals a NULL key column in an index that disallows NULLs.
var ErrNullKey = fmt.Errorf("null key column")

// ErrKeyTooLong signals a key exceeding the index limit while truncation is disallowed.
var ErrKeyTooLong = fmt.Errorf("key too long")

// Entry builds the index key of r. Descending segments are complemented so
// that a plain byte comparison yields the index order.
func (t *Table) Entry(idx *Index, r *Record) (IndexEntry, error) {
	var (
		key     []byte
		anyNull bool
		allNull = true
	)

	for _, segment := range idx.Info.Segments {
		c, ok := t.ColumnByName(segment.ColumnName)
		if !ok {
			return IndexEntry{}, fmt.Errorf("unknown key column %s", segment.ColumnName)
		}
		v := t.Value(r, c)
		if v == nil {
			anyNull = true
			key = append(key, 0x00)
			continue
		}
		allNull = false
		part := append([]byte{0x7f}, v...)
		if !segment.Ascending {
			for i := range part {
				part[i] = ^part[i]
			}
		}
		key = append(key, part...)
	}

	grbit := idx.Info.Grbit
	if anyNull && (grbit.Has(jet.IndexDisallowNull) || grbit.Has(jet.IndexPrimary)) {
		return IndexEntry{}, ErrNullKey
	}
	if (anyNull && grbit.Has(jet.IndexIgnoreAnyNull)) || (allNull && grbit.Has(jet.IndexIgnoreNull)) {
		return IndexEntry{Indexed: false}, nil
	}

	for _, cond := range idx.Info.ConditionalColumns {
		c, ok := t.ColumnByName(cond.ColumnName)
		if !ok {
			continue
		}
		isNull := t.Value(r, c) == nil
		if (cond.Grbit == jet.ColumnMustBeNull && !isNull) || (cond.Grbit == jet.ColumnMustBeNonNull && isNull) {
			return IndexEntry{Indexed: false}, nil
		}
	}

	keyMost := defaultKeyMost
	if grbit.Has(jet.IndexKeyMost) && idx.Info.CbKeyMost > 0 {
		keyMost = idx.Info.CbKeyMost
	}
	if len(key) > keyMost {
		if grbit.Has(jet.IndexDisallowTruncation) {
			return IndexEntry{}, ErrKeyTooLong
		}
		key = key[:keyMost]
	}

	return IndexEntry{Key: key, Indexed: true}, nil
}

// Conflicts returns true if another record (not skip) has the same key in a unique index.
func (t *Table) Conflicts(idx *Index, entry IndexEntry, skip uint64) bool {
	if !entry.Indexed || !(idx.Info.Grbit.Has(jet.IndexUnique) || idx.Info.Grbit.Has(jet.IndexPrimary)) {
		return false
	}
	conflict := false
	t.Scan(func(other *Record) bool {
		if other.Bookmark == skip {
			return true
		}
		otherEntry, err := t.Entry(idx, other)
		if err != nil || !otherEntry.Indexed {
			return true
		}
		conflict = bytes.Equal(otherEntry.Key, entry.Key)
		return !conflict
	})
	return conflict
}
