package memjet

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet/internal"
)

// --------------------------------------------------------------------------
// Cursor structure
// --------------------------------------------------------------------------

type position int

const (
	beforeFirst position = iota
	onRecord
	afterLast
)

// cursor is an open table. It is positioned by bookmark so that it survives
// inserts and deletes of other records.
type cursor struct {
	handle   jet.Tableid
	sesid    jet.Sesid
	db       *database
	table    *internal.Table
	grbit    jet.OpenTableGrbit
	state    position
	bookmark uint64
	update   *pendingUpdate
}

// pendingUpdate is the copy buffer between PrepareUpdate and Update.
type pendingUpdate struct {
	prep   jet.Prep
	record *internal.Record
}

func (c *cursor) isInsert() bool {
	return c.update.prep == jet.PrepInsert || c.update.prep == jet.PrepInsertCopy
}

// current returns the record under the cursor.
func (c *cursor) current() (*internal.Record, bool) {
	if c.state != onRecord {
		return nil, false
	}
	return c.table.Find(c.bookmark)
}

// step moves the cursor one record forward or backward.
func (c *cursor) step(forward bool) bool {
	var (
		r  *internal.Record
		ok bool
	)
	switch {
	case c.state == beforeFirst && forward:
		r, ok = c.table.Next(0)
	case c.state == afterLast && !forward:
		r, ok = c.table.Previous(^uint64(0))
	case c.state == onRecord && forward:
		r, ok = c.table.Next(c.bookmark)
	case c.state == onRecord && !forward:
		r, ok = c.table.Previous(c.bookmark)
	}

	if !ok {
		if forward {
			c.state = afterLast
		} else {
			c.state = beforeFirst
		}
		return false
	}
	c.state = onRecord
	c.bookmark = r.Bookmark
	return true
}

// --------------------------------------------------------------------------
// Cursor registry
// --------------------------------------------------------------------------

func (e *memjetImpl) openCursor(s *session, db *database, table *internal.Table, grbit jet.OpenTableGrbit) *cursor {
	c := &cursor{
		handle: jet.Tableid{Value: e.nextHandle()},
		sesid:  s.handle,
		db:     db,
		table:  table,
		grbit:  grbit,
	}
	e.cursors.Store(c.handle, c)
	return c
}

// closeCursors closes every cursor matching the predicate.
func (e *memjetImpl) closeCursors(match func(c *cursor) bool) {
	e.cursors.Range(func(id jet.Tableid, c *cursor) bool {
		if match(c) {
			e.cursors.Delete(id)
		}
		return true
	})
}

// sessionCursor resolves a session and one of its open tables.
func (e *memjetImpl) sessionCursor(op string, sesid jet.Sesid, tableid jet.Tableid) (*session, *cursor, error) {
	s, err := e.session(op, sesid)
	if err != nil {
		return nil, nil, err
	}
	c, ok := e.cursors.Load(tableid)
	if !ok || c.sesid != sesid {
		return nil, nil, jet.NewError(op, jet.ErrInvalidTableId)
	}
	return s, c, nil
}

// --------------------------------------------------------------------------
// Open and Close
// --------------------------------------------------------------------------

func (e *memjetImpl) OpenTable(sesid jet.Sesid, dbid jet.Dbid, name string, grbit jet.OpenTableGrbit) (jet.Tableid, error) {
	const op = "JetOpenTable"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return jet.NilTableid, err
	}
	db, err := e.database(op, s, dbid)
	if err != nil {
		return jet.NilTableid, err
	}
	table, ok := db.tables[strings.ToLower(name)]
	if !ok {
		return jet.NilTableid, jet.NewError(op, jet.ErrObjectNotFound)
	}

	var locked, inUse bool
	e.cursors.Range(func(_ jet.Tableid, other *cursor) bool {
		if other.table == table {
			inUse = true
			locked = locked || other.grbit.Has(jet.OpenTableDenyRead)
		}
		return true
	})
	if locked {
		return jet.NilTableid, jet.NewError(op, jet.ErrTableLocked)
	}
	if inUse && grbit.Has(jet.OpenTableDenyRead) {
		return jet.NilTableid, jet.NewError(op, jet.ErrTableInUse)
	}

	return e.openCursor(s, db, table, grbit).handle, nil
}

func (e *memjetImpl) CloseTable(sesid jet.Sesid, tableid jet.Tableid) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, _, err := e.sessionCursor("JetCloseTable", sesid, tableid); err != nil {
		return err
	}
	e.cursors.Delete(tableid)
	return nil
}

// --------------------------------------------------------------------------
// Navigation
// --------------------------------------------------------------------------

func (e *memjetImpl) Move(sesid jet.Sesid, tableid jet.Tableid, offset jet.Move) error {
	const op = "JetMove"
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}

	// moving discards a prepared update
	c.update = nil

	switch offset {
	case jet.MoveFirst:
		c.state = beforeFirst
		if !c.step(true) {
			c.state = beforeFirst
			return jet.NewError(op, jet.ErrNoCurrentRecord)
		}
	case jet.MoveLast:
		c.state = afterLast
		if !c.step(false) {
			c.state = afterLast
			return jet.NewError(op, jet.ErrNoCurrentRecord)
		}
	default:
		forward := offset > 0
		for n := offset; n != 0; {
			if !c.step(forward) {
				return jet.NewError(op, jet.ErrNoCurrentRecord)
			}
			if forward {
				n--
			} else {
				n++
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Record updates
// --------------------------------------------------------------------------

func (e *memjetImpl) PrepareUpdate(sesid jet.Sesid, tableid jet.Tableid, prep jet.Prep) error {
	const op = "JetPrepareUpdate"
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}

	switch prep {
	case jet.PrepInsert:
		c.update = &pendingUpdate{prep: prep, record: &internal.Record{Values: make(map[uint32][]byte)}}

	case jet.PrepInsertCopy:
		r, ok := c.current()
		if !ok {
			return jet.NewError(op, jet.ErrNoCurrentRecord)
		}
		record := r.Clone()
		record.Bookmark = 0
		for _, col := range c.table.Columns {
			if col.Info.Grbit.Has(jet.ColumnAutoincrement) {
				delete(record.Values, col.Info.Columnid.Value)
			}
		}
		c.update = &pendingUpdate{prep: prep, record: record}

	case jet.PrepReplace, jet.PrepReplaceNoLock:
		r, ok := c.current()
		if !ok {
			return jet.NewError(op, jet.ErrNoCurrentRecord)
		}
		c.update = &pendingUpdate{prep: prep, record: r.Clone()}

	case jet.PrepCancel:
		if c.update == nil {
			return jet.NewError(op, jet.ErrUpdateNotPrepared)
		}
		c.update = nil

	default:
		return jet.NewError(op, jet.ErrInvalidParameter)
	}
	return nil
}

func (e *memjetImpl) SetColumn(sesid jet.Sesid, tableid jet.Tableid, columnid jet.Columnid, value []byte) error {
	const op = "JetSetColumn"
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}
	if c.update == nil {
		return jet.NewError(op, jet.ErrUpdateNotPrepared)
	}
	col, ok := c.table.ColumnByID(columnid.Value)
	if !ok {
		return jet.NewError(op, jet.ErrColumnNotFound)
	}
	if col.Info.Grbit.Has(jet.ColumnAutoincrement) {
		return jet.NewError(op, jet.ErrInvalidParameter)
	}

	if value == nil {
		delete(c.update.record.Values, columnid.Value)
		return nil
	}

	if size, fixed := col.Info.Coltyp.FixedSize(); fixed && len(value) != size {
		return jet.NewError(op, jet.ErrInvalidParameter)
	}
	maxLen := col.Info.CbMax
	if maxLen == 0 && !col.Info.Coltyp.IsLong() {
		if _, fixed := col.Info.Coltyp.FixedSize(); !fixed {
			maxLen = jet.MaxShortColumnLength
		}
	}
	if maxLen > 0 && len(value) > maxLen {
		return jet.NewError(op, jet.ErrInvalidParameter)
	}

	c.update.record.Values[columnid.Value] = bytes.Clone(value)
	return nil
}

func (e *memjetImpl) Update(sesid jet.Sesid, tableid jet.Tableid) error {
	const op = "JetUpdate"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}
	if c.update == nil {
		return jet.NewError(op, jet.ErrUpdateNotPrepared)
	}

	table := c.table
	record := c.update.record
	insert := c.isInsert()

	if insert {
		for _, col := range table.Columns {
			if col.Info.Grbit.Has(jet.ColumnAutoincrement) {
				col.AutoInc++
				record.Values[col.Info.Columnid.Value] = encodeCounter(col.Info.Coltyp, col.AutoInc)
			}
		}
	}

	for _, col := range table.Columns {
		if col.Info.Grbit.Has(jet.ColumnNotNULL) && table.Value(record, col) == nil {
			return jet.NewError(op, jet.ErrNullInvalid)
		}
	}
	for _, idx := range table.Indexes {
		entry, err := table.Entry(idx, record)
		if err != nil {
			return jet.NewError(op, entryErr(err))
		}
		if table.Conflicts(idx, entry, record.Bookmark) {
			return jet.NewError(op, jet.ErrKeyDuplicate)
		}
	}

	if insert {
		record.Bookmark = table.NextBookmark
		table.NextBookmark++
		table.Insert(record)
		c.state = onRecord
		c.bookmark = record.Bookmark

		bm := record.Bookmark
		e.logged(s, c.db, recordLogSize, func() {
			table.Remove(bm)
		})
	} else {
		target, ok := table.Find(record.Bookmark)
		if !ok {
			return jet.NewError(op, jet.ErrNoCurrentRecord)
		}
		previous := target.Values
		target.Values = record.Values
		e.logged(s, c.db, recordLogSize, func() {
			target.Values = previous
		})
	}

	c.update = nil
	return nil
}

// encodeCounter renders an autoincrement value in the storage layout of the column type.
func encodeCounter(coltyp jet.Coltyp, v int64) []byte {
	if coltyp == jet.ColtypLong {
		return binary.LittleEndian.AppendUint32(nil, uint32(v))
	}
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

func (e *memjetImpl) RetrieveColumn(sesid jet.Sesid, tableid jet.Tableid, columnid jet.Columnid) ([]byte, error) {
	const op = "JetRetrieveColumn"
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return nil, err
	}
	col, ok := c.table.ColumnByID(columnid.Value)
	if !ok {
		return nil, jet.NewError(op, jet.ErrColumnNotFound)
	}
	r, ok := c.current()
	if !ok {
		return nil, jet.NewError(op, jet.ErrNoCurrentRecord)
	}
	return bytes.Clone(c.table.Value(r, col)), nil
}

func (e *memjetImpl) Delete(sesid jet.Sesid, tableid jet.Tableid) error {
	const op = "JetDelete"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}
	r, ok := c.current()
	if !ok {
		return jet.NewError(op, jet.ErrNoCurrentRecord)
	}

	c.update = nil
	table := c.table
	table.Remove(r.Bookmark)
	e.logged(s, c.db, recordLogSize, func() {
		table.Insert(r)
	})
	return nil
}
