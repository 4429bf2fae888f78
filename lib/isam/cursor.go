package isam

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/isam/lib/jet"
)

// Cursor is an open table of a Database. It must be disposed before the
// table can be dropped.
type Cursor struct {
	db        *Database
	tableid   jet.Tableid
	table     string
	exclusive bool
	columns   map[string]jet.ColumnInfo // by lower case name

	mu       sync.Mutex
	disposed atomic.Bool
}

func newCursor(db *Database, table string, tableid jet.Tableid, exclusive bool, columns []jet.ColumnInfo) *Cursor {
	byName := make(map[string]jet.ColumnInfo, len(columns))
	for _, column := range columns {
		byName[strings.ToLower(column.Name)] = column
	}
	openCursors.Inc()
	return &Cursor{
		db:        db,
		tableid:   tableid,
		table:     table,
		exclusive: exclusive,
		columns:   byName,
	}
}

// TableName returns the name of the table.
func (c *Cursor) TableName() string { return c.table }

// Exclusive reports whether the table was opened exclusively.
func (c *Cursor) Exclusive() bool { return c.exclusive }

// Tableid returns the engine handle of the open table.
func (c *Cursor) Tableid() jet.Tableid { return c.tableid }

// Disposed reports whether the cursor or its database was disposed.
func (c *Cursor) Disposed() bool {
	return c.disposed.Load() || c.db.Disposed()
}

// Columns returns the columns of the table ordered by column id.
func (c *Cursor) Columns() []jet.ColumnInfo {
	columns := make([]jet.ColumnInfo, 0, len(c.columns))
	for _, column := range c.columns {
		columns = append(columns, column)
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Columnid.Value < columns[j].Columnid.Value
	})
	return columns
}

// Dispose closes the table. Calling it more than once is a no-op.
func (c *Cursor) Dispose() error {
	s := c.db.session
	s.lock()
	defer s.unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed.Load() {
		return nil
	}
	c.disposed.Store(true)
	openCursors.Dec()

	// ending the session closed the table
	if s.Disposed() {
		return nil
	}
	// the engine closes the tables of a dbid with its last open handle
	err := s.api.CloseTable(s.sesid, c.tableid)
	if err != nil && !errors.Is(err, jet.ErrInvalidTableId) {
		return engineError("CloseTable", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Navigation
// --------------------------------------------------------------------------

// MoveFirst moves to the first record. It returns false if the table is empty.
func (c *Cursor) MoveFirst() (bool, error) { return c.move("MoveFirst", jet.MoveFirst) }

// MoveLast moves to the last record. It returns false if the table is empty.
func (c *Cursor) MoveLast() (bool, error) { return c.move("MoveLast", jet.MoveLast) }

// MoveNext moves to the next record. It returns false after the last record.
func (c *Cursor) MoveNext() (bool, error) { return c.move("MoveNext", jet.MoveNext) }

// MovePrevious moves to the previous record. It returns false before the first record.
func (c *Cursor) MovePrevious() (bool, error) { return c.move("MovePrevious", jet.MovePrevious) }

func (c *Cursor) move(op string, offset jet.Move) (bool, error) {
	s := c.db.session
	s.lock()
	defer s.unlock()

	if c.Disposed() {
		return false, disposedError(op)
	}
	err := s.api.Move(s.sesid, c.tableid, offset)
	if errors.Is(err, jet.ErrNoCurrentRecord) {
		return false, nil
	}
	if err != nil {
		return false, engineError(op, err)
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

type columnValue struct {
	column jet.ColumnInfo
	value  []byte
}

// encode converts values to column bytes. Unknown columns and values not
// matching the column type are rejected before anything reaches the engine.
func (c *Cursor) encode(op string, values map[string]any) ([]columnValue, error) {
	encoded := make([]columnValue, 0, len(values))
	for name, value := range values {
		column, ok := c.columns[strings.ToLower(name)]
		if !ok {
			return nil, invalidDefinition(op, "table %s has no column %q", c.table, name)
		}
		b, err := BytesFromValue(column.Coltyp, column.CP == jet.CPASCII, value)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, columnValue{column: column, value: b})
	}
	sort.Slice(encoded, func(i, j int) bool {
		return encoded[i].column.Columnid.Value < encoded[j].column.Columnid.Value
	})
	return encoded, nil
}

// Insert inserts a record. Columns missing from values are NULL (or take
// their default). The cursor is positioned on the new record.
func (c *Cursor) Insert(values map[string]any) error {
	return c.write("Insert", jet.PrepInsert, values)
}

// Replace updates columns of the current record.
func (c *Cursor) Replace(values map[string]any) error {
	return c.write("Replace", jet.PrepReplace, values)
}

func (c *Cursor) write(op string, prep jet.Prep, values map[string]any) error {
	encoded, err := c.encode(op, values)
	if err != nil {
		return err
	}

	s := c.db.session
	s.lock()
	defer s.unlock()

	if c.Disposed() {
		return disposedError(op)
	}

	if err := s.api.PrepareUpdate(s.sesid, c.tableid, prep); err != nil {
		return engineError(op, err)
	}
	for _, cv := range encoded {
		if err := s.api.SetColumn(s.sesid, c.tableid, cv.column.Columnid, cv.value); err != nil {
			c.cancelLocked()
			return engineError(op, err)
		}
	}
	if err := s.api.Update(s.sesid, c.tableid); err != nil {
		c.cancelLocked()
		return engineError(op, err)
	}
	return nil
}

func (c *Cursor) cancelLocked() {
	s := c.db.session
	if err := s.api.PrepareUpdate(s.sesid, c.tableid, jet.PrepCancel); err != nil {
		log.Debugf("cancel update on %s: %v", c.table, err)
	}
}

// Delete deletes the current record.
func (c *Cursor) Delete() error {
	s := c.db.session
	s.lock()
	defer s.unlock()

	if c.Disposed() {
		return disposedError("Delete")
	}
	if err := s.api.Delete(s.sesid, c.tableid); err != nil {
		return engineError("Delete", err)
	}
	return nil
}

// Retrieve returns the raw bytes of a column of the current record, nil for NULL.
func (c *Cursor) Retrieve(name string) ([]byte, error) {
	column, ok := c.columns[strings.ToLower(name)]
	if !ok {
		return nil, invalidDefinition("Retrieve", "table %s has no column %q", c.table, name)
	}

	s := c.db.session
	s.lock()
	defer s.unlock()
	return c.retrieveLocked(column)
}

func (c *Cursor) retrieveLocked(column jet.ColumnInfo) ([]byte, error) {
	if c.Disposed() {
		return nil, disposedError("Retrieve")
	}
	s := c.db.session
	value, err := s.api.RetrieveColumn(s.sesid, c.tableid, column.Columnid)
	if err != nil {
		return nil, engineError("Retrieve", err)
	}
	return value, nil
}

// RetrieveValue returns a column of the current record decoded by its column type.
func (c *Cursor) RetrieveValue(name string) (any, error) {
	column, ok := c.columns[strings.ToLower(name)]
	if !ok {
		return nil, invalidDefinition("RetrieveValue", "table %s has no column %q", c.table, name)
	}

	s := c.db.session
	s.lock()
	defer s.unlock()

	b, err := c.retrieveLocked(column)
	if err != nil {
		return nil, err
	}
	return ValueFromBytes(column.Coltyp, column.CP, b)
}

// Record returns all columns of the current record decoded by their column type.
func (c *Cursor) Record() (map[string]any, error) {
	s := c.db.session
	s.lock()
	defer s.unlock()

	record := make(map[string]any, len(c.columns))
	for _, column := range c.columns {
		b, err := c.retrieveLocked(column)
		if err != nil {
			return nil, err
		}
		value, err := ValueFromBytes(column.Coltyp, column.CP, b)
		if err != nil {
			return nil, err
		}
		record[column.Name] = value
	}
	return record, nil
}
