package memjet

import (
	"bytes"
	"errors"
	"sort"
	"strings"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet/internal"
)

const maxNameLength = 64

// validName reports whether name is a legal table, column or index name.
func validName(name string) bool {
	return name != "" && len(name) <= maxNameLength && !strings.ContainsRune(name, 0)
}

// validDensity accepts 0 (engine default) or a percentage between 20 and 100.
func validDensity(density int) bool {
	return density == 0 || (density >= 20 && density <= 100)
}

// --------------------------------------------------------------------------
// Table Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) CreateTable(sesid jet.Sesid, dbid jet.Dbid, name string, pages, density int) (jet.Tableid, error) {
	const op = "JetCreateTable"
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
	if !validName(name) || pages < 0 || !validDensity(density) {
		return jet.NilTableid, jet.NewError(op, jet.ErrInvalidParameter)
	}

	key := strings.ToLower(name)
	if _, exists := db.tables[key]; exists {
		return jet.NilTableid, jet.NewError(op, jet.ErrTableDuplicate)
	}

	table := internal.NewTable(name, pages, density)
	db.tables[key] = table

	// the creating session holds the new table exclusively
	c := e.openCursor(s, db, table, jet.OpenTableDenyRead)

	e.logged(s, db, schemaLogSize, func() {
		e.closeCursors(func(c *cursor) bool { return c.table == table })
		delete(db.tables, key)
	})

	log.Debugf("table %s created in %s", name, db.name)
	return c.handle, nil
}

func (e *memjetImpl) DeleteTable(sesid jet.Sesid, dbid jet.Dbid, name string) error {
	const op = "JetDeleteTable"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return err
	}
	db, err := e.database(op, s, dbid)
	if err != nil {
		return err
	}

	key := strings.ToLower(name)
	table, ok := db.tables[key]
	if !ok {
		return jet.NewError(op, jet.ErrObjectNotFound)
	}
	if e.tableOpen(table) {
		return jet.NewError(op, jet.ErrTableInUse)
	}

	delete(db.tables, key)
	e.logged(s, db, schemaLogSize, func() {
		db.tables[key] = table
	})

	log.Debugf("table %s deleted from %s", table.Name, db.name)
	return nil
}

func (e *memjetImpl) GetTableNames(sesid jet.Sesid, dbid jet.Dbid) ([]string, error) {
	const op = "JetGetObjectInfo"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(op, sesid)
	if err != nil {
		return nil, err
	}
	db, err := e.database(op, s, dbid)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(db.tables))
	for _, t := range db.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// tableOpen returns true if any session has a cursor on table.
func (e *memjetImpl) tableOpen(table *internal.Table) bool {
	open := false
	e.cursors.Range(func(_ jet.Tableid, c *cursor) bool {
		open = c.table == table
		return !open
	})
	return open
}

// --------------------------------------------------------------------------
// Column Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) AddColumn(sesid jet.Sesid, tableid jet.Tableid, name string, def jet.ColumnDef, defaultValue []byte) (jet.Columnid, error) {
	const op = "JetAddColumn"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return jet.Columnid{}, err
	}
	table := c.table

	if !validName(name) || !validColumnDef(def, defaultValue) {
		return jet.Columnid{}, jet.NewError(op, jet.ErrInvalidParameter)
	}
	if _, exists := table.ColumnByName(name); exists {
		return jet.Columnid{}, jet.NewError(op, jet.ErrColumnDuplicate)
	}

	col := &internal.Column{Info: jet.ColumnInfo{
		Name:     name,
		Columnid: table.AllocColumnid(def.Grbit, def.Coltyp),
		Coltyp:   def.Coltyp,
		CP:       def.CP,
		CbMax:    def.CbMax,
		Grbit:    def.Grbit,
		Default:  bytes.Clone(defaultValue),
	}}
	if def.Coltyp.IsText() && def.CP == jet.CPNone {
		col.Info.CP = jet.CPASCII
	}
	table.Columns = append(table.Columns, col)

	id := col.Info.Columnid.Value
	e.logged(s, c.db, schemaLogSize, func() {
		table.RemoveColumn(id)
	})

	return col.Info.Columnid, nil
}

// validColumnDef checks the type, length, option and default value of a column definition.
func validColumnDef(def jet.ColumnDef, defaultValue []byte) bool {
	if !def.Coltyp.IsValid() || def.CbMax < 0 {
		return false
	}
	if def.Coltyp.IsText() && def.CP != jet.CPNone && def.CP != jet.CPUnicode && def.CP != jet.CPASCII {
		return false
	}
	if (def.Coltyp == jet.ColtypText || def.Coltyp == jet.ColtypBinary) && def.CbMax > jet.MaxShortColumnLength {
		return false
	}

	size, fixedSize := def.Coltyp.FixedSize()
	switch {
	case def.Grbit.Has(jet.ColumnFixed) && def.Grbit.Has(jet.ColumnTagged):
		return false
	case def.Grbit.Has(jet.ColumnFixed) && def.Coltyp.IsLong():
		return false
	case def.Grbit.Has(jet.ColumnAutoincrement) &&
		def.Coltyp != jet.ColtypLong && def.Coltyp != jet.ColtypCurrency && def.Coltyp != jet.ColtypLongLong:
		return false
	case (def.Grbit.Has(jet.ColumnVersion) || def.Grbit.Has(jet.ColumnEscrowUpdate)) && def.Coltyp != jet.ColtypLong:
		return false
	case def.Grbit.Has(jet.ColumnEscrowUpdate) && defaultValue == nil:
		return false
	}

	if defaultValue != nil {
		if fixedSize && len(defaultValue) != size {
			return false
		}
		if def.CbMax > 0 && len(defaultValue) > def.CbMax {
			return false
		}
	}
	return true
}

func (e *memjetImpl) GetTableColumns(sesid jet.Sesid, tableid jet.Tableid) ([]jet.ColumnInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor("JetGetTableColumnInfo", sesid, tableid)
	if err != nil {
		return nil, err
	}

	columns := make([]jet.ColumnInfo, 0, len(c.table.Columns))
	for _, col := range c.table.Columns {
		info := col.Info
		info.Default = bytes.Clone(info.Default)
		columns = append(columns, info)
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].Columnid.Value < columns[j].Columnid.Value })
	return columns, nil
}

// --------------------------------------------------------------------------
// Index Operations
// --------------------------------------------------------------------------

func (e *memjetImpl) CreateIndex2(sesid jet.Sesid, tableid jet.Tableid, indexes []jet.IndexCreate) error {
	const op = "JetCreateIndex2"
	e.mu.Lock()
	defer e.mu.Unlock()

	s, c, err := e.sessionCursor(op, sesid, tableid)
	if err != nil {
		return err
	}
	table := c.table

	for _, create := range indexes {
		idx, code := buildIndex(table, create)
		if code != jet.ErrSuccess {
			return jet.NewError(op, code)
		}

		table.Indexes = append(table.Indexes, idx)
		if code := checkExistingRecords(table, idx); code != jet.ErrSuccess {
			table.RemoveIndex(idx.Info.Name)
			return jet.NewError(op, code)
		}

		name := idx.Info.Name
		e.logged(s, c.db, schemaLogSize, func() {
			table.RemoveIndex(name)
		})
	}
	return nil
}

// buildIndex validates an index definition against the table schema.
func buildIndex(table *internal.Table, create jet.IndexCreate) (*internal.Index, jet.Err) {
	if !validName(create.IndexName) || create.CbKey != len(create.Key) ||
		!validDensity(create.Density) || create.CbKeyMost < 0 {
		return nil, jet.ErrInvalidParameter
	}
	if _, exists := table.IndexByName(create.IndexName); exists {
		return nil, jet.ErrIndexDuplicate
	}

	segments, ok := internal.ParseKey(create.Key)
	if !ok {
		return nil, jet.ErrInvalidParameter
	}
	for _, segment := range segments {
		if _, ok := table.ColumnByName(segment.ColumnName); !ok {
			return nil, jet.ErrColumnNotFound
		}
	}
	for _, cond := range create.ConditionalColumns {
		if _, ok := table.ColumnByName(cond.ColumnName); !ok {
			return nil, jet.ErrColumnNotFound
		}
	}
	if create.Grbit.Has(jet.IndexPrimary) && table.HasPrimary() {
		return nil, jet.ErrIndexHasPrimary
	}

	info := jet.IndexInfo{
		Name:               create.IndexName,
		Segments:           segments,
		Grbit:              create.Grbit,
		Density:            create.Density,
		ConditionalColumns: append([]jet.ConditionalColumn(nil), create.ConditionalColumns...),
		CbKeyMost:          create.CbKeyMost,
	}
	if create.Unicode != nil {
		info.Lcid = create.Unicode.Lcid
		info.MapFlags = create.Unicode.MapFlags
	}
	return &internal.Index{Info: info}, jet.ErrSuccess
}

// checkExistingRecords verifies that all records of table fit into idx.
func checkExistingRecords(table *internal.Table, idx *internal.Index) jet.Err {
	code := jet.ErrSuccess
	table.Scan(func(r *internal.Record) bool {
		entry, err := table.Entry(idx, r)
		switch {
		case err != nil:
			code = entryErr(err)
		case table.Conflicts(idx, entry, r.Bookmark):
			code = jet.ErrKeyDuplicate
		}
		return code == jet.ErrSuccess
	})
	return code
}

// entryErr maps a key building failure to a status code.
func entryErr(err error) jet.Err {
	switch {
	case errors.Is(err, internal.ErrNullKey):
		return jet.ErrNullInvalid
	case errors.Is(err, internal.ErrKeyTooLong):
		return jet.ErrKeyTruncated
	default:
		return jet.ErrInvalidParameter
	}
}

func (e *memjetImpl) GetTableIndexes(sesid jet.Sesid, tableid jet.Tableid) ([]jet.IndexInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, c, err := e.sessionCursor("JetGetTableIndexInfo", sesid, tableid)
	if err != nil {
		return nil, err
	}

	indexes := make([]jet.IndexInfo, 0, len(c.table.Indexes))
	for _, idx := range c.table.Indexes {
		info := idx.Info
		info.Segments = append([]jet.IndexSegment(nil), info.Segments...)
		info.ConditionalColumns = append([]jet.ConditionalColumn(nil), info.ConditionalColumns...)
		indexes = append(indexes, info)
	}
	return indexes, nil
}
