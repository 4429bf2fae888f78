package isam

import (
	"sort"
	"strings"

	"github.com/ValentinKolb/isam/lib/jet"
)

// TableCollection enumerates the tables of a Database.
type TableCollection struct {
	db *database
}

// TableInfo describes an existing table.
type TableInfo struct {
	Name    string           `json:"name"`
	Columns []jet.ColumnInfo `json:"columns"`
	Indexes []jet.IndexInfo  `json:"indexes"`
}

// Names returns the sorted table names.
func (tc *TableCollection) Names() ([]string, error) {
	s := tc.db.session
	s.lock()
	defer s.unlock()
	return tc.namesLocked()
}

func (tc *TableCollection) namesLocked() ([]string, error) {
	if tc.db.Disposed() {
		return nil, disposedError("Tables")
	}
	s := tc.db.session
	names, err := s.api.GetTableNames(s.sesid, tc.db.dbid)
	if err != nil {
		return nil, engineError("Tables", err)
	}
	sort.Strings(names)
	return names, nil
}

// Contains reports whether a table exists (case-insensitive).
func (tc *TableCollection) Contains(name string) (bool, error) {
	names, err := tc.Names()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of tables.
func (tc *TableCollection) Len() (int, error) {
	names, err := tc.Names()
	return len(names), err
}

// Get returns the columns and indexes of a table.
func (tc *TableCollection) Get(name string) (TableInfo, error) {
	const op = "GetTable"

	s := tc.db.session
	s.lock()
	defer s.unlock()

	if tc.db.Disposed() {
		return TableInfo{}, disposedError(op)
	}

	tableid, err := s.api.OpenTable(s.sesid, tc.db.dbid, name, jet.OpenTableReadOnly)
	if err != nil {
		return TableInfo{}, engineError(op, err)
	}
	defer func() {
		if err := s.api.CloseTable(s.sesid, tableid); err != nil {
			log.Warningf("closing %s after reading its schema: %v", name, err)
		}
	}()

	columns, err := s.api.GetTableColumns(s.sesid, tableid)
	if err != nil {
		return TableInfo{}, engineError(op, err)
	}
	indexes, err := s.api.GetTableIndexes(s.sesid, tableid)
	if err != nil {
		return TableInfo{}, engineError(op, err)
	}
	return TableInfo{Name: name, Columns: columns, Indexes: indexes}, nil
}
