package memjet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet/internal"
	"go.mongodb.org/mongo-driver/bson"
)

// --------------------------------------------------------------------------
// Snapshot documents
// --------------------------------------------------------------------------

// The snapshot format is:
//  1. Magic number "MEMJET\x00\x00"
//  2. Version byte
//  3. One BSON document (snapshotDoc) holding all databases

type snapshotDoc struct {
	Lgpos     jet.Lgpos     `bson:"lgpos"`
	NextDbid  int32         `bson:"next_dbid"`
	Databases []databaseDoc `bson:"databases"`
}

type databaseDoc struct {
	Name         string     `bson:"name"`
	Dbid         int32      `bson:"dbid"`
	Random       int64      `bson:"random"`
	ComputerName string     `bson:"computer_name"`
	Created      time.Time  `bson:"created"`
	LastCommit   jet.Lgpos  `bson:"last_commit"`
	Tables       []tableDoc `bson:"tables"`
}

type tableDoc struct {
	Name         string          `bson:"name"`
	Pages        int             `bson:"pages"`
	Density      int             `bson:"density"`
	Columns      []columnDoc     `bson:"columns"`
	Indexes      []jet.IndexInfo `bson:"indexes"`
	Records      []recordDoc     `bson:"records"`
	NextBookmark int64           `bson:"next_bookmark"`
	NextFixed    int64           `bson:"next_fixed"`
	NextVariable int64           `bson:"next_variable"`
	NextTagged   int64           `bson:"next_tagged"`
}

type columnDoc struct {
	Info    jet.ColumnInfo `bson:"info"`
	AutoInc int64          `bson:"auto_inc"`
}

type recordDoc struct {
	Bookmark int64             `bson:"bookmark"`
	Values   map[string][]byte `bson:"values"` // Keyed by decimal column id
}

// --------------------------------------------------------------------------
// Save and Load
// --------------------------------------------------------------------------

// Save writes a consistent snapshot of all databases to w. Changes of open
// transactions are included; callers should save between transactions.
func (e *memjetImpl) Save(w io.Writer) error {
	e.mu.Lock()
	doc := snapshotDoc{Lgpos: e.lgpos, NextDbid: e.nextDbid}
	for _, db := range e.databases {
		doc.Databases = append(doc.Databases, saveDatabase(db))
	}
	e.mu.Unlock()

	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magicNum); err != nil {
		return fmt.Errorf("failed to write magic number: %w", err)
	}
	if err := bw.WriteByte(memjetVersion); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return bw.Flush()
}

func saveDatabase(db *database) databaseDoc {
	doc := databaseDoc{
		Name:         db.name,
		Dbid:         db.dbid.Value,
		Random:       int64(db.signature.Random),
		ComputerName: db.signature.ComputerName,
		Created:      db.created,
		LastCommit:   db.lastCommit,
	}
	for _, t := range db.tables {
		td := tableDoc{
			Name:         t.Name,
			Pages:        t.Pages,
			Density:      t.Density,
			NextBookmark: int64(t.NextBookmark),
			NextFixed:    int64(t.NextFixed),
			NextVariable: int64(t.NextVariable),
			NextTagged:   int64(t.NextTagged),
		}
		for _, c := range t.Columns {
			td.Columns = append(td.Columns, columnDoc{Info: c.Info, AutoInc: c.AutoInc})
		}
		for _, idx := range t.Indexes {
			td.Indexes = append(td.Indexes, idx.Info)
		}
		t.Scan(func(r *internal.Record) bool {
			rd := recordDoc{Bookmark: int64(r.Bookmark), Values: make(map[string][]byte, len(r.Values))}
			for id, v := range r.Values {
				rd.Values[strconv.FormatUint(uint64(id), 10)] = v
			}
			td.Records = append(td.Records, rd)
			return true
		})
		doc.Tables = append(doc.Tables, td)
	}
	return doc
}

// Load replaces all databases with the snapshot read from r.
func (e *memjetImpl) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	magic := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("failed to read magic number: %w", err)
	}
	if string(magic) != magicNum {
		return fmt.Errorf("invalid snapshot format: bad magic number")
	}
	version, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	if version != memjetVersion {
		return fmt.Errorf("unsupported snapshot version: %d", version)
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	databases := make(map[string]*database, len(doc.Databases))
	for _, dd := range doc.Databases {
		db, err := loadDatabase(dd)
		if err != nil {
			return err
		}
		databases[strings.ToLower(db.name)] = db
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessions.Size() > 0 {
		return fmt.Errorf("cannot load a snapshot while %d sessions are open", e.sessions.Size())
	}
	e.databases = databases
	e.nextDbid = doc.NextDbid
	if doc.Lgpos.Compare(e.lgpos) > 0 {
		e.lgpos = doc.Lgpos
	}

	log.Infof("loaded snapshot with %d databases", len(databases))
	return nil
}

func loadDatabase(dd databaseDoc) (*database, error) {
	created := dd.Created.UTC()
	db := &database{
		name:       dd.Name,
		dbid:       jet.Dbid{Value: dd.Dbid},
		signature:  jet.NewSignature(uint32(dd.Random), created, dd.ComputerName),
		created:    created,
		lastCommit: dd.LastCommit,
		tables:     make(map[string]*internal.Table, len(dd.Tables)),
	}

	for _, td := range dd.Tables {
		t := internal.NewTable(td.Name, td.Pages, td.Density)
		t.NextBookmark = uint64(td.NextBookmark)
		t.NextFixed = uint32(td.NextFixed)
		t.NextVariable = uint32(td.NextVariable)
		t.NextTagged = uint32(td.NextTagged)

		for _, cd := range td.Columns {
			t.Columns = append(t.Columns, &internal.Column{Info: cd.Info, AutoInc: cd.AutoInc})
		}
		for _, info := range td.Indexes {
			t.Indexes = append(t.Indexes, &internal.Index{Info: info})
		}
		for _, rd := range td.Records {
			record := &internal.Record{Bookmark: uint64(rd.Bookmark), Values: make(map[uint32][]byte, len(rd.Values))}
			for key, v := range rd.Values {
				id, err := strconv.ParseUint(key, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("invalid column id %q in table %s: %w", key, td.Name, err)
				}
				record.Values[uint32(id)] = v
			}
			t.Insert(record)
		}
		db.tables[strings.ToLower(t.Name)] = t
	}
	return db, nil
}
