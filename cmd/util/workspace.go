package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ValentinKolb/isam/lib/common"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet"
)

// Workspace holds the engine state of a single command invocation.
// The engine is restored from the snapshot file on open and written back
// on Close when a command changed something.
type Workspace struct {
	config   common.Config
	engine   memjet.Engine
	instance *isam.Instance
	session  *isam.Session
	dirty    bool
}

// OpenWorkspace loads the snapshot named in config and starts a session on it
func OpenWorkspace(config common.Config) (*Workspace, error) {
	opts := memjet.DefaultOptions()
	if config.ComputerName != "" {
		opts.ComputerName = config.ComputerName
	}
	engine := memjet.NewMemJet(opts)

	if err := loadSnapshot(engine, config.DataFile); err != nil {
		return nil, err
	}

	instance, err := isam.NewInstance(engine, config.InstanceName)
	if err != nil {
		return nil, err
	}
	session, err := instance.BeginSession()
	if err != nil {
		_ = instance.Dispose()
		return nil, err
	}

	return &Workspace{
		config:   config,
		engine:   engine,
		instance: instance,
		session:  session,
	}, nil
}

// Session returns the session of the workspace
func (w *Workspace) Session() *isam.Session { return w.session }

// OpenDatabase opens an existing database
func (w *Workspace) OpenDatabase(name string) (*isam.Database, error) {
	return w.session.OpenDatabase(name, nil)
}

// CreateDatabase creates a database and marks the workspace for saving
func (w *Workspace) CreateDatabase(name string) (*isam.Database, error) {
	db, err := w.session.CreateDatabase(name, nil)
	if err == nil {
		w.dirty = true
	}
	return db, err
}

// MarkDirty makes Close write the snapshot
func (w *Workspace) MarkDirty() { w.dirty = true }

// Close ends the session and writes the snapshot if the workspace was changed
func (w *Workspace) Close() error {
	err := errors.Join(w.session.Dispose(), w.instance.Dispose())
	if err != nil || !w.dirty {
		return err
	}
	return saveSnapshot(w.engine, w.config.DataFile)
}

// WithWorkspace opens a workspace from the current configuration, runs fn and closes it again
func WithWorkspace(fn func(ws *Workspace) error) error {
	ws, err := OpenWorkspace(GetConfig())
	if err != nil {
		return err
	}
	err = fn(ws)
	return errors.Join(err, ws.Close())
}

// WithDatabase runs fn on an opened database. Set write if fn changes the database.
func WithDatabase(name string, write bool, fn func(db *isam.Database) error) error {
	return WithWorkspace(func(ws *Workspace) error {
		db, err := ws.OpenDatabase(name)
		if err != nil {
			return err
		}
		defer db.Dispose()

		if err := fn(db); err != nil {
			return err
		}
		if write {
			ws.MarkDirty()
		}
		return nil
	})
}

// --------------------------------------------------------------------------
// Snapshot file
// --------------------------------------------------------------------------

func loadSnapshot(engine memjet.Engine, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no snapshot at %s, starting empty", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if err := engine.Load(f); err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}
	log.Debugf("loaded snapshot %s", path)
	return nil
}

// saveSnapshot writes to a temporary file first so a failed write keeps the old snapshot
func saveSnapshot(engine memjet.Engine, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := engine.Save(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	log.Debugf("saved snapshot %s", path)
	return nil
}
