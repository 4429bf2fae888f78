package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/isam/lib/common"
	"github.com/ValentinKolb/isam/lib/isam"
)

func TestWrapString(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog and keeps running through the whole field"
	wrapped := WrapString(text)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("Expected lines of at most %d characters, got %d: %q", Wrap, len(line), line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != text {
		t.Errorf("Expected wrapping to keep all words, got %q", wrapped)
	}
	if WrapString("") != "" {
		t.Errorf("Expected an empty string to stay empty")
	}
}

func TestWorkspaceSnapshot(t *testing.T) {
	config := common.DefaultConfig()
	config.DataFile = filepath.Join(t.TempDir(), "state.snapshot")
	config.ComputerName = "TESTHOST"

	// a workspace without changes does not write a snapshot
	ws, err := OpenWorkspace(config)
	if err != nil {
		t.Fatalf("OpenWorkspace failed: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(config.DataFile); !os.IsNotExist(err) {
		t.Fatalf("Expected no snapshot after a read-only run, got %v", err)
	}

	ws, err = OpenWorkspace(config)
	if err != nil {
		t.Fatalf("OpenWorkspace failed: %v", err)
	}
	db, err := ws.CreateDatabase("test.edb")
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	err = db.CreateTable(isam.TableDefinition{
		Name:    "items",
		Columns: []isam.ColumnDefinition{{Name: "id", Type: isam.ColumnTypeInt32}},
	})
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if err := db.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ws, err = OpenWorkspace(config)
	if err != nil {
		t.Fatalf("OpenWorkspace failed: %v", err)
	}
	defer ws.Close()

	db, err = ws.OpenDatabase("test.edb")
	if err != nil {
		t.Fatalf("OpenDatabase after reload failed: %v", err)
	}
	defer db.Dispose()

	exists, err := db.Exists("items")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected table items to survive the snapshot")
	}
	info, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Signature.ComputerName != "TESTHOST" {
		t.Errorf("Expected computer name TESTHOST, got %s", info.Signature.ComputerName)
	}
}

func TestOpenWorkspaceCorruptSnapshot(t *testing.T) {
	config := common.DefaultConfig()
	config.DataFile = filepath.Join(t.TempDir(), "broken.snapshot")
	if err := os.WriteFile(config.DataFile, []byte("not a snapshot"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := OpenWorkspace(config); err == nil {
		t.Errorf("Expected an error for a corrupt snapshot")
	}
}
