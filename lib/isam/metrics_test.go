package isam

import (
	"bytes"
	"strings"
	"testing"
)

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	updates := schemaUpdates.Get()
	mustCreate(t, env.db, peopleTable())
	if got := schemaUpdates.Get() - updates; got != 1 {
		t.Errorf("Expected 1 schema update, got %d", got)
	}

	cursors := openCursors.Get()
	cursor := openCursor(t, env.db, "people")
	if got := openCursors.Get() - cursors; got != 1 {
		t.Errorf("Expected 1 open cursor, got %d", got)
	}
	_ = cursor.Dispose()
	if openCursors.Get() != cursors {
		t.Errorf("Expected the cursor gauge back at %d, got %d", cursors, openCursors.Get())
	}

	errs := engineErrors.Get()
	if err := env.db.DropTable("missing"); err == nil {
		t.Fatalf("Expected DropTable of a missing table to fail")
	}
	if got := engineErrors.Get() - errs; got != 1 {
		t.Errorf("Expected 1 engine error, got %d", got)
	}

	var buf bytes.Buffer
	WriteMetrics(&buf)
	for _, name := range []string{"isam_schema_updates_total", "isam_engine_errors_total", "isam_open_cursors"} {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Expected %s in the metrics output", name)
		}
	}
}
