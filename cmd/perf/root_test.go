package perf

import (
	"testing"
	"time"
)

func TestParseSkip(t *testing.T) {
	skip := parseSkip(" insert, ,scan,")
	if len(skip) != 2 || skip[0] != "insert" || skip[1] != "scan" {
		t.Errorf("Expected [insert scan], got %v", skip)
	}
	if len(parseSkip("")) != 0 {
		t.Errorf("Expected an empty skip list")
	}

	perfSkip = skip
	defer func() { perfSkip = nil }()
	if !shouldSkip("scan") || shouldSkip("insert-tx") {
		t.Errorf("Expected only listed tests to be skipped")
	}
}

func TestResultRow(t *testing.T) {
	result := testing.BenchmarkResult{N: 10, T: 10 * time.Microsecond}
	row := resultRow("insert", result)
	if row[0] != "insert" || row[1] != "1000" || row[3] != "1000000" || row[4] != "false" {
		t.Errorf("Unexpected row %v", row)
	}

	row = resultRow("scan", testing.BenchmarkResult{})
	if row[1] != "0" || row[4] != "true" {
		t.Errorf("Expected a skipped row, got %v", row)
	}
}

func TestPerfEnv(t *testing.T) {
	env, err := newPerfEnv()
	if err != nil {
		t.Fatalf("newPerfEnv failed: %v", err)
	}
	defer env.close()

	t.Run("Workers", func(t *testing.T) {
		table := env.table(t, "insert")

		done := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				w, err := env.newWorker(table)
				if err != nil {
					done <- err
					return
				}
				defer w.close()
				for j := 0; j < 5; j++ {
					if err := w.cursor.Insert(map[string]any{"id": env.ids.Add(1), "name": "test"}); err != nil {
						done <- err
						return
					}
				}
				done <- nil
			}()
		}
		for i := 0; i < 2; i++ {
			if err := <-done; err != nil {
				t.Fatalf("Worker failed: %v", err)
			}
		}

		cursor, err := env.db.OpenCursorShared(table)
		if err != nil {
			t.Fatalf("OpenCursor failed: %v", err)
		}
		defer cursor.Dispose()
		n := 0
		for ok, err := cursor.MoveFirst(); ok && err == nil; ok, err = cursor.MoveNext() {
			n++
		}
		if n != 10 {
			t.Errorf("Expected 10 rows, got %d", n)
		}
	})

	// the subtest cleanup dropped its table
	tables, err := env.db.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if n, _ := tables.Len(); n != 0 {
		t.Errorf("Expected all benchmark tables to be dropped, got %d", n)
	}
}
