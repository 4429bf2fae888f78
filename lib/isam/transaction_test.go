package isam

import (
	"errors"
	"testing"
)

// countRows counts the records of a table with a fresh cursor.
func countRows(t *testing.T, db *Database, table string) int {
	t.Helper()
	cursor, err := db.OpenCursorShared(table)
	if err != nil {
		t.Fatalf("OpenCursor failed: %v", err)
	}
	defer cursor.Dispose()

	n := 0
	ok, err := cursor.MoveFirst()
	for ok && err == nil {
		n++
		ok, err = cursor.MoveNext()
	}
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	return n
}

func insertPerson(t *testing.T, db *Database, id int32, name string) {
	t.Helper()
	cursor, err := db.OpenCursorShared("people")
	if err != nil {
		t.Fatalf("OpenCursor failed: %v", err)
	}
	defer cursor.Dispose()
	if err := cursor.Insert(map[string]any{"id": id, "name": name}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestTransactionCommit(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	tx, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	if tx.Level() != 1 {
		t.Errorf("Expected level 1, got %d", tx.Level())
	}
	insertPerson(t, e.db, 1, "ada")

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !tx.Resolved() {
		t.Errorf("Expected the transaction to be resolved")
	}
	if err := tx.Commit(); !errors.Is(err, ErrTransactionResolved) {
		t.Errorf("Expected %v, got %v", ErrTransactionResolved, err)
	}
	if err := tx.Rollback(); !errors.Is(err, ErrTransactionResolved) {
		t.Errorf("Expected %v, got %v", ErrTransactionResolved, err)
	}
	if err := tx.Dispose(); err != nil {
		t.Errorf("Expected Dispose of a resolved transaction to succeed, got %v", err)
	}

	if n := countRows(t, e.db, "people"); n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}
}

func TestTransactionRollback(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	tx, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	insertPerson(t, e.db, 1, "ada")
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if n := countRows(t, e.db, "people"); n != 0 {
		t.Errorf("Expected 0 rows, got %d", n)
	}

	t.Run("Dispose", func(t *testing.T) {
		tx, err := e.session.BeginTransaction()
		if err != nil {
			t.Fatalf("BeginTransaction failed: %v", err)
		}
		insertPerson(t, e.db, 2, "grace")
		if err := tx.Dispose(); err != nil {
			t.Fatalf("Dispose failed: %v", err)
		}
		if !tx.Resolved() {
			t.Errorf("Expected the transaction to be resolved")
		}
		if n := countRows(t, e.db, "people"); n != 0 {
			t.Errorf("Expected 0 rows, got %d", n)
		}
	})
}

func TestNestedTransactions(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	outer, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	insertPerson(t, e.db, 1, "ada")

	inner, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	if inner.Level() != 2 {
		t.Errorf("Expected level 2, got %d", inner.Level())
	}
	insertPerson(t, e.db, 2, "grace")

	t.Run("OuterFirst", func(t *testing.T) {
		if err := outer.Commit(); !errors.Is(err, ErrTransactionNotInnermost) {
			t.Errorf("Expected %v, got %v", ErrTransactionNotInnermost, err)
		}
		if err := outer.Rollback(); !errors.Is(err, ErrTransactionNotInnermost) {
			t.Errorf("Expected %v, got %v", ErrTransactionNotInnermost, err)
		}
	})

	t.Run("InnerRollback", func(t *testing.T) {
		if err := inner.Rollback(); err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}
		if n := countRows(t, e.db, "people"); n != 1 {
			t.Errorf("Expected 1 row, got %d", n)
		}
	})

	t.Run("OuterCommit", func(t *testing.T) {
		if err := outer.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if n := countRows(t, e.db, "people"); n != 1 {
			t.Errorf("Expected 1 row, got %d", n)
		}
	})
}

func TestDisposeOuterTransaction(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	outer, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	inner, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	insertPerson(t, e.db, 1, "ada")

	if err := outer.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if !inner.Resolved() || !outer.Resolved() {
		t.Errorf("Expected both transactions to be resolved")
	}
	if n := len(e.session.transactions); n != 0 {
		t.Errorf("Expected no open transactions, got %d", n)
	}
	if n := countRows(t, e.db, "people"); n != 0 {
		t.Errorf("Expected 0 rows, got %d", n)
	}
}

func TestCommitFailure(t *testing.T) {
	e := newTestEnv(t)
	mustCreate(t, e.db, peopleTable())

	tx, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	insertPerson(t, e.db, 1, "ada")

	e.api.failCommit = true
	if err := tx.Commit(); !errors.Is(err, ErrEngine) {
		t.Errorf("Expected an engine error, got %v", err)
	}
	e.api.failCommit = false

	if !tx.Resolved() {
		t.Errorf("Expected a failed commit to resolve the transaction")
	}
	if n := countRows(t, e.db, "people"); n != 0 {
		t.Errorf("Expected the failed transaction to be rolled back, got %d rows", n)
	}
}

func TestTransactionAfterSessionDispose(t *testing.T) {
	e := newTestEnv(t)

	tx, err := e.session.BeginTransaction()
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}
	if err := e.session.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}

	if err := tx.Commit(); !errors.Is(err, ErrTransactionResolved) {
		t.Errorf("Expected %v, got %v", ErrTransactionResolved, err)
	}
	if err := tx.Dispose(); err != nil {
		t.Errorf("Expected Dispose to succeed, got %v", err)
	}
}
