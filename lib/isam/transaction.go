package isam

import "github.com/ValentinKolb/isam/lib/jet"

// Transaction is one (possibly nested) engine transaction. It must be
// resolved exactly once, innermost first. The usual pattern is:
//
//	tx, err := session.BeginTransaction()
//	if err != nil {
//		return err
//	}
//	defer tx.Dispose()
//	...
//	return tx.Commit()
type Transaction struct {
	session  *Session
	level    int
	resolved bool // guarded by the session lock
}

// Level returns the nesting level, 1 for the outermost transaction.
func (t *Transaction) Level() int { return t.level }

// Resolved reports whether the transaction was committed or rolled back.
func (t *Transaction) Resolved() bool {
	t.session.lock()
	defer t.session.unlock()
	return t.resolved
}

// Commit commits the transaction. If the engine rejects the commit, the
// transaction is rolled back and counts as resolved.
func (t *Transaction) Commit() error {
	t.session.lock()
	defer t.session.unlock()
	return t.commitLocked()
}

// Rollback undoes the transaction.
func (t *Transaction) Rollback() error {
	t.session.lock()
	defer t.session.unlock()
	return t.rollbackLocked()
}

// Dispose rolls the transaction back unless it is already resolved. Nested
// transactions still open are rolled back first.
func (t *Transaction) Dispose() error {
	t.session.lock()
	defer t.session.unlock()
	return t.disposeLocked()
}

// --------------------------------------------------------------------------
// Locked helpers (the caller holds the session lock)
// --------------------------------------------------------------------------

func (s *Session) beginTransactionLocked() (*Transaction, error) {
	if err := s.api.BeginTransaction(s.sesid); err != nil {
		return nil, engineError("BeginTransaction", err)
	}
	tx := &Transaction{session: s, level: len(s.transactions) + 1}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (t *Transaction) checkLocked(op string) error {
	s := t.session
	switch {
	case t.resolved:
		return ErrTransactionResolved
	case s.disposed.Load():
		return disposedError(op)
	case len(s.transactions) == 0 || s.transactions[len(s.transactions)-1] != t:
		return ErrTransactionNotInnermost
	}
	return nil
}

// resolveLocked pops t from the transaction stack.
func (t *Transaction) resolveLocked() {
	s := t.session
	s.transactions = s.transactions[:len(s.transactions)-1]
	t.resolved = true
}

func (t *Transaction) commitLocked() error {
	if err := t.checkLocked("CommitTransaction"); err != nil {
		return err
	}
	s := t.session

	if err := s.api.CommitTransaction(s.sesid, jet.CommitNone); err != nil {
		if rerr := s.api.Rollback(s.sesid, jet.RollbackNone); rerr != nil {
			log.Errorf("rollback after failed commit (level %d): %v", t.level, rerr)
		}
		t.resolveLocked()
		transactionRollback.Inc()
		return engineError("CommitTransaction", err)
	}
	t.resolveLocked()
	transactionCommits.Inc()
	return nil
}

func (t *Transaction) rollbackLocked() error {
	if err := t.checkLocked("Rollback"); err != nil {
		return err
	}
	s := t.session

	err := s.api.Rollback(s.sesid, jet.RollbackNone)
	t.resolveLocked()
	transactionRollback.Inc()
	if err != nil {
		return engineError("Rollback", err)
	}
	return nil
}

func (t *Transaction) disposeLocked() error {
	if t.resolved {
		return nil
	}
	s := t.session
	if s.disposed.Load() {
		// the engine rolled back when the session ended
		t.resolved = true
		return nil
	}

	for len(s.transactions) > 0 && s.transactions[len(s.transactions)-1] != t {
		inner := s.transactions[len(s.transactions)-1]
		if err := inner.rollbackLocked(); err != nil {
			log.Warningf("rollback of nested transaction (level %d) failed: %v", inner.level, err)
		}
	}
	if len(s.transactions) == 0 {
		t.resolved = true
		return nil
	}
	return t.rollbackLocked()
}
