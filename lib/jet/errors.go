package jet

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Engine status codes
// --------------------------------------------------------------------------

// Err is a native engine status code. Negative values are errors.
// Err implements the error interface so callers can match codes with errors.Is:
//
//	if errors.Is(err, jet.ErrTableInUse) { ... }
type Err int32

const (
	ErrSuccess            Err = 0
	ErrKeyTruncated       Err = -346
	ErrInvalidParameter   Err = -1003
	ErrInvalidDatabaseId  Err = -1010
	ErrNotInTransaction   Err = -1054
	ErrTransTooDeep       Err = -1103
	ErrInvalidSesid       Err = -1104
	ErrDatabaseDuplicate  Err = -1201
	ErrDatabaseNotFound   Err = -1203
	ErrTableLocked        Err = -1302
	ErrTableDuplicate     Err = -1303
	ErrTableInUse         Err = -1304
	ErrObjectNotFound     Err = -1305
	ErrInvalidTableId     Err = -1310
	ErrIndexHasPrimary    Err = -1401
	ErrIndexDuplicate     Err = -1403
	ErrIndexNotFound      Err = -1404
	ErrNullInvalid        Err = -1504
	ErrColumnNotFound     Err = -1507
	ErrColumnDuplicate    Err = -1508
	ErrNoCurrentRecord    Err = -1603
	ErrKeyDuplicate       Err = -1605
	ErrUpdateNotPrepared  Err = -1609
	ErrInstanceNameInUse  Err = -2211
	ErrInvalidInstance    Err = -1115
	ErrAlreadyInitialized Err = -1030
	ErrNotInitialized     Err = -1029
)

func (e Err) String() string {
	switch e {
	case ErrSuccess:
		return "JET_errSuccess"
	case ErrKeyTruncated:
		return "JET_errKeyTruncated"
	case ErrInvalidParameter:
		return "JET_errInvalidParameter"
	case ErrInvalidDatabaseId:
		return "JET_errInvalidDatabaseId"
	case ErrNotInTransaction:
		return "JET_errNotInTransaction"
	case ErrTransTooDeep:
		return "JET_errTransTooDeep"
	case ErrInvalidSesid:
		return "JET_errInvalidSesid"
	case ErrDatabaseDuplicate:
		return "JET_errDatabaseDuplicate"
	case ErrDatabaseNotFound:
		return "JET_errDatabaseNotFound"
	case ErrTableLocked:
		return "JET_errTableLocked"
	case ErrTableDuplicate:
		return "JET_errTableDuplicate"
	case ErrTableInUse:
		return "JET_errTableInUse"
	case ErrObjectNotFound:
		return "JET_errObjectNotFound"
	case ErrInvalidTableId:
		return "JET_errInvalidTableId"
	case ErrIndexHasPrimary:
		return "JET_errIndexHasPrimary"
	case ErrIndexDuplicate:
		return "JET_errIndexDuplicate"
	case ErrIndexNotFound:
		return "JET_errIndexNotFound"
	case ErrNullInvalid:
		return "JET_errNullInvalid"
	case ErrColumnNotFound:
		return "JET_errColumnNotFound"
	case ErrColumnDuplicate:
		return "JET_errColumnDuplicate"
	case ErrNoCurrentRecord:
		return "JET_errNoCurrentRecord"
	case ErrKeyDuplicate:
		return "JET_errKeyDuplicate"
	case ErrUpdateNotPrepared:
		return "JET_errUpdateNotPrepared"
	case ErrInstanceNameInUse:
		return "JET_errInstanceNameInUse"
	case ErrInvalidInstance:
		return "JET_errInvalidInstance"
	case ErrAlreadyInitialized:
		return "JET_errAlreadyInitialized"
	case ErrNotInitialized:
		return "JET_errNotInitialized"
	default:
		return fmt.Sprintf("JET_err(%d)", int32(e))
	}
}

// Error implements the error interface.
func (e Err) Error() string { return e.String() }

// IsBusy returns true for the codes that report a table held by another handle.
func (e Err) IsBusy() bool { return e == ErrTableInUse || e == ErrTableLocked }

// --------------------------------------------------------------------------
// Error type
// --------------------------------------------------------------------------

// Error is returned by every failing API call. It carries the native status
// code and the name of the engine operation that produced it.
type Error struct {
	Code Err    // The native status code
	Op   string // The engine call, e.g. "JetCreateTable"
}

// NewError creates a new engine error for the given operation and code.
func NewError(op string, code Err) *Error {
	return &Error{
		Code: code,
		Op:   op,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Op, e.Code, int32(e.Code))
}

// Unwrap exposes the status code so errors.Is matches on Err values.
func (e *Error) Unwrap() error { return e.Code }
