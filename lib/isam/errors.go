package isam

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/isam/lib/jet"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrCode distinguishes the kinds of failures of this package.
type ErrCode int

const (
	ErrCSuccess           ErrCode = iota // No error
	ErrCEngine                           // A native engine call failed
	ErrCDisposed                         // The object (or its session) is disposed
	ErrCInvalidDefinition                // A schema definition or value was rejected before any engine call
	ErrCResourceBusy                     // The table is held by another handle
)

func (c ErrCode) String() string {
	switch c {
	case ErrCSuccess:
		return "Success"
	case ErrCEngine:
		return "Engine"
	case ErrCDisposed:
		return "Disposed"
	case ErrCInvalidDefinition:
		return "InvalidDefinition"
	case ErrCResourceBusy:
		return "ResourceBusy"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is returned by every failing operation of this package. Engine
// failures wrap the *jet.Error, so both of these work:
//
//	errors.Is(err, isam.ErrResourceBusy)
//	errors.Is(err, jet.ErrTableInUse)
type Error struct {
	Code ErrCode // The kind of failure
	Op   string  // The operation that failed
	Err  error   // The underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("IsamError (code %s): %s", e.Code, e.Op)
	}
	return fmt.Sprintf("IsamError (code %s): %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the code sentinels (an *Error with only the Code set).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Err == nil {
		return e.Code == t.Code
	}
	return e == t
}

var (
	ErrEngine            = &Error{Code: ErrCEngine}
	ErrDisposed          = &Error{Code: ErrCDisposed}
	ErrInvalidDefinition = &Error{Code: ErrCInvalidDefinition}
	ErrResourceBusy      = &Error{Code: ErrCResourceBusy}
)

var (
	// ErrTransactionResolved is returned when a transaction is committed or rolled back twice.
	ErrTransactionResolved = errors.New("transaction already resolved")

	// ErrTransactionNotInnermost is returned when resolving a transaction with open nested transactions.
	ErrTransactionNotInnermost = errors.New("transaction is not the innermost transaction")
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// engineError wraps a failed engine call. Busy tables are reported as ErrCResourceBusy.
func engineError(op string, err error) error {
	engineErrors.Inc()

	code := ErrCEngine
	var jetErr *jet.Error
	if errors.As(err, &jetErr) && jetErr.Code.IsBusy() {
		code = ErrCResourceBusy
	}
	return &Error{Code: code, Op: op, Err: err}
}

func disposedError(op string) error {
	return &Error{Code: ErrCDisposed, Op: op}
}

func invalidDefinition(op string, format string, args ...any) error {
	return &Error{Code: ErrCInvalidDefinition, Op: op, Err: fmt.Errorf(format, args...)}
}
