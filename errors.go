package folio

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Callers match them with errors.Is
// to translate into their own surface (exit codes, HTTP statuses, ...).
var (
	// ErrNotFound reports a portfolio or transaction id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds reports a cash precondition failure: the operation
	// needs more cash than the portfolio holds and no other source may cover it.
	ErrInsufficientFunds = errors.New("insufficient cash")

	// ErrInsufficientLeverage reports that the available leverage cannot cover
	// the requested draw.
	ErrInsufficientLeverage = errors.New("insufficient available leverage")

	// ErrDataUnavailable reports that an external source (quotes, history, FX)
	// could not serve a request. It never aborts a valuation, only degrades it.
	ErrDataUnavailable = errors.New("market data unavailable")
)

// ValidationError reports a transaction that is malformed before any state is
// touched: bad type, non-positive amount, missing asset code and so on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a storage failure. When it is returned from a write
// path the in-memory state has been rolled back to its previous value.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
