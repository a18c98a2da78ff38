// Package apm defines the client surface of a transaction-reporting
// backend and the per-request cell that tracks one transaction's
// lifecycle.
//
// A Backend opens one transaction per request. The transaction starts
// in a provisional state and is only reported if some piece of handler
// code claims it during request handling; an unclaimed transaction is
// ignored at the end of the request rather than reported.
package apm

import "github.com/rs/zerolog"

// ErrorCodeHTTP is the generic error code attached to transactions
// that finish with a non-success response status.
const ErrorCodeHTTP = 100

// Backend is a client of a transaction-reporting backend. A Backend
// must be safe for concurrent use; one process-wide Backend serves
// all request flows.
type Backend interface {
	// StartTransaction opens a new transaction with the given name.
	StartTransaction(name string) (Transaction, error)
}

// Transaction is a live transaction handle. A Transaction is private
// to one request flow and must receive exactly one terminal call,
// either End or Ignore.
type Transaction interface {
	// End reports the transaction to the backend and finishes it.
	End() error

	// Ignore finishes the transaction without reporting it.
	Ignore() error

	// NoticeError attaches an error to the transaction. Must be
	// called before End.
	NoticeError(code int, message, class string) error

	// AddAttribute attaches a key-value pair to the transaction.
	// Must be called before End.
	AddAttribute(key string, value interface{}) error
}

var logger = zerolog.Nop()

// SetLogger sets the logger used for backend failures that are
// swallowed rather than surfaced. Instrumentation must never break
// the request it instruments, so these failures are only visible
// through this logger.
func SetLogger(l zerolog.Logger) {
	logger = l
}
