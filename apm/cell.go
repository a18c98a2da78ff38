package apm

import "sync"

type cellState int

const (
	// stateNone means no transaction exists, either because the
	// backend failed to open one or because the cell was never
	// populated.
	stateNone cellState = iota

	// stateUnclaimed means a transaction is open but no handler code
	// has asked for it yet. It will be ignored at finalize time.
	stateUnclaimed

	// stateClaimed means handler code has asked for the transaction.
	// It will be reported at finalize time.
	stateClaimed

	// stateConsumed means the cell has been finalized. The handle has
	// been moved out, so it can never receive a second terminal call.
	stateConsumed
)

// Disposition reports what Finalize did with the cell.
type Disposition int

const (
	// DispositionNone means no backend call was made.
	DispositionNone Disposition = iota

	// DispositionReported means the transaction was ended and
	// reported.
	DispositionReported

	// DispositionDiscarded means the transaction was ignored without
	// being reported.
	DispositionDiscarded
)

// A Cell holds the lifecycle state of exactly one request's
// transaction. The full lifecycle of a cell runs within one request's
// handling: NewCell at arrival, zero or more Claim calls during
// handling, and one Finalize at response time. Claim and Finalize are
// safe to call from multiple access points within the same request's
// flow.
type Cell struct {
	mu    sync.Mutex
	state cellState
	txn   Transaction
	name  string
}

// NewCell opens a transaction named name against the backend and
// wraps it in an unclaimed cell. If the backend fails to open a
// transaction, the cell holds no transaction and every later
// operation on it degrades to a no-op.
func NewCell(b Backend, name string) *Cell {
	if b == nil {
		panic("backend must not be nil")
	}

	txn, err := b.StartTransaction(name)
	if err != nil || txn == nil {
		if err != nil {
			logger.Debug().
				Err(err).
				Str("transaction", name).
				Msg("backend failed to open transaction")
		}

		return &Cell{state: stateNone, name: name}
	}

	return &Cell{state: stateUnclaimed, txn: txn, name: name}
}

// Name returns the transaction name the cell was created with. The
// name is computed once at creation time and never changes.
func (c *Cell) Name() string {
	return c.name
}

// Claim promotes the cell from unclaimed to claimed and returns the
// live transaction handle. The promotion happens at most once;
// repeated calls return the same handle. Claim returns false if no
// transaction is available, which callers must tolerate by skipping
// their transaction work rather than failing the request.
func (c *Cell) Claim() (Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateUnclaimed:
		c.state = stateClaimed
		return c.txn, true
	case stateClaimed:
		return c.txn, true
	default:
		return nil, false
	}
}

// Finalize consumes the cell. A claimed transaction is ended, with an
// error attached first if the outcome is a failure. An unclaimed
// transaction is ignored. A cell holding no transaction makes no
// backend call. The handle is moved out of the cell before any
// backend call, so a second Finalize, or a Claim after Finalize,
// can never reach an already-terminated transaction.
//
// Backend errors during finalization are swallowed. The worst result
// of any failure here is a missing trace, never a broken response.
func (c *Cell) Finalize(o Outcome) Disposition {
	c.mu.Lock()
	state := c.state
	txn := c.txn
	c.state = stateConsumed
	c.txn = nil
	c.mu.Unlock()

	switch state {
	case stateClaimed:
		if o.Failed() {
			if err := txn.NoticeError(ErrorCodeHTTP, o.Text(), ""); err != nil {
				logger.Debug().
					Err(err).
					Str("transaction", c.name).
					Msg("backend failed to attach error")
			}
		}

		if err := txn.End(); err != nil {
			logger.Debug().
				Err(err).
				Str("transaction", c.name).
				Msg("backend failed to end transaction")
		}

		return DispositionReported

	case stateUnclaimed:
		if err := txn.Ignore(); err != nil {
			logger.Debug().
				Err(err).
				Str("transaction", c.name).
				Msg("backend failed to ignore transaction")
		}

		return DispositionDiscarded

	default:
		return DispositionNone
	}
}
