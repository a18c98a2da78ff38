// Package instrument wires per-request transaction tracking into an
// HTTP server. The middleware opens a transaction when a request
// arrives, stores its state cell in the request context, and always
// terminates the transaction when the response has been produced.
// Handler code claims the transaction through FromRequest; a
// transaction that is never claimed is discarded instead of reported.
package instrument

import (
	"context"
	"net/http"
	"time"

	"github.com/sd2k/webtxn/apm"
	"github.com/sd2k/webtxn/hooks"
)

// A list of hook positions for the hooks to apply to.
var (
	HookPosTxnStart = &hooks.HookPos{Name: "HookPosTxnStart"}
	HookPosTxnEnd   = &hooks.HookPos{Name: "HookPosTxnEnd"}
)

// Record describes one finished transaction. Records are delivered to
// hooks at HookPosTxnEnd; at HookPosTxnStart only Name and StartTime
// are populated.
type Record struct {
	Name      string    `json:"name"`
	Status    int       `json:"status"`
	Claimed   bool      `json:"claimed"`
	Failed    bool      `json:"failed"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type cellKey struct{}

// Instrumentor instruments inbound requests of a host server with
// transactions reported to a Backend. Observers can attach hooks to
// see every transaction start and finish.
type Instrumentor struct {
	*hooks.HookableBase

	backend apm.Backend
}

// New creates an Instrumentor reporting to the given backend. The
// backend is a process-wide resource shared across all request flows
// and must support concurrent use.
func New(backend apm.Backend) *Instrumentor {
	if backend == nil {
		panic("backend must not be nil")
	}

	return &Instrumentor{
		HookableBase: hooks.NewHookableBase(),
		backend:      backend,
	}
}

// Middleware wraps next so that every request is handled inside a
// transaction. Install it with mux's Router.Use so that the route is
// already resolved when the request arrives here; outside a router
// the transaction name degrades to "unknown_handler".
//
// The wrapper creates exactly one cell per request. If the middleware
// is applied twice on a nested router, the inner application finds
// the existing cell and does not open a second transaction. The cell
// is finalized in a deferred call, so a panicking handler still
// terminates its transaction before the panic continues to the host
// server.
func (ins *Instrumentor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cellFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		name := TransactionName(r)
		cell := apm.NewCell(ins.backend, name)
		start := time.Now()

		if ins.NumHooks() > 0 {
			ins.InvokeHook(hooks.HookCtx{
				Domain: ins,
				Pos:    HookPosTxnStart,
				Item:   Record{Name: name, StartTime: start},
			})
		}

		r = r.WithContext(
			context.WithValue(r.Context(), cellKey{}, cell))
		sw := newStatusWriter(w)

		defer func() {
			p := recover()

			status := sw.Status()
			if p != nil && !sw.WroteHeader() {
				// The host server will turn the panic into a 500.
				status = http.StatusInternalServerError
			}

			outcome := apm.Outcome{Status: status}
			disposition := cell.Finalize(outcome)

			if ins.NumHooks() > 0 {
				ins.InvokeHook(hooks.HookCtx{
					Domain: ins,
					Pos:    HookPosTxnEnd,
					Item: Record{
						Name:      name,
						Status:    status,
						Claimed:   disposition == apm.DispositionReported,
						Failed:    outcome.Failed(),
						StartTime: start,
						EndTime:   time.Now(),
					},
				})
			}

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(sw, r)
	})
}

// FromRequest returns the request's transaction, claiming it so that
// it will be reported when the request finishes. All calls during one
// request return the same handle. The second return value is false
// when no transaction is available, either because the backend failed
// to open one or because the request never passed through the
// middleware; callers must skip their transaction work in that case.
func FromRequest(r *http.Request) (apm.Transaction, bool) {
	return FromContext(r.Context())
}

// FromContext is FromRequest for code that only holds a context.
func FromContext(ctx context.Context) (apm.Transaction, bool) {
	cell := cellFromContext(ctx)
	if cell == nil {
		return nil, false
	}

	return cell.Claim()
}

func cellFromContext(ctx context.Context) *apm.Cell {
	cell, _ := ctx.Value(cellKey{}).(*apm.Cell)
	return cell
}
