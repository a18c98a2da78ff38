package recorder

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"
)

// ErrFinished is returned by transaction operations that arrive after
// the transaction has already received its terminal call.
var ErrFinished = errors.New("transaction already finished")

type txnError struct {
	Code    int
	Message string
	Class   string
}

type sink interface {
	record(t *recordedTxn, endTime float64)
}

// recordedTxn is a live transaction handle backed by a local
// recorder. Errors and attributes are buffered on the handle and only
// reach the recorder when the transaction ends.
type recordedTxn struct {
	s     sink
	id    string
	name  string
	start float64

	mu    sync.Mutex
	done  bool
	attrs map[string]interface{}
	errs  []txnError
}

func newRecordedTxn(s sink, name string) *recordedTxn {
	return &recordedTxn{
		s:     s,
		id:    xid.New().String(),
		name:  name,
		start: unixSeconds(time.Now()),
		attrs: map[string]interface{}{},
	}
}

func (t *recordedTxn) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrFinished
	}
	t.done = true

	t.s.record(t, unixSeconds(time.Now()))

	return nil
}

func (t *recordedTxn) Ignore() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrFinished
	}
	t.done = true

	return nil
}

func (t *recordedTxn) NoticeError(code int, message, class string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrFinished
	}

	t.errs = append(t.errs, txnError{
		Code:    code,
		Message: message,
		Class:   class,
	})

	return nil
}

func (t *recordedTxn) AddAttribute(key string, value interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrFinished
	}

	t.attrs[key] = value

	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
