// Package nrapm adapts the New Relic Go agent to the apm.Backend
// interface.
package nrapm

import (
	"errors"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/sd2k/webtxn/apm"
)

// Backend reports transactions to New Relic.
type Backend struct {
	app *newrelic.Application
}

// NewBackend wraps an already-configured New Relic application.
func NewBackend(app *newrelic.Application) *Backend {
	if app == nil {
		panic("application must not be nil")
	}

	return &Backend{app: app}
}

// NewBackendFromCredentials constructs the New Relic application from
// the application name and license key. A failure here is meant to be
// fatal at process startup; the instrumentor never sees a
// half-constructed backend.
func NewBackendFromCredentials(
	appName, licenseKey string,
) (*Backend, error) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating New Relic application: %w", err)
	}

	return &Backend{app: app}, nil
}

// StartTransaction opens a New Relic web transaction.
func (b *Backend) StartTransaction(
	name string,
) (apm.Transaction, error) {
	txn := b.app.StartTransaction(name)
	if txn == nil {
		return nil, errors.New("agent returned no transaction")
	}

	return &nrTxn{txn: txn}, nil
}

type nrTxn struct {
	txn *newrelic.Transaction
}

func (t *nrTxn) End() error {
	t.txn.End()
	return nil
}

func (t *nrTxn) Ignore() error {
	t.txn.Ignore()
	return nil
}

func (t *nrTxn) NoticeError(code int, message, class string) error {
	t.txn.NoticeError(newrelic.Error{
		Message: message,
		Class:   class,
		Attributes: map[string]interface{}{
			"error.code": code,
		},
	})

	return nil
}

func (t *nrTxn) AddAttribute(key string, value interface{}) error {
	t.txn.AddAttribute(key, value)
	return nil
}
