package apm

import (
	"fmt"
	"net/http"
)

// Outcome describes how a request finished, as seen at response time.
type Outcome struct {
	// Status is the HTTP status code written to the response.
	Status int
}

// Failed returns true if the status is outside the success class.
// Note that redirects count as failures here, matching the backend
// convention that only 2xx responses are successful.
func (o Outcome) Failed() bool {
	return o.Status < 200 || o.Status > 299
}

// Text returns the status line text for the outcome, e.g.
// "404 Not Found".
func (o Outcome) Text() string {
	return fmt.Sprintf("%d %s", o.Status, http.StatusText(o.Status))
}
