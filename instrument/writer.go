package instrument

import "net/http"

// statusWriter captures the status code written by the handler so
// that the transaction outcome can be derived from it after the
// handler returns. A handler that writes a body without calling
// WriteHeader gets the implicit 200.
type statusWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer if it supports flushing.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status returns the captured status code.
func (w *statusWriter) Status() int {
	return w.status
}

// WroteHeader returns true once the handler has written the header or
// a body.
func (w *statusWriter) WroteHeader() bool {
	return w.wroteHeader
}
