package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sd2k/webtxn/apm"
)

// CSVWriter is a Backend that records reported transactions as rows
// of a CSV file, one row per transaction. It trades the queryability
// of the SQLite recorder for a file that can be inspected directly.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates a CSVWriter writing to the file at path and
// writes the header row.
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}

	w := &CSVWriter{
		file:   file,
		writer: csv.NewWriter(file),
	}

	err = w.writer.Write([]string{
		"id", "name", "start_time", "end_time",
		"error_code", "error_message",
	})
	if err != nil {
		return nil, fmt.Errorf("writing trace header: %w", err)
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// StartTransaction opens a new transaction. The transaction is only
// written when it ends; an ignored transaction is dropped.
func (w *CSVWriter) StartTransaction(
	name string,
) (apm.Transaction, error) {
	return newRecordedTxn(w, name), nil
}

func (w *CSVWriter) record(t *recordedTxn, endTime float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	errCode, errMessage := "", ""
	if len(t.errs) > 0 {
		errCode = strconv.Itoa(t.errs[0].Code)
		errMessage = t.errs[0].Message
	}

	err := w.writer.Write([]string{
		t.id,
		t.name,
		strconv.FormatFloat(t.start, 'f', 9, 64),
		strconv.FormatFloat(endTime, 'f', 9, 64),
		errCode,
		errMessage,
	})
	if err != nil {
		panic(err)
	}
}

// Flush writes buffered rows to the file.
func (w *CSVWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
}
