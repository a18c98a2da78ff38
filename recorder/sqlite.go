// Package recorder provides local Backend implementations that record
// reported transactions to disk, for development and for servers that
// do not ship traces to a hosted backend.
package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sd2k/webtxn/apm"
)

type txnRow struct {
	ID         string
	Name       string
	StartTime  float64
	EndTime    float64
	Attributes string
}

type errRow struct {
	TxnID   string
	Code    int
	Message string
	Class   string
}

// SQLiteWriter is a Backend that records reported transactions in a
// SQLite database. Ignored transactions leave no trace in the
// database.
type SQLiteWriter struct {
	*sql.DB
	txnStatement *sql.Stmt
	errStatement *sql.Stmt

	mu          sync.Mutex
	dbName      string
	txnsToWrite []txnRow
	errsToWrite []errRow
	batchSize   int
	initialized bool
}

// NewSQLiteWriter creates a new SQLiteWriter that will write to the
// database at path. An empty path picks a fresh generated name. Call
// Init before handing the writer to an instrumentor.
func NewSQLiteWriter(path string) *SQLiteWriter {
	w := &SQLiteWriter{
		dbName:    path,
		batchSize: 1024,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Init establishes the database connection and creates the schema.
func (w *SQLiteWriter) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return nil
	}

	if w.dbName == "" {
		w.dbName = "webtxn_trace_" + xid.New().String()
	}

	db, err := sql.Open("sqlite3", w.dbName+".sqlite3")
	if err != nil {
		return fmt.Errorf("opening trace database: %w", err)
	}
	w.DB = db

	if err := w.createTables(); err != nil {
		return err
	}

	if err := w.prepareStatements(); err != nil {
		return err
	}

	w.initialized = true

	return nil
}

func (w *SQLiteWriter) createTables() error {
	stmts := []string{
		`
			create table if not exists txn
			(
				id         varchar(20)  not null,
				name       varchar(200) not null,
				start_time float        not null,
				end_time   float        default 0,
				attributes text         default '{}'
			);
		`,
		`create index if not exists txn_name_index on txn (name);`,
		`create index if not exists txn_start_time_index on txn (start_time);`,
		`create index if not exists txn_end_time_index on txn (end_time);`,
		`
			create table if not exists txn_error
			(
				txn_id  varchar(20)  not null,
				code    int          not null,
				message varchar(200) default '',
				class   varchar(100) default ''
			);
		`,
		`create index if not exists txn_error_txn_id_index on txn_error (txn_id);`,
	}

	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			return fmt.Errorf("creating trace schema: %w", err)
		}
	}

	return nil
}

func (w *SQLiteWriter) prepareStatements() error {
	txnStmt, err := w.Prepare(
		`INSERT INTO txn VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing txn statement: %w", err)
	}
	w.txnStatement = txnStmt

	errStmt, err := w.Prepare(
		`INSERT INTO txn_error (txn_id, code, message, class)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing txn_error statement: %w", err)
	}
	w.errStatement = errStmt

	return nil
}

// Path returns the database file path.
func (w *SQLiteWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.dbName + ".sqlite3"
}

// StartTransaction opens a new transaction. The transaction is only
// written to the database when it ends; an ignored transaction is
// dropped.
func (w *SQLiteWriter) StartTransaction(
	name string,
) (apm.Transaction, error) {
	w.mu.Lock()
	initialized := w.initialized
	w.mu.Unlock()

	if !initialized {
		return nil, fmt.Errorf("recorder is not initialized")
	}

	return newRecordedTxn(w, name), nil
}

func (w *SQLiteWriter) record(t *recordedTxn, endTime float64) {
	attrs, err := json.Marshal(t.attrs)
	if err != nil {
		attrs = []byte("{}")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.txnsToWrite = append(w.txnsToWrite, txnRow{
		ID:         t.id,
		Name:       t.name,
		StartTime:  t.start,
		EndTime:    endTime,
		Attributes: string(attrs),
	})

	for _, e := range t.errs {
		w.errsToWrite = append(w.errsToWrite, errRow{
			TxnID:   t.id,
			Code:    e.Code,
			Message: e.Message,
			Class:   e.Class,
		})
	}

	if len(w.txnsToWrite) >= w.batchSize {
		w.flushLocked()
	}
}

// Flush writes all buffered transactions to the database.
func (w *SQLiteWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flushLocked()
}

func (w *SQLiteWriter) flushLocked() {
	if !w.initialized {
		return
	}

	if len(w.txnsToWrite) == 0 && len(w.errsToWrite) == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for _, row := range w.txnsToWrite {
		_, err := w.txnStatement.Exec(
			row.ID,
			row.Name,
			row.StartTime,
			row.EndTime,
			row.Attributes,
		)
		if err != nil {
			panic(err)
		}
	}

	for _, row := range w.errsToWrite {
		_, err := w.errStatement.Exec(
			row.TxnID,
			row.Code,
			row.Message,
			row.Class,
		)
		if err != nil {
			panic(err)
		}
	}

	w.txnsToWrite = nil
	w.errsToWrite = nil
}

func (w *SQLiteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}
	return res
}
