package recorder

import (
	"database/sql"
	"fmt"
)

// TransactionRow is one recorded transaction as read back from the
// database.
type TransactionRow struct {
	ID         string
	Name       string
	StartTime  float64
	EndTime    float64
	Attributes string
	Errors     []ErrorRow
}

// ErrorRow is one error attached to a recorded transaction.
type ErrorRow struct {
	Code    int
	Message string
	Class   string
}

// Query filters the transactions returned by ListTransactions.
type Query struct {
	// Name restricts results to transactions with this exact name.
	Name string

	// FailedOnly restricts results to transactions that carry at
	// least one error.
	FailedOnly bool

	// EnableTimeRange restricts results to transactions that started
	// within [StartTime, EndTime], in Unix seconds.
	EnableTimeRange    bool
	StartTime, EndTime float64
}

// SQLiteReader reads recorded transactions from a SQLite database
// produced by a SQLiteWriter.
type SQLiteReader struct {
	*sql.DB

	filename string
}

// NewSQLiteReader creates a new SQLiteReader for the given file.
func NewSQLiteReader(filename string) *SQLiteReader {
	return &SQLiteReader{filename: filename}
}

// Init establishes a connection to the database.
func (r *SQLiteReader) Init() error {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		return fmt.Errorf("opening trace database: %w", err)
	}

	r.DB = db

	return nil
}

// ListTransactions returns the recorded transactions matching the
// query, with their errors attached.
func (r *SQLiteReader) ListTransactions(
	query Query,
) ([]TransactionRow, error) {
	sqlStr := r.prepareQueryStr(query)

	rows, err := r.Query(sqlStr)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	txns := []TransactionRow{}
	for rows.Next() {
		t := TransactionRow{}

		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.StartTime,
			&t.EndTime,
			&t.Attributes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	for i := range txns {
		errs, err := r.listErrors(txns[i].ID)
		if err != nil {
			return nil, err
		}
		txns[i].Errors = errs
	}

	return txns, nil
}

func (r *SQLiteReader) prepareQueryStr(query Query) string {
	sqlStr := `
		SELECT
			t.id,
			t.name,
			t.start_time,
			t.end_time,
			t.attributes
		FROM txn t
		WHERE 1=1
	`

	if query.Name != "" {
		sqlStr += `
			AND t.name = '` + query.Name + `'
		`
	}

	if query.FailedOnly {
		sqlStr += `
			AND EXISTS (
				SELECT 1 FROM txn_error e WHERE e.txn_id = t.id
			)
		`
	}

	if query.EnableTimeRange {
		sqlStr += fmt.Sprintf(
			"AND t.start_time >= %.9f AND t.start_time <= %.9f",
			query.StartTime,
			query.EndTime)
	}

	sqlStr += `
		ORDER BY t.start_time
	`

	return sqlStr
}

func (r *SQLiteReader) listErrors(txnID string) ([]ErrorRow, error) {
	rows, err := r.Query(
		`SELECT code, message, class FROM txn_error WHERE txn_id = ?`,
		txnID)
	if err != nil {
		return nil, fmt.Errorf("listing transaction errors: %w", err)
	}
	defer rows.Close()

	var errs []ErrorRow
	for rows.Next() {
		var e ErrorRow
		if err := rows.Scan(&e.Code, &e.Message, &e.Class); err != nil {
			return nil, fmt.Errorf("scanning transaction error: %w", err)
		}
		errs = append(errs, e)
	}

	return errs, rows.Err()
}
