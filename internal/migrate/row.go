package migrate

import (
	"strings"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/sqlutil"
)

// Row is one transformed destination row: an ordered set of column/value
// pairs ready for insert. Order is preserved so generated SQL is stable.
type Row struct {
	columns []string
	values  []interface{}
}

// NewRow creates an empty Row.
func NewRow() *Row {
	return &Row{}
}

// Set appends a column/value pair. Returns the Row for chaining.
func (r *Row) Set(column string, value interface{}) *Row {
	r.columns = append(r.columns, column)
	r.values = append(r.values, value)
	return r
}

// Columns returns the column names in insertion order.
func (r *Row) Columns() []string {
	return r.columns
}

// Values returns the values in insertion order.
func (r *Row) Values() []interface{} {
	return r.values
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.columns)
}

// insertSQL builds the INSERT statement for this row against the given
// table, returning the destination-assigned primary key.
func (r *Row) insertSQL(table string) string {
	quoted := make([]string, len(r.columns))
	for i, col := range r.columns {
		quoted[i] = sqlutil.QuoteIdentifier(col)
	}
	return "INSERT INTO " + sqlutil.QuoteIdentifier(table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + sqlutil.Placeholders(len(r.columns)) + ") RETURNING id"
}

// nullTime converts a timestamp to a nullable SQL value: the zero time maps
// to NULL because the source system omits timestamps on some legacy records.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// nullID converts a resolved destination ID pointer to a nullable SQL value.
func nullID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
