package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams selects and pages the rows returned by DataReader.Query.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, e.g. "RunID = ?".
	Where string
	Args  []any

	// OrderBy is an ordering without the ORDER BY keywords.
	OrderBy string

	// Limit caps the number of returned rows; 0 returns all of them. Offset
	// skips rows and may be used without Limit.
	Limit  int
	Offset int
}

// clauses renders the parts of a SELECT that follow the table name. The row
// count only depends on the WHERE clause.
func (p QueryParams) clauses() (filter, page string) {
	var b strings.Builder

	if p.Where != "" {
		filter = " WHERE " + p.Where
	}

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	switch {
	case p.Limit > 0:
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)
	case p.Offset > 0:
		b.WriteString(" LIMIT -1")
	}

	if p.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", p.Offset)
	}

	return filter, b.String()
}

// DataReader reads back tables written by a DataRecorder.
type DataReader interface {
	// MapTable binds a table to the struct type its rows are read into.
	// Columns are matched to exported fields by name.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables in name order.
	ListTables() []string

	// Query returns pointers to the matching rows together with the number
	// of rows that match before Limit and Offset apply.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type mappedTable struct {
	rowType reflect.Type
	fields  map[string]int
}

type sqliteReader struct {
	*sql.DB

	tables map[string]mappedTable
}

// NewReader opens a recording read-only.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", "file:"+dbFilename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening recording %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader over an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:     db,
		tables: make(map[string]mappedTable),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	fields := make(map[string]int)
	for i, name := range structs.Names(sampleEntry) {
		fields[name] = i
	}

	r.tables[tableName] = mappedTable{
		rowType: reflect.TypeOf(sampleEntry),
		fields:  fields,
	}
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	table, ok := r.tables[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	filter, page := params.clauses()

	var total int

	err := r.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+filter, params.Args...).
		Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.QueryContext(ctx,
		"SELECT * FROM "+tableName+filter+page, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := table.scan(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// scan reads every row into a new struct. Columns without a matching field
// are read and dropped.
func (t mappedTable) scan(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		row := reflect.New(t.rowType)
		targets := make([]any, len(columns))

		for i, column := range columns {
			if field, ok := t.fields[column]; ok {
				targets[i] = row.Elem().Field(field).Addr().Interface()
			} else {
				targets[i] = new(any)
			}
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, row.Interface())
	}

	return results, rows.Err()
}
