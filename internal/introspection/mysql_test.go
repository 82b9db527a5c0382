package introspection

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var describeColumns = []string{"Field", "Type", "Null", "Key", "Default", "Extra"}

const referencingQuery = "SELECT DISTINCT TABLE_NAME FROM information_schema.KEY_COLUMN_USAGE"

func newStartedReader(t *testing.T) (*MySQLReader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("USE `shop`").WillReturnResult(sqlmock.NewResult(0, 0))

	reader := NewMySQLReader(db, nil)
	require.NoError(t, reader.Begin(context.Background(), "shop"))
	t.Cleanup(func() { _ = reader.End() })
	return reader, mock
}

func TestParseKeyRole(t *testing.T) {
	tests := []struct {
		input    string
		expected KeyRole
	}{
		{"PRI", KeyPrimary},
		{"pri", KeyPrimary},
		{"MUL", KeyForeignIndex},
		{"UNI", KeyNone},
		{"", KeyNone},
		{"other", KeyNone},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseKeyRole(tt.input))
		})
	}
}

func TestKeyRoleString(t *testing.T) {
	assert.Equal(t, "primary", KeyPrimary.String())
	assert.Equal(t, "foreign-index", KeyForeignIndex.String())
	assert.Equal(t, "none", KeyNone.String())
}

func TestMySQLReader_ListTables(t *testing.T) {
	reader, mock := newStartedReader(t)

	rows := sqlmock.NewRows([]string{"Tables_in_shop", "Table_type"}).
		AddRow("orders", "BASE TABLE").
		AddRow("customers", "BASE TABLE").
		AddRow("order_summary", "VIEW")
	mock.ExpectQuery("SHOW FULL TABLES FROM `shop`").WillReturnRows(rows)

	tables, err := reader.ListTables(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLReader_DescribeTable(t *testing.T) {
	reader, mock := newStartedReader(t)

	rows := sqlmock.NewRows(describeColumns).
		AddRow("id", "int", "NO", "PRI", nil, "auto_increment").
		AddRow("customerId", "int", "NO", "MUL", nil, "").
		AddRow("note", "varchar(100)", "YES", "", "n/a", "").
		AddRow("code", "char(8)", "NO", "UNI", nil, "")
	mock.ExpectQuery("DESCRIBE `orders`").WillReturnRows(rows)

	columns, err := reader.DescribeTable(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, columns, 4)

	assert.Equal(t, ColumnDescription{Field: "id", Type: "int", Key: KeyPrimary, Extra: "auto_increment"}, columns[0])
	assert.Equal(t, KeyForeignIndex, columns[1].Key)
	assert.False(t, columns[1].Nullable)
	assert.True(t, columns[2].Nullable)
	assert.Equal(t, "n/a", columns[2].Default)
	assert.Equal(t, KeyNone, columns[3].Key)
	assert.True(t, columns[0].IsPrimaryKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLReader_DescribeTableQuotesIdentifier(t *testing.T) {
	reader, mock := newStartedReader(t)

	mock.ExpectQuery("DESCRIBE `odd``name`").WillReturnRows(sqlmock.NewRows(describeColumns))

	columns, err := reader.DescribeTable(context.Background(), "odd`name")
	require.NoError(t, err)
	assert.Empty(t, columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLReader_ReferencingTables(t *testing.T) {
	reader, mock := newStartedReader(t)

	rows := sqlmock.NewRows([]string{"TABLE_NAME"}).
		AddRow("line_items").
		AddRow("payments")
	mock.ExpectQuery(referencingQuery).
		WithArgs("shop", "shop", "orders").
		WillReturnRows(rows)

	tables, err := reader.ReferencingTables(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"line_items", "payments"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLReader_QueryErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(sqlmock.Sqlmock)
		call  func(*MySQLReader) error
	}{
		{
			name: "list tables",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SHOW FULL TABLES").WillReturnError(sql.ErrConnDone)
			},
			call: func(r *MySQLReader) error {
				_, err := r.ListTables(context.Background(), "shop")
				return err
			},
		},
		{
			name: "describe",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("DESCRIBE").WillReturnError(sql.ErrConnDone)
			},
			call: func(r *MySQLReader) error {
				_, err := r.DescribeTable(context.Background(), "orders")
				return err
			},
		},
		{
			name: "referencing tables",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(referencingQuery).WillReturnError(sql.ErrConnDone)
			},
			call: func(r *MySQLReader) error {
				_, err := r.ReferencingTables(context.Background(), "orders")
				return err
			},
		},
		{
			name: "scan failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("DESCRIBE").WillReturnRows(sqlmock.NewRows([]string{"Field"}).AddRow("id"))
			},
			call: func(r *MySQLReader) error {
				_, err := r.DescribeTable(context.Background(), "orders")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mock := newStartedReader(t)
			tt.setup(mock)
			assert.Error(t, tt.call(reader))
		})
	}
}

func TestMySQLReader_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("USE `missing`").WillReturnError(errors.New("unknown database"))

	reader := NewMySQLReader(db, nil)
	err = reader.Begin(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use database missing")

	_, err = reader.ListTables(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.NoError(t, reader.End())
}

func TestMySQLReader_NotStarted(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewMySQLReader(db, nil)

	_, err = reader.DescribeTable(context.Background(), "orders")
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = reader.ReferencingTables(context.Background(), "orders")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestMySQLReader_BeginTwice(t *testing.T) {
	reader, _ := newStartedReader(t)

	err := reader.Begin(context.Background(), "shop")
	assert.Error(t, err)
}
