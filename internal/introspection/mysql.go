package introspection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"rds-graphql/internal/sqlutil"
)

// ErrNotStarted is returned when a reader method is called outside Begin/End.
var ErrNotStarted = errors.New("schema reader not started")

// Connector hands out dedicated connections. *sql.DB satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// MySQLReader implements SchemaReader with SHOW/DESCRIBE statements and
// information_schema lookups. It pins one connection between Begin and End so
// the USE statement applies to every later call.
type MySQLReader struct {
	db       Connector
	logger   *slog.Logger
	conn     *sql.Conn
	database string
}

// NewMySQLReader creates a reader over db.
func NewMySQLReader(db Connector, logger *slog.Logger) *MySQLReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MySQLReader{db: db, logger: logger}
}

// Begin acquires a connection and selects database.
func (r *MySQLReader) Begin(ctx context.Context, database string) error {
	ctx, span := startSpan(ctx, "introspection.begin",
		attribute.String("db.name", database),
	)
	defer span.End()

	if r.conn != nil {
		return errors.New("schema reader already started")
	}
	conn, err := r.db.Conn(ctx)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "USE "+sqlutil.QuoteIdentifier(database)); err != nil {
		_ = conn.Close()
		recordSpanError(span, err)
		return fmt.Errorf("use database %s: %w", database, err)
	}
	r.conn = conn
	r.database = database
	r.logger.Debug("schema reader started", slog.String("database", database))
	return nil
}

// ListTables returns the base tables of database in server order.
// Views are skipped.
func (r *MySQLReader) ListTables(ctx context.Context, database string) ([]string, error) {
	ctx, span := startSpan(ctx, "introspection.list_tables",
		attribute.String("db.name", database),
	)
	defer span.End()

	if r.conn == nil {
		return nil, ErrNotStarted
	}

	rows, err := r.conn.QueryContext(ctx, "SHOW FULL TABLES FROM "+sqlutil.QuoteIdentifier(database))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []string
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		if !strings.EqualFold(tableType, "BASE TABLE") {
			r.logger.Debug("skipping non-base table",
				slog.String("table", name),
				slog.String("type", tableType),
			)
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return tables, nil
}

// DescribeTable returns the DESCRIBE rows for table in column order.
func (r *MySQLReader) DescribeTable(ctx context.Context, table string) ([]ColumnDescription, error) {
	ctx, span := startSpan(ctx, "introspection.describe_table",
		attribute.String("db.name", r.database),
		attribute.String("db.table", table),
	)
	defer span.End()

	if r.conn == nil {
		return nil, ErrNotStarted
	}

	rows, err := r.conn.QueryContext(ctx, "DESCRIBE "+sqlutil.QuoteIdentifier(table))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var columns []ColumnDescription
	for rows.Next() {
		var (
			col        ColumnDescription
			null, key  string
			defaultVal sql.NullString
			extra      sql.NullString
		)
		if err := rows.Scan(&col.Field, &col.Type, &null, &key, &defaultVal, &extra); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		col.Nullable = strings.EqualFold(null, "YES")
		col.Key = ParseKeyRole(key)
		if defaultVal.Valid {
			col.Default = defaultVal.String
		}
		if extra.Valid {
			col.Extra = extra.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return columns, nil
}

// ReferencingTables returns the tables of the current database whose foreign
// keys reference table, ordered by name.
func (r *MySQLReader) ReferencingTables(ctx context.Context, table string) ([]string, error) {
	ctx, span := startSpan(ctx, "introspection.referencing_tables",
		attribute.String("db.name", r.database),
		attribute.String("db.table", table),
	)
	defer span.End()

	if r.conn == nil {
		return nil, ErrNotStarted
	}

	query := `
		SELECT DISTINCT TABLE_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
			AND REFERENCED_TABLE_SCHEMA = ?
			AND REFERENCED_TABLE_NAME = ?
		ORDER BY TABLE_NAME
	`

	rows, err := r.conn.QueryContext(ctx, query, r.database, r.database, table)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return tables, nil
}

// End releases the pinned connection. It is safe to call more than once.
func (r *MySQLReader) End() error {
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	r.database = ""
	if err != nil {
		return fmt.Errorf("release connection: %w", err)
	}
	return nil
}

var _ SchemaReader = (*MySQLReader)(nil)
