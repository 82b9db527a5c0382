// Package introspection reads table metadata from a MySQL-compatible database.
// The build pipeline depends only on the SchemaReader contract; MySQLReader is
// the implementation used by the CLI.
package introspection

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// KeyRole is the key tag DESCRIBE reports for a column.
type KeyRole int

const (
	// KeyNone marks a column that is neither a primary key nor an indexed foreign key.
	KeyNone KeyRole = iota
	// KeyPrimary marks a primary-key column ("PRI").
	KeyPrimary
	// KeyForeignIndex marks a column in a non-unique index, typically a foreign key ("MUL").
	KeyForeignIndex
)

// ParseKeyRole converts the DESCRIBE Key column into a KeyRole.
// "UNI" and unknown values map to KeyNone.
func ParseKeyRole(key string) KeyRole {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "PRI":
		return KeyPrimary
	case "MUL":
		return KeyForeignIndex
	default:
		return KeyNone
	}
}

func (k KeyRole) String() string {
	switch k {
	case KeyPrimary:
		return "primary"
	case KeyForeignIndex:
		return "foreign-index"
	default:
		return "none"
	}
}

// ColumnDescription is one row of DESCRIBE output.
type ColumnDescription struct {
	Field    string
	Type     string
	Nullable bool
	Key      KeyRole
	Default  string
	Extra    string
}

// IsPrimaryKey reports whether the column is tagged as the primary key.
func (c ColumnDescription) IsPrimaryKey() bool {
	return c.Key == KeyPrimary
}

// SchemaReader is the introspection contract the build pipeline consumes.
// Calls are made sequentially: Begin, then ListTables and per-table
// DescribeTable/ReferencingTables, then End. End must be called whenever
// Begin succeeded.
type SchemaReader interface {
	Begin(ctx context.Context, database string) error
	ListTables(ctx context.Context, database string) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]ColumnDescription, error)
	// ReferencingTables returns the tables holding a foreign key that points at table.
	ReferencingTables(ctx context.Context, table string) ([]string, error)
	End() error
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("rds-graphql/introspection")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
