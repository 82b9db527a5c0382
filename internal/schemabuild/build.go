// Package schemabuild runs the compile pipeline: introspect a database through a
// SchemaReader, derive per-table contexts, assemble the schema document and
// generate resolver templates for every table.
package schemabuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql/language/ast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"rds-graphql/internal/introspection"
	"rds-graphql/internal/logging"
	"rds-graphql/internal/naming"
	"rds-graphql/internal/observability"
	"rds-graphql/internal/resolvergen"
	"rds-graphql/internal/schema"
	"rds-graphql/internal/schemafilter"
)

// Introspection operations reported by IntrospectionError.
const (
	OpBegin             = "begin"
	OpListTables        = "list tables"
	OpDescribeTable     = "describe table"
	OpReferencingTables = "referencing tables"
	OpEnd               = "end"
)

// IntrospectionError reports a failed SchemaReader call. Any reader failure
// aborts the build without partial output.
type IntrospectionError struct {
	Op    string
	Table string
	Err   error
}

func (e *IntrospectionError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("introspection %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("introspection %s failed for table %s: %v", e.Op, e.Table, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// Config defines inputs for a schema build.
type Config struct {
	Reader   introspection.SchemaReader
	Database string
	Filters  schemafilter.Config
	Naming   naming.Config
	// ValidateSchema checks the printed SDL against the hosting service's
	// built-in scalars and directives before returning.
	ValidateSchema bool
	// Logger defaults to the logger carried by the build context.
	Logger         *slog.Logger
	Metrics        *observability.BuildMetrics
}

// Result contains the artifacts produced by Build. Tables and Resolvers are
// in ListTables order.
type Result struct {
	Database  string
	Document  *ast.Document
	SDL       string
	Tables    []*schema.TableContext
	Resolvers []*resolvergen.TableResolvers
}

// Build runs the pipeline sequentially, one introspection round-trip per table.
func Build(ctx context.Context, cfg Config) (result *Result, err error) {
	if cfg.Reader == nil {
		return nil, fmt.Errorf("schema builder requires a schema reader")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("schema builder requires a database name")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.FromContext(ctx).Logger
	}
	logger = logger.With(slog.String("database", cfg.Database))

	ctx, span := otel.Tracer("rds-graphql/schemabuild").Start(ctx, "schemabuild.Build")
	span.SetAttributes(attribute.String("db.name", cfg.Database))
	started := time.Now()
	defer func() {
		tables := 0
		if result != nil {
			tables = len(result.Tables)
		}
		cfg.Metrics.RecordBuild(ctx, cfg.Database, time.Since(started), tables, err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("schema.tables", tables))
		}
		span.End()
	}()

	logger.Info("schema build started")

	tables, err := introspect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	namer := naming.New(cfg.Naming, logger)
	contexts := make([]*schema.TableContext, 0, len(tables))
	for _, table := range tables {
		tc, err := schema.BuildTableContext(table.name, table.columns, table.references, namer)
		if err != nil {
			return nil, fmt.Errorf("failed to build table %s: %w", table.name, err)
		}
		contexts = append(contexts, tc)
	}

	doc, err := schema.Assemble(contexts, namer)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble schema: %w", err)
	}
	sdl := schema.Print(doc)
	if cfg.ValidateSchema {
		if err := schema.Validate(sdl); err != nil {
			return nil, err
		}
	}

	resolvers := make([]*resolvergen.TableResolvers, 0, len(contexts))
	for _, tc := range contexts {
		tr, err := resolvergen.Generate(tc, namer)
		if err != nil {
			return nil, fmt.Errorf("failed to generate resolvers for table %s: %w", tc.TableName, err)
		}
		resolvers = append(resolvers, tr)
	}

	logger.Info("schema build finished",
		slog.Int("tables", len(contexts)),
		slog.Duration("duration", time.Since(started)),
	)
	return &Result{
		Database:  cfg.Database,
		Document:  doc,
		SDL:       sdl,
		Tables:    contexts,
		Resolvers: resolvers,
	}, nil
}

type tableMetadata struct {
	name       string
	columns    []introspection.ColumnDescription
	references []string
}

// introspect reads every allowed table between Begin and End. References to
// tables outside the build are dropped so the document never names a missing type.
func introspect(ctx context.Context, cfg Config, logger *slog.Logger) (tables []tableMetadata, err error) {
	reader := cfg.Reader
	if err := reader.Begin(ctx, cfg.Database); err != nil {
		return nil, &IntrospectionError{Op: OpBegin, Err: err}
	}
	defer func() {
		if endErr := reader.End(); endErr != nil && err == nil {
			tables = nil
			err = &IntrospectionError{Op: OpEnd, Err: endErr}
		}
	}()

	names, err := reader.ListTables(ctx, cfg.Database)
	if err != nil {
		return nil, &IntrospectionError{Op: OpListTables, Err: err}
	}

	allowed := schemafilter.Tables(names, cfg.Filters)
	if skipped := len(names) - len(allowed); skipped > 0 {
		logger.Info("tables excluded by schema filters", slog.Int("count", skipped))
	}
	included := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		included[name] = true
	}

	tables = make([]tableMetadata, 0, len(allowed))
	for _, name := range allowed {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("schema build cancelled: %w", err)
		}

		columns, err := reader.DescribeTable(ctx, name)
		if err != nil {
			return nil, &IntrospectionError{Op: OpDescribeTable, Table: name, Err: err}
		}
		columns = schemafilter.Columns(name, columns, cfg.Filters)

		referencing, err := reader.ReferencingTables(ctx, name)
		if err != nil {
			return nil, &IntrospectionError{Op: OpReferencingTables, Table: name, Err: err}
		}
		references := make([]string, 0, len(referencing))
		for _, ref := range referencing {
			if !included[ref] {
				logger.Debug("dropping reference to table outside the build",
					slog.String("table", name),
					slog.String("reference", ref),
				)
				continue
			}
			references = append(references, ref)
		}

		logger.Debug("table described",
			slog.String("table", name),
			slog.Int("columns", len(columns)),
			slog.Int("references", len(references)),
		)
		tables = append(tables, tableMetadata{name: name, columns: columns, references: references})
	}
	return tables, nil
}

// IsIntrospectionError reports whether err came from the SchemaReader.
func IsIntrospectionError(err error) bool {
	var target *IntrospectionError
	return errors.As(err, &target)
}
