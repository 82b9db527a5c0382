// Package schema builds the GraphQL schema document for a set of tables.
// Per-table type shapes come from BuildTableContext; Assemble adds the
// connection types and the Query, Mutation and Subscription roots.
package schema

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql/language/ast"

	"rds-graphql/internal/introspection"
	"rds-graphql/internal/naming"
	"rds-graphql/internal/sqltype"
)

var (
	// ErrMissingPrimaryKey is returned for a table without a primary-key column.
	ErrMissingPrimaryKey = errors.New("table has no primary key")
	// ErrAmbiguousPrimaryKey is returned for a table with more than one primary-key column.
	ErrAmbiguousPrimaryKey = errors.New("table has more than one primary key column")
	// ErrNoColumns is returned for a table without columns.
	ErrNoColumns = errors.New("table has no columns")
)

// TableContext holds the three type shapes and key metadata derived from one
// table. It is not modified after BuildTableContext returns.
type TableContext struct {
	TableName       string
	Entity          *ast.ObjectDefinition
	CreateInput     *ast.InputObjectDefinition
	UpdateInput     *ast.InputObjectDefinition
	PrimaryKeyField string
	PrimaryKeyType  sqltype.Scalar
	Columns         []introspection.ColumnDescription
	// References lists the tables whose foreign keys point at this table.
	References []string
}

// ColumnFields returns the create-input fields in declaration order. Each
// field name is also the column name.
func (tc *TableContext) ColumnFields() []string {
	fields := make([]string, 0, len(tc.CreateInput.Fields))
	for _, field := range tc.CreateInput.Fields {
		fields = append(fields, field.Name.Value)
	}
	return fields
}

// BuildTableContext derives the entity, create-input and update-input types
// for a table. Every generated type name is registered with namer, so
// BuildTableContext fails with naming.ErrNameCollision when the table would
// shadow another table or a reserved name.
func BuildTableContext(table string, columns []introspection.ColumnDescription, references []string, namer *naming.Namer) (*TableContext, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrNoColumns)
	}
	if err := namer.RegisterTable(table); err != nil {
		return nil, err
	}

	tc := &TableContext{
		TableName:  table,
		Columns:    append([]introspection.ColumnDescription(nil), columns...),
		References: append([]string(nil), references...),
	}

	var (
		entityFields []*ast.FieldDefinition
		createFields []*ast.InputValueDefinition
		updateFields []*ast.InputValueDefinition
		primaryKeys  int
	)

	for _, col := range columns {
		scalar := sqltype.MapToGraphQL(col.Type)
		isPrimaryKey := col.IsPrimaryKey()
		if isPrimaryKey {
			primaryKeys++
			if primaryKeys == 1 {
				tc.PrimaryKeyField = col.Field
				tc.PrimaryKeyType = scalar
			}
		}

		var fieldType ast.Type = namedType(scalar.String())
		if isPrimaryKey || !col.Nullable {
			fieldType = nonNull(fieldType)
		}
		var updateType ast.Type = namedType(scalar.String())
		if isPrimaryKey {
			updateType = nonNull(updateType)
		}

		fieldName := namer.EntityFieldName(table, col.Field, "column:"+col.Field)
		entityFields = append(entityFields, fieldDefinition(fieldName, fieldType))
		createFields = append(createFields, inputValue(col.Field, fieldType))
		updateFields = append(updateFields, inputValue(col.Field, updateType))
	}

	switch {
	case primaryKeys == 0:
		return nil, fmt.Errorf("%s: %w", table, ErrMissingPrimaryKey)
	case primaryKeys > 1:
		return nil, fmt.Errorf("%s: %w (%d columns)", table, ErrAmbiguousPrimaryKey, primaryKeys)
	}

	// One-to-many nested connections exist on the entity only.
	for _, ref := range references {
		fieldName := namer.EntityFieldName(table, ref, "reference:"+ref)
		entityFields = append(entityFields, fieldDefinition(fieldName, namedType(namer.ConnectionTypeName(ref))))
	}

	tc.Entity = ast.NewObjectDefinition(&ast.ObjectDefinition{
		Name:   name(namer.TypeName(table)),
		Fields: entityFields,
	})
	tc.CreateInput = ast.NewInputObjectDefinition(&ast.InputObjectDefinition{
		Name:   name(namer.CreateInputTypeName(table)),
		Fields: createFields,
	})
	tc.UpdateInput = ast.NewInputObjectDefinition(&ast.InputObjectDefinition{
		Name:   name(namer.UpdateInputTypeName(table)),
		Fields: updateFields,
	})
	return tc, nil
}

func name(value string) *ast.Name {
	return ast.NewName(&ast.Name{Value: value})
}

func namedType(typeName string) *ast.Named {
	return ast.NewNamed(&ast.Named{Name: name(typeName)})
}

func nonNull(t ast.Type) *ast.NonNull {
	return ast.NewNonNull(&ast.NonNull{Type: t})
}

func listOf(t ast.Type) *ast.List {
	return ast.NewList(&ast.List{Type: t})
}

func fieldDefinition(fieldName string, t ast.Type, args ...*ast.InputValueDefinition) *ast.FieldDefinition {
	return ast.NewFieldDefinition(&ast.FieldDefinition{
		Name:      name(fieldName),
		Type:      t,
		Arguments: args,
	})
}

func inputValue(valueName string, t ast.Type) *ast.InputValueDefinition {
	return ast.NewInputValueDefinition(&ast.InputValueDefinition{
		Name: name(valueName),
		Type: t,
	})
}
