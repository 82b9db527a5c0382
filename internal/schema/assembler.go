package schema

import (
	"errors"

	"github.com/graphql-go/graphql/language/ast"

	"rds-graphql/internal/naming"
)

// Root operation type names.
const (
	QueryTypeName        = "Query"
	MutationTypeName     = "Mutation"
	SubscriptionTypeName = "Subscription"

	// SubscribeDirective links a subscription field to the mutations that trigger it.
	SubscribeDirective = "aws_subscribe"

	nextTokenArg = "nextToken"
)

// ErrNoTables is returned when there is nothing to assemble.
var ErrNoTables = errors.New("no tables to assemble")

// Assemble builds the schema document for the given tables. For each table, in
// input order, it emits the connection type, create input, entity type and
// update input; the Mutation, Query and Subscription roots and the schema
// definition follow. The contexts are not modified, so assembling the same
// input twice yields identical documents.
func Assemble(contexts []*TableContext, namer *naming.Namer) (*ast.Document, error) {
	if len(contexts) == 0 {
		return nil, ErrNoTables
	}

	definitions := make([]ast.Node, 0, len(contexts)*4+4)
	var (
		mutationFields     []*ast.FieldDefinition
		queryFields        []*ast.FieldDefinition
		subscriptionFields []*ast.FieldDefinition
	)

	for _, tc := range contexts {
		table := tc.TableName
		typeName := namer.TypeName(table)

		definitions = append(definitions,
			connectionType(namer.ConnectionTypeName(table), typeName),
			tc.CreateInput,
			tc.Entity,
			tc.UpdateInput,
		)

		keyArg := func() *ast.InputValueDefinition {
			return inputValue(tc.PrimaryKeyField, nonNull(namedType(tc.PrimaryKeyType.String())))
		}

		mutationFields = append(mutationFields,
			fieldDefinition(namer.DeleteFieldName(table), namedType(typeName), keyArg()),
			fieldDefinition(namer.CreateFieldName(table), namedType(typeName),
				inputValue(namer.CreateArgName(table), nonNull(namedType(namer.CreateInputTypeName(table))))),
			fieldDefinition(namer.UpdateFieldName(table), namedType(typeName),
				inputValue(namer.UpdateArgName(table), nonNull(namedType(namer.UpdateInputTypeName(table))))),
		)

		queryFields = append(queryFields,
			fieldDefinition(namer.GetFieldName(table), namedType(typeName), keyArg()),
			fieldDefinition(namer.ListFieldName(table), namedType(namer.ConnectionTypeName(table)),
				inputValue(nextTokenArg, namedType("String"))),
		)

		onCreate := fieldDefinition(namer.OnCreateFieldName(table), namedType(typeName))
		onCreate.Directives = []*ast.Directive{subscribeDirective(namer.CreateFieldName(table))}
		subscriptionFields = append(subscriptionFields, onCreate)
	}

	definitions = append(definitions,
		objectType(MutationTypeName, mutationFields),
		objectType(QueryTypeName, queryFields),
		objectType(SubscriptionTypeName, subscriptionFields),
		ast.NewSchemaDefinition(&ast.SchemaDefinition{
			OperationTypes: []*ast.OperationTypeDefinition{
				operationType("query", QueryTypeName),
				operationType("mutation", MutationTypeName),
				operationType("subscription", SubscriptionTypeName),
			},
		}),
	)

	return ast.NewDocument(&ast.Document{Definitions: definitions}), nil
}

// connectionType returns `type <T>Connection { items: [<T>] nextToken: String }`.
func connectionType(connectionName, typeName string) *ast.ObjectDefinition {
	return objectType(connectionName, []*ast.FieldDefinition{
		fieldDefinition("items", listOf(namedType(typeName))),
		fieldDefinition(nextTokenArg, namedType("String")),
	})
}

func objectType(typeName string, fields []*ast.FieldDefinition) *ast.ObjectDefinition {
	return ast.NewObjectDefinition(&ast.ObjectDefinition{
		Name:   name(typeName),
		Fields: fields,
	})
}

func operationType(operation, typeName string) *ast.OperationTypeDefinition {
	return ast.NewOperationTypeDefinition(&ast.OperationTypeDefinition{
		Operation: operation,
		Type:      namedType(typeName),
	})
}

func subscribeDirective(mutation string) *ast.Directive {
	return ast.NewDirective(&ast.Directive{
		Name: name(SubscribeDirective),
		Arguments: []*ast.Argument{
			ast.NewArgument(&ast.Argument{
				Name: name("mutations"),
				Value: ast.NewListValue(&ast.ListValue{
					Values: []ast.Value{ast.NewStringValue(&ast.StringValue{Value: mutation})},
				}),
			}),
		},
	})
}
