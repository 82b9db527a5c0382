package resolvergen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rds-graphql/internal/introspection"
	mt "rds-graphql/internal/mappingtemplate"
	"rds-graphql/internal/naming"
	"rds-graphql/internal/schema"
	"rds-graphql/internal/sqlgen"
)

func buildTable(t *testing.T) (*schema.TableContext, *naming.Namer) {
	t.Helper()
	namer := naming.Default()
	tc, err := schema.BuildTableContext("t", []introspection.ColumnDescription{
		{Field: "id", Type: "INT", Key: introspection.KeyPrimary},
		{Field: "name", Type: "VARCHAR(100)", Nullable: true},
	}, nil, namer)
	require.NoError(t, err)
	return tc, namer
}

func generate(t *testing.T) *TableResolvers {
	t.Helper()
	tc, namer := buildTable(t)
	resolvers, err := Generate(tc, namer)
	require.NoError(t, err)
	return resolvers
}

// simulateColumns mirrors the request template loop: for every binding whose
// field is present in input, the column and its variable are appended together.
func simulateColumns(bindings []Binding, input map[string]any) (columns []string, variables []sqlgen.Variable) {
	for _, b := range bindings {
		if _, ok := input[b.Field]; !ok {
			continue
		}
		columns = append(columns, "`"+b.Column+"`")
		variables = append(variables, b.Variable)
	}
	return columns, variables
}

func TestGenerate_Names(t *testing.T) {
	resolvers := generate(t)

	var keys []string
	var ops []Operation
	for _, r := range resolvers.All() {
		keys = append(keys, r.Key())
		ops = append(ops, r.Operation)
		assert.Equal(t, "t", r.TableName)
	}
	assert.Equal(t, []string{"Query.gett", "Query.listts", "Mutation.createt", "Mutation.updatet", "Mutation.deletet"}, keys)
	assert.Equal(t, []Operation{OperationGet, OperationList, OperationCreate, OperationUpdate, OperationDelete}, ops)
}

func TestGenerate_Get(t *testing.T) {
	resolvers := generate(t)

	expected := `{
  "version": "2018-05-29",
  "statements": [
    "SELECT * FROM ` + "`t`" + ` WHERE ` + "`id`" + ` = :p1"
  ],
  "variableMap": {
    ":p1": $util.toJson($ctx.args.id)
  }
}`
	assert.Equal(t, expected, mt.Print(resolvers.Get.Request))
	assert.Equal(t, mt.Print(mt.SingleRowResponse(0)), mt.Print(resolvers.Get.Response))
}

func TestGenerate_List(t *testing.T) {
	resolvers := generate(t)

	request := mt.Print(resolvers.List.Request)
	assert.Contains(t, request, `"SELECT * FROM `+"`t`"+`"`)
	assert.Contains(t, request, `"variableMap": {}`)
	assert.Equal(t, mt.Print(mt.ConnectionResponse(0)), mt.Print(resolvers.List.Response))
}

func TestGenerate_DeleteSelectsBeforeDeleting(t *testing.T) {
	resolvers := generate(t)

	request := mt.Print(resolvers.Delete.Request)
	selectAt := strings.Index(request, "SELECT * FROM `t` WHERE `id` = :p1")
	deleteAt := strings.Index(request, "DELETE FROM `t` WHERE `id` = :p1")
	require.NotEqual(t, -1, selectAt)
	require.NotEqual(t, -1, deleteAt)
	assert.Less(t, selectAt, deleteAt)
	assert.Contains(t, request, `":p1": $util.toJson($ctx.args.id)`)

	// Pre-delete snapshot: row 0 of the first statement.
	assert.Equal(t, mt.Print(mt.SingleRowResponse(0)), mt.Print(resolvers.Delete.Response))
}

func TestGenerate_Create(t *testing.T) {
	resolvers := generate(t)
	request := mt.Print(resolvers.Create.Request)

	assert.Contains(t, request, "#set( $input = $ctx.args.createtInput )")
	assert.Contains(t, request,
		`#set( $fields = [{ "field": "id", "column": "`+"`id`"+`", "variable": ":p1" }, { "field": "name", "column": "`+"`name`"+`", "variable": ":p2" }] )`)
	assert.Contains(t, request, `#set( $columns = "$columns$entry.column" )`)
	assert.Contains(t, request, `#set( $values = "$values$entry.variable" )`)
	assert.Contains(t, request, "$util.qr($variableMap.put($entry.variable, $input.get($entry.field)))")
	assert.Contains(t, request, "\"INSERT INTO `t` ($columns) VALUES ($values)\",\n    \"SELECT * FROM `t` WHERE `id` = :p1\"")
	assert.Contains(t, request, `"variableMap": $util.toJson($variableMap)`)

	// The stored row comes from the trailing SELECT.
	assert.Equal(t, mt.Print(mt.SingleRowResponse(1)), mt.Print(resolvers.Create.Response))
}

func TestGenerate_CreateColumnsPairWithVariables(t *testing.T) {
	tc, _ := buildTable(t)
	bindings := Bindings(tc)

	require.Equal(t, []Binding{
		{Field: "id", Column: "id", Variable: ":p1"},
		{Field: "name", Column: "name", Variable: ":p2"},
	}, bindings)

	tests := []struct {
		name      string
		input     map[string]any
		columns   []string
		variables []sqlgen.Variable
	}{
		{
			name:      "name only",
			input:     map[string]any{"name": "x"},
			columns:   []string{"`name`"},
			variables: []sqlgen.Variable{":p2"},
		},
		{
			name:      "all fields in any key order",
			input:     map[string]any{"name": "x", "id": 7},
			columns:   []string{"`id`", "`name`"},
			variables: []sqlgen.Variable{":p1", ":p2"},
		},
		{
			name:  "unknown keys ignored",
			input: map[string]any{"other": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns, variables := simulateColumns(bindings, tt.input)
			assert.Equal(t, tt.columns, columns)
			assert.Equal(t, tt.variables, variables)
			assert.Len(t, variables, len(columns))
		})
	}
}

func TestGenerate_Update(t *testing.T) {
	resolvers := generate(t)
	request := mt.Print(resolvers.Update.Request)

	assert.Contains(t, request, "#set( $input = $ctx.args.updatetInput )")
	assert.Contains(t, request,
		`#set( $fields = [{ "field": "name", "assignment": "`+"`name`"+` = :p2", "variable": ":p2" }] )`)
	assert.Contains(t, request, `#set( $variableMap = { ":p1": $input.get("id") } )`)
	assert.Contains(t, request, `$util.error("No fields to update", "InvalidInput")`)
	assert.Contains(t, request, "\"UPDATE `t` SET $assignments WHERE `id` = :p1\",\n    \"SELECT * FROM `t` WHERE `id` = :p1\"")

	// Post-update row: row 0 of the second statement.
	assert.Equal(t, mt.Print(mt.SingleRowResponse(1)), mt.Print(resolvers.Update.Response))
}

func TestGenerate_NonIntegerKey(t *testing.T) {
	namer := naming.Default()
	tc, err := schema.BuildTableContext("Account", []introspection.ColumnDescription{
		{Field: "email", Type: "varchar(320)"},
		{Field: "handle", Type: "varchar(64)", Key: introspection.KeyPrimary},
	}, nil, namer)
	require.NoError(t, err)

	resolvers, err := Generate(tc, namer)
	require.NoError(t, err)

	request := mt.Print(resolvers.Get.Request)
	assert.Contains(t, request, "SELECT * FROM `Account` WHERE `handle` = :p2")
	assert.Contains(t, request, `":p2": $util.toJson($ctx.args.handle)`)
	assert.Equal(t, "Query.getAccount", resolvers.Get.Key())
	assert.Equal(t, "Query.listAccounts", resolvers.List.Key())
}

func TestGenerate_MissingPrimaryKey(t *testing.T) {
	tc, namer := buildTable(t)
	broken := *tc
	broken.PrimaryKeyField = ""

	_, err := Generate(&broken, namer)
	assert.ErrorIs(t, err, schema.ErrMissingPrimaryKey)

	_, err = Generate(nil, namer)
	assert.Error(t, err)
}

func TestGenerate_Deterministic(t *testing.T) {
	first := generate(t)
	second := generate(t)

	for i, r := range first.All() {
		other := second.All()[i]
		assert.Equal(t, mt.Print(r.Request), mt.Print(other.Request), r.Key())
		assert.Equal(t, mt.Print(r.Response), mt.Print(other.Response), r.Key())
	}
}
