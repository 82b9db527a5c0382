// Package resolvergen generates the request and response mapping templates
// for the five per-table operations: get, list, create, update and delete.
//
// Requests target an RDS data source. SQL text is fixed at generation time and
// refers to named variables only; the request template fills the variableMap
// from the GraphQL arguments. Create and update walk an ordered literal list of
// column bindings built from the create-input field order, so generated column
// and value lists always pair up and never depend on input key order.
package resolvergen

import (
	"errors"
	"fmt"

	mt "rds-graphql/internal/mappingtemplate"
	"rds-graphql/internal/naming"
	"rds-graphql/internal/schema"
	"rds-graphql/internal/sqlgen"
	"rds-graphql/internal/sqlutil"
)

// Operation names the generated resolver kind.
type Operation string

const (
	OperationGet    Operation = "get"
	OperationList   Operation = "list"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Resolver is one request/response template pair attached to a root field.
type Resolver struct {
	TableName string
	TypeName  string
	FieldName string
	Operation Operation
	Request   mt.Expression
	Response  mt.Expression
}

// Key returns "<TypeName>.<FieldName>".
func (r Resolver) Key() string {
	return r.TypeName + "." + r.FieldName
}

// TableResolvers holds the five resolvers generated for one table.
type TableResolvers struct {
	TableName string
	Get       Resolver
	List      Resolver
	Create    Resolver
	Update    Resolver
	Delete    Resolver
}

// All returns the resolvers in get, list, create, update, delete order.
func (tr *TableResolvers) All() []Resolver {
	return []Resolver{tr.Get, tr.List, tr.Create, tr.Update, tr.Delete}
}

// Binding ties an input field to its column and statement variable.
type Binding struct {
	Field    string
	Column   string
	Variable sqlgen.Variable
}

// Bindings returns one binding per column in create-input field order. The
// variable of each column is derived from its 1-based position.
func Bindings(tc *schema.TableContext) []Binding {
	fields := tc.ColumnFields()
	bindings := make([]Binding, 0, len(fields))
	for i, field := range fields {
		bindings = append(bindings, Binding{
			Field:    field,
			Column:   field,
			Variable: sqlgen.VariableFor(i + 1),
		})
	}
	return bindings
}

// Generate builds the resolvers for one table.
func Generate(tc *schema.TableContext, namer *naming.Namer) (*TableResolvers, error) {
	if tc == nil {
		return nil, errors.New("nil table context")
	}
	if tc.PrimaryKeyField == "" {
		return nil, fmt.Errorf("%s: %w", tc.TableName, schema.ErrMissingPrimaryKey)
	}

	g := &generator{
		tc:       tc,
		namer:    namer,
		bindings: Bindings(tc),
	}
	for _, b := range g.bindings {
		if b.Field == tc.PrimaryKeyField {
			g.key = sqlgen.Key{Column: b.Column, Variable: b.Variable}
			g.keyField = b.Field
		}
	}
	if g.keyField == "" {
		return nil, fmt.Errorf("%s: primary key %q is not an input field: %w", tc.TableName, tc.PrimaryKeyField, schema.ErrMissingPrimaryKey)
	}

	out := &TableResolvers{TableName: tc.TableName}
	var err error
	if out.Get, err = g.get(); err != nil {
		return nil, g.wrap(OperationGet, err)
	}
	if out.List, err = g.list(); err != nil {
		return nil, g.wrap(OperationList, err)
	}
	if out.Create, err = g.create(); err != nil {
		return nil, g.wrap(OperationCreate, err)
	}
	if out.Update, err = g.update(); err != nil {
		return nil, g.wrap(OperationUpdate, err)
	}
	if out.Delete, err = g.delete(); err != nil {
		return nil, g.wrap(OperationDelete, err)
	}
	return out, nil
}

type generator struct {
	tc       *schema.TableContext
	namer    *naming.Namer
	bindings []Binding
	key      sqlgen.Key
	keyField string
}

func (g *generator) wrap(op Operation, err error) error {
	return fmt.Errorf("generate %s resolver for %s: %w", op, g.tc.TableName, err)
}

func (g *generator) resolver(op Operation, typeName, fieldName string, request, response mt.Expression) Resolver {
	return Resolver{
		TableName: g.tc.TableName,
		TypeName:  typeName,
		FieldName: fieldName,
		Operation: op,
		Request:   request,
		Response:  response,
	}
}

// keyVariableMap binds the key variable to the key argument.
func (g *generator) keyVariableMap() mt.ObjectNode {
	return mt.Obj(
		mt.Attr(string(g.key.Variable), mt.ToJSON(mt.Ref("ctx.args."+g.keyField))),
	)
}

func (g *generator) get() (Resolver, error) {
	selectSQL, err := sqlgen.PlanSelectByKey(g.tc.TableName, g.key)
	if err != nil {
		return Resolver{}, err
	}
	request := mt.RDSRequest(
		[]mt.Expression{mt.Str(selectSQL)},
		g.keyVariableMap(),
	)
	return g.resolver(OperationGet, schema.QueryTypeName, g.namer.GetFieldName(g.tc.TableName),
		request, mt.SingleRowResponse(0)), nil
}

func (g *generator) list() (Resolver, error) {
	selectSQL, err := sqlgen.PlanSelectAll(g.tc.TableName)
	if err != nil {
		return Resolver{}, err
	}
	request := mt.RDSRequest(
		[]mt.Expression{mt.Str(selectSQL)},
		mt.Obj(),
	)
	return g.resolver(OperationList, schema.QueryTypeName, g.namer.ListFieldName(g.tc.TableName),
		request, mt.ConnectionResponse(0)), nil
}

func (g *generator) delete() (Resolver, error) {
	selectSQL, err := sqlgen.PlanSelectByKey(g.tc.TableName, g.key)
	if err != nil {
		return Resolver{}, err
	}
	deleteSQL, err := sqlgen.PlanDeleteByKey(g.tc.TableName, g.key)
	if err != nil {
		return Resolver{}, err
	}
	request := mt.RDSRequest(
		[]mt.Expression{mt.Str(selectSQL), mt.Str(deleteSQL)},
		g.keyVariableMap(),
	)
	// The row is read before it is removed; the response returns that snapshot.
	return g.resolver(OperationDelete, schema.MutationTypeName, g.namer.DeleteFieldName(g.tc.TableName),
		request, mt.SingleRowResponse(0)), nil
}

func (g *generator) create() (Resolver, error) {
	const (
		columnsRef = "columns"
		valuesRef  = "values"
	)
	insertSQL, err := sqlgen.PlanInsertTemplate(g.tc.TableName, "$"+columnsRef, "$"+valuesRef)
	if err != nil {
		return Resolver{}, err
	}
	selectSQL, err := sqlgen.PlanSelectByKey(g.tc.TableName, g.key)
	if err != nil {
		return Resolver{}, err
	}

	entries := make([]mt.Expression, 0, len(g.bindings))
	for _, b := range g.bindings {
		entries = append(entries, mt.Obj(
			mt.Attr("field", mt.Str(b.Field)),
			mt.Attr("column", mt.Str(sqlutil.QuoteIdentifier(b.Column))),
			mt.Attr("variable", mt.Str(string(b.Variable))),
		))
	}

	request := mt.Compound(
		mt.Set(mt.Ref("input"), mt.Ref("ctx.args."+g.namer.CreateArgName(g.tc.TableName))),
		mt.Set(mt.Ref("fields"), mt.List(entries...)),
		mt.Set(mt.Ref(columnsRef), mt.Str("")),
		mt.Set(mt.Ref(valuesRef), mt.Str("")),
		mt.Set(mt.Ref("variableMap"), mt.Obj()),
		mt.ForEach(mt.Ref("entry"), mt.Ref("fields"),
			mt.If(mt.Ref("input.containsKey($entry.field)"),
				mt.Compound(
					mt.If(mt.Not(mt.Equals(mt.Ref(columnsRef), mt.Str(""))),
						mt.Compound(
							mt.Set(mt.Ref(columnsRef), mt.Str("$"+columnsRef+", ")),
							mt.Set(mt.Ref(valuesRef), mt.Str("$"+valuesRef+", ")),
						),
					),
					mt.Set(mt.Ref(columnsRef), mt.Str("$"+columnsRef+"$entry.column")),
					mt.Set(mt.Ref(valuesRef), mt.Str("$"+valuesRef+"$entry.variable")),
					mt.QuietRef("variableMap.put($entry.variable, $input.get($entry.field))"),
				),
			),
		),
		mt.RDSRequest(
			[]mt.Expression{mt.Str(insertSQL), mt.Str(selectSQL)},
			mt.ToJSON(mt.Ref("variableMap")),
		),
	)

	// The INSERT yields no rows; the trailing SELECT returns the stored row.
	return g.resolver(OperationCreate, schema.MutationTypeName, g.namer.CreateFieldName(g.tc.TableName),
		request, mt.SingleRowResponse(1)), nil
}

func (g *generator) update() (Resolver, error) {
	const assignmentsRef = "assignments"
	updateSQL, err := sqlgen.PlanUpdateTemplate(g.tc.TableName, "$"+assignmentsRef, g.key)
	if err != nil {
		return Resolver{}, err
	}
	selectSQL, err := sqlgen.PlanSelectByKey(g.tc.TableName, g.key)
	if err != nil {
		return Resolver{}, err
	}

	entries := make([]mt.Expression, 0, len(g.bindings))
	for _, b := range g.bindings {
		if b.Field == g.keyField {
			continue
		}
		assignment, err := sqlgen.PlanAssignment(b.Column, b.Variable)
		if err != nil {
			return Resolver{}, err
		}
		entries = append(entries, mt.Obj(
			mt.Attr("field", mt.Str(b.Field)),
			mt.Attr("assignment", mt.Str(assignment)),
			mt.Attr("variable", mt.Str(string(b.Variable))),
		))
	}

	request := mt.Compound(
		mt.Set(mt.Ref("input"), mt.Ref("ctx.args."+g.namer.UpdateArgName(g.tc.TableName))),
		mt.Set(mt.Ref("fields"), mt.List(entries...)),
		mt.Set(mt.Ref(assignmentsRef), mt.Str("")),
		mt.Set(mt.Ref("variableMap"), mt.Obj(
			mt.Attr(string(g.key.Variable), mt.Ref(fmt.Sprintf("input.get(%q)", g.keyField))),
		)),
		mt.ForEach(mt.Ref("entry"), mt.Ref("fields"),
			mt.If(mt.Ref("input.containsKey($entry.field)"),
				mt.Compound(
					mt.If(mt.Not(mt.Equals(mt.Ref(assignmentsRef), mt.Str(""))),
						mt.Set(mt.Ref(assignmentsRef), mt.Str("$"+assignmentsRef+", ")),
					),
					mt.Set(mt.Ref(assignmentsRef), mt.Str("$"+assignmentsRef+"$entry.assignment")),
					mt.QuietRef("variableMap.put($entry.variable, $input.get($entry.field))"),
				),
			),
		),
		mt.If(mt.Equals(mt.Ref(assignmentsRef), mt.Str("")),
			mt.Raw(`$util.error("No fields to update", "InvalidInput")`),
		),
		mt.RDSRequest(
			[]mt.Expression{mt.Str(updateSQL), mt.Str(selectSQL)},
			mt.ToJSON(mt.Ref("variableMap")),
		),
	)

	return g.resolver(OperationUpdate, schema.MutationTypeName, g.namer.UpdateFieldName(g.tc.TableName),
		request, mt.SingleRowResponse(1)), nil
}
