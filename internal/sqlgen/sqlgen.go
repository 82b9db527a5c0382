// Package sqlgen builds the SQL text embedded in resolver request templates.
// Values never appear in the text: each column is bound to a named variable
// (":p1", ":p2", ...) that the data source fills from the request's
// variableMap, and identifiers are backtick-quoted.
package sqlgen

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"rds-graphql/internal/sqlutil"
)

// Variable is a named statement parameter such as ":p1".
type Variable string

// VariableFor returns the variable bound to the column at the given 1-based position.
func VariableFor(ordinal int) Variable {
	return Variable(fmt.Sprintf(":p%d", ordinal))
}

// Key identifies the row a statement targets: the primary-key column and the
// variable carrying its value.
type Key struct {
	Column   string
	Variable Variable
}

func (k Key) where() sq.Eq {
	return sq.Eq{sqlutil.QuoteIdentifier(k.Column): k.Variable}
}

// PlanSelectAll builds `SELECT * FROM <table>`.
func PlanSelectAll(table string) (string, error) {
	return render(sq.Select("*").From(sqlutil.QuoteIdentifier(table)))
}

// PlanSelectByKey builds `SELECT * FROM <table> WHERE <key> = <variable>`.
func PlanSelectByKey(table string, key Key) (string, error) {
	return render(sq.Select("*").
		From(sqlutil.QuoteIdentifier(table)).
		Where(key.where()))
}

// PlanDeleteByKey builds `DELETE FROM <table> WHERE <key> = <variable>`.
func PlanDeleteByKey(table string, key Key) (string, error) {
	return render(sq.Delete(sqlutil.QuoteIdentifier(table)).Where(key.where()))
}

// PlanInsertTemplate builds an INSERT whose column and value lists are
// template expressions resolved when the request runs, e.g.
// "INSERT INTO `t` ($columns) VALUES ($values)".
func PlanInsertTemplate(table, columnsExpr, valuesExpr string) (string, error) {
	return render(sq.Insert(sqlutil.QuoteIdentifier(table)).
		Columns(columnsExpr).
		Values(sq.Expr(valuesExpr)))
}

// PlanUpdateTemplate builds an UPDATE whose SET list is a template expression,
// e.g. "UPDATE `t` SET $assignments WHERE `id` = :p1".
func PlanUpdateTemplate(table, assignmentsExpr string, key Key) (string, error) {
	return render(sq.ConcatExpr(
		"UPDATE ", sqlutil.QuoteIdentifier(table),
		" SET ", assignmentsExpr,
		" WHERE ", key.where(),
	))
}

// PlanAssignment builds one SET entry, e.g. "`name` = :p2".
func PlanAssignment(column string, v Variable) (string, error) {
	return render(sq.Eq{sqlutil.QuoteIdentifier(column): v})
}

func render(builder sq.Sqlizer) (string, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return "", err
	}
	vars := make([]Variable, 0, len(args))
	for _, arg := range args {
		v, ok := arg.(Variable)
		if !ok {
			return "", fmt.Errorf("statement argument %v is not a named variable", arg)
		}
		vars = append(vars, v)
	}
	return variableFormat(vars).ReplacePlaceholders(query)
}

// variableFormat is a squirrel PlaceholderFormat that substitutes each "?"
// with the next variable in order. Placeholders inside quoted identifiers or
// string literals are left alone.
type variableFormat []Variable

func (f variableFormat) ReplacePlaceholders(query string) (string, error) {
	var (
		b     strings.Builder
		next  int
		quote rune
	)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '`' || r == '\'' || r == '"':
			quote = r
		case r == '?':
			if next >= len(f) {
				return "", fmt.Errorf("statement has more placeholders than variables (%d)", len(f))
			}
			b.WriteString(string(f[next]))
			next++
			continue
		}
		b.WriteRune(r)
	}
	if next != len(f) {
		return "", fmt.Errorf("statement has %d placeholders for %d variables", next, len(f))
	}
	return b.String(), nil
}

var _ sq.PlaceholderFormat = variableFormat(nil)
