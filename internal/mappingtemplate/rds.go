package mappingtemplate

import "strconv"

// RDSRequestVersion is the request format understood by the RDS data source.
const RDSRequestVersion = "2018-05-29"

// RDSRequest builds the data-source request: the statements run in order and
// variableMap supplies the named statement variables.
func RDSRequest(statements []Expression, variableMap Expression) ObjectNode {
	return Obj(
		Attr("version", Str(RDSRequestVersion)),
		Attr("statements", List(statements...)),
		Attr("variableMap", variableMap),
	)
}

// ToJSON serializes expr with $util.toJson.
func ToJSON(expr Expression) RawNode {
	return Raw("$util.toJson(" + PrintInline(expr) + ")")
}

// ErrorGuard raises the data-source error, if any, as the resolver error.
func ErrorGuard() IfNode {
	return If(Ref("ctx.error"), Raw("$util.error($ctx.error.message, $ctx.error.type)"))
}

// ResultSet references the rows returned by the statement at index.
// It is only valid after ParseResult.
func ResultSet(index int) ReferenceNode {
	return Ref("output[" + strconv.Itoa(index) + "]")
}

// ParseResult converts the raw data-source result into per-statement row lists
// bound to $output.
func ParseResult() SetNode {
	return Set(Ref("output"), Ref("util.rds.toJsonObject($ctx.result)"))
}

// SingleRowResponse returns the first row of the given statement's result, or
// null when the statement returned no rows.
func SingleRowResponse(statement int) CompoundNode {
	rows := ResultSet(statement)
	return Compound(
		ErrorGuard(),
		ParseResult(),
		IfElse(
			Ref(rows.Value+".isEmpty()"),
			Null(),
			ToJSON(Ref(rows.Value+"[0]")),
		),
	)
}

// ConnectionResponse wraps the rows of the given statement as { items }.
func ConnectionResponse(statement int) CompoundNode {
	return Compound(
		ErrorGuard(),
		ParseResult(),
		Set(Ref("connection"), Obj(Attr("items", ResultSet(statement)))),
		ToJSON(Ref("connection")),
	)
}
