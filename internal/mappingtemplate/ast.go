// Package mappingtemplate models resolver mapping templates as an expression
// tree. Trees are built with the constructors in this package and rendered to
// Velocity template text with Print.
package mappingtemplate

// Expression is a node of a mapping template tree.
type Expression interface {
	expression()
}

// StringNode is a quoted string literal. Template references inside the
// value are resolved at request time.
type StringNode struct{ Value string }

// IntNode is an integer literal.
type IntNode struct{ Value int64 }

// FloatNode is a floating-point literal.
type FloatNode struct{ Value float64 }

// BooleanNode is a boolean literal.
type BooleanNode struct{ Value bool }

// NullNode is the null literal.
type NullNode struct{}

// ReferenceNode is a template reference, printed as "$" + Value.
type ReferenceNode struct{ Value string }

// QuietReferenceNode evaluates a reference and discards its result.
type QuietReferenceNode struct{ Value string }

// RawNode is printed verbatim.
type RawNode struct{ Value string }

// Attribute is one key of an ObjectNode.
type Attribute struct {
	Key   string
	Value Expression
}

// ObjectNode is a map literal; attributes keep their order.
type ObjectNode struct{ Attributes []Attribute }

// ListNode is a list literal.
type ListNode struct{ Items []Expression }

// CompoundNode is a sequence of expressions printed one per line.
type CompoundNode struct{ Expressions []Expression }

// SetNode assigns Value to Key.
type SetNode struct {
	Key   ReferenceNode
	Value Expression
}

// ForEachNode iterates Collection, binding each element to Key.
type ForEachNode struct {
	Key        ReferenceNode
	Collection Expression
	Body       []Expression
}

// IfNode runs Expr when Predicate holds.
type IfNode struct {
	Predicate Expression
	Expr      Expression
}

// IfElseNode runs Then when Predicate holds and Else otherwise.
type IfElseNode struct {
	Predicate Expression
	Then      Expression
	Else      Expression
}

// NotNode negates Expr.
type NotNode struct{ Expr Expression }

// EqualsNode compares Left and Right.
type EqualsNode struct {
	Left  Expression
	Right Expression
}

func (StringNode) expression()         {}
func (IntNode) expression()            {}
func (FloatNode) expression()          {}
func (BooleanNode) expression()        {}
func (NullNode) expression()           {}
func (ReferenceNode) expression()      {}
func (QuietReferenceNode) expression() {}
func (RawNode) expression()            {}
func (ObjectNode) expression()         {}
func (ListNode) expression()           {}
func (CompoundNode) expression()       {}
func (SetNode) expression()            {}
func (ForEachNode) expression()        {}
func (IfNode) expression()             {}
func (IfElseNode) expression()         {}
func (NotNode) expression()            {}
func (EqualsNode) expression()         {}

// Str returns a string literal.
func Str(value string) StringNode { return StringNode{Value: value} }

// Int returns an integer literal.
func Int(value int64) IntNode { return IntNode{Value: value} }

// Float returns a floating-point literal.
func Float(value float64) FloatNode { return FloatNode{Value: value} }

// Bool returns a boolean literal.
func Bool(value bool) BooleanNode { return BooleanNode{Value: value} }

// Null returns the null literal.
func Null() NullNode { return NullNode{} }

// Ref returns a reference; a leading "$" is optional.
func Ref(value string) ReferenceNode { return ReferenceNode{Value: trimDollar(value)} }

// QuietRef returns a quiet reference; a leading "$" is optional.
func QuietRef(value string) QuietReferenceNode { return QuietReferenceNode{Value: trimDollar(value)} }

// Raw returns text printed as is.
func Raw(value string) RawNode { return RawNode{Value: value} }

// Attr returns an object attribute.
func Attr(key string, value Expression) Attribute { return Attribute{Key: key, Value: value} }

// Obj returns an object literal with the attributes in the given order.
func Obj(attrs ...Attribute) ObjectNode { return ObjectNode{Attributes: attrs} }

// List returns a list literal.
func List(items ...Expression) ListNode { return ListNode{Items: items} }

// Compound returns a sequence of expressions.
func Compound(exprs ...Expression) CompoundNode { return CompoundNode{Expressions: exprs} }

// Set returns an assignment.
func Set(key ReferenceNode, value Expression) SetNode { return SetNode{Key: key, Value: value} }

// ForEach returns a loop over collection.
func ForEach(key ReferenceNode, collection Expression, body ...Expression) ForEachNode {
	return ForEachNode{Key: key, Collection: collection, Body: body}
}

// If returns a conditional.
func If(predicate, expr Expression) IfNode { return IfNode{Predicate: predicate, Expr: expr} }

// IfElse returns a two-branch conditional.
func IfElse(predicate, then, otherwise Expression) IfElseNode {
	return IfElseNode{Predicate: predicate, Then: then, Else: otherwise}
}

// Not returns the negation of expr.
func Not(expr Expression) NotNode { return NotNode{Expr: expr} }

// Equals returns an equality test.
func Equals(left, right Expression) EqualsNode { return EqualsNode{Left: left, Right: right} }

func trimDollar(value string) string {
	if len(value) > 0 && value[0] == '$' {
		return value[1:]
	}
	return value
}
