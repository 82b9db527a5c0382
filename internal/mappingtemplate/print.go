package mappingtemplate

import (
	"fmt"
	"strconv"
	"strings"
)

const indentUnit = "  "

// Print renders expr as template text. Objects and lists are printed one
// entry per line, except inside directive headers (#set, #if, #foreach) where
// they are printed on a single line. Output is deterministic.
func Print(expr Expression) string {
	return render(expr, "", false)
}

// PrintInline renders expr on a single line.
func PrintInline(expr Expression) string {
	return render(expr, "", true)
}

func render(expr Expression, indent string, inline bool) string {
	switch node := expr.(type) {
	case nil:
		return ""
	case StringNode:
		return quote(node.Value)
	case IntNode:
		return strconv.FormatInt(node.Value, 10)
	case FloatNode:
		return strconv.FormatFloat(node.Value, 'f', -1, 64)
	case BooleanNode:
		return strconv.FormatBool(node.Value)
	case NullNode:
		return "null"
	case ReferenceNode:
		return "$" + node.Value
	case QuietReferenceNode:
		return "$util.qr($" + node.Value + ")"
	case RawNode:
		return node.Value
	case ObjectNode:
		return renderObject(node, indent, inline)
	case ListNode:
		return renderList(node, indent, inline)
	case CompoundNode:
		return renderLines(node.Expressions, indent)
	case SetNode:
		return "#set( " + render(node.Key, indent, true) + " = " + render(node.Value, indent, true) + " )"
	case ForEachNode:
		return "#foreach( " + render(node.Key, indent, true) + " in " + render(node.Collection, indent, true) + " )\n" +
			renderBlock(node.Body, indent) +
			indent + "#end"
	case IfNode:
		return "#if( " + render(node.Predicate, indent, true) + " )\n" +
			renderBlock([]Expression{node.Expr}, indent) +
			indent + "#end"
	case IfElseNode:
		return "#if( " + render(node.Predicate, indent, true) + " )\n" +
			renderBlock([]Expression{node.Then}, indent) +
			indent + "#else\n" +
			renderBlock([]Expression{node.Else}, indent) +
			indent + "#end"
	case NotNode:
		operand := render(node.Expr, indent, true)
		if _, ok := node.Expr.(EqualsNode); ok {
			operand = "(" + operand + ")"
		}
		return "!" + operand
	case EqualsNode:
		return render(node.Left, indent, true) + " == " + render(node.Right, indent, true)
	default:
		return fmt.Sprintf("%v", node)
	}
}

func renderObject(node ObjectNode, indent string, inline bool) string {
	if len(node.Attributes) == 0 {
		return "{}"
	}
	if inline {
		parts := make([]string, len(node.Attributes))
		for i, attr := range node.Attributes {
			parts[i] = quote(attr.Key) + ": " + render(attr.Value, indent, true)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	inner := indent + indentUnit
	parts := make([]string, len(node.Attributes))
	for i, attr := range node.Attributes {
		parts[i] = inner + quote(attr.Key) + ": " + render(attr.Value, inner, false)
	}
	return "{\n" + strings.Join(parts, ",\n") + "\n" + indent + "}"
}

func renderList(node ListNode, indent string, inline bool) string {
	if len(node.Items) == 0 {
		return "[]"
	}
	if inline {
		parts := make([]string, len(node.Items))
		for i, item := range node.Items {
			parts[i] = render(item, indent, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	inner := indent + indentUnit
	parts := make([]string, len(node.Items))
	for i, item := range node.Items {
		parts[i] = inner + render(item, inner, false)
	}
	return "[\n" + strings.Join(parts, ",\n") + "\n" + indent + "]"
}

// renderLines prints expressions one per line; the first line is not indented.
func renderLines(exprs []Expression, indent string) string {
	lines := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		lines = append(lines, render(expr, indent, false))
	}
	return strings.Join(lines, "\n"+indent)
}

// renderBlock prints the body of a directive one level deeper, ending with a newline.
func renderBlock(body []Expression, indent string) string {
	if len(body) == 0 {
		return ""
	}
	inner := indent + indentUnit
	return inner + renderLines(body, inner) + "\n"
}

func quote(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
