package schema

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/printer"
)

// Print renders the document as GraphQL SDL.
func Print(doc *ast.Document) string {
	switch printed := printer.Print(doc).(type) {
	case string:
		return printed
	default:
		return fmt.Sprintf("%v", printed)
	}
}
