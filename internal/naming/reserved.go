package naming

import (
	"strings"

	"rds-graphql/internal/sqltype"
)

// graphqlReservedTypeWords contains root operation types, GraphQL keywords and
// built-in scalars that a table-derived type name must not shadow.
var graphqlReservedTypeWords = map[string]bool{
	"query":        true,
	"mutation":     true,
	"subscription": true,
	"schema":       true,

	"type":       true,
	"scalar":     true,
	"enum":       true,
	"input":      true,
	"interface":  true,
	"union":      true,
	"fragment":   true,
	"directive":  true,
	"extend":     true,
	"implements": true,

	"int":     true,
	"float":   true,
	"string":  true,
	"boolean": true,
	"id":      true,

	"true":  true,
	"false": true,
	"null":  true,
}

// isReservedTypeName checks if a type name is reserved.
func isReservedTypeName(name string) bool {
	lowerName := strings.ToLower(name)
	if strings.HasPrefix(lowerName, "__") {
		return true
	}
	if graphqlReservedTypeWords[lowerName] {
		return true
	}
	for _, scalar := range sqltype.CustomScalars() {
		if strings.EqualFold(scalar, name) {
			return true
		}
	}
	return false
}
