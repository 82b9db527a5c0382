package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	gqlast "github.com/vektah/gqlparser/v2/ast"

	"rds-graphql/internal/sqltype"
)

// ErrInvalidSchema wraps validation failures reported by Validate.
var ErrInvalidSchema = errors.New("invalid schema")

// hostPrelude declares what the hosting service supplies: the AWS scalars and
// the subscription directive.
func hostPrelude() string {
	var b strings.Builder
	for _, scalar := range sqltype.CustomScalars() {
		b.WriteString("scalar ")
		b.WriteString(scalar)
		b.WriteString("\n")
	}
	b.WriteString("directive @" + SubscribeDirective + "(mutations: [String]) on FIELD_DEFINITION\n")
	return b.String()
}

// Validate loads sdl as a schema and reports semantic problems such as
// unknown types or duplicate definitions.
func Validate(sdl string) error {
	_, err := gqlparser.LoadSchema(
		&gqlast.Source{Name: "host.graphql", Input: hostPrelude(), BuiltIn: true},
		&gqlast.Source{Name: "schema.graphql", Input: sdl},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return nil
}
