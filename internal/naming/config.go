// Package naming provides centralized naming logic for the generated GraphQL
// schema: type and operation names, list pluralization, reserved words and
// collision detection.
package naming

// Config holds naming customization options
type Config struct {
	// PluralOverrides maps a table name to the plural used in its list query.
	// Example: {"person": "people"} yields "listpeople" instead of "listpersons".
	PluralOverrides map[string]string `mapstructure:"plural_overrides"`

	// InflectPlurals switches list query names from the plain "s" suffix to
	// English inflection rules.
	InflectPlurals bool `mapstructure:"inflect_plurals"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PluralOverrides: make(map[string]string),
	}
}
