package naming

import (
	"github.com/jinzhu/inflection"
)

// Pluralize converts a table name to the plural used in list operation names.
// Custom overrides win; otherwise an "s" is appended unless inflection is enabled.
func (n *Namer) Pluralize(word string) string {
	if override, ok := n.config.PluralOverrides[word]; ok {
		return override
	}
	if n.config.InflectPlurals {
		return inflection.Plural(word)
	}
	return word + "s"
}
