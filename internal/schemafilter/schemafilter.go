// Package schemafilter applies allow/deny filters to introspected tables and columns.
package schemafilter

import (
	"path"
	"slices"
	"strings"

	"rds-graphql/internal/introspection"
)

// Config controls allow/deny filters for tables and columns.
// Patterns use path.Match glob syntax and match case-insensitively. Column
// patterns are keyed by table name, with "*" applying to every table.
type Config struct {
	AllowTables  []string            `mapstructure:"allow_tables"`
	DenyTables   []string            `mapstructure:"deny_tables"`
	AllowColumns map[string][]string `mapstructure:"allow_columns"`
	DenyColumns  map[string][]string `mapstructure:"deny_columns"`
}

// IsZero reports whether the config filters nothing.
func (c Config) IsZero() bool {
	return len(c.AllowTables) == 0 && len(c.DenyTables) == 0 &&
		len(c.AllowColumns) == 0 && len(c.DenyColumns) == 0
}

// Tables returns the allowed tables in their original order.
// Missing allow lists default to allow-all; deny rules always win.
func Tables(tables []string, cfg Config) []string {
	filtered := make([]string, 0, len(tables))
	for _, table := range tables {
		if TableAllowed(table, cfg) {
			filtered = append(filtered, table)
		}
	}
	return filtered
}

// TableAllowed reports whether a table passes the table filters.
func TableAllowed(table string, cfg Config) bool {
	if matchesAny(table, cfg.DenyTables) {
		return false
	}
	if len(cfg.AllowTables) == 0 {
		return true
	}
	return matchesAny(table, cfg.AllowTables)
}

// Columns returns the allowed columns of a table in their original order.
// The primary-key column is always kept since every keyed operation needs it.
func Columns(table string, columns []introspection.ColumnDescription, cfg Config) []introspection.ColumnDescription {
	filtered := make([]introspection.ColumnDescription, 0, len(columns))
	for _, col := range columns {
		if col.IsPrimaryKey() || ColumnAllowed(table, col.Field, cfg) {
			filtered = append(filtered, col)
		}
	}
	return filtered
}

// ColumnAllowed reports whether a column passes the column filters.
func ColumnAllowed(table, column string, cfg Config) bool {
	denyPatterns := mergePatterns(cfg.DenyColumns, table)
	if matchesAny(column, denyPatterns) {
		return false
	}
	allowPatterns := mergePatterns(cfg.AllowColumns, table)
	if len(allowPatterns) == 0 {
		return true
	}
	return matchesAny(column, allowPatterns)
}

func mergePatterns(patterns map[string][]string, table string) []string {
	if patterns == nil {
		return nil
	}
	combined := append([]string{}, patterns["*"]...)
	combined = append(combined, patterns[table]...)
	return slices.Compact(combined)
}

func matchesAny(value string, patterns []string) bool {
	value = strings.ToLower(value)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		// matching should be case-insensitive
		ok, err := path.Match(strings.ToLower(pattern), value)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
