package schemafilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rds-graphql/internal/introspection"
)

func TestTables_AllowsAllByDefault(t *testing.T) {
	tables := []string{"users", "orders"}

	assert.Equal(t, tables, Tables(tables, Config{}))
	assert.True(t, Config{}.IsZero())
}

func TestTables_AllowAndDeny(t *testing.T) {
	cfg := Config{
		AllowTables: []string{"*"},
		DenyTables:  []string{"*_intern"},
	}

	assert.Equal(t, []string{"users", "orders"}, Tables([]string{"users", "audit_intern", "orders"}, cfg))
	assert.False(t, cfg.IsZero())
}

func TestTables_KeepsOrder(t *testing.T) {
	cfg := Config{AllowTables: []string{"b*", "a*"}}

	assert.Equal(t, []string{"apple", "banana", "avocado"}, Tables([]string{"apple", "cherry", "banana", "avocado"}, cfg))
}

func TestTableAllowed(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		cfg      Config
		expected bool
	}{
		{name: "no filters", table: "users", cfg: Config{}, expected: true},
		{name: "allow match", table: "users", cfg: Config{AllowTables: []string{"user*"}}, expected: true},
		{name: "allow miss", table: "orders", cfg: Config{AllowTables: []string{"user*"}}, expected: false},
		{name: "deny wins", table: "users", cfg: Config{AllowTables: []string{"*"}, DenyTables: []string{"users"}}, expected: false},
		{name: "case insensitive", table: "Users", cfg: Config{DenyTables: []string{"USERS"}}, expected: false},
		{name: "bad pattern ignored", table: "users", cfg: Config{DenyTables: []string{"["}}, expected: true},
		{name: "empty pattern ignored", table: "users", cfg: Config{DenyTables: []string{""}}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TableAllowed(tt.table, tt.cfg))
		})
	}
}

func TestColumns(t *testing.T) {
	columns := []introspection.ColumnDescription{
		{Field: "id", Type: "int", Key: introspection.KeyPrimary},
		{Field: "email", Type: "varchar(255)"},
		{Field: "password_hash", Type: "varchar(255)"},
		{Field: "created_at", Type: "datetime"},
	}

	cfg := Config{
		AllowColumns: map[string][]string{"*": {"*"}},
		DenyColumns:  map[string][]string{"users": {"password_*"}},
	}

	filtered := Columns("users", columns, cfg)
	var names []string
	for _, col := range filtered {
		names = append(names, col.Field)
	}
	assert.Equal(t, []string{"id", "email", "created_at"}, names)

	// Deny rules are table-scoped.
	assert.Len(t, Columns("accounts", columns, cfg), 4)
}

func TestColumns_PrimaryKeyAlwaysKept(t *testing.T) {
	columns := []introspection.ColumnDescription{
		{Field: "id", Type: "int", Key: introspection.KeyPrimary},
		{Field: "email", Type: "varchar(255)"},
	}

	cfg := Config{DenyColumns: map[string][]string{"*": {"*"}}}

	filtered := Columns("users", columns, cfg)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "id", filtered[0].Field)
}

func TestColumnAllowed_AllowList(t *testing.T) {
	cfg := Config{AllowColumns: map[string][]string{"users": {"id", "name"}}}

	assert.True(t, ColumnAllowed("users", "name", cfg))
	assert.False(t, ColumnAllowed("users", "email", cfg))
	assert.True(t, ColumnAllowed("orders", "email", cfg))
}
