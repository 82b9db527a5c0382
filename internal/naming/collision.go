package naming

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNameCollision reports a generated type name that is reserved or clashes
// with another generated type name.
var ErrNameCollision = errors.New("graphql name collision")

// CollisionResolver tracks registered names for one schema build.
// Type names must be unique case-insensitively; field names within a type are
// de-duplicated with numeric suffixes.
type CollisionResolver struct {
	seenTypes  map[string]string            // lower-cased type name → source
	seenFields map[string]map[string]string // type name → field name → source
	logger     *slog.Logger
}

// NewCollisionResolver creates a new collision resolver.
func NewCollisionResolver(logger *slog.Logger) *CollisionResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollisionResolver{
		seenTypes:  make(map[string]string),
		seenFields: make(map[string]map[string]string),
		logger:     logger,
	}
}

// RegisterType registers a generated GraphQL type name for a table.
// It fails when the name is reserved or was already claimed by any table,
// comparing case-insensitively.
func (c *CollisionResolver) RegisterType(graphqlName, tableName string) error {
	source := "table:" + tableName
	if isReservedTypeName(graphqlName) {
		return fmt.Errorf("%w: type %q for %s is reserved", ErrNameCollision, graphqlName, source)
	}
	key := strings.ToLower(graphqlName)
	if existing, ok := c.seenTypes[key]; ok {
		return fmt.Errorf("%w: type %q for %s conflicts with %s", ErrNameCollision, graphqlName, source, existing)
	}
	c.seenTypes[key] = source
	return nil
}

// RegisterField registers a field name within a type and returns the resolved name.
// If a collision occurs, applies a numeric suffix and logs a warning.
func (c *CollisionResolver) RegisterField(typeName, fieldName, source string) string {
	if c.seenFields[typeName] == nil {
		c.seenFields[typeName] = make(map[string]string)
	}
	return c.resolveCollision(fieldName, c.seenFields[typeName], source)
}

// FieldExists checks if a field name already exists for a type.
func (c *CollisionResolver) FieldExists(typeName, fieldName string) bool {
	if fields, ok := c.seenFields[typeName]; ok {
		_, exists := fields[fieldName]
		return exists
	}
	return false
}

// resolveCollision attempts to register a name in the given map.
// If the name already exists, finds the next available numeric suffix.
func (c *CollisionResolver) resolveCollision(name string, seen map[string]string, source string) string {
	if _, exists := seen[name]; !exists {
		seen[name] = source
		return name
	}

	existingSource := seen[name]
	c.logger.Warn("naming collision detected, applying suffix",
		slog.String("name", name),
		slog.String("existing_source", existingSource),
		slog.String("new_source", source),
	)

	for i := 2; ; i++ {
		suffixed := fmt.Sprintf("%s%d", name, i)
		if _, exists := seen[suffixed]; !exists {
			seen[suffixed] = source
			return suffixed
		}
	}
}
