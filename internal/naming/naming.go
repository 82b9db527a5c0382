package naming

import "log/slog"

// Namer produces every generated GraphQL name. Table names are used verbatim;
// only the fixed prefixes and suffixes below are added.
type Namer struct {
	config   Config
	logger   *slog.Logger
	resolver *CollisionResolver
}

// New creates a Namer with the given configuration
func New(cfg Config, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{
		config:   cfg,
		logger:   logger,
		resolver: NewCollisionResolver(logger),
	}
}

// Default returns a Namer with default configuration
func Default() *Namer {
	return New(DefaultConfig(), nil)
}

// Reset clears the collision resolver state, allowing the namer to be reused
// for a new schema build.
func (n *Namer) Reset() {
	n.resolver = NewCollisionResolver(n.logger)
}

// TypeName returns the entity type name for a table.
func (n *Namer) TypeName(table string) string {
	return table
}

// ConnectionTypeName returns the paginated wrapper type name, e.g. "PostConnection".
func (n *Namer) ConnectionTypeName(table string) string {
	return table + "Connection"
}

// CreateInputTypeName returns e.g. "CreatePostInput".
func (n *Namer) CreateInputTypeName(table string) string {
	return "Create" + table + "Input"
}

// UpdateInputTypeName returns e.g. "UpdatePostInput".
func (n *Namer) UpdateInputTypeName(table string) string {
	return "Update" + table + "Input"
}

// GetFieldName returns the single-row query field, e.g. "getPost".
func (n *Namer) GetFieldName(table string) string {
	return "get" + table
}

// ListFieldName returns the list query field, e.g. "listPosts".
func (n *Namer) ListFieldName(table string) string {
	return "list" + n.Pluralize(table)
}

// CreateFieldName returns e.g. "createPost".
func (n *Namer) CreateFieldName(table string) string {
	return "create" + table
}

// UpdateFieldName returns e.g. "updatePost".
func (n *Namer) UpdateFieldName(table string) string {
	return "update" + table
}

// DeleteFieldName returns e.g. "deletePost".
func (n *Namer) DeleteFieldName(table string) string {
	return "delete" + table
}

// OnCreateFieldName returns the subscription field, e.g. "onCreatePost".
func (n *Namer) OnCreateFieldName(table string) string {
	return "onCreate" + table
}

// CreateArgName returns the create mutation argument name, e.g. "createPostInput".
func (n *Namer) CreateArgName(table string) string {
	return "create" + table + "Input"
}

// UpdateArgName returns the update mutation argument name, e.g. "updatePostInput".
func (n *Namer) UpdateArgName(table string) string {
	return "update" + table + "Input"
}

// RegisterTable claims every type name generated for a table.
// It must be called once per table per build, after Reset.
func (n *Namer) RegisterTable(table string) error {
	for _, name := range []string{
		n.TypeName(table),
		n.ConnectionTypeName(table),
		n.CreateInputTypeName(table),
		n.UpdateInputTypeName(table),
	} {
		if err := n.resolver.RegisterType(name, table); err != nil {
			return err
		}
	}
	return nil
}

// EntityFieldName registers a field on a table's entity type and returns the
// name to use, suffixed when it clashes with an earlier field.
func (n *Namer) EntityFieldName(table, field, source string) string {
	resolved := n.resolver.RegisterField(n.TypeName(table), field, source)
	if resolved != field {
		n.logger.Warn("entity field renamed to avoid collision",
			slog.String("table", table),
			slog.String("field", field),
			slog.String("renamed", resolved),
		)
	}
	return resolved
}
