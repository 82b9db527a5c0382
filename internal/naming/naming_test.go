package naming

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationNames(t *testing.T) {
	namer := Default()

	assert.Equal(t, "Post", namer.TypeName("Post"))
	assert.Equal(t, "PostConnection", namer.ConnectionTypeName("Post"))
	assert.Equal(t, "CreatePostInput", namer.CreateInputTypeName("Post"))
	assert.Equal(t, "UpdatePostInput", namer.UpdateInputTypeName("Post"))
	assert.Equal(t, "getPost", namer.GetFieldName("Post"))
	assert.Equal(t, "listPosts", namer.ListFieldName("Post"))
	assert.Equal(t, "createPost", namer.CreateFieldName("Post"))
	assert.Equal(t, "updatePost", namer.UpdateFieldName("Post"))
	assert.Equal(t, "deletePost", namer.DeleteFieldName("Post"))
	assert.Equal(t, "onCreatePost", namer.OnCreateFieldName("Post"))
	assert.Equal(t, "createPostInput", namer.CreateArgName("Post"))
	assert.Equal(t, "updatePostInput", namer.UpdateArgName("Post"))
}

func TestOperationNames_TableNameVerbatim(t *testing.T) {
	namer := Default()

	assert.Equal(t, "order_items", namer.TypeName("order_items"))
	assert.Equal(t, "getorder_items", namer.GetFieldName("order_items"))
	assert.Equal(t, "listorder_itemss", namer.ListFieldName("order_items"))
	assert.Equal(t, "Createorder_itemsInput", namer.CreateInputTypeName("order_items"))
}

func TestPluralize(t *testing.T) {
	namer := Default()

	tests := []struct {
		input    string
		expected string
	}{
		{"user", "users"},
		{"Post", "Posts"},
		{"category", "categorys"},
		{"person", "persons"},
		{"t", "ts"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, namer.Pluralize(tt.input))
		})
	}
}

func TestPluralizeWithInflection(t *testing.T) {
	namer := New(Config{InflectPlurals: true}, nil)

	assert.Equal(t, "categories", namer.Pluralize("category"))
	assert.Equal(t, "people", namer.Pluralize("person"))
	assert.Equal(t, "listcategories", namer.ListFieldName("category"))
}

func TestPluralizeWithOverrides(t *testing.T) {
	cfg := Config{
		PluralOverrides: map[string]string{"Person": "People"},
	}
	namer := New(cfg, nil)

	assert.Equal(t, "People", namer.Pluralize("Person"))
	assert.Equal(t, "listPeople", namer.ListFieldName("Person"))
	assert.Equal(t, "Posts", namer.Pluralize("Post"))
}

func TestRegisterTable(t *testing.T) {
	namer := Default()

	require.NoError(t, namer.RegisterTable("Post"))
	require.NoError(t, namer.RegisterTable("Comment"))
}

func TestRegisterTable_CaseInsensitiveCollision(t *testing.T) {
	namer := Default()

	require.NoError(t, namer.RegisterTable("Post"))
	err := namer.RegisterTable("post")
	assert.ErrorIs(t, err, ErrNameCollision)
	assert.Contains(t, err.Error(), "table:Post")
}

func TestRegisterTable_DerivedNameCollision(t *testing.T) {
	namer := Default()

	// "PostConnection" is also the connection type of "Post".
	require.NoError(t, namer.RegisterTable("Post"))
	err := namer.RegisterTable("PostConnection")
	assert.ErrorIs(t, err, ErrNameCollision)
}

func TestRegisterTable_Reserved(t *testing.T) {
	tests := []string{"Query", "mutation", "Subscription", "Int", "String", "AWSJSON", "__Type"}

	for _, table := range tests {
		t.Run(table, func(t *testing.T) {
			namer := Default()
			err := namer.RegisterTable(table)
			assert.ErrorIs(t, err, ErrNameCollision)
			assert.Contains(t, err.Error(), "reserved")
		})
	}
}

func TestEntityFieldName_Collision(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	namer := New(DefaultConfig(), logger)

	assert.Equal(t, "Comment", namer.EntityFieldName("Post", "Comment", "column:Comment"))
	assert.Equal(t, "Comment2", namer.EntityFieldName("Post", "Comment", "reference:Comment"))
	assert.Equal(t, "Comment3", namer.EntityFieldName("Post", "Comment", "reference:Comment"))

	// Fields are scoped per type.
	assert.Equal(t, "Comment", namer.EntityFieldName("Author", "Comment", "reference:Comment"))

	assert.Contains(t, buf.String(), "naming collision detected")
	assert.Contains(t, buf.String(), "entity field renamed")
}

func TestFieldExists(t *testing.T) {
	resolver := NewCollisionResolver(nil)

	assert.False(t, resolver.FieldExists("Post", "id"))
	resolver.RegisterField("Post", "id", "column:id")
	assert.True(t, resolver.FieldExists("Post", "id"))
	assert.False(t, resolver.FieldExists("Comment", "id"))
}

func TestReset(t *testing.T) {
	namer := Default()

	require.NoError(t, namer.RegisterTable("users"))
	namer.Reset()

	assert.NoError(t, namer.RegisterTable("users"))
}
