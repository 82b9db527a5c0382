package emit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rds-graphql/internal/introspection"
	mt "rds-graphql/internal/mappingtemplate"
	"rds-graphql/internal/naming"
	"rds-graphql/internal/resolvergen"
	"rds-graphql/internal/schema"
	"rds-graphql/internal/schemabuild"
)

func buildResult(t *testing.T) *schemabuild.Result {
	t.Helper()
	namer := naming.Default()
	tc, err := schema.BuildTableContext("Post", []introspection.ColumnDescription{
		{Field: "id", Type: "int", Key: introspection.KeyPrimary},
		{Field: "title", Type: "varchar(255)"},
	}, nil, namer)
	require.NoError(t, err)

	doc, err := schema.Assemble([]*schema.TableContext{tc}, namer)
	require.NoError(t, err)
	resolvers, err := resolvergen.Generate(tc, namer)
	require.NoError(t, err)

	return &schemabuild.Result{
		Database:  "blog",
		Document:  doc,
		SDL:       schema.Print(doc),
		Tables:    []*schema.TableContext{tc},
		Resolvers: []*resolvergen.TableResolvers{resolvers},
	}
}

func newTestEmitter(cfg Config) *Emitter {
	e := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	e.newID = func() string { return "00000000-0000-0000-0000-000000000001" }
	return e
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWrite_Layout(t *testing.T) {
	dir := t.TempDir()
	result := buildResult(t)

	manifest, err := newTestEmitter(Config{Dir: dir}).Write(result)
	require.NoError(t, err)

	assert.Equal(t, strings.TrimRight(result.SDL, "\n"), strings.TrimRight(readFile(t, filepath.Join(dir, "schema.graphql")), "\n"))

	tr := result.Resolvers[0]
	assert.Equal(t, mt.Print(tr.Get.Request)+"\n", readFile(t, filepath.Join(dir, "resolvers", "Query.getPost.req.vtl")))
	assert.Equal(t, mt.Print(tr.Get.Response)+"\n", readFile(t, filepath.Join(dir, "resolvers", "Query.getPost.res.vtl")))

	for _, name := range []string{
		"Query.listPosts", "Mutation.createPost", "Mutation.updatePost", "Mutation.deletePost",
	} {
		assert.FileExists(t, filepath.Join(dir, "resolvers", name+".req.vtl"))
		assert.FileExists(t, filepath.Join(dir, "resolvers", name+".res.vtl"))
	}

	require.Len(t, manifest.Resolvers, 5)
	assert.Equal(t, ManifestResolver{
		Type:      "Mutation",
		Field:     "createPost",
		Operation: "create",
		Table:     "Post",
		Request:   "resolvers/Mutation.createPost.req.vtl",
		Response:  "resolvers/Mutation.createPost.res.vtl",
	}, manifest.Resolvers[2])
}

func TestWrite_ManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	written, err := newTestEmitter(Config{Dir: dir, DataSourceName: "BlogDB"}).Write(buildResult(t))
	require.NoError(t, err)

	loaded, err := ReadManifest(filepath.Join(dir, "resolvers.yaml"))
	require.NoError(t, err)

	assert.True(t, written.GeneratedAt.Equal(loaded.GeneratedAt))
	loaded.GeneratedAt = written.GeneratedAt
	assert.Equal(t, written, loaded)
	assert.Equal(t, ManifestVersion, loaded.Version)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", loaded.BuildID)
	assert.Equal(t, "blog", loaded.Database)
	assert.Equal(t, "BlogDB", loaded.DataSourceName)
	assert.Equal(t, "schema.graphql", loaded.Schema)

	raw := readFile(t, filepath.Join(dir, "resolvers.yaml"))
	assert.Contains(t, raw, "data_source_name: BlogDB")
	assert.Contains(t, raw, "  - type: Query\n    field: getPost\n")
}

func TestWrite_CustomPaths(t *testing.T) {
	dir := t.TempDir()

	manifest, err := newTestEmitter(Config{
		Dir:          dir,
		SchemaFile:   "api.graphql",
		ResolversDir: filepath.Join("mapping", "templates"),
		ManifestFile: "manifest.yaml",
	}).Write(buildResult(t))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "api.graphql"))
	assert.FileExists(t, filepath.Join(dir, "manifest.yaml"))
	assert.FileExists(t, filepath.Join(dir, "mapping", "templates", "Query.getPost.req.vtl"))
	assert.Equal(t, "mapping/templates/Query.getPost.req.vtl", manifest.Resolvers[0].Request)
	assert.Equal(t, defaultDataSourceName, manifest.DataSourceName)
}

func TestWrite_DefaultBuildID(t *testing.T) {
	e := New(Config{Dir: t.TempDir()}, nil)

	manifest, err := e.Write(buildResult(t))
	require.NoError(t, err)
	assert.Len(t, manifest.BuildID, 36)
}

func TestWrite_Errors(t *testing.T) {
	_, err := newTestEmitter(Config{Dir: t.TempDir()}).Write(nil)
	require.Error(t, err)

	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	_, err = newTestEmitter(Config{Dir: blocker}).Write(buildResult(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestReadManifest_Errors(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [unclosed"), 0o600))
	_, err = ReadManifest(path)
	require.Error(t, err)
}
