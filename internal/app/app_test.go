package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rds-graphql/internal/config"
	"rds-graphql/internal/emit"
	"rds-graphql/internal/logging"
)

var describeColumns = []string{"Field", "Type", "Null", "Key", "Default", "Extra"}

const referencingQuery = "SELECT DISTINCT TABLE_NAME FROM information_schema.KEY_COLUMN_USAGE"

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: "error", Output: io.Discard})
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Database: "blog",
		},
		Output: config.OutputConfig{
			Dir: dir,
		},
		Build: config.BuildConfig{ValidateSchema: true},
	}
}

// expectBlog queues the statements one build of a single-table database issues.
func expectBlog(mock sqlmock.Sqlmock) {
	mock.ExpectPing()
	mock.ExpectExec("USE `blog`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SHOW FULL TABLES FROM `blog`").WillReturnRows(
		sqlmock.NewRows([]string{"Tables_in_blog", "Table_type"}).
			AddRow("Post", "BASE TABLE").
			AddRow("recent_posts", "VIEW"),
	)
	mock.ExpectQuery("DESCRIBE `Post`").WillReturnRows(
		sqlmock.NewRows(describeColumns).
			AddRow("id", "int", "NO", "PRI", nil, "auto_increment").
			AddRow("title", "varchar(200)", "NO", "", nil, "").
			AddRow("body", "text", "YES", "", nil, ""),
	)
	mock.ExpectQuery(referencingQuery).
		WithArgs("blog", "blog", "Post").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}))
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	app, err := New(cfg, testLogger())
	require.NoError(t, err)
	app.openDB = func(string) (*sql.DB, error) { return db, nil }
	return app, mock
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, testLogger())
	assert.Error(t, err)

	_, err = New(&config.Config{}, nil)
	assert.Error(t, err)

	_, err = New(&config.Config{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve database configuration")
}

func TestRun_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	app, mock := newTestApp(t, testConfig(dir))
	expectBlog(mock)
	mock.ExpectClose()

	result, err := app.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, app.Shutdown(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, result.Tables, 1)
	assert.Equal(t, "Post", result.Tables[0].TableName)

	schemaFile, err := os.ReadFile(filepath.Join(dir, "schema.graphql"))
	require.NoError(t, err)
	assert.Contains(t, string(schemaFile), "type Post {")
	assert.Contains(t, string(schemaFile), "input CreatePostInput {")

	manifest, err := emit.ReadManifest(filepath.Join(dir, "resolvers.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "blog", manifest.Database)
	assert.Len(t, manifest.Resolvers, 5)
	for _, r := range manifest.Resolvers {
		assert.FileExists(t, filepath.Join(dir, r.Request))
		assert.FileExists(t, filepath.Join(dir, r.Response))
	}
}

func TestRun_PrintSchema(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Output.PrintSchema = true

	app, mock := newTestApp(t, cfg)
	var stdout bytes.Buffer
	app.stdout = &stdout
	expectBlog(mock)

	result, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, result.SDL, stdout.String())
	assert.NoFileExists(t, filepath.Join(dir, "schema.graphql"))
	assert.NoFileExists(t, filepath.Join(dir, "resolvers.yaml"))
}

func TestRun_MetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "out"))
	cfg.Observability.ServiceName = "rds-graphql"
	cfg.Observability.MetricsEnabled = true
	cfg.Observability.MetricsTextfile = filepath.Join(dir, "rds_graphql.prom")

	app, mock := newTestApp(t, cfg)
	expectBlog(mock)
	mock.ExpectClose()

	_, err := app.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, app.Shutdown(context.Background()))

	data, err := os.ReadFile(cfg.Observability.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema_build_total")
	assert.Contains(t, string(data), `database="blog"`)
}

func TestRun_PingFailure(t *testing.T) {
	app, mock := newTestApp(t, testConfig(t.TempDir()))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not available")
}

func TestRun_IntrospectionFailure(t *testing.T) {
	dir := t.TempDir()
	app, mock := newTestApp(t, testConfig(dir))
	mock.ExpectPing()
	mock.ExpectExec("USE `blog`").WillReturnError(errors.New("unknown database"))

	_, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "introspection begin failed")
	assert.NoFileExists(t, filepath.Join(dir, "schema.graphql"))
}

func TestCleanupStack_RunsInReverseOrder(t *testing.T) {
	var order []string
	var stack cleanupStack
	for _, name := range []string{"first", "second", "third"} {
		name := name
		stack.push(name, func(context.Context) error {
			order = append(order, name)
			if name == "second" {
				return errors.New("boom")
			}
			return nil
		})
	}

	stack.run(context.Background(), testLogger())
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestShutdown_Idempotent(t *testing.T) {
	app, err := New(testConfig(t.TempDir()), testLogger())
	require.NoError(t, err)

	calls := 0
	app.cleanup.push("counter", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}
