// Package emit writes build artifacts to disk: the schema document, one
// request and one response mapping template per resolver, and a YAML manifest
// describing how templates attach to the data source.
package emit

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	mt "rds-graphql/internal/mappingtemplate"
	"rds-graphql/internal/resolvergen"
	"rds-graphql/internal/schemabuild"
)

// ManifestVersion identifies the manifest layout.
const ManifestVersion = 1

const (
	defaultSchemaFile     = "schema.graphql"
	defaultResolversDir   = "resolvers"
	defaultManifestFile   = "resolvers.yaml"
	defaultDataSourceName = "RDSDataSource"
)

// Config controls where artifacts are written. Paths other than Dir are
// relative to Dir.
type Config struct {
	Dir            string
	SchemaFile     string
	ResolversDir   string
	ManifestFile   string
	DataSourceName string
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.SchemaFile == "" {
		c.SchemaFile = defaultSchemaFile
	}
	if c.ResolversDir == "" {
		c.ResolversDir = defaultResolversDir
	}
	if c.ManifestFile == "" {
		c.ManifestFile = defaultManifestFile
	}
	if c.DataSourceName == "" {
		c.DataSourceName = defaultDataSourceName
	}
	return c
}

// Manifest lists every emitted resolver.
type Manifest struct {
	Version        int                `yaml:"version"`
	BuildID        string             `yaml:"build_id"`
	GeneratedAt    time.Time          `yaml:"generated_at"`
	Database       string             `yaml:"database"`
	DataSourceName string             `yaml:"data_source_name"`
	Schema         string             `yaml:"schema"`
	Resolvers      []ManifestResolver `yaml:"resolvers"`
}

// ManifestResolver ties one root field to its template files.
type ManifestResolver struct {
	Type      string `yaml:"type"`
	Field     string `yaml:"field"`
	Operation string `yaml:"operation"`
	Table     string `yaml:"table"`
	Request   string `yaml:"request"`
	Response  string `yaml:"response"`
}

// Emitter writes a build result under a directory.
type Emitter struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New creates an emitter with defaults applied to cfg.
func New(cfg Config, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// RequestTemplatePath returns the request template path for a resolver,
// relative to the output directory.
func (e *Emitter) RequestTemplatePath(r resolvergen.Resolver) string {
	return filepath.Join(e.cfg.ResolversDir, r.Key()+".req.vtl")
}

// ResponseTemplatePath returns the response template path for a resolver,
// relative to the output directory.
func (e *Emitter) ResponseTemplatePath(r resolvergen.Resolver) string {
	return filepath.Join(e.cfg.ResolversDir, r.Key()+".res.vtl")
}

// Write emits the schema, every template pair and the manifest. Existing
// files with the same names are overwritten.
func (e *Emitter) Write(result *schemabuild.Result) (*Manifest, error) {
	if result == nil {
		return nil, fmt.Errorf("emit requires a build result")
	}
	if err := os.MkdirAll(filepath.Join(e.cfg.Dir, e.cfg.ResolversDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.writeFile(e.cfg.SchemaFile, result.SDL); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:        ManifestVersion,
		BuildID:        e.newID(),
		GeneratedAt:    e.now().UTC(),
		Database:       result.Database,
		DataSourceName: e.cfg.DataSourceName,
		Schema:         filepath.ToSlash(e.cfg.SchemaFile),
	}
	for _, tr := range result.Resolvers {
		for _, r := range tr.All() {
			reqPath := e.RequestTemplatePath(r)
			resPath := e.ResponseTemplatePath(r)
			if err := e.writeFile(reqPath, mt.Print(r.Request)); err != nil {
				return nil, err
			}
			if err := e.writeFile(resPath, mt.Print(r.Response)); err != nil {
				return nil, err
			}
			manifest.Resolvers = append(manifest.Resolvers, ManifestResolver{
				Type:      r.TypeName,
				Field:     r.FieldName,
				Operation: string(r.Operation),
				Table:     r.TableName,
				Request:   filepath.ToSlash(reqPath),
				Response:  filepath.ToSlash(resPath),
			})
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := e.writeFile(e.cfg.ManifestFile, buf.String()); err != nil {
		return nil, err
	}

	e.logger.Info("artifacts written",
		slog.String("dir", e.cfg.Dir),
		slog.String("build_id", manifest.BuildID),
		slog.Int("resolvers", len(manifest.Resolvers)),
	)
	return manifest, nil
}

func (e *Emitter) writeFile(rel, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	path := filepath.Join(e.cfg.Dir, rel)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	e.logger.Debug("artifact written", slog.String("path", path))
	return nil
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}
