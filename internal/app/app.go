// Package app wires configuration, observability, the database connection and
// the build pipeline into a single generator run.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"rds-graphql/internal/config"
	"rds-graphql/internal/emit"
	"rds-graphql/internal/introspection"
	"rds-graphql/internal/logging"
	"rds-graphql/internal/observability"
	"rds-graphql/internal/schemabuild"
)

// App owns the resources of one generator run.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	database       string
	databaseSource string

	loggerProvider *observability.LoggerProvider
	tracerProvider *observability.TracerProvider
	meterProvider  *observability.MeterProvider
	buildMetrics   *observability.BuildMetrics

	db         *sql.DB
	dbStatsReg interface{ Unregister() error }

	// openDB replaces connectDB when set.
	openDB func(dsn string) (*sql.DB, error)
	stdout io.Writer

	cleanup      cleanupStack
	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	database, source, err := cfg.Database.EffectiveDatabaseName()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database configuration: %w", err)
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		database:       database,
		databaseSource: source,
		stdout:         os.Stdout,
	}, nil
}

// AttachLoggerProvider hands ownership of an OTLP logger provider to the app
// so it is flushed on Shutdown.
func (a *App) AttachLoggerProvider(lp *observability.LoggerProvider) {
	if lp == nil {
		return
	}
	a.loggerProvider = lp
	a.cleanup.push("logger provider", func(ctx context.Context) error {
		return lp.Shutdown(ctx, a.logger.Logger)
	})
}

// Run introspects the configured database and writes or prints the artifacts.
// Build metrics are written even when the build fails.
func (a *App) Run(ctx context.Context) (*schemabuild.Result, error) {
	if err := a.initObservability(); err != nil {
		return nil, err
	}

	result, err := a.build(ctx)
	if metricsErr := a.writeMetrics(); metricsErr != nil {
		a.logger.Warn("failed to write metrics textfile", slog.String("error", metricsErr.Error()))
	}
	if err != nil {
		return nil, err
	}

	if a.cfg.Output.PrintSchema {
		if _, err := io.WriteString(a.stdout, result.SDL); err != nil {
			return nil, fmt.Errorf("failed to print schema: %w", err)
		}
		return result, nil
	}

	emitter := emit.New(emit.Config{
		Dir:            a.cfg.Output.Dir,
		SchemaFile:     a.cfg.Output.SchemaFile,
		ResolversDir:   a.cfg.Output.ResolversDir,
		ManifestFile:   a.cfg.Output.ManifestFile,
		DataSourceName: a.cfg.Output.DataSourceName,
	}, a.logger.Logger)
	if _, err := emitter.Write(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *App) initObservability() error {
	tracerProvider, err := initTracing(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tracerProvider != nil {
		a.tracerProvider = tracerProvider
		a.cleanup.push("tracer provider", func(ctx context.Context) error {
			return tracerProvider.Shutdown(ctx, a.logger.Logger)
		})
	}

	meterProvider, buildMetrics, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if meterProvider != nil {
		a.meterProvider = meterProvider
		a.cleanup.push("meter provider", func(ctx context.Context) error {
			return meterProvider.Shutdown(ctx, a.logger.Logger)
		})
	}
	a.buildMetrics = buildMetrics
	return nil
}

func (a *App) build(ctx context.Context) (*schemabuild.Result, error) {
	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	ctx = logging.WithLogger(ctx, a.logger)
	reader := introspection.NewMySQLReader(a.db, a.logger.Logger)
	return schemabuild.Build(ctx, schemabuild.Config{
		Reader:         reader,
		Database:       a.database,
		Filters:        a.cfg.SchemaFilters,
		Naming:         a.cfg.Naming,
		ValidateSchema: a.cfg.Build.ValidateSchema,
		Metrics:        a.buildMetrics,
	})
}

func (a *App) connect(ctx context.Context) error {
	dsn, err := a.cfg.Database.DSN()
	if err != nil {
		return err
	}

	var db *sql.DB
	if a.openDB != nil {
		db, err = a.openDB(dsn)
	} else {
		db, a.dbStatsReg, err = connectDB(a.cfg, a.logger, dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.cleanup.push("database", func(context.Context) error {
		if a.dbStatsReg != nil {
			_ = a.dbStatsReg.Unregister()
		}
		return db.Close()
	})

	// A single pinned connection is all introspection needs.
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if timeout := a.cfg.Database.ConnectTimeout; timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database not available: %w", err)
	}

	a.logger.Info("connected to database",
		slog.String("database_effective", a.database),
		slog.String("database_source", a.databaseSource),
		slog.Bool("dsn_present", a.cfg.Database.ConnectionString != ""),
	)
	return nil
}

func (a *App) writeMetrics() error {
	if a.meterProvider == nil || a.cfg.Observability.MetricsTextfile == "" {
		return nil
	}
	if err := a.meterProvider.WriteTextfile(a.cfg.Observability.MetricsTextfile); err != nil {
		return err
	}
	a.logger.Debug("metrics textfile written", slog.String("path", a.cfg.Observability.MetricsTextfile))
	return nil
}

// cleanupStack manages shutdown functions in LIFO order.
// Resources are released in reverse order of acquisition.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) {
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if logger != nil {
			logger.Debug("shutting down " + item.name)
		}
		if err := item.fn(ctx); err != nil && logger != nil {
			logger.Warn("cleanup error",
				slog.String("component", item.name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Shutdown releases all acquired resources. It is safe to call multiple times.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		a.cleanup.run(shutdownCtx, a.logger)
	})
	return nil
}
