package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BuildMetrics holds the metrics recorded for each schema build.
type BuildMetrics struct {
	buildCounter  metric.Int64Counter
	errorCounter  metric.Int64Counter
	durationHist  metric.Float64Histogram
	tablesCounter metric.Int64Counter
}

// InitBuildMetrics initializes build metrics on the global meter provider.
// Without a configured provider the instruments are no-ops.
func InitBuildMetrics(logger *slog.Logger) (*BuildMetrics, error) {
	meter := otel.Meter("rds-graphql")

	buildCounter, err := meter.Int64Counter(
		"schema.build.total",
		metric.WithDescription("Total number of schema build attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"schema.build.errors.total",
		metric.WithDescription("Total number of failed schema builds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build error counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"schema.build.duration",
		metric.WithDescription("Duration of schema builds in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build duration histogram: %w", err)
	}

	tablesCounter, err := meter.Int64Counter(
		"schema.build.tables.total",
		metric.WithDescription("Total number of tables compiled into schemas"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build tables counter: %w", err)
	}

	if logger != nil {
		logger.Debug("schema build metrics initialized")
	}
	return &BuildMetrics{
		buildCounter:  buildCounter,
		errorCounter:  errorCounter,
		durationHist:  durationHist,
		tablesCounter: tablesCounter,
	}, nil
}

// RecordBuild records one build attempt against a database.
// tables is only counted for successful builds.
func (m *BuildMetrics) RecordBuild(ctx context.Context, database string, duration time.Duration, tables int, success bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("database", database),
		attribute.Bool("success", success),
	}

	m.buildCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("database", database)))
		return
	}

	m.tablesCounter.Add(ctx, int64(tables), metric.WithAttributes(attribute.String("database", database)))
}
