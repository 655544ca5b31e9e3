package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// OTLPTracerProvider builds a tracer provider backed by the OTLP HTTP
// exporter. The endpoint is configured via OTEL_EXPORTER_OTLP_TRACES_ENDPOINT
// or defaults to http://localhost:4318/v1/traces.
func OTLPTracerProvider(cfg Config) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		)),
	)
	return tp, nil
}

// OTLPMetricsProvider builds a meter provider that pushes metrics over
// OTLP HTTP every 30 seconds.
func OTLPMetricsProvider(cfg Config) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(context.Background())
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(30*time.Second),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		)),
	)

	otel.SetMeterProvider(provider)
	return provider, nil
}

// SetupRuntimeMetrics starts Go runtime metric collection on the global
// meter provider.
func SetupRuntimeMetrics() error {
	return runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second))
}

// SessionMiddleware opens one storage session per request, injects it into
// the request context, and guarantees release on every exit path. Writes
// not committed by the handler are rolled back.
func SessionMiddleware(store *Store) gin.HandlerFunc {
	tracer := otel.Tracer("session-middleware")

	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "OpenSession")
		sess, err := store.OpenSession(ctx)
		if err != nil {
			span.RecordError(err)
			span.End()
			c.AbortWithStatusJSON(http.StatusInternalServerError, err)
			return
		}
		span.End()
		defer func() {
			_ = sess.Close()
		}()

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), "todoSession", sess))
		c.Next()
	}
}

// MetricsMiddleware records a request counter and duration histogram for
// every request.
func MetricsMiddleware() gin.HandlerFunc {
	meter := otel.Meter("todo-api-metrics")

	requestCounter, _ := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		attrs := []attribute.KeyValue{
			attribute.String("method", c.Request.Method),
			attribute.String("route", c.FullPath()),
			attribute.Int("status_code", c.Writer.Status()),
		}

		requestCounter.Add(c.Request.Context(), 1, metric.WithAttributes(attrs...))
		requestDuration.Record(c.Request.Context(), duration, metric.WithAttributes(attrs...))
	}
}

// GetSession fetches the request-scoped storage session placed by
// SessionMiddleware.
func GetSession(c *gin.Context) (*Session, error) {
	sessInt := c.Request.Context().Value("todoSession")
	if sessInt == nil {
		return nil, errors.New("no storage session")
	}
	sess, ok := sessInt.(*Session)
	if !ok {
		return nil, errors.New("storage session is not a *Session")
	}
	return sess, nil
}
