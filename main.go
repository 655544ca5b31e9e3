package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

// NewRouter builds the gin engine with the request middleware chain and
// the five to-do routes.
func NewRouter(cfg Config, store *Store) *gin.Engine {
	r := gin.Default()

	// Tracing middleware
	r.Use(otelgin.Middleware(cfg.ServiceName))

	// Custom middlewares
	r.Use(SessionMiddleware(store))
	r.Use(MetricsMiddleware())

	// Routes
	r.POST("/todos/", PostTodo)
	r.GET("/todos/", GetTodos)
	r.GET("/todos/:id", GetTodo)
	r.PUT("/todos/:id", PutTodo)
	r.DELETE("/todos/:id", DeleteTodo)

	return r
}

func main() {
	cfg, err := ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	// Open the SQLite store and ensure the todos table exists
	store, err := OpenStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	// Initialize tracing
	tp, err := OTLPTracerProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	otel.SetTracerProvider(tp)

	// Initialize metrics
	mp, err := OTLPMetricsProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down meter provider: %v", err)
		}
	}()

	// Setup runtime metrics collection
	if err := SetupRuntimeMetrics(); err != nil {
		log.Printf("Error setting up runtime metrics: %v", err)
	}

	r := NewRouter(cfg, store)
	r.Run()
}
