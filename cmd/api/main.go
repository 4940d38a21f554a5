package main

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportapi/docs"
	"reportapi/internal/config"
	"reportapi/internal/database"
	"reportapi/internal/database/migration"
	handlers "reportapi/internal/http/handler"
	"reportapi/internal/http/middleware"
	"reportapi/internal/otel"
	"reportapi/internal/repository"
	"reportapi/internal/repository/postgres"
	"reportapi/internal/service"
	"reportapi/internal/storage"
	"reportapi/internal/store"
)

// @title Report API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	shutdown, err := otel.Init(context.Background(), time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdown(context.Background())

	// Optional ingestion audit log (enabled when DB_HOST is set)
	var db *sql.DB
	var audit repository.IngestionRepository
	if cfg.Database.Host != "" {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(context.Background(), db, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		audit = postgres.NewIngestionPostgres(db)
	}

	// Optional S3-compatible result mirror (enabled when MINIO_ENDPOINT is set)
	var mirror storage.Mirror
	if cfg.MinIO.Endpoint != "" {
		mirror, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	st := store.New(cfg.ProjectsDir)
	svc := service.NewProjectService(st, mirror, audit, cfg.LessVerbose)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	reg := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMw.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, svc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
