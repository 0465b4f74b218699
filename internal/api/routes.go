package api

import (
	"time"

	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/metrics"
	"github.com/bilgisen/newsinsight/internal/middleware"
	"github.com/bilgisen/newsinsight/internal/studio"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Deps are the services the HTTP surface is built on
type Deps struct {
	Config    *config.Config
	Studio    *studio.Studio
	Exporter  Exporter
	Installer Installer
	Metrics   *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
	Clock     func() time.Time
}

// NewApp creates the fiber app with middleware and all routes.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "newsinsight",
		ReadTimeout:           d.Config.HTTPTimeout,
		WriteTimeout:          d.Config.HTTPTimeout,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             int(d.Config.MaxUploadSize) + 1<<20,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	var rec middleware.RequestRecorder
	if d.Metrics != nil {
		rec = d.Metrics
	}
	app.Use(middleware.RequestLogger(rec))

	SetupRoutes(app, d)
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, d Deps) {
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	handlers := &Handlers{
		config:    d.Config,
		studio:    d.Studio,
		exporter:  d.Exporter,
		installer: d.Installer,
		log:       d.Logger,
		started:   now(),
		now:       now,
	}

	app.Get("/manifest.webmanifest", handlers.Manifest)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(d.Gatherer)))
	}

	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)
	api.Get("/diagnostics", handlers.Diagnostics)

	// Editor
	api.Get("/state", handlers.GetState)
	api.Post("/generate", middleware.ValidateBody[GenerateRequest](), handlers.Generate)
	api.Patch("/post", middleware.ValidateBody[UpdatePostRequest](), handlers.UpdatePost)
	api.Post("/post/image", handlers.UploadImage)
	api.Post("/post/logo", handlers.UploadLogo)
	api.Put("/tab", middleware.ValidateBody[TabRequest](), handlers.SetTab)

	// Preview and download
	api.Get("/preview", handlers.Preview)
	api.Post("/export", handlers.Export)

	// Installability
	install := api.Group("/install")
	{
		install.Get("", handlers.InstallStatus)
		install.Post("", handlers.RequestInstall)
		install.Post("/installed", handlers.Installed)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
