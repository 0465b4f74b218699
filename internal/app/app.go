// Package app wires configuration, services and the HTTP surface together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/newsinsight/internal/ai"
	"github.com/bilgisen/newsinsight/internal/api"
	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/export"
	"github.com/bilgisen/newsinsight/internal/logger"
	"github.com/bilgisen/newsinsight/internal/media"
	"github.com/bilgisen/newsinsight/internal/metrics"
	"github.com/bilgisen/newsinsight/internal/shell"
	"github.com/bilgisen/newsinsight/internal/studio"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// App holds the long-lived services of one editing session
type App struct {
	Config    *config.Config
	Studio    *studio.Studio
	Exporter  *export.Exporter
	Installer *shell.ManifestInstaller
	Metrics   *metrics.Collector
	Registry  *prometheus.Registry
	log       zerolog.Logger
}

// New builds the application from cfg. extraSinks are added after the
// sinks configured through the environment.
func New(ctx context.Context, cfg *config.Config, extraSinks ...export.Sink) (*App, error) {
	log := logger.Component("app")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	var limiter *rate.Limiter
	if cfg.AIRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AIRateLimit)), 2)
	}
	gemini := ai.NewGeminiClient(ai.Options{
		APIKey:     cfg.AIApiKey,
		Model:      cfg.AIModel,
		ImageModel: cfg.AIImageModel,
		BaseURL:    cfg.AIBaseURL,
		Timeout:    cfg.AITimeout,
		Limiter:    limiter,
		Logger:     logger.Component("ai"),
	})

	st := studio.New(studio.Options{
		Generator:  gemini,
		Credential: cfg.AIApiKey,
		Logger:     logger.Component("studio"),
		Recorder:   collector,
	})

	fetcher := media.NewFetcher(media.FetcherOptions{
		Timeout:      cfg.MediaTimeout,
		MaxSize:      cfg.MaxMediaSize,
		AllowPrivate: cfg.MediaAllowPrivate,
	})
	capturer, err := export.NewCapturer(export.CaptureOptions{
		FontRegular: cfg.FontRegular,
		FontBold:    cfg.FontBold,
		Loader:      fetcher,
		Logger:      logger.Component("capture"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capturer: %w", err)
	}

	sinks, err := configuredSinks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, extraSinks...)

	a := &App{
		Config:    cfg,
		Studio:    st,
		Exporter:  export.NewExporter(capturer, logger.Component("export"), collector, sinks...),
		Installer: shell.NewManifestInstaller(),
		Metrics:   collector,
		Registry:  reg,
		log:       log,
	}

	log.Info().
		Bool("credential_configured", cfg.CredentialConfigured()).
		Str("model", cfg.AIModel).
		Strs("sinks", a.Exporter.Sinks()).
		Msg("Application initialized")
	if !cfg.CredentialConfigured() {
		log.Warn().Msg("GEMINI_API_KEY is not configured, generation will be rejected")
	}
	return a, nil
}

func configuredSinks(ctx context.Context, cfg *config.Config) ([]export.Sink, error) {
	var sinks []export.Sink
	if cfg.ExportDir != "" {
		local, err := export.NewLocalSink(cfg.ExportDir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, local)
	}
	if cfg.R2Enabled() {
		r2, err := export.NewR2Sink(ctx, export.R2Options{
			Endpoint:  cfg.R2Endpoint,
			AccountID: cfg.R2AccountID,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			Prefix:    cfg.R2Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize r2 sink: %w", err)
		}
		sinks = append(sinks, r2)
	}
	return sinks, nil
}

// HTTP returns the fiber app serving the editor surface.
func (a *App) HTTP() *fiber.App {
	return api.NewApp(api.Deps{
		Config:    a.Config,
		Studio:    a.Studio,
		Exporter:  a.Exporter,
		Installer: a.Installer,
		Metrics:   a.Metrics,
		Gatherer:  a.Registry,
		Logger:    logger.Component("api"),
	})
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// the server down within the configured timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := a.HTTP()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.Config.Port).Msg("Starting server")
		errCh <- srv.Listen(":" + a.Config.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info().Msg("Server exited properly")
	return nil
}

// Close ends the editing session. In-flight generation results are dropped.
func (a *App) Close() {
	a.Studio.Close()
}
