package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/api"
	"github.com/vkivaturi/traffis/internal/cache"
	"github.com/vkivaturi/traffis/internal/llm"
	"github.com/vkivaturi/traffis/internal/metrics"
	"github.com/vkivaturi/traffis/internal/repositories"
	"github.com/vkivaturi/traffis/internal/services"
	"github.com/vkivaturi/traffis/internal/storage"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that records and serves traffic events`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// The store is built once and injected; its teardown is scoped to
	// process shutdown.
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Str("backend", store.Dialect().Name).Msg("Storage backend ready")

	listCache, err := cache.NewEventCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		listCache, _ = cache.NewEventCache(config.RedisConfig{Enabled: false})
	}
	defer listCache.Close()

	metricsCollector := metrics.NewMetrics()

	repo := repositories.NewEventRepository(store)
	drafter := llm.NewClient(cfg.LLM)
	eventService := services.NewEventService(repo, listCache, drafter, metricsCollector, cfg.Events)

	server := api.NewServer(cfg, eventService, metricsCollector)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
