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
	"github.com/vkivaturi/traffis/internal/repositories"
	"github.com/vkivaturi/traffis/internal/storage"
	"github.com/vkivaturi/traffis/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the retention worker",
	Long:  `Start the background worker that prunes events past their retention window`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	repo := repositories.NewEventRepository(store)
	return worker.Run(ctx, repo, cfg.Events)
}
