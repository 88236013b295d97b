package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/repositories"
	"github.com/vkivaturi/traffis/internal/storage"
	"github.com/vkivaturi/traffis/internal/timeutil"
)

var withSampleData bool

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the events schema",
	Long:  `Create the events table on the configured backend, optionally seeding sample data`,
	RunE:  runInitDB,
}

func init() {
	initdbCmd.Flags().BoolVar(&withSampleData, "sample", false, "insert sample events after creating the schema")
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := storage.CreateSchema(ctx, store, cfg.Events.AllowedTypes); err != nil {
		return err
	}
	log.Info().Str("backend", store.Dialect().Name).Msg("Events table ready")

	if !withSampleData {
		return nil
	}

	repo := repositories.NewEventRepository(store)
	now := time.Now().UTC()
	samples := []struct {
		lat, lng float64
		end      time.Duration
		note     string
		typ      string
	}{
		{17.415275, 78.481654, time.Hour, "Heavy traffic on main road", "active"},
		{17.420000, 78.485000, 2 * time.Hour, "Construction work ahead", "active"},
		{17.410000, 78.475000, 30 * time.Minute, "Minor slowdown", "active"},
		{17.425000, 78.490000, 0, "Clear roads", "inactive"},
	}

	inserted := 0
	for _, s := range samples {
		lat, lng := s.lat, s.lng
		input := models.EventInput{
			Latitude:  &lat,
			Longitude: &lng,
			StartTime: timeutil.Format(now),
			Note:      s.note,
			Type:      s.typ,
		}
		if s.end > 0 {
			input.EndTime = timeutil.Format(now.Add(s.end))
		}
		id, err := repo.Create(ctx, input)
		if err != nil {
			log.Error().Err(err).Str("note", s.note).Msg("Failed to insert sample event")
			continue
		}
		log.Info().Int64("id", id).Str("note", s.note).Msg("Inserted sample event")
		inserted++
	}

	log.Info().Int("inserted", inserted).Msg("Database initialization completed")
	return nil
}
