package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/database"
	"github.com/school-system/gradebook/internal/logging"
	"github.com/school-system/gradebook/internal/report"
	"github.com/school-system/gradebook/internal/services"
	"github.com/school-system/gradebook/internal/store"
)

// cleanup lists grades left behind by deleted students or subjects and removes them with --confirm.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.IsDevelopment())

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx := context.Background()
	records := services.NewRecordService(store.NewGormStore(db), cfg.Records.OrphanPolicy)

	orphans, err := records.OrphanedGrades(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load grades")
	}
	if len(orphans) == 0 {
		log.Info().Msg("No orphaned grades found")
		return
	}
	report.GradeTable(os.Stdout, orphans)

	if len(os.Args) < 2 || os.Args[1] != "--confirm" {
		log.Warn().Int("grades", len(orphans)).Msg("Orphaned grades found, run again with --confirm to delete them")
		return
	}

	removed, err := records.PruneOrphans(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("removed", removed).Msg("Cleanup failed")
	}
	log.Info().Int("removed", removed).Msg("Database cleanup completed")
}
