// Command ladder is the batch entry point: it takes the update lock, syncs
// season descriptors, ingests new match sources, rotates ended seasons and
// recomputes standings. Intended to run from cron next to the server.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/gofrs/flock"

	"ladder-tracker/internal/accounts"
	"ladder-tracker/internal/config"
	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/database"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/engine"
	"ladder-tracker/internal/ingest"
	"ladder-tracker/internal/logger"
	"ladder-tracker/internal/replay"
	"ladder-tracker/internal/repository"
	"ladder-tracker/internal/seasons"
	"ladder-tracker/internal/service"
)

func main() {
	log := logger.New()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	dbPath := flag.String("d", cfg.DBPath, "path to the ladder database")
	mod := flag.String("m", "ra", "mod to update")
	period := flag.String("p", "", "additional season to recompute, e.g. s07")
	bansFile := flag.String("bans-file", cfg.BansFile, "path to the flat ban list")
	replayRoot := flag.String("replays", cfg.ReplayRoot, "root directory of match sources")
	logLevel := flag.String("l", cfg.LogLevel, "log level")
	flag.Parse()

	cfg.DBPath = *dbPath
	cfg.BansFile = *bansFile
	cfg.ReplayRoot = *replayRoot
	log = logger.WithLevel(*logLevel)

	// One updater per database. A second concurrent run would interleave
	// replace-range writes for the same season.
	lock := flock.New(cfg.DBPath + ".lock")
	lockCtx, cancel := context.WithTimeout(context.Background(), cfg.LockTimeout)
	locked, err := lock.TryLockContext(lockCtx, constants.LockRetryDelay)
	cancel()
	if err != nil || !locked {
		log.Error().Err(err).Str("lock", lock.Path()).Msg("another update is running, aborting")
		os.Exit(1)
	}
	defer lock.Unlock()

	db, err := database.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db, log)
	gameRepo := repository.NewGameRepository(db, log)
	seasonRepo := repository.NewSeasonRepository(db, log)
	resultRepo := repository.NewResultRepository(db, log)
	rankingRepo := repository.NewRankingRepository(db, log)

	resolver := accounts.NewResolver(accounts.NewClient(cfg), accountRepo, log)
	pipeline := ingest.NewPipeline(replay.NewMetadataDecoder(), resolver, gameRepo, cfg.MaxReplayAgeDays, log)
	svc := service.NewLadderService(cfg, seasonRepo, gameRepo, accountRepo, resultRepo, rankingRepo,
		resolver, pipeline, engine.New(log), log)
	rotator := seasons.NewRotator(seasonRepo, svc, log)

	ctx, cancel := context.WithTimeout(context.Background(), constants.RecomputeTimeout)
	defer cancel()

	configs, err := seasons.LoadConfigDir(cfg.SeasonConfigDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load season configs")
	}
	loader := seasons.NewLoader(seasonRepo, log)
	if err := loader.Sync(ctx, configs); err != nil {
		log.Fatal().Err(err).Msg("failed to sync season configs")
	}

	report, err := svc.RunIngest(ctx, *mod)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().
		Str("run_id", report.RunID).
		Int("accepted", report.Accepted).
		Int("dropped", report.Dropped).
		Int("quarantined", report.Quarantined).
		Msg("update finished")

	if *period != "" {
		id, err := domain.ParseSeasonID(*period)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid season id")
		}
		if err := svc.RecomputeSeason(ctx, *mod, id); err != nil {
			log.Fatal().Err(err).Str("season", id.String()).Msg("recompute failed")
		}
	}

	rotated, err := rotator.Rotate(ctx, *mod)
	if err != nil {
		log.Fatal().Err(err).Msg("season rotation failed")
	}
	if rotated {
		log.Info().Str("mod", *mod).Msg("season rotated")
	}
}
