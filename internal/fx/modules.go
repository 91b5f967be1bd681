package fx

import (
	"database/sql"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"ladder-tracker/internal/accounts"
	"ladder-tracker/internal/config"
	"ladder-tracker/internal/database"
	"ladder-tracker/internal/engine"
	"ladder-tracker/internal/ingest"
	"ladder-tracker/internal/logger"
	"ladder-tracker/internal/replay"
	"ladder-tracker/internal/repository"
	"ladder-tracker/internal/seasons"
	"ladder-tracker/internal/server"
	"ladder-tracker/internal/service"
)

func ProvideResolver(client *accounts.Client, accountRepo *repository.AccountRepository, log zerolog.Logger) *accounts.Resolver {
	return accounts.NewResolver(client, accountRepo, log)
}

func ProvidePipeline(resolver *accounts.Resolver, games *repository.GameRepository, cfg *config.Config, log zerolog.Logger) *ingest.Pipeline {
	return ingest.NewPipeline(replay.NewMetadataDecoder(), resolver, games, cfg.MaxReplayAgeDays, log)
}

func ProvideRotator(repo *repository.SeasonRepository, svc *service.LadderService, log zerolog.Logger) *seasons.Rotator {
	return seasons.NewRotator(repo, svc, log)
}

func ProvideDB(cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	return database.New(cfg, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(ProvideDB),
	// repos
	fx.Provide(repository.NewAccountRepository),
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewSeasonRepository),
	fx.Provide(repository.NewResultRepository),
	fx.Provide(repository.NewRankingRepository),
	// account service client
	fx.Provide(accounts.NewClient),
	fx.Provide(ProvideResolver),
	// pipeline
	fx.Provide(ProvidePipeline),
	fx.Provide(engine.New),
	fx.Provide(seasons.NewLoader),
	fx.Provide(ProvideRotator),
	// svc
	fx.Provide(service.NewLadderService),
	fx.Provide(service.NewQueue),
	// server
	fx.Provide(server.NewSystemServer),
)
