// Package service orchestrates the ladder pipeline: ingestion runs, season
// recomputation and the rotation check, each computed fully in memory before
// any persisted rows are replaced.
package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/accounts"
	"ladder-tracker/internal/banlist"
	"ladder-tracker/internal/config"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/engine"
	"ladder-tracker/internal/ingest"
	"ladder-tracker/internal/ledger"
	"ladder-tracker/internal/ranking"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"
)

type LadderService struct {
	cfg      *config.Config
	seasons  *repository.SeasonRepository
	games    *repository.GameRepository
	accounts *repository.AccountRepository
	results  *repository.ResultRepository
	rankings *repository.RankingRepository
	resolver *accounts.Resolver
	pipeline *ingest.Pipeline
	engine   *engine.Engine
	logger   zerolog.Logger
	now      func() time.Time
}

func NewLadderService(
	cfg *config.Config,
	seasons *repository.SeasonRepository,
	games *repository.GameRepository,
	accountRepo *repository.AccountRepository,
	results *repository.ResultRepository,
	rankings *repository.RankingRepository,
	resolver *accounts.Resolver,
	pipeline *ingest.Pipeline,
	eng *engine.Engine,
	logger zerolog.Logger,
) *LadderService {
	return &LadderService{
		cfg:      cfg,
		seasons:  seasons,
		games:    games,
		accounts: accountRepo,
		results:  results,
		rankings: rankings,
		resolver: resolver,
		pipeline: pipeline,
		engine:   eng,
		logger:   logger,
		now:      time.Now,
	}
}

// RunIngest scans the mod's source root for new games and recomputes the
// rolling season with whatever was accepted.
func (s *LadderService) RunIngest(ctx context.Context, mod string) (domain.IngestReport, error) {
	season, err := s.seasons.Get(ctx, mod, domain.RollingSeasonID())
	if err != nil {
		return domain.IngestReport{}, err
	}

	root := season.ReplayPath
	if root == "" {
		root = filepath.Join(s.cfg.ReplayRoot, mod)
	}

	if err := s.resolver.Warm(ctx); err != nil {
		return domain.IngestReport{}, err
	}

	report, err := s.pipeline.Ingest(ctx, mod, root)
	if err != nil {
		return report, err
	}

	return report, s.RecomputeSeason(ctx, mod, season.ID)
}

// RecomputeSeason rebuilds one season's players, outcomes, ratings and
// ranking from its stored games. All rows are computed in memory first, then
// written as two replace-range transactions.
func (s *LadderService) RecomputeSeason(ctx context.Context, mod string, id domain.SeasonID) error {
	started := time.Now()
	logger := s.logger.With().Str("mod", mod).Str("season", id.String()).Logger()

	season, err := s.seasons.Get(ctx, mod, id)
	if err != nil {
		return err
	}

	// A season whose end date has passed stops handing out provisional
	// ranks, whether or not rotation ever touches it.
	if season.Active && dayOf(s.now()).After(dayOf(season.End)) {
		if err := s.seasons.SetActive(ctx, mod, id, false); err != nil {
			return err
		}
		season.Active = false
		logger.Info().Msg("season end passed, marked inactive")
	}

	if err := s.refreshBans(ctx); err != nil {
		return err
	}

	games, err := s.games.ForSeason(ctx, mod, season.Start, season.End.AddDate(0, 0, 1))
	if err != nil {
		return err
	}

	model, err := rating.New(season.Algorithm)
	if err != nil {
		return err
	}

	led := ledger.New(model, s.resolver)
	accs, err := s.accounts.All(ctx)
	if err != nil {
		return err
	}
	for _, acc := range accs {
		led.Add(acc)
	}

	aggregates, outcomes, err := s.engine.Compute(games, model, led)
	if err != nil {
		return err
	}

	banned, err := s.accounts.BannedProfileIDs(ctx)
	if err != nil {
		return err
	}

	// Only profiles with at least one counted outcome belong in the table;
	// deriving the set from the raw games would rank banned players and
	// players whose every game was ban-excluded.
	participants := make(map[int64]bool)
	for _, o := range outcomes {
		participants[o.ProfileID0] = true
		participants[o.ProfileID1] = true
	}

	var players []domain.Player
	var rankRows []domain.RankingRow
	for _, p := range aggregates {
		if p.Banned || !participants[p.ProfileID] {
			continue
		}
		players = append(players, p.Row())

		eligible, comment := true, ""
		if season.StrictEligibility {
			eligible, comment = ranking.Eligible(games, banned, p.ProfileID)
		}
		rankRows = append(rankRows, domain.RankingRow{
			ProfileID:  p.ProfileID,
			SeasonID:   id.String(),
			Mod:        mod,
			Eligible:   eligible,
			Comment:    comment,
			Wins:       p.Wins,
			Losses:     p.Losses,
			Rating:     p.Rating.DisplayValue(),
			Difference: p.Rating.DisplayValue() - p.PrvRating.DisplayValue(),
		})
	}
	ranking.AssignRanks(rankRows, season.Active)

	ratings := make([]domain.RatingRow, 0, len(outcomes)*2)
	for _, o := range outcomes {
		ratings = append(ratings,
			domain.RatingRow{
				ReplayHash: o.Hash,
				SeasonID:   id.String(),
				Mod:        mod,
				ProfileID:  o.ProfileID0,
				Value:      o.Rating0Post,
				Difference: o.Rating0Post - o.Rating0Pre,
			},
			domain.RatingRow{
				ReplayHash: o.Hash,
				SeasonID:   id.String(),
				Mod:        mod,
				ProfileID:  o.ProfileID1,
				Value:      o.Rating1Post,
				Difference: o.Rating1Post - o.Rating1Pre,
			})
	}

	if err := s.results.ReplaceSeason(ctx, mod, id, players, outcomes, ratings); err != nil {
		return err
	}
	if err := s.rankings.ReplaceSeason(ctx, mod, id, rankRows); err != nil {
		return err
	}

	logger.Info().
		Int("games", len(games)).
		Int("players", len(players)).
		Dur("elapsed", time.Since(started)).
		Msg("season recomputed")
	return nil
}

// Mods returns every mod with at least one configured season.
func (s *LadderService) Mods(ctx context.Context) ([]string, error) {
	all, err := s.seasons.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var mods []string
	for _, season := range all {
		if !seen[season.Mod] {
			seen[season.Mod] = true
			mods = append(mods, season.Mod)
		}
	}
	return mods, nil
}

// refreshBans reloads the flat ban source into the accounts table so banned
// flags are current before a computation run.
func (s *LadderService) refreshBans(ctx context.Context) error {
	if s.cfg.BansFile == "" {
		return nil
	}
	banned, err := banlist.Load(s.cfg.BansFile)
	if err != nil {
		return err
	}
	return s.accounts.SetBanned(ctx, banned)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
