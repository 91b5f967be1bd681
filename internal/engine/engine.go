// Package engine drives the per-season ranking computation: a chronological
// replay of match records through a rating model, producing committed player
// aggregates and one immutable Outcome per match.
package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/ledger"
	"ladder-tracker/internal/rating"
)

type Engine struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Compute replays games in non-decreasing end-time order (ties broken by
// hash) through the model. The first pass chains raw posteriors over
// engine-local working ratings so every match sees up-to-date priors; the
// second pass applies the model's commit policy against the committed
// aggregate and emits the Outcome. Matches with a banned participant are
// excluded entirely. Every participant must already be registered in the
// ledger.
func (e *Engine) Compute(games []domain.Game, model rating.Model, led *ledger.Ledger) ([]*ledger.Player, []domain.Outcome, error) {
	ordered := make([]domain.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].EndTime.Equal(ordered[j].EndTime) {
			return ordered[i].EndTime.Before(ordered[j].EndTime)
		}
		return ordered[i].Hash < ordered[j].Hash
	})

	type rawResult struct {
		winner rating.Rating
		loser  rating.Rating
		skip   bool
	}

	working := make(map[int64]rating.Rating)
	workingFor := func(profileID int64) rating.Rating {
		if r, ok := working[profileID]; ok {
			return r
		}
		return model.DefaultRating()
	}

	raws := make([]rawResult, len(ordered))
	for i, g := range ordered {
		p0, ok0 := led.ByID(g.ProfileID0)
		p1, ok1 := led.ByID(g.ProfileID1)
		if !ok0 || !ok1 {
			return nil, nil, fmt.Errorf("engine: game %s references unregistered profile", g.Hash)
		}
		if p0.Banned || p1.Banned {
			e.logger.Debug().Str("hash", g.Hash).Msg("skipping game with banned participant")
			raws[i] = rawResult{skip: true}
			continue
		}

		w, l := model.RecordResult(workingFor(g.ProfileID0), workingFor(g.ProfileID1))
		working[g.ProfileID0] = w
		working[g.ProfileID1] = l
		raws[i] = rawResult{winner: w, loser: l}
	}

	outcomes := make([]domain.Outcome, 0, len(ordered))
	for i, g := range ordered {
		if raws[i].skip {
			continue
		}
		p0, _ := led.ByID(g.ProfileID0)
		p1, _ := led.ByID(g.ProfileID1)

		p0.UpdateRating(model.CommitWin(p0.Rating, raws[i].winner))
		p1.UpdateRating(model.CommitLoss(p1.Rating, raws[i].loser))
		p0.Wins++
		p1.Losses++

		outcomes = append(outcomes, buildOutcome(g, p0, p1))
	}

	return led.Players(), outcomes, nil
}

func buildOutcome(g domain.Game, p0, p1 *ledger.Player) domain.Outcome {
	return domain.Outcome{
		Hash:             g.Hash,
		StartTime:        g.StartTime,
		EndTime:          g.EndTime,
		Filename:         g.Filename,
		ProfileID0:       p0.ProfileID,
		ProfileID1:       p1.ProfileID,
		Rating0Pre:       p0.PrvRating.DisplayValue(),
		Rating1Pre:       p1.PrvRating.DisplayValue(),
		Rating0Post:      p0.Rating.DisplayValue(),
		Rating1Post:      p1.Rating.DisplayValue(),
		Faction0:         g.Faction0,
		Faction1:         g.Faction1,
		SelectedFaction0: g.SelectedFaction0,
		SelectedFaction1: g.SelectedFaction1,
		MapUID:           g.MapUID,
		MapTitle:         g.MapTitle,
	}
}
