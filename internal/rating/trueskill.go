package rating

import (
	"github.com/mafredri/go-trueskill"
)

const (
	trueskillMu    = 25.0
	trueskillSigma = trueskillMu / 3.0
)

type trueskillRating struct {
	player  trueskill.Player
	display int
}

func (r trueskillRating) DisplayValue() int {
	return r.display
}

// TrueSkill wraps the two-player no-draw configuration. The display value is
// the conservative skill estimate scaled to the ladder's integer range.
type TrueSkill struct {
	ts trueskill.Config
}

func NewTrueSkill() Model {
	return &TrueSkill{ts: trueskill.New(trueskill.DrawProbabilityZero())}
}

func (t *TrueSkill) wrap(p trueskill.Player) trueskillRating {
	return trueskillRating{player: p, display: clampDisplay(t.ts.TrueSkill(p) * 100)}
}

func (t *TrueSkill) DefaultRating() Rating {
	return t.wrap(trueskill.NewPlayer(trueskillMu, trueskillSigma))
}

func (t *TrueSkill) RecordResult(winner, loser Rating) (Rating, Rating) {
	w := winner.(trueskillRating)
	l := loser.(trueskillRating)
	adjusted, _ := t.ts.AdjustSkills([]trueskill.Player{w.player, l.player}, false)
	return t.wrap(adjusted[0]), t.wrap(adjusted[1])
}

func (t *TrueSkill) CommitWin(_, posterior Rating) Rating  { return posterior }
func (t *TrueSkill) CommitLoss(_, posterior Rating) Rating { return posterior }
func (t *TrueSkill) StrictEligibility() bool               { return false }
